package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/requestdata"
	"github.com/parastudy/parastudy-backend/internal/types"
)

type fakeAuthService struct {
	userID uuid.UUID
	fail   bool
}

func (f *fakeAuthService) RegisterUser(ctx context.Context, user *types.User) error { return nil }
func (f *fakeAuthService) LoginUser(ctx context.Context, email, password string) (string, string, *types.User, error) {
	return "", "", nil, nil
}
func (f *fakeAuthService) RefreshUser(ctx context.Context) (string, string, error) {
	return "", "", nil
}
func (f *fakeAuthService) LogoutUser(ctx context.Context) error { return nil }
func (f *fakeAuthService) IsAdmin(email string) bool            { return false }
func (f *fakeAuthService) GetAccessTTL() time.Duration          { return time.Hour }

func (f *fakeAuthService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if f.fail {
		return ctx, fmt.Errorf("bad token")
	}
	return requestdata.WithRequestData(ctx, &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      f.userID,
	}), nil
}

func newTestRouter(svc *fakeAuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	mw := NewAuthMiddleware(logger.NewNop(), svc)
	r := gin.New()
	r.GET("/protected", mw.RequireAuth(), func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": rd.UserID})
	})
	return r
}

func TestRequireAuthMissingToken(t *testing.T) {
	r := newTestRouter(&fakeAuthService{userID: uuid.New()})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuthBearerHeader(t *testing.T) {
	r := newTestRouter(&fakeAuthService{userID: uuid.New()})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestRequireAuthQueryToken(t *testing.T) {
	r := newTestRouter(&fakeAuthService{userID: uuid.New()})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected?token=sometoken", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	r := newTestRouter(&fakeAuthService{fail: true})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer broken")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuthRejectsNilUser(t *testing.T) {
	r := newTestRouter(&fakeAuthService{userID: uuid.Nil})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
