package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/parastudy/parastudy-backend/internal/db"
	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/repos"
	"github.com/parastudy/parastudy-backend/internal/requestdata"
	"github.com/parastudy/parastudy-backend/internal/types"
)

func newAuthFixture(t *testing.T) AuthService {
	t.Helper()
	log := logger.NewNop()
	dbsvc, err := db.NewDatabaseService(log, "sqlite", filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := dbsvc.AutoMigrateAll(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewAuthService(
		dbsvc.DB(), log,
		repos.NewUserRepo(dbsvc.DB(), log),
		repos.NewUserTokenRepo(dbsvc.DB(), log),
		"testsecret", time.Hour, 24*time.Hour, nil,
	)
}

func registerAndLogin(t *testing.T, auth AuthService, email string) string {
	t.Helper()
	ctx := context.Background()
	if err := auth.RegisterUser(ctx, &types.User{
		Email:     email,
		Password:  "motdepasse",
		FirstName: "Jean",
		LastName:  "Dupont",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, refresh, _, err := auth.LoginUser(ctx, email, "motdepasse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return refresh
}

func refreshCtx(token string) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{RefreshToken: token})
}

func TestRefreshRotationSurvivesChainedRefreshes(t *testing.T) {
	auth := newAuthFixture(t)
	refresh1 := registerAndLogin(t, auth, "jean@example.com")

	_, refresh2, err := auth.RefreshUser(refreshCtx(refresh1))
	if err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if refresh2 == refresh1 {
		t.Fatal("expected a rotated refresh token")
	}

	// The rotated token must be accepted on the next refresh.
	_, refresh3, err := auth.RefreshUser(refreshCtx(refresh2))
	if err != nil {
		t.Fatalf("second refresh with rotated token: %v", err)
	}
	if refresh3 == refresh2 {
		t.Fatal("expected a rotated refresh token")
	}

	// The consumed token must not work twice.
	if _, _, err := auth.RefreshUser(refreshCtx(refresh1)); err == nil {
		t.Fatal("expected consumed refresh token to be rejected")
	}
}

func TestRefreshKeepsOtherSessionsAlive(t *testing.T) {
	auth := newAuthFixture(t)
	deviceA := registerAndLogin(t, auth, "marie@example.com")

	_, deviceB, _, err := auth.LoginUser(context.Background(), "marie@example.com", "motdepasse")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	if _, _, err := auth.RefreshUser(refreshCtx(deviceA)); err != nil {
		t.Fatalf("refresh on first session: %v", err)
	}
	if _, _, err := auth.RefreshUser(refreshCtx(deviceB)); err != nil {
		t.Fatalf("second session revoked by first session's refresh: %v", err)
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	auth := newAuthFixture(t)
	refresh := registerAndLogin(t, auth, "luc@example.com")

	ctx := context.Background()
	users, err := auth.(*authService).userRepo.GetByEmails(ctx, nil, []string{"luc@example.com"})
	if err != nil || len(users) == 0 {
		t.Fatalf("load user: %v", err)
	}
	logoutCtx := requestdata.WithRequestData(ctx, &requestdata.RequestData{UserID: users[0].ID})
	if err := auth.LogoutUser(logoutCtx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, _, err := auth.RefreshUser(refreshCtx(refresh)); err == nil {
		t.Fatal("expected refresh token to be revoked by logout")
	}
}
