package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parastudy/parastudy-backend/internal/clients/gemini"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondGenerationError maps model failures onto HTTP statuses; quota
// exhaustion gets its own code so clients can show the dedicated notice.
func RespondGenerationError(c *gin.Context, err error) {
	if gemini.IsQuotaError(err) {
		RespondError(c, http.StatusTooManyRequests, "quota_exceeded", err)
		return
	}
	RespondError(c, http.StatusBadGateway, "generation_failed", err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
