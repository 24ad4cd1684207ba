package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/requestdata"
	"github.com/parastudy/parastudy-backend/internal/services"
)

type MnemonicHandler struct {
	log             *logger.Logger
	mnemonicService services.MnemonicService
}

func NewMnemonicHandler(log *logger.Logger, mnemonicService services.MnemonicService) *MnemonicHandler {
	return &MnemonicHandler{
		log:             log.With("handler", "MnemonicHandler"),
		mnemonicService: mnemonicService,
	}
}

func (h *MnemonicHandler) ListSessions(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	sessions, err := h.mnemonicService.ListSessions(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"sessions": sessions})
}

func (h *MnemonicHandler) OpenSession(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	rec, err := h.mnemonicService.OpenSession(c.Request.Context(), rd.UserID, sessionID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}

func (h *MnemonicHandler) DeleteSession(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.mnemonicService.DeleteSession(c.Request.Context(), rd.UserID, sessionID); err != nil {
		RespondError(c, http.StatusBadRequest, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"status": "deleted"})
}

type generateMnemonicRequest struct {
	Topic string `json:"topic" binding:"required"`
}

func (h *MnemonicHandler) Generate(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	var req generateMnemonicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rec, err := h.mnemonicService.Generate(c.Request.Context(), rd.UserID, req.Topic)
	if err != nil {
		RespondGenerationError(c, err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}
