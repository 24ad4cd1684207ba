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

type ChecklistHandler struct {
	log              *logger.Logger
	checklistService services.ChecklistService
}

func NewChecklistHandler(log *logger.Logger, checklistService services.ChecklistService) *ChecklistHandler {
	return &ChecklistHandler{
		log:              log.With("handler", "ChecklistHandler"),
		checklistService: checklistService,
	}
}

func (h *ChecklistHandler) ListSessions(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	sessions, err := h.checklistService.ListSessions(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"sessions": sessions})
}

func (h *ChecklistHandler) OpenSession(c *gin.Context) {
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
	rec, err := h.checklistService.OpenSession(c.Request.Context(), rd.UserID, sessionID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}

func (h *ChecklistHandler) DeleteSession(c *gin.Context) {
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
	if err := h.checklistService.DeleteSession(c.Request.Context(), rd.UserID, sessionID); err != nil {
		RespondError(c, http.StatusBadRequest, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"status": "deleted"})
}

type generateChecklistRequest struct {
	Topic string `json:"topic" binding:"required"`
}

func (h *ChecklistHandler) Generate(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	var req generateChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rec, err := h.checklistService.Generate(c.Request.Context(), rd.UserID, req.Topic)
	if err != nil {
		RespondGenerationError(c, err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}

type toggleItemRequest struct {
	ItemID    string `json:"item_id" binding:"required"`
	Completed bool   `json:"completed"`
}

func (h *ChecklistHandler) Toggle(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	var req toggleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rec, err := h.checklistService.Toggle(c.Request.Context(), rd.UserID, req.ItemID, req.Completed)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "toggle_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}

func (h *ChecklistHandler) Reset(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	rec, err := h.checklistService.Reset(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "reset_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}
