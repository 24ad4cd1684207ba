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

type MindMapHandler struct {
	log            *logger.Logger
	mindMapService services.MindMapService
}

func NewMindMapHandler(log *logger.Logger, mindMapService services.MindMapService) *MindMapHandler {
	return &MindMapHandler{
		log:            log.With("handler", "MindMapHandler"),
		mindMapService: mindMapService,
	}
}

func (h *MindMapHandler) ListSessions(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	sessions, err := h.mindMapService.ListSessions(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"sessions": sessions})
}

func (h *MindMapHandler) OpenSession(c *gin.Context) {
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
	view, err := h.mindMapService.OpenSession(c.Request.Context(), rd.UserID, sessionID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	RespondOK(c, view)
}

func (h *MindMapHandler) DeleteSession(c *gin.Context) {
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
	if err := h.mindMapService.DeleteSession(c.Request.Context(), rd.UserID, sessionID); err != nil {
		RespondError(c, http.StatusBadRequest, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"status": "deleted"})
}

type generateMindMapRequest struct {
	Topic string `json:"topic" binding:"required"`
}

func (h *MindMapHandler) Generate(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	var req generateMindMapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	view, err := h.mindMapService.Generate(c.Request.Context(), rd.UserID, req.Topic)
	if err != nil {
		RespondGenerationError(c, err)
		return
	}
	RespondOK(c, view)
}
