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

type FlashcardHandler struct {
	log              *logger.Logger
	flashcardService services.FlashcardService
}

func NewFlashcardHandler(log *logger.Logger, flashcardService services.FlashcardService) *FlashcardHandler {
	return &FlashcardHandler{
		log:              log.With("handler", "FlashcardHandler"),
		flashcardService: flashcardService,
	}
}

func (h *FlashcardHandler) ListSessions(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	sessions, err := h.flashcardService.ListSessions(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"sessions": sessions})
}

func (h *FlashcardHandler) OpenSession(c *gin.Context) {
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
	rec, err := h.flashcardService.OpenSession(c.Request.Context(), rd.UserID, sessionID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}

func (h *FlashcardHandler) DeleteSession(c *gin.Context) {
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
	if err := h.flashcardService.DeleteSession(c.Request.Context(), rd.UserID, sessionID); err != nil {
		RespondError(c, http.StatusBadRequest, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"status": "deleted"})
}

type generateDeckRequest struct {
	Topic     string `json:"topic" binding:"required"`
	CardCount int    `json:"card_count"`
}

func (h *FlashcardHandler) Generate(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	var req generateDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rec, err := h.flashcardService.Generate(c.Request.Context(), rd.UserID, req.Topic, req.CardCount)
	if err != nil {
		RespondGenerationError(c, err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}

type markKnownRequest struct {
	CardID string `json:"card_id" binding:"required"`
	Known  bool   `json:"known"`
}

func (h *FlashcardHandler) MarkKnown(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	var req markKnownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rec, err := h.flashcardService.MarkKnown(c.Request.Context(), rd.UserID, req.CardID, req.Known)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "mark_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}

func (h *FlashcardHandler) Navigate(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rec, err := h.flashcardService.Navigate(c.Request.Context(), rd.UserID, req.Index)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "navigate_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}

func (h *FlashcardHandler) ResetProgress(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	rec, err := h.flashcardService.ResetProgress(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "reset_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}
