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

type ChatHandler struct {
	log         *logger.Logger
	chatService services.ChatService
}

func NewChatHandler(log *logger.Logger, chatService services.ChatService) *ChatHandler {
	return &ChatHandler{
		log:         log.With("handler", "ChatHandler"),
		chatService: chatService,
	}
}

func (h *ChatHandler) ListSessions(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	sessions, err := h.chatService.ListSessions(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"sessions": sessions})
}

func (h *ChatHandler) OpenSession(c *gin.Context) {
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
	rec, err := h.chatService.OpenSession(c.Request.Context(), rd.UserID, sessionID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}

func (h *ChatHandler) StartSession(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	rec, err := h.chatService.StartSession(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "start_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}

type renameRequest struct {
	Title string `json:"title" binding:"required"`
}

func (h *ChatHandler) RenameSession(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rec, err := h.chatService.RenameSession(c.Request.Context(), rd.UserID, req.Title)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "rename_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}

func (h *ChatHandler) DeleteSession(c *gin.Context) {
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
	if err := h.chatService.DeleteSession(c.Request.Context(), rd.UserID, sessionID); err != nil {
		RespondError(c, http.StatusBadRequest, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"status": "deleted"})
}

type sendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rec, err := h.chatService.SendMessage(c.Request.Context(), rd.UserID, req.Message)
	if err != nil {
		RespondGenerationError(c, err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}
