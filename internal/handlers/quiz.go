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

type QuizHandler struct {
	log         *logger.Logger
	quizService services.QuizService
}

func NewQuizHandler(log *logger.Logger, quizService services.QuizService) *QuizHandler {
	return &QuizHandler{
		log:         log.With("handler", "QuizHandler"),
		quizService: quizService,
	}
}

func (h *QuizHandler) ListSessions(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	sessions, err := h.quizService.ListSessions(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"sessions": sessions})
}

func (h *QuizHandler) OpenSession(c *gin.Context) {
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
	rec, err := h.quizService.OpenSession(c.Request.Context(), rd.UserID, sessionID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}

func (h *QuizHandler) DeleteSession(c *gin.Context) {
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
	if err := h.quizService.DeleteSession(c.Request.Context(), rd.UserID, sessionID); err != nil {
		RespondError(c, http.StatusBadRequest, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"status": "deleted"})
}

type generateQuizRequest struct {
	Topic         string `json:"topic" binding:"required"`
	QuestionCount int    `json:"question_count"`
}

func (h *QuizHandler) Generate(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	var req generateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rec, err := h.quizService.Generate(c.Request.Context(), rd.UserID, req.Topic, req.QuestionCount)
	if err != nil {
		RespondGenerationError(c, err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}

type selectAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
	Selected   []int  `json:"selected"`
}

func (h *QuizHandler) SelectAnswer(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	var req selectAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rec, err := h.quizService.SelectAnswer(c.Request.Context(), rd.UserID, req.QuestionID, req.Selected)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "answer_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}

type navigateRequest struct {
	Index int `json:"index"`
}

func (h *QuizHandler) Navigate(c *gin.Context) {
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
	rec, err := h.quizService.Navigate(c.Request.Context(), rd.UserID, req.Index)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "navigate_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}

func (h *QuizHandler) Finish(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	rec, err := h.quizService.Finish(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "finish_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}

func (h *QuizHandler) Restart(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	rec, err := h.quizService.Restart(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "restart_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": rec})
}
