package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/requestdata"
	"github.com/parastudy/parastudy-backend/internal/sse"
)

type SSEHandler struct {
	log *logger.Logger
	hub *sse.SSEHub
}

func NewSSEHandler(log *logger.Logger, hub *sse.SSEHub) *SSEHandler {
	return &SSEHandler{
		log: log.With("handler", "SSEHandler"),
		hub: hub,
	}
}

// Stream keeps an event-stream connection open, subscribed to the
// authenticated user's channel.
func (h *SSEHandler) Stream(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	client := h.hub.NewSSEClient(rd.UserID)
	h.hub.AddChannel(client, sse.UserChannel(rd.UserID))
	defer h.hub.RemoveClient(client)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
