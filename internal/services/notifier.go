package services

import (
	"context"

	"github.com/google/uuid"

	redisbus "github.com/parastudy/parastudy-backend/internal/clients/redis"
	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/sse"
)

// StudyNotifier pushes study events to the user's SSE stream, and through
// the Redis bus when one is configured so other instances see them too.
type StudyNotifier interface {
	Emit(userID uuid.UUID, event sse.SSEEvent, data any)
}

type studyNotifier struct {
	log *logger.Logger
	hub *sse.SSEHub
	bus redisbus.EventBus
}

func NewStudyNotifier(log *logger.Logger, hub *sse.SSEHub, bus redisbus.EventBus) StudyNotifier {
	return &studyNotifier{
		log: log.With("service", "StudyNotifier"),
		hub: hub,
		bus: bus,
	}
}

func (n *studyNotifier) Emit(userID uuid.UUID, event sse.SSEEvent, data any) {
	msg := sse.SSEMessage{
		Channel: sse.UserChannel(userID),
		Event:   event,
		Data:    data,
	}
	if n.hub != nil {
		n.hub.Broadcast(msg)
	}
	if n.bus != nil {
		if err := n.bus.Publish(context.Background(), msg); err != nil {
			n.log.Warn("Failed to publish event to redis", "event", string(event), "error", err)
		}
	}
}
