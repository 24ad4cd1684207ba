package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/types"
)

// Manager hands out the per-user store of one feature, enforcing the
// one-active-session-per-user invariant server side.
type Manager[P any] struct {
	log     *logger.Logger
	records Records
	cfg     Config[P]

	mu     sync.Mutex
	stores map[uuid.UUID]*Store[P]
}

func NewManager[P any](log *logger.Logger, records Records, cfg Config[P]) *Manager[P] {
	return &Manager[P]{
		log:     log,
		records: records,
		cfg:     cfg,
		stores:  make(map[uuid.UUID]*Store[P]),
	}
}

func (m *Manager[P]) For(userID uuid.UUID) *Store[P] {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stores[userID]
	if !ok {
		st = NewStore(m.log, m.records, m.cfg, userID)
		m.stores[userID] = st
	}
	return st
}

// List returns every stored session of the feature for the user, newest
// first, straight from the records collaborator.
func (m *Manager[P]) List(ctx context.Context, userID uuid.UUID) ([]*types.StudySession, error) {
	return m.records.ListByUserFeature(ctx, userID, m.cfg.Feature)
}
