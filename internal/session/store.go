// Package session implements the one reconciliation discipline shared by
// every study feature: the active session's state is held in memory,
// mutated synchronously through pure payload transforms, and mirrored to
// the persistence collaborator with fire-and-forget merge writes. The
// remote record fully wins on re-hydration and last write wins on the
// wire; there is no merge and no conflict detection. What the store does
// guard against is a late-arriving async result (a slow generation call,
// a stale write) touching a session that has since been replaced: every
// state change bumps a generation counter and stale completions are
// dropped.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/types"
)

// Records is the persistence collaborator: one document per session,
// scoped per user and feature, with get-all, get-one, merge-upsert and
// delete by id.
type Records interface {
	GetByID(ctx context.Context, id uuid.UUID) (*types.StudySession, error)
	ListByUserFeature(ctx context.Context, userID uuid.UUID, feature types.Feature) ([]*types.StudySession, error)
	CountByUserFeature(ctx context.Context, userID uuid.UUID, feature types.Feature) (int64, error)
	Upsert(ctx context.Context, rec *types.StudySession) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// Config parameterizes a store for one feature.
type Config[P any] struct {
	Feature types.Feature
	// Empty builds a fresh payload for new or reset sessions.
	Empty func() P
	// Derive recomputes the progress field from the full payload.
	// Optional; nil leaves progress at 0.
	Derive func(P) int
	// ReplaceLastOnDelete keeps the record of the only remaining session
	// and swaps in an empty payload instead of deleting it (chat rule).
	ReplaceLastOnDelete bool
}

// Store reconciles the single active session of one (user, feature) pair.
type Store[P any] struct {
	log     *logger.Logger
	records Records
	cfg     Config[P]
	userID  uuid.UUID

	mu         sync.Mutex
	active     *types.StudySession
	payload    P
	generation uint64

	writes sync.WaitGroup
}

func NewStore[P any](log *logger.Logger, records Records, cfg Config[P], userID uuid.UUID) *Store[P] {
	return &Store[P]{
		log:     log.With("component", "SessionStore", "feature", string(cfg.Feature), "user_id", userID),
		records: records,
		cfg:     cfg,
		userID:  userID,
	}
}

// Generation returns the current state version. Callers snapshot it
// before starting an async operation and pass it back to ApplyIfCurrent.
func (s *Store[P]) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Active returns a copy of the active record and its decoded payload.
func (s *Store[P]) Active() (*types.StudySession, P, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero P
	if s.active == nil {
		return nil, zero, false
	}
	rec := *s.active
	return &rec, s.payload, true
}

// Open re-hydrates the store from the remote record. The remote payload
// wins entirely; any local draft is discarded.
func (s *Store[P]) Open(ctx context.Context, id uuid.UUID) (*types.StudySession, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if rec.UserID != s.userID {
		return nil, fmt.Errorf("session %s does not belong to user", id)
	}
	payload := s.cfg.Empty()
	if len(rec.Payload) > 0 {
		if err := json.Unmarshal(rec.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode session payload: %w", err)
		}
	}
	s.mu.Lock()
	s.active = rec
	s.payload = payload
	s.generation++
	s.mu.Unlock()
	return rec, nil
}

// StartNew creates a fresh session, makes it the active one and persists
// it in the background.
func (s *Store[P]) StartNew(title string) (*types.StudySession, error) {
	payload := s.cfg.Empty()
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	now := time.Now().UTC()
	rec := &types.StudySession{
		ID:        uuid.New(),
		UserID:    s.userID,
		Feature:   s.cfg.Feature,
		Title:     title,
		Payload:   raw,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if s.cfg.Derive != nil {
		rec.Progress = s.cfg.Derive(payload)
	}

	s.mu.Lock()
	s.active = rec
	s.payload = payload
	s.generation++
	gen := s.generation
	snapshot := *rec
	s.mu.Unlock()

	s.persistAsync(gen, &snapshot)
	return rec, nil
}

// Mutate applies a pure transform to the active payload, recomputes the
// derived fields from scratch, updates local state synchronously and
// issues a fire-and-forget upsert of the full record.
func (s *Store[P]) Mutate(transform func(P) P) (*types.StudySession, error) {
	s.mu.Lock()
	snapshot, gen, err := s.mutateLocked(transform)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.persistAsync(gen, snapshot)
	rec := *snapshot
	return &rec, nil
}

// mutateLocked is the core of Mutate; the caller holds s.mu.
func (s *Store[P]) mutateLocked(transform func(P) P) (*types.StudySession, uint64, error) {
	if s.active == nil {
		return nil, 0, fmt.Errorf("no active %s session", s.cfg.Feature)
	}
	next := transform(s.payload)
	raw, err := json.Marshal(next)
	if err != nil {
		return nil, 0, fmt.Errorf("encode payload: %w", err)
	}
	s.payload = next
	s.active.Payload = raw
	if s.cfg.Derive != nil {
		s.active.Progress = s.cfg.Derive(next)
	}
	if now := time.Now().UTC(); now.After(s.active.UpdatedAt) {
		s.active.UpdatedAt = now
	}
	s.generation++
	snapshot := *s.active
	return &snapshot, s.generation, nil
}

// ApplyIfCurrent runs a mutation only when the store's state has not
// moved since gen was snapshotted. A false return means the result
// arrived too late and was dropped.
func (s *Store[P]) ApplyIfCurrent(gen uint64, transform func(P) P) (*types.StudySession, bool) {
	s.mu.Lock()
	if s.active == nil || s.generation != gen {
		s.mu.Unlock()
		s.log.Debug("Dropping stale async result", "have_generation", gen)
		return nil, false
	}
	snapshot, newGen, err := s.mutateLocked(transform)
	s.mu.Unlock()
	if err != nil {
		return nil, false
	}
	s.persistAsync(newGen, snapshot)
	rec := *snapshot
	return &rec, true
}

// Rename updates the session title.
func (s *Store[P]) Rename(title string) (*types.StudySession, error) {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("no active %s session", s.cfg.Feature)
	}
	s.active.Title = title
	if now := time.Now().UTC(); now.After(s.active.UpdatedAt) {
		s.active.UpdatedAt = now
	}
	s.generation++
	gen := s.generation
	snapshot := *s.active
	s.mu.Unlock()

	s.persistAsync(gen, &snapshot)
	rec := snapshot
	return &rec, nil
}

// Reset swaps the active payload for an empty one, keeping the record.
func (s *Store[P]) Reset() (*types.StudySession, error) {
	return s.Mutate(func(P) P { return s.cfg.Empty() })
}

// Delete removes a session. When configured with ReplaceLastOnDelete and
// the target is the only remaining session of the feature, the record is
// kept and its payload replaced with an empty one so the feature never
// has zero sessions.
func (s *Store[P]) Delete(ctx context.Context, id uuid.UUID) (*types.StudySession, error) {
	if s.cfg.ReplaceLastOnDelete {
		count, err := s.records.CountByUserFeature(ctx, s.userID, s.cfg.Feature)
		if err != nil {
			return nil, fmt.Errorf("count sessions: %w", err)
		}
		if count <= 1 {
			if _, err := s.Open(ctx, id); err != nil {
				return nil, err
			}
			return s.Reset()
		}
	}

	if err := s.records.DeleteByID(ctx, id); err != nil {
		return nil, fmt.Errorf("delete session %s: %w", id, err)
	}
	s.mu.Lock()
	if s.active != nil && s.active.ID == id {
		s.active = nil
		var zero P
		s.payload = zero
		s.generation++
	}
	s.mu.Unlock()
	return nil, nil
}

// Wait blocks until in-flight background writes finish. Used by tests
// and shutdown.
func (s *Store[P]) Wait() {
	s.writes.Wait()
}

// persistAsync mirrors the snapshot to the records collaborator without
// blocking the caller. Failures are logged and swallowed: the next
// mutation re-persists the latest state anyway. A snapshot superseded by
// a newer generation before the write starts is skipped.
func (s *Store[P]) persistAsync(gen uint64, snapshot *types.StudySession) {
	s.writes.Add(1)
	go func() {
		defer s.writes.Done()

		s.mu.Lock()
		superseded := s.generation != gen
		s.mu.Unlock()
		if superseded {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.records.Upsert(ctx, snapshot); err != nil {
			s.log.Warn("Session persist failed (state kept locally)", "session_id", snapshot.ID, "error", err)
		}
	}()
}
