package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/types"
)

type fakeRecords struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*types.StudySession
	upserts   int
	failWrite bool
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{byID: make(map[uuid.UUID]*types.StudySession)}
}

func (f *fakeRecords) GetByID(_ context.Context, id uuid.UUID) (*types.StudySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.byID[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRecords) ListByUserFeature(_ context.Context, userID uuid.UUID, feature types.Feature) ([]*types.StudySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.StudySession
	for _, rec := range f.byID {
		if rec.UserID == userID && rec.Feature == feature {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRecords) CountByUserFeature(ctx context.Context, userID uuid.UUID, feature types.Feature) (int64, error) {
	recs, err := f.ListByUserFeature(ctx, userID, feature)
	return int64(len(recs)), err
}

func (f *fakeRecords) Upsert(_ context.Context, rec *types.StudySession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.failWrite {
		return errors.New("write refused")
	}
	cp := *rec
	f.byID[rec.ID] = &cp
	return nil
}

func (f *fakeRecords) DeleteByID(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

type counterPayload struct {
	N int `json:"n"`
}

func counterConfig(replaceLast bool) Config[counterPayload] {
	return Config[counterPayload]{
		Feature:             types.FeatureChat,
		Empty:               func() counterPayload { return counterPayload{} },
		Derive:              func(p counterPayload) int { return p.N },
		ReplaceLastOnDelete: replaceLast,
	}
}

func newTestStore(t *testing.T, records Records, replaceLast bool) *Store[counterPayload] {
	t.Helper()
	return NewStore(logger.NewNop(), records, counterConfig(replaceLast), uuid.New())
}

func TestMutatePersistsFullRecord(t *testing.T) {
	records := newFakeRecords()
	st := newTestStore(t, records, false)

	rec, err := st.StartNew("session une")
	if err != nil {
		t.Fatalf("StartNew: %v", err)
	}
	if _, err := st.Mutate(func(p counterPayload) counterPayload {
		p.N = 3
		return p
	}); err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	st.Wait()

	stored, err := records.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
	var p counterPayload
	if err := json.Unmarshal(stored.Payload, &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if p.N != 3 {
		t.Fatalf("stored payload N = %d, want 3", p.N)
	}
	if stored.Progress != 3 {
		t.Fatalf("derived progress = %d, want 3", stored.Progress)
	}
}

func TestWriteFailureIsSwallowed(t *testing.T) {
	records := newFakeRecords()
	records.failWrite = true
	st := newTestStore(t, records, false)

	if _, err := st.StartNew("offline"); err != nil {
		t.Fatalf("StartNew surfaced persistence error: %v", err)
	}
	rec, err := st.Mutate(func(p counterPayload) counterPayload {
		p.N = 1
		return p
	})
	if err != nil {
		t.Fatalf("Mutate surfaced persistence error: %v", err)
	}
	st.Wait()

	// Local state advanced despite the failed writes.
	if rec.Progress != 1 {
		t.Fatalf("local progress = %d, want 1", rec.Progress)
	}

	// The next mutation re-persists the latest state on its own.
	records.mu.Lock()
	records.failWrite = false
	records.mu.Unlock()
	if _, err := st.Mutate(func(p counterPayload) counterPayload {
		p.N = 2
		return p
	}); err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	st.Wait()
	stored, err := records.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("record not persisted after recovery: %v", err)
	}
	var p counterPayload
	if err := json.Unmarshal(stored.Payload, &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if p.N != 2 {
		t.Fatalf("stored payload N = %d, want 2", p.N)
	}
}

func TestOpenRemoteWins(t *testing.T) {
	records := newFakeRecords()
	st := newTestStore(t, records, false)

	rec, err := st.StartNew("local")
	if err != nil {
		t.Fatalf("StartNew: %v", err)
	}
	st.Wait()

	// Simulate another device having written a newer payload.
	remote, _ := records.GetByID(context.Background(), rec.ID)
	remote.Payload, _ = json.Marshal(counterPayload{N: 42})
	_ = records.Upsert(context.Background(), remote)

	// Local draft diverges, then the feature is reopened.
	if _, err := st.Mutate(func(p counterPayload) counterPayload {
		p.N = 7
		return p
	}); err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	st.Wait()
	remote.Payload, _ = json.Marshal(counterPayload{N: 42})
	_ = records.Upsert(context.Background(), remote)

	if _, err := st.Open(context.Background(), rec.ID); err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, payload, ok := st.Active()
	if !ok || payload.N != 42 {
		t.Fatalf("payload after re-hydration = %+v, want remote N=42", payload)
	}
}

func TestApplyIfCurrentDropsStaleResult(t *testing.T) {
	records := newFakeRecords()
	st := newTestStore(t, records, false)

	if _, err := st.StartNew("s"); err != nil {
		t.Fatalf("StartNew: %v", err)
	}
	gen := st.Generation()

	// A user action lands while the slow call is in flight.
	if _, err := st.Mutate(func(p counterPayload) counterPayload {
		p.N = 1
		return p
	}); err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	if _, applied := st.ApplyIfCurrent(gen, func(p counterPayload) counterPayload {
		p.N = 99
		return p
	}); applied {
		t.Fatal("stale result was applied over newer state")
	}
	_, payload, _ := st.Active()
	if payload.N != 1 {
		t.Fatalf("payload N = %d, want 1", payload.N)
	}
}

func TestApplyIfCurrentAppliesFreshResult(t *testing.T) {
	records := newFakeRecords()
	st := newTestStore(t, records, false)

	if _, err := st.StartNew("s"); err != nil {
		t.Fatalf("StartNew: %v", err)
	}
	gen := st.Generation()
	if _, applied := st.ApplyIfCurrent(gen, func(p counterPayload) counterPayload {
		p.N = 5
		return p
	}); !applied {
		t.Fatal("fresh result was dropped")
	}
	_, payload, _ := st.Active()
	if payload.N != 5 {
		t.Fatalf("payload N = %d, want 5", payload.N)
	}
}

func TestDeleteLastSessionReplacesPayload(t *testing.T) {
	records := newFakeRecords()
	st := newTestStore(t, records, true)

	rec, err := st.StartNew("seule session")
	if err != nil {
		t.Fatalf("StartNew: %v", err)
	}
	st.Wait()

	if _, err := st.Mutate(func(p counterPayload) counterPayload {
		p.N = 9
		return p
	}); err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	st.Wait()

	if _, err := st.Delete(context.Background(), rec.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	st.Wait()

	stored, err := records.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatal("last session record was removed, want payload replacement")
	}
	var p counterPayload
	if err := json.Unmarshal(stored.Payload, &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if p.N != 0 {
		t.Fatalf("payload after replace = %+v, want empty", p)
	}
	if stored.ID != rec.ID {
		t.Fatal("session id changed across replacement")
	}
}

func TestDeleteWithSiblingsRemovesRecord(t *testing.T) {
	records := newFakeRecords()
	st := newTestStore(t, records, true)

	first, err := st.StartNew("premiere")
	if err != nil {
		t.Fatalf("StartNew: %v", err)
	}
	st.Wait()
	if _, err := st.StartNew("seconde"); err != nil {
		t.Fatalf("StartNew: %v", err)
	}
	st.Wait()

	if _, err := st.Delete(context.Background(), first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := records.GetByID(context.Background(), first.ID); err == nil {
		t.Fatal("record still present after delete with a sibling remaining")
	}
}

func TestUpdatedAtNonDecreasing(t *testing.T) {
	records := newFakeRecords()
	st := newTestStore(t, records, false)

	rec, err := st.StartNew("s")
	if err != nil {
		t.Fatalf("StartNew: %v", err)
	}
	prev := rec.UpdatedAt
	for i := 0; i < 5; i++ {
		rec, err = st.Mutate(func(p counterPayload) counterPayload {
			p.N++
			return p
		})
		if err != nil {
			t.Fatalf("Mutate: %v", err)
		}
		if rec.UpdatedAt.Before(prev) {
			t.Fatalf("UpdatedAt went backwards: %v < %v", rec.UpdatedAt, prev)
		}
		prev = rec.UpdatedAt
	}
}

func TestManagerReturnsSameStorePerUser(t *testing.T) {
	records := newFakeRecords()
	m := NewManager(logger.NewNop(), records, counterConfig(false))
	user := uuid.New()
	if m.For(user) != m.For(user) {
		t.Fatal("manager built two stores for one user")
	}
	if m.For(user) == m.For(uuid.New()) {
		t.Fatal("manager shared a store across users")
	}
}
