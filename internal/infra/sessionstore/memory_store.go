package sessionstore

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/yanqian/assessment-portal/internal/domain/session"
	"github.com/yanqian/assessment-portal/pkg/util"
)

type stateRecord struct {
	state     session.State
	expiresAt time.Time
}

// MemoryStore keeps session state in process memory for tests/dev.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]stateRecord
	now    util.Clock
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]stateRecord),
		now:    util.NowUTC,
	}
}

// Load implements session.Store.
func (s *MemoryStore) Load(_ context.Context, id string) (session.State, bool, error) {
	if id == "" {
		return session.State{}, false, nil
	}
	s.mu.RLock()
	record, ok := s.states[id]
	s.mu.RUnlock()
	if !ok {
		return session.State{}, false, nil
	}
	if s.expired(record.expiresAt) {
		s.mu.Lock()
		delete(s.states, id)
		s.mu.Unlock()
		return session.State{}, false, nil
	}
	return cloneState(record.state), true, nil
}

// Save implements session.Store with an optional TTL.
func (s *MemoryStore) Save(_ context.Context, state session.State, ttl time.Duration) error {
	exp := time.Time{}
	if ttl > 0 {
		exp = s.now.OrNow().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.ID] = stateRecord{state: cloneState(state), expiresAt: exp}
	return nil
}

// Delete implements session.Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, id)
	return nil
}

// Sweep evicts expired sessions and returns how many were removed.
func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, record := range s.states {
		if s.expired(record.expiresAt) {
			delete(s.states, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) expired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(s.now.OrNow())
}

func cloneState(in session.State) session.State {
	out := in
	out.Values = make(url.Values, len(in.Values))
	for k, v := range in.Values {
		out.Values[k] = append([]string(nil), v...)
	}
	if in.Result != nil {
		r := *in.Result
		out.Result = &r
	}
	return out
}

var _ session.Store = (*MemoryStore)(nil)
