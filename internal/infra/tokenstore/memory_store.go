package tokenstore

import (
	"context"
	"sync"

	"github.com/yanqian/assessment-portal/internal/domain/account"
)

// MemoryStore keeps tokens in process memory for tests/dev.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]map[string]string
	subs   map[string]map[int]chan account.StorageEvent
	nextID int
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]map[string]string),
		subs:   make(map[string]map[int]chan account.StorageEvent),
	}
}

// ForSession implements Provider.
func (m *MemoryStore) ForSession(id string) Session {
	return scoped{b: m, sid: id}
}

// Drop forgets every token of a session.
func (m *MemoryStore) Drop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, id)
}

func (m *MemoryStore) get(_ context.Context, sid, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[sid][key]
	return v, ok, nil
}

func (m *MemoryStore) set(_ context.Context, sid, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	values, ok := m.values[sid]
	if !ok {
		values = make(map[string]string)
		m.values[sid] = values
	}
	if old, exists := values[key]; exists && old == value {
		return nil
	}
	values[key] = value
	m.publishLocked(sid, account.StorageEvent{Key: key})
	return nil
}

func (m *MemoryStore) remove(_ context.Context, sid string, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	values := m.values[sid]
	for _, key := range keys {
		if _, ok := values[key]; !ok {
			continue
		}
		delete(values, key)
		m.publishLocked(sid, account.StorageEvent{Key: key, Removed: true})
	}
	return nil
}

func (m *MemoryStore) watch(ctx context.Context, sid string) (<-chan account.StorageEvent, error) {
	ch := make(chan account.StorageEvent, watchBuffer)
	m.mu.Lock()
	subs, ok := m.subs[sid]
	if !ok {
		subs = make(map[int]chan account.StorageEvent)
		m.subs[sid] = subs
	}
	id := m.nextID
	m.nextID++
	subs[id] = ch
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs[sid], id)
		if len(m.subs[sid]) == 0 {
			delete(m.subs, sid)
		}
		close(ch)
		m.mu.Unlock()
	}()
	return ch, nil
}

// publishLocked drops the event for subscribers that are not keeping up.
func (m *MemoryStore) publishLocked(sid string, ev account.StorageEvent) {
	for _, ch := range m.subs[sid] {
		select {
		case ch <- ev:
		default:
		}
	}
}

var _ Provider = (*MemoryStore)(nil)
