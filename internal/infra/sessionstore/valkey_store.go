package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/assessment-portal/internal/domain/session"
)

// ValkeyStore persists session state in a Valkey-compatible database.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "portal"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// Load implements session.Store.
func (s *ValkeyStore) Load(ctx context.Context, id string) (session.State, bool, error) {
	if id == "" {
		return session.State{}, false, nil
	}
	resp := s.client.Do(ctx, s.client.B().Get().Key(s.stateKey(id)).Build())
	payload, err := resp.ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return session.State{}, false, nil
		}
		return session.State{}, false, err
	}
	var state session.State
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return session.State{}, false, err
	}
	return state, true, nil
}

// Save implements session.Store. Valkey expires the key after ttl.
func (s *ValkeyStore) Save(ctx context.Context, state session.State, ttl time.Duration) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.stateKey(state.ID)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

// Delete implements session.Store.
func (s *ValkeyStore) Delete(ctx context.Context, id string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.stateKey(id)).Build()).Error()
}

// Sweep is a no-op; Valkey expires keys itself.
func (s *ValkeyStore) Sweep(context.Context) (int, error) {
	return 0, nil
}

func (s *ValkeyStore) stateKey(id string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, id)
}

var _ session.Store = (*ValkeyStore)(nil)
