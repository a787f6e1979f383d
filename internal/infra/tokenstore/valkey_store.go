package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/assessment-portal/internal/domain/account"
)

// ValkeyStore keeps sealed tokens in a Valkey hash per session and publishes
// change events on a per-session channel.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
	sealer *Sealer
	logger *slog.Logger
}

// NewValkeyStore constructs the store. A nil sealer stores values as given.
func NewValkeyStore(client valkey.Client, prefix string, ttl time.Duration, sealer *Sealer, logger *slog.Logger) *ValkeyStore {
	if prefix == "" {
		prefix = "portal"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ValkeyStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		sealer: sealer,
		logger: logger.With("component", "tokenstore.valkey"),
	}
}

// ForSession implements Provider.
func (s *ValkeyStore) ForSession(id string) Session {
	return scoped{b: s, sid: id}
}

func (s *ValkeyStore) get(ctx context.Context, sid, key string) (string, bool, error) {
	resp := s.client.Do(ctx, s.client.B().Hget().Key(s.hashKey(sid)).Field(key).Build())
	raw, err := resp.ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	if s.sealer == nil {
		return raw, true, nil
	}
	value, err := s.sealer.Open(raw)
	if err != nil {
		return "", false, fmt.Errorf("open token %q: %w", key, err)
	}
	return value, true, nil
}

func (s *ValkeyStore) set(ctx context.Context, sid, key, value string) error {
	stored := value
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(value)
		if err != nil {
			return err
		}
		stored = sealed
	}
	hashKey := s.hashKey(sid)
	cmds := valkey.Commands{
		s.client.B().Hset().Key(hashKey).FieldValue().FieldValue(key, stored).Build(),
	}
	if s.ttl > 0 {
		cmds = append(cmds, s.client.B().Expire().Key(hashKey).Seconds(int64(s.ttl/time.Second)).Build())
	}
	for _, resp := range s.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return err
		}
	}
	s.publish(ctx, sid, account.StorageEvent{Key: key})
	return nil
}

func (s *ValkeyStore) remove(ctx context.Context, sid string, keys []string) error {
	hashKey := s.hashKey(sid)
	for _, key := range keys {
		n, err := s.client.Do(ctx, s.client.B().Hdel().Key(hashKey).Field(key).Build()).AsInt64()
		if err != nil {
			return err
		}
		if n > 0 {
			s.publish(ctx, sid, account.StorageEvent{Key: key, Removed: true})
		}
	}
	return nil
}

func (s *ValkeyStore) watch(ctx context.Context, sid string) (<-chan account.StorageEvent, error) {
	ch := make(chan account.StorageEvent, watchBuffer)
	subscribe := s.client.B().Subscribe().Channel(s.channel(sid)).Build()
	go func() {
		defer close(ch)
		err := s.client.Receive(ctx, subscribe, func(msg valkey.PubSubMessage) {
			var ev account.StorageEvent
			if err := json.Unmarshal([]byte(msg.Message), &ev); err != nil {
				s.logger.Warn("malformed storage event", "error", err)
				return
			}
			select {
			case ch <- ev:
			default:
			}
		})
		if err != nil && ctx.Err() == nil {
			s.logger.Error("storage event subscription ended", "error", err)
		}
	}()
	return ch, nil
}

func (s *ValkeyStore) publish(ctx context.Context, sid string, ev account.StorageEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	cmd := s.client.B().Publish().Channel(s.channel(sid)).Message(string(payload)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		s.logger.Warn("storage event publish failed", "key", ev.Key, "error", err)
	}
}

func (s *ValkeyStore) hashKey(sid string) string {
	return fmt.Sprintf("%s:tokens:%s", s.prefix, sid)
}

func (s *ValkeyStore) channel(sid string) string {
	return fmt.Sprintf("%s:tokens:%s:events", s.prefix, sid)
}

var _ Provider = (*ValkeyStore)(nil)
