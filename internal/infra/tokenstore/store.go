// Package tokenstore keeps each browser session's bearer tokens and fans out
// change events to the session's open pages.
package tokenstore

import (
	"context"

	"github.com/yanqian/assessment-portal/internal/domain/account"
)

// Provider hands out token storage scoped to one browser session.
type Provider interface {
	ForSession(id string) Session
}

// Session is one browser session's token storage.
type Session interface {
	account.TokenStore
	account.Watcher
}

type backend interface {
	get(ctx context.Context, sid, key string) (string, bool, error)
	set(ctx context.Context, sid, key, value string) error
	remove(ctx context.Context, sid string, keys []string) error
	watch(ctx context.Context, sid string) (<-chan account.StorageEvent, error)
}

type scoped struct {
	b   backend
	sid string
}

func (s scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.b.get(ctx, s.sid, key)
}

func (s scoped) Set(ctx context.Context, key, value string) error {
	return s.b.set(ctx, s.sid, key, value)
}

func (s scoped) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.b.remove(ctx, s.sid, keys)
}

func (s scoped) Watch(ctx context.Context) (<-chan account.StorageEvent, error) {
	return s.b.watch(ctx, s.sid)
}

const watchBuffer = 16
