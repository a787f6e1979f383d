// Package session holds the per-browser wizard state the portal persists
// between requests.
package session

import (
	"context"
	"net/url"
	"time"

	"github.com/yanqian/assessment-portal/internal/domain/assessment"
)

// State is one browser session's progress through the assessment.
type State struct {
	ID        string                 `json:"id"`
	Step      int                    `json:"step"`
	Values    url.Values             `json:"values"`
	Result    *assessment.ResultView `json:"result,omitempty"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// New returns a fresh state at the first step.
func New(id string, now time.Time) State {
	return State{ID: id, Values: url.Values{}, UpdatedAt: now}
}

// Reset discards progress and any result.
func (s *State) Reset(now time.Time) {
	s.Step = 0
	s.Values = url.Values{}
	s.Result = nil
	s.UpdatedAt = now
}

// Store persists session state.
type Store interface {
	Load(ctx context.Context, id string) (State, bool, error)
	Save(ctx context.Context, state State, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
