package locations

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	apperrors "github.com/yanqian/assessment-portal/pkg/errors"
)

const (
	// QuietPeriod is how long typing must pause before a lookup is sent.
	QuietPeriod = 300 * time.Millisecond
	// MinQueryLength is the shortest trimmed query that triggers a lookup.
	MinQueryLength = 2
	// NoResultsLabel is the text of the disabled placeholder option.
	NoResultsLabel = "No results found"
)

// Lookup queries candidate locations. A nil slice with a nil error means the
// backend answered with something other than a list.
type Lookup interface {
	Locations(ctx context.Context, query string) ([]Candidate, error)
}

// ListView is the selectable candidate list.
type ListView interface {
	Clear()
	ShowCandidates(candidates []Candidate)
	ShowNoResults()
}

// Observer is notified about the debounce lifecycle.
type Observer interface {
	LookupFired(query string)
	LookupSuperseded(query string)
	LookupFailed(query string, err error)
}

type timer interface {
	Stop() bool
}

type scheduleFunc func(d time.Duration, fn func()) timer

func afterFunc(d time.Duration, fn func()) timer {
	return time.AfterFunc(d, fn)
}

// Autocompleter debounces query changes for one input. At most one lookup is
// scheduled at a time; a new keystroke replaces it. A lookup already sent is
// never cancelled, so responses may land out of order and the last one to
// arrive wins.
type Autocompleter struct {
	lookup   Lookup
	logger   *slog.Logger
	observer Observer
	delay    time.Duration
	schedule scheduleFunc

	mu      sync.Mutex
	timer   timer
	pending *Pending
}

// Option customizes an Autocompleter.
type Option func(*Autocompleter)

// WithObserver attaches lifecycle callbacks.
func WithObserver(o Observer) Option {
	return func(a *Autocompleter) { a.observer = o }
}

// WithQuietPeriod overrides the debounce window.
func WithQuietPeriod(d time.Duration) Option {
	return func(a *Autocompleter) {
		if d > 0 {
			a.delay = d
		}
	}
}

// NewAutocompleter builds the debounced client for one location input.
func NewAutocompleter(lookup Lookup, logger *slog.Logger, opts ...Option) *Autocompleter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Autocompleter{
		lookup:   lookup,
		logger:   logger.With("component", "locations.autocomplete"),
		delay:    QuietPeriod,
		schedule: afterFunc,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Pending tracks one query change until its lookup has rendered or a later
// keystroke has replaced it.
type Pending struct {
	query      string
	done       chan struct{}
	once       sync.Once
	superseded bool
	err        error
}

func newPending(query string) *Pending {
	return &Pending{query: query, done: make(chan struct{})}
}

// Query returns the trimmed query.
func (p *Pending) Query() string { return p.query }

// Done is closed once the outcome is known.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Superseded reports whether a later keystroke replaced this lookup before it
// was sent. Valid after Done is closed.
func (p *Pending) Superseded() bool { return p.superseded }

// Err returns the lookup failure, if any. Valid after Done is closed.
func (p *Pending) Err() error { return p.err }

func (p *Pending) finish(superseded bool, err error) {
	p.once.Do(func() {
		p.superseded = superseded
		p.err = err
		close(p.done)
	})
}

// OnQueryChange handles the input's new text. Short queries clear the list at
// once and cancel any scheduled lookup. Otherwise a lookup is scheduled after
// the quiet period and rendered into view when it completes.
func (a *Autocompleter) OnQueryChange(ctx context.Context, text string, view ListView) *Pending {
	query := strings.TrimSpace(text)
	p := newPending(query)

	a.mu.Lock()
	a.cancelLocked()
	if utf8.RuneCountInString(query) < MinQueryLength {
		a.mu.Unlock()
		if view != nil {
			view.Clear()
		}
		p.finish(false, nil)
		return p
	}
	lookupCtx := context.WithoutCancel(ctx)
	a.pending = p
	a.timer = a.schedule(a.delay, func() { a.fire(lookupCtx, p, view) })
	a.mu.Unlock()
	return p
}

// cancelLocked stops the scheduled lookup, if it has not fired yet.
func (a *Autocompleter) cancelLocked() {
	if a.timer == nil {
		return
	}
	if a.timer.Stop() && a.pending != nil {
		a.notifySuperseded(a.pending.query)
		a.pending.finish(true, nil)
	}
	a.timer = nil
	a.pending = nil
}

func (a *Autocompleter) fire(ctx context.Context, p *Pending, view ListView) {
	a.mu.Lock()
	if a.pending == p {
		a.timer = nil
		a.pending = nil
	}
	a.mu.Unlock()

	if a.observer != nil {
		a.observer.LookupFired(p.query)
	}
	candidates, err := a.lookup.Locations(ctx, p.query)
	if err != nil {
		a.logger.Error("autocomplete error", "query", p.query, "error", err)
		if a.observer != nil {
			a.observer.LookupFailed(p.query, err)
		}
		if view != nil {
			view.Clear()
		}
		p.finish(false, apperrors.Wrap(apperrors.CodeBackendError, "location lookup failed", err))
		return
	}
	if view != nil {
		view.Clear()
		if len(candidates) == 0 {
			view.ShowNoResults()
		} else {
			view.ShowCandidates(candidates)
		}
	}
	p.finish(false, nil)
}

func (a *Autocompleter) notifySuperseded(query string) {
	if a.observer != nil {
		a.observer.LookupSuperseded(query)
	}
}

// Select parses an option value and returns the hidden fields to populate. A
// malformed value is logged and reported without panicking so the form stays
// usable.
func (a *Autocompleter) Select(raw string) (HiddenFields, error) {
	var c Candidate
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		a.logger.Warn("location selection parse failed", "error", err)
		return HiddenFields{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid location selection", err)
	}
	return FromCandidate(c), nil
}
