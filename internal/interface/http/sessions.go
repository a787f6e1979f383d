package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/yanqian/assessment-portal/internal/domain/account"
	"github.com/yanqian/assessment-portal/internal/domain/assessment"
	"github.com/yanqian/assessment-portal/internal/domain/locations"
	"github.com/yanqian/assessment-portal/internal/domain/session"
	"github.com/yanqian/assessment-portal/internal/domain/wizard"
	"github.com/yanqian/assessment-portal/internal/infra/config"
	"github.com/yanqian/assessment-portal/internal/infra/formdoc"
	"github.com/yanqian/assessment-portal/internal/infra/portalapi"
	"github.com/yanqian/assessment-portal/internal/infra/tokenstore"
	"github.com/yanqian/assessment-portal/pkg/metrics"
	"github.com/yanqian/assessment-portal/pkg/util"
)

// Sessions owns one runtime per browser session: the live form document, its
// navigator, autocompleter, submission controller and account flows.
type Sessions struct {
	form    *formdoc.Template
	store   session.Store
	tokens  tokenstore.Provider
	docs    assessment.DocumentStore
	metrics *metrics.Portal
	backend portalapi.Config
	quiet   time.Duration
	ttl     time.Duration
	clock   util.Clock
	logger  *slog.Logger

	mu       sync.Mutex
	runtimes map[string]*runtime
}

// NewSessions wires the shared collaborators every runtime is built from.
func NewSessions(
	cfg *config.Config,
	form *formdoc.Template,
	store session.Store,
	tokens tokenstore.Provider,
	docs assessment.DocumentStore,
	portalMetrics *metrics.Portal,
	logger *slog.Logger,
) *Sessions {
	if portalMetrics == nil {
		portalMetrics = metrics.NewPortal()
	}
	return &Sessions{
		form:    form,
		store:   store,
		tokens:  tokens,
		docs:    docs,
		metrics: portalMetrics,
		backend: portalapi.Config{
			BaseURL:          cfg.Backend.BaseURL,
			Timeout:          cfg.Backend.Timeout,
			CSRFPrimePath:    cfg.Backend.CSRFPrimePath,
			TokenRefreshPath: cfg.Backend.TokenRefreshPath,
		},
		quiet:    cfg.Autocomplete.QuietPeriod,
		ttl:      cfg.Session.TTL,
		logger:   logger.With("component", "http.sessions"),
		runtimes: make(map[string]*runtime),
	}
}

// runtime is one browser session. mu serializes the requests of the session
// the way a page's event loop would.
type runtime struct {
	mu    sync.Mutex
	state session.State
	doc   *formdoc.Document
	nav   *wizard.Navigator
	flash string

	auto    *locations.Autocompleter
	submit  *assessment.Controller
	account *account.Service
	tokens  tokenstore.Session

	lastSeen time.Time
}

// get returns the session's runtime, rebuilding it from the session store when
// this process has not seen the session yet. seed cookies are copied into a
// new runtime's backend jar.
func (s *Sessions) get(ctx context.Context, id string, seed []*http.Cookie) (*runtime, error) {
	now := s.clock.OrNow()
	s.mu.Lock()
	if rt, ok := s.runtimes[id]; ok {
		rt.lastSeen = now
		s.mu.Unlock()
		return rt, nil
	}
	s.mu.Unlock()

	built, err := s.build(ctx, id, seed)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rt, ok := s.runtimes[id]; ok {
		rt.lastSeen = now
		return rt, nil
	}
	built.lastSeen = now
	s.runtimes[id] = built
	return built, nil
}

func (s *Sessions) build(ctx context.Context, id string, seed []*http.Cookie) (*runtime, error) {
	state, ok, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		state = session.New(id, s.clock.OrNow())
	}

	client, err := portalapi.New(s.backend, s.logger)
	if err != nil {
		return nil, err
	}
	client.SetCookies(seed)

	logger := s.logger.With("session", id)
	tokens := s.tokens.ForSession(id)
	rt := &runtime{
		state:   state,
		auto:    locations.NewAutocompleter(client, logger, locations.WithObserver(s.metrics), locations.WithQuietPeriod(s.quiet)),
		submit:  assessment.NewController(client, s.docs, s.metrics, logger),
		account: account.NewService(client, tokens, s.metrics, logger),
		tokens:  tokens,
	}
	if err := s.mount(rt); err != nil {
		return nil, err
	}
	return rt, nil
}

// mount renders a fresh document for the runtime's state.
func (s *Sessions) mount(rt *runtime) error {
	doc, err := s.form.NewDocument()
	if err != nil {
		return err
	}
	step := rt.state.Step
	if step < 0 || step >= len(doc.Steps()) {
		step = 0
	}
	nav, err := wizard.Resume(doc.Steps(), step, doc)
	if err != nil {
		return err
	}
	doc.Fill(rt.state.Values)
	if rt.state.Result != nil {
		doc.ShowResult(*rt.state.Result)
	}
	rt.doc = doc
	rt.nav = nav
	rt.state.Step = step
	return nil
}

// reset discards progress and remounts the form at the first step. Callers
// hold rt.mu.
func (s *Sessions) reset(rt *runtime) error {
	rt.state.Reset(s.clock.OrNow())
	return s.mount(rt)
}

// save persists the runtime's state. Callers hold rt.mu.
func (s *Sessions) save(ctx context.Context, rt *runtime) {
	rt.state.UpdatedAt = s.clock.OrNow()
	if err := s.store.Save(ctx, rt.state, s.ttl); err != nil {
		s.logger.Error("session save failed", "session", rt.state.ID, "error", err)
	}
}

type sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

type tokenDropper interface {
	Drop(id string)
}

// Sweep evicts runtimes idle for longer than the session ttl and expires
// stored state. It returns the number of evicted runtimes.
func (s *Sessions) Sweep(ctx context.Context) (int, error) {
	now := s.clock.OrNow()
	var evicted []string
	s.mu.Lock()
	for id, rt := range s.runtimes {
		if now.Sub(rt.lastSeen) > s.ttl {
			delete(s.runtimes, id)
			evicted = append(evicted, id)
		}
	}
	s.mu.Unlock()

	if dropper, ok := s.tokens.(tokenDropper); ok {
		for _, id := range evicted {
			dropper.Drop(id)
		}
	}
	if sw, ok := s.store.(sweeper); ok {
		if _, err := sw.Sweep(ctx); err != nil {
			return len(evicted), fmt.Errorf("sweep session store: %w", err)
		}
	}
	if len(evicted) > 0 {
		s.logger.Info("idle sessions evicted", "count", len(evicted))
	}
	return len(evicted), nil
}

// Len returns the number of live runtimes.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runtimes)
}

// lockedDoc lets the submission controller touch the document while the
// runtime lock is released for the backend round trip.
type lockedDoc struct {
	rt *runtime
}

func (l lockedDoc) SetSubmitDisabled(disabled bool) {
	l.rt.mu.Lock()
	defer l.rt.mu.Unlock()
	l.rt.doc.SetSubmitDisabled(disabled)
}

func (l lockedDoc) ShowResult(view assessment.ResultView) {
	l.rt.mu.Lock()
	defer l.rt.mu.Unlock()
	l.rt.doc.ShowResult(view)
}

func (l lockedDoc) Alert(message string) {
	l.rt.mu.Lock()
	defer l.rt.mu.Unlock()
	l.rt.doc.Alert(message)
}
