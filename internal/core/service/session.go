package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cks-portal/identity-service/internal/core/domain"
	"github.com/cks-portal/identity-service/internal/core/ports"
)

// FetchState is the lifecycle of one view mount's hydration.
type FetchState int

const (
	StateNotStarted FetchState = iota
	StateInFlight
	StateSettled
)

func (s FetchState) String() string {
	switch s {
	case StateInFlight:
		return "in-flight"
	case StateSettled:
		return "settled"
	default:
		return "not-started"
	}
}

// ProfileSession drives the resolve→hydrate cycle for a single view mount.
//
// The mount-time Start runs at most once even when the execution environment
// invokes it twice; Refetch always bypasses that latch. Each fetch captures a
// generation number, and a result whose generation has been superseded by a
// newer fetch or by Close is discarded without touching shared state, so a
// slow stale response never clobbers a fresher identity's result.
type ProfileSession struct {
	collector ports.SignalCollector
	resolver  ports.RoleResolver
	hydrator  ports.ProfileHydrator
	log       zerolog.Logger

	mu         sync.Mutex
	state      FetchState
	started    bool
	closed     bool
	generation int
	identity   domain.Identity
	view       ports.ProfileView
}

func NewProfileSession(collector ports.SignalCollector, resolver ports.RoleResolver, hydrator ports.ProfileHydrator, log zerolog.Logger) *ProfileSession {
	return &ProfileSession{
		collector: collector,
		resolver:  resolver,
		hydrator:  hydrator,
		log:       log,
		view:      ports.ProfileView{Loading: true},
	}
}

// Start performs the initial hydration for this mount. Duplicate calls return
// the current view without starting another cycle.
func (s *ProfileSession) Start(ctx context.Context, req ports.RequestSignals) ports.ProfileView {
	s.mu.Lock()
	if s.started || s.closed {
		view := s.view
		s.mu.Unlock()
		return view
	}
	s.started = true
	gen := s.beginLocked()
	s.mu.Unlock()

	return s.run(ctx, req, gen)
}

// Refetch re-enters InFlight regardless of current state.
func (s *ProfileSession) Refetch(ctx context.Context, req ports.RequestSignals) ports.ProfileView {
	s.mu.Lock()
	if s.closed {
		view := s.view
		s.mu.Unlock()
		return view
	}
	s.started = true
	gen := s.beginLocked()
	s.mu.Unlock()

	return s.run(ctx, req, gen)
}

// Close tears the mount down. In-flight results observed afterwards are
// discarded.
func (s *ProfileSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.generation++
}

// State returns the current lifecycle state.
func (s *ProfileSession) State() FetchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View returns the last settled view (or the loading placeholder).
func (s *ProfileSession) View() ports.ProfileView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Identity returns the identity from the last settled cycle.
func (s *ProfileSession) Identity() domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *ProfileSession) beginLocked() int {
	s.generation++
	s.state = StateInFlight
	s.view = ports.ProfileView{Loading: true}
	return s.generation
}

// run completes one cycle: collect, resolve, hydrate, then publish the result
// unless this fetch has been superseded. Hydration is the only suspension
// point; visibility computations downstream always observe a fully settled
// cycle.
func (s *ProfileSession) run(ctx context.Context, req ports.RequestSignals, gen int) ports.ProfileView {
	signals := s.collector.Collect(ctx, req)
	identity := s.resolver.Resolve(signals)
	view := s.hydrator.Hydrate(ctx, ports.HydrateInput{
		Identity:  identity,
		Signals:   req,
		SessionID: req.SessionID,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.generation {
		s.log.Debug().Int("generation", gen).Msg("stale hydration result discarded")
		return view
	}
	s.state = StateSettled
	s.identity = identity
	s.view = view
	return view
}
