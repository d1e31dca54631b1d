package ports

import (
	"context"

	"github.com/cks-portal/identity-service/internal/core/domain"
)

// PrincipalClaims carries the identity claims attached to an authenticated
// session by the external identity provider.
type PrincipalClaims struct {
	Subject string
	Role    domain.Role
	Code    string
	// Token is the raw bearer credential, forwarded to the upstream profile
	// backend on hydration calls.
	Token string
}

// Authenticated reports whether a real principal is present.
func (p PrincipalClaims) Authenticated() bool {
	return p.Subject != ""
}

// RequestSignals is the navigational context a request arrives with, before
// any precedence is applied.
type RequestSignals struct {
	OverrideRole string
	OverrideCode string
	SessionID    string
	Principal    PrincipalClaims
}

// HasOverride reports whether the caller supplied any explicit override.
func (r RequestSignals) HasOverride() bool {
	return r.OverrideRole != "" || r.OverrideCode != ""
}

// SignalSet holds the three identity signal provenances, verbatim.
type SignalSet struct {
	Override  domain.IdentitySignal
	Cache     domain.IdentitySignal
	Principal domain.IdentitySignal
}

// SignalCollector gathers all candidate identity signals for a request
// without judging precedence. It must not fail; absent sources come back as
// empty fragments.
type SignalCollector interface {
	Collect(ctx context.Context, req RequestSignals) SignalSet
}

// RoleResolver applies the fixed precedence order over a SignalSet. Pure and
// deterministic; never touches the network.
type RoleResolver interface {
	Resolve(signals SignalSet) domain.Identity
}

// HydrateInput carries everything the hydrator needs for one cycle.
type HydrateInput struct {
	Identity  domain.Identity
	Signals   RequestSignals
	SessionID string
}

// ProfileView is the outbound contract handed to the view layer.
type ProfileView struct {
	Loading bool
	Error   string
	Kind    domain.Role
	Data    *domain.ProfileRecord
}

// ProfileHydrator turns a resolved identity into a ProfileRecord through the
// layered fallback chain. It never returns an error; every failure mode
// resolves to a record (possibly a stub) or a displayable error string on the
// view.
type ProfileHydrator interface {
	Hydrate(ctx context.Context, in HydrateInput) ProfileView
}

// ProfileMount is one view mount's hydration lifecycle: Start latches the
// initial fetch, Refetch always re-runs, Close discards in-flight results.
type ProfileMount interface {
	Start(ctx context.Context, req RequestSignals) ProfileView
	Refetch(ctx context.Context, req RequestSignals) ProfileView
	Close()
}

// VisibilityEngine computes the allowed field set for a viewer/subject pair.
type VisibilityEngine interface {
	Compute(viewer, subject domain.Role, rel domain.Relationship) domain.VisibilityPolicy
}
