package service

import (
	"github.com/rs/zerolog"

	"github.com/cks-portal/identity-service/internal/core/domain"
	"github.com/cks-portal/identity-service/internal/core/ports"
)

// RoleResolver reduces the three identity signals to a single (role, code)
// pair. Resolution is a pure function of the signal set; the resolver holds
// no state and never calls the network.
type RoleResolver struct {
	log zerolog.Logger
}

func NewRoleResolver(log zerolog.Logger) *RoleResolver {
	return &RoleResolver{log: log}
}

// Resolve applies the fixed precedence order.
//
// Role: override → inferred from override code → cached (non-admin) →
// principal (non-admin) → cached (any) → admin. Code: override → cached.
//
// A role inferred from a code pattern beats a stale cached role but never an
// explicit override role. When every signal is empty the session degrades to
// the safe default (admin, "") instead of failing.
func (r *RoleResolver) Resolve(signals ports.SignalSet) domain.Identity {
	role, source := resolveRole(signals)

	// Legacy promotion: a session that fell through to admin while the
	// principal claims manager is treated as manager. Kept as a special case
	// for accounts provisioned before manager claims were authoritative; it
	// never overrides an explicit caller-supplied role.
	if role == domain.RoleAdmin && source != "override" && signals.Principal.Role == domain.RoleManager {
		role = domain.RoleManager
		source = "principal-promotion"
	}

	code := signals.Override.Code
	if code == "" {
		code = signals.Cache.Code
	}

	identity := domain.Identity{Role: role, Code: code}
	r.log.Debug().
		Str("role", string(identity.Role)).
		Str("code", identity.Code).
		Str("source", source).
		Bool("resolved", identity.Resolved()).
		Msg("identity resolved")
	return identity
}

func resolveRole(s ports.SignalSet) (domain.Role, string) {
	if s.Override.Role.Known() {
		return s.Override.Role, "override"
	}
	if inferred := domain.InferRoleFromCode(s.Override.Code); inferred.Known() {
		return inferred, "override-code"
	}
	if s.Cache.Role.Known() && s.Cache.Role != domain.RoleAdmin {
		return s.Cache.Role, "cache"
	}
	if s.Principal.Role.Known() && s.Principal.Role != domain.RoleAdmin {
		return s.Principal.Role, "principal"
	}
	if s.Cache.Role.Known() {
		return s.Cache.Role, "cache-admin"
	}
	return domain.RoleAdmin, "default"
}
