package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cks-portal/identity-service/internal/core/domain"
	"github.com/cks-portal/identity-service/internal/core/ports"
)

// SignalCollector gathers the three identity signal provenances for a
// request. No merging, no precedence; that is the resolver's job.
type SignalCollector struct {
	cache ports.SessionCache
	log   zerolog.Logger
}

func NewSignalCollector(cache ports.SessionCache, log zerolog.Logger) *SignalCollector {
	return &SignalCollector{cache: cache, log: log}
}

// Collect returns the signals verbatim. A failing cache read degrades to an
// empty cache signal; Collect itself never fails.
func (c *SignalCollector) Collect(ctx context.Context, req ports.RequestSignals) ports.SignalSet {
	set := ports.SignalSet{
		Override: domain.IdentitySignal{
			Provenance: domain.ProvenanceOverride,
			Role:       domain.ParseRole(req.OverrideRole),
			Code:       req.OverrideCode,
		},
		Cache: domain.IdentitySignal{Provenance: domain.ProvenanceCache},
		Principal: domain.IdentitySignal{
			Provenance: domain.ProvenancePrincipal,
			Role:       req.Principal.Role,
			Code:       req.Principal.Code,
		},
	}

	if req.SessionID != "" {
		cached, err := c.cache.LastIdentity(ctx, req.SessionID)
		if err != nil {
			c.log.Debug().Err(err).Str("session_id", req.SessionID).Msg("session cache read failed, treating as empty")
		} else {
			set.Cache.Role = cached.Role
			set.Cache.Code = cached.Code
		}
	}

	return set
}
