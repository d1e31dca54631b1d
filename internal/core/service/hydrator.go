package service

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/cks-portal/identity-service/internal/core/domain"
	"github.com/cks-portal/identity-service/internal/core/ports"
)

// transientSignature matches error text that indicates a transient network
// failure rather than an authoritative backend answer. These are always
// recovered locally with synthesized data and never surfaced as errors.
var transientSignature = regexp.MustCompile(`(?i)failed to fetch|network ?error|econnrefused|connection refused|connection reset|no such host|i/o timeout`)

// managerFallbackPaths is the historical alternate-endpoint order for
// managers, preserved verbatim.
var managerFallbackPaths = []string{"/me/manager", "/manager/profile", "/manager/me"}

// fallbackPaths returns the ordered alternate profile paths tried after the
// primary endpoint answers 404.
func fallbackPaths(role domain.Role) []string {
	switch role {
	case domain.RoleManager:
		return managerFallbackPaths
	case domain.RoleCenter, domain.RoleCrew, domain.RoleContractor, domain.RoleCustomer:
		r := string(role)
		return []string{"/me/" + r, "/" + r + "/profile", "/" + r + "/me"}
	default:
		return nil
	}
}

// ProfileHydrator retrieves a profile record for a resolved identity through
// a layered chain: direct endpoint → alternate endpoints → synthesized stub.
// Every failure mode resolves to a record plus a provenance tag, or a
// displayable error string; raw transport errors never escape.
type ProfileHydrator struct {
	client ports.ProfileClient
	cache  ports.SessionCache
	log    zerolog.Logger
}

func NewProfileHydrator(client ports.ProfileClient, cache ports.SessionCache, log zerolog.Logger) *ProfileHydrator {
	return &ProfileHydrator{client: client, cache: cache, log: log}
}

// Hydrate runs one hydration cycle. First success wins:
//
//  1. An explicit override synthesizes a demo record without touching the
//     network, so manual testing and demo flows never block on a live backend.
//  2. The primary endpoint, with 404s escalating through the per-role
//     alternate paths and finally a stub for stub-eligible roles.
//  3. Non-404 failures soft-fallback for anonymous or transient cases, and
//     surface a displayable error otherwise: an authenticated user seeing a
//     real server error must not silently get fabricated data.
func (h *ProfileHydrator) Hydrate(ctx context.Context, in ports.HydrateInput) ports.ProfileView {
	req := in.Signals

	// 1. Override short-circuit.
	if req.HasOverride() {
		code := req.OverrideCode
		if code == "" {
			code = in.Identity.Code
		}
		rec := domain.NewDemoRecord(in.Identity.Role, code)
		h.settle(ctx, in, rec)
		return ports.ProfileView{Kind: in.Identity.Role, Data: rec}
	}

	token := req.Principal.Token

	// 2. Primary endpoint.
	payload, err := h.client.FetchProfile(ctx, token, "")
	if err != nil {
		return h.transportFailure(ctx, in, err)
	}

	source := domain.SourcePrimary
	body := payload.Body

	// 2a. 404 → alternate-endpoint chain, then stub.
	if payload.Status == http.StatusNotFound {
		body, source = h.sweepAlternates(ctx, token, in.Identity.Role)
		if body == nil {
			if domain.StubEligible(in.Identity.Role) {
				rec := domain.NewStubRecord(in.Identity.Role)
				h.log.Info().Str("role", string(in.Identity.Role)).Str("layer", rec.Source).Msg("hydration fell back to stub")
				h.settle(ctx, in, rec)
				return ports.ProfileView{Kind: in.Identity.Role, Data: rec}
			}
			rec := domain.NewProfileRecord(in.Identity.Role, domain.Source404NoData)
			return ports.ProfileView{Kind: in.Identity.Role, Data: rec}
		}
	}

	// 2b. Other non-success statuses.
	if payload.Status != http.StatusNotFound && !payload.OK() {
		msg := payload.ErrorMessage()
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", payload.Status)
		}
		if !req.Principal.Authenticated() || transientSignature.MatchString(msg) {
			rec := domain.NewDemoRecord(in.Identity.Role, in.Identity.Code)
			rec.Source = domain.SourceSoftFallback
			h.log.Info().Int("status", payload.Status).Str("layer", rec.Source).Msg("hydration soft fallback")
			h.settle(ctx, in, rec)
			return ports.ProfileView{Kind: in.Identity.Role, Data: rec}
		}
		h.log.Warn().Int("status", payload.Status).Str("error", msg).Msg("upstream profile error surfaced to viewer")
		return ports.ProfileView{Error: msg}
	}

	// 3. Normalize and settle.
	rec := h.normalize(body, source, in)
	h.log.Debug().Str("layer", rec.Source).Str("kind", string(rec.Role)).Msg("profile hydrated")
	h.settle(ctx, in, rec)
	return ports.ProfileView{Kind: rec.Role, Data: rec}
}

// transportFailure classifies a thrown transport error: transient signatures
// recover with synthesized data, everything else becomes a displayable error.
func (h *ProfileHydrator) transportFailure(ctx context.Context, in ports.HydrateInput, err error) ports.ProfileView {
	if transientSignature.MatchString(err.Error()) {
		rec := domain.NewDemoRecord(in.Identity.Role, in.Identity.Code)
		rec.Source = domain.SourceNetworkFallback
		h.log.Info().Err(err).Str("layer", rec.Source).Msg("hydration network fallback")
		h.settle(ctx, in, rec)
		return ports.ProfileView{Kind: in.Identity.Role, Data: rec}
	}
	h.log.Warn().Err(err).Msg("non-transient transport error surfaced to viewer")
	return ports.ProfileView{Error: err.Error()}
}

// sweepAlternates tries the role's alternate paths in order and returns the
// first successful body with its path as the provenance tag.
func (h *ProfileHydrator) sweepAlternates(ctx context.Context, token string, role domain.Role) (map[string]any, string) {
	for _, path := range fallbackPaths(role) {
		payload, err := h.client.FetchPath(ctx, token, path)
		if err != nil {
			h.log.Debug().Err(err).Str("path", path).Msg("alternate profile path failed")
			continue
		}
		h.log.Debug().Str("path", path).Int("status", payload.Status).Msg("alternate profile path tried")
		if payload.OK() {
			body := payload.Body
			if body == nil {
				body = map[string]any{}
			}
			return body, path
		}
	}
	return nil, ""
}

// normalize turns a raw upstream payload into a ProfileRecord: unwraps the
// data envelope, settles the role tag, and backfills required display fields
// so the view layer never special-cases missing data.
func (h *ProfileHydrator) normalize(body map[string]any, source string, in ports.HydrateInput) *domain.ProfileRecord {
	if body == nil {
		body = map[string]any{}
	}

	envelope, _ := body["data"].(map[string]any)

	kind, _ := body["kind"].(string)
	if kind == "" && envelope != nil {
		kind, _ = envelope["kind"].(string)
	}
	if kind == "" {
		kind, _ = body["role"].(string)
	}

	role := domain.ParseRole(kind)
	if !role.Known() && in.Signals.Principal.Role == domain.RoleManager {
		role = domain.RoleManager
	}
	if !role.Known() {
		role = in.Identity.Role
	}

	fields := body
	if envelope != nil {
		fields = envelope
	}

	rec := domain.NewProfileRecord(role, source)
	for k, v := range fields {
		if k == "_stub" || k == "_source" {
			continue
		}
		rec.Fields[k] = v
	}
	if stub, _ := fields["_stub"].(bool); stub {
		rec.Stub = true
	}

	if role == domain.RoleManager && in.Signals.Principal.Role == domain.RoleManager {
		rec.SetDefault("manager_id", "demo-mgr-000")
		rec.SetDefault("name", "Manager Demo")
	}
	rec.EnsureIdentifier()
	return rec
}

// settle writes a successful non-admin resolution back to the session cache
// so future navigations resolve without re-fetching. Failures are logged and
// ignored; the cache is an optimization, not a dependency.
func (h *ProfileHydrator) settle(ctx context.Context, in ports.HydrateInput, rec *domain.ProfileRecord) {
	if in.SessionID == "" || rec == nil {
		return
	}
	code := rec.Identifier()
	if !rec.Role.Known() || rec.Role == domain.RoleAdmin || code == "" {
		return
	}
	id := domain.Identity{Role: rec.Role, Code: code}
	if err := h.cache.StoreIdentity(ctx, in.SessionID, id); err != nil {
		h.log.Warn().Err(err).Str("session_id", in.SessionID).Msg("session cache write failed")
	}
}
