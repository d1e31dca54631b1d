package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cks-portal/identity-service/internal/core/domain"
	"github.com/cks-portal/identity-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub upstream client
// ---------------------------------------------------------------------------

type stubProfileClient struct {
	primary    *ports.ProfilePayload
	primaryErr error
	paths      map[string]*ports.ProfilePayload
	pathErrs   map[string]error
	bootstrap  *ports.BootstrapResult
	calls      []string
}

func newStubProfileClient() *stubProfileClient {
	return &stubProfileClient{
		paths:    make(map[string]*ports.ProfilePayload),
		pathErrs: make(map[string]error),
	}
}

func (c *stubProfileClient) FetchProfile(_ context.Context, _, code string) (*ports.ProfilePayload, error) {
	c.calls = append(c.calls, "/me/profile?code="+code)
	if c.primaryErr != nil {
		return nil, c.primaryErr
	}
	if c.primary == nil {
		return &ports.ProfilePayload{Status: 404}, nil
	}
	return c.primary, nil
}

func (c *stubProfileClient) FetchPath(_ context.Context, _, path string) (*ports.ProfilePayload, error) {
	c.calls = append(c.calls, path)
	if err, ok := c.pathErrs[path]; ok {
		return nil, err
	}
	if p, ok := c.paths[path]; ok {
		return p, nil
	}
	return &ports.ProfilePayload{Status: 404}, nil
}

func (c *stubProfileClient) FetchBootstrap(_ context.Context, _ string) (*ports.BootstrapResult, error) {
	c.calls = append(c.calls, "/me/bootstrap")
	if c.bootstrap == nil {
		return nil, domain.ErrBootstrapUnavailable
	}
	return c.bootstrap, nil
}

func hydrateInput(id domain.Identity, req ports.RequestSignals) ports.HydrateInput {
	return ports.HydrateInput{Identity: id, Signals: req, SessionID: req.SessionID}
}

func newHydrator(client ports.ProfileClient, cache ports.SessionCache) *ProfileHydrator {
	return NewProfileHydrator(client, cache, zerolog.Nop())
}

// ---------------------------------------------------------------------------
// Override layer
// ---------------------------------------------------------------------------

func TestHydrate_OverrideBypassesNetwork(t *testing.T) {
	client := newStubProfileClient()
	h := newHydrator(client, newStubSessionCache())

	view := h.Hydrate(context.Background(), hydrateInput(
		domain.Identity{Role: domain.RoleCenter, Code: "001-D"},
		ports.RequestSignals{OverrideRole: "center", OverrideCode: "001-D"},
	))

	if len(client.calls) != 0 {
		t.Fatalf("override must not touch the network, calls: %v", client.calls)
	}
	if view.Error != "" || view.Data == nil {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.Data.Source != domain.SourceOverride {
		t.Fatalf("expected _source=override, got %q", view.Data.Source)
	}
	if got := view.Data.Fields["center_id"]; got != "001-D" {
		t.Fatalf("expected center_id=001-D, got %v", got)
	}
}

func TestHydrate_OverrideDemoShapesAreStable(t *testing.T) {
	h := newHydrator(newStubProfileClient(), newStubSessionCache())

	cases := []struct {
		role domain.Role
		key  string
		want string
	}{
		{domain.RoleCenter, "center_id", "001-D"},
		{domain.RoleCrew, "crew_id", "CR-001"},
		{domain.RoleContractor, "contractor_id", "con-000"},
		{domain.RoleCustomer, "customer_id", "CU-001"},
		{domain.RoleManager, "manager_id", "M-001"},
	}
	for _, tc := range cases {
		view := h.Hydrate(context.Background(), hydrateInput(
			domain.Identity{Role: tc.role},
			ports.RequestSignals{OverrideRole: string(tc.role)},
		))
		if got := view.Data.Fields[tc.key]; got != tc.want {
			t.Fatalf("role %s: expected %s=%s, got %v", tc.role, tc.key, tc.want, got)
		}
	}
}

// ---------------------------------------------------------------------------
// 404 chain
// ---------------------------------------------------------------------------

func TestHydrate_404FallsBackToAlternatePath(t *testing.T) {
	client := newStubProfileClient()
	client.primary = &ports.ProfilePayload{Status: 404}
	client.paths["/manager/profile"] = &ports.ProfilePayload{
		Status: 200,
		Body:   map[string]any{"role": "manager", "manager_id": "M-123", "name": "Ana"},
	}
	h := newHydrator(client, newStubSessionCache())

	view := h.Hydrate(context.Background(), hydrateInput(
		domain.Identity{Role: domain.RoleManager, Code: "M-123"},
		ports.RequestSignals{Principal: ports.PrincipalClaims{Subject: "u1", Role: domain.RoleManager}},
	))

	if view.Data == nil || view.Data.Source != "/manager/profile" {
		t.Fatalf("expected alternate-path provenance, got %+v", view)
	}
	if view.Kind != domain.RoleManager {
		t.Fatalf("expected manager kind, got %s", view.Kind)
	}
	// /me/manager was tried and failed before /manager/profile succeeded.
	want := []string{"/me/profile?code=", "/me/manager", "/manager/profile"}
	if fmt.Sprint(client.calls) != fmt.Sprint(want) {
		t.Fatalf("expected ordered sweep %v, got %v", want, client.calls)
	}
}

func TestHydrate_404ChainExhaustedManagerStub(t *testing.T) {
	client := newStubProfileClient()
	client.primary = &ports.ProfilePayload{Status: 404}
	h := newHydrator(client, newStubSessionCache())

	view := h.Hydrate(context.Background(), hydrateInput(
		domain.Identity{Role: domain.RoleManager},
		ports.RequestSignals{Principal: ports.PrincipalClaims{Subject: "u1", Role: domain.RoleManager}},
	))

	if view.Data == nil || view.Data.Source != "stub:manager" {
		t.Fatalf("expected stub:manager provenance, got %+v", view)
	}
	if !view.Data.Stub {
		t.Fatalf("stub record must carry the _stub flag")
	}
	if got := view.Data.Fields["manager_id"]; got != "demo-mgr-000" {
		t.Fatalf("expected manager_id=demo-mgr-000, got %v", got)
	}
	if got := view.Data.Fields["name"]; got != "Manager Demo (stub)" {
		t.Fatalf("expected stub name, got %v", got)
	}
}

func TestHydrate_404ChainExhaustedNonStubRole(t *testing.T) {
	client := newStubProfileClient()
	client.primary = &ports.ProfilePayload{Status: 404}
	h := newHydrator(client, newStubSessionCache())

	view := h.Hydrate(context.Background(), hydrateInput(
		domain.Identity{Role: domain.RoleCenter, Code: "001-D"},
		ports.RequestSignals{Principal: ports.PrincipalClaims{Subject: "u1", Role: domain.RoleCenter}},
	))

	if view.Error != "" {
		t.Fatalf("404 is not an error, got %q", view.Error)
	}
	if view.Data == nil || view.Data.Source != domain.Source404NoData {
		t.Fatalf("expected 404-no-data provenance, got %+v", view)
	}
	if len(view.Data.Fields) != 0 {
		t.Fatalf("expected empty record, got %v", view.Data.Fields)
	}
}

// ---------------------------------------------------------------------------
// Non-404 failures
// ---------------------------------------------------------------------------

func TestHydrate_ServerErrorAnonymousSoftFallback(t *testing.T) {
	client := newStubProfileClient()
	client.primary = &ports.ProfilePayload{Status: 500, Body: map[string]any{"error": "boom"}}
	h := newHydrator(client, newStubSessionCache())

	view := h.Hydrate(context.Background(), hydrateInput(
		domain.Identity{Role: domain.RoleCrew, Code: "CR-007"},
		ports.RequestSignals{},
	))

	if view.Error != "" {
		t.Fatalf("anonymous server error must soft-fallback, got error %q", view.Error)
	}
	if view.Data.Source != domain.SourceSoftFallback {
		t.Fatalf("expected soft-fallback provenance, got %q", view.Data.Source)
	}
	if got := view.Data.Fields["crew_id"]; got != "CR-007" {
		t.Fatalf("expected resolved code in demo data, got %v", got)
	}
}

func TestHydrate_ServerErrorAuthenticatedSurfaces(t *testing.T) {
	client := newStubProfileClient()
	client.primary = &ports.ProfilePayload{Status: 503, Body: map[string]any{"error": "maintenance window"}}
	h := newHydrator(client, newStubSessionCache())

	view := h.Hydrate(context.Background(), hydrateInput(
		domain.Identity{Role: domain.RoleCenter, Code: "001-D"},
		ports.RequestSignals{Principal: ports.PrincipalClaims{Subject: "u1", Role: domain.RoleCenter}},
	))

	if view.Error != "maintenance window" {
		t.Fatalf("expected surfaced error, got %+v", view)
	}
	if view.Data != nil {
		t.Fatalf("a surfaced error must not carry fabricated data")
	}
}

func TestHydrate_ServerErrorTransientMessageFallsBack(t *testing.T) {
	client := newStubProfileClient()
	client.primary = &ports.ProfilePayload{Status: 502, Body: map[string]any{"error": "NetworkError when attempting to fetch resource"}}
	h := newHydrator(client, newStubSessionCache())

	view := h.Hydrate(context.Background(), hydrateInput(
		domain.Identity{Role: domain.RoleCenter, Code: "001-D"},
		ports.RequestSignals{Principal: ports.PrincipalClaims{Subject: "u1", Role: domain.RoleCenter}},
	))

	if view.Error != "" || view.Data.Source != domain.SourceSoftFallback {
		t.Fatalf("transient-signature error must soft-fallback even when authenticated, got %+v", view)
	}
}

func TestHydrate_TransportErrorTransient(t *testing.T) {
	client := newStubProfileClient()
	client.primaryErr = errors.New("dial tcp 127.0.0.1:4000: connection refused")
	h := newHydrator(client, newStubSessionCache())

	view := h.Hydrate(context.Background(), hydrateInput(
		domain.Identity{Role: domain.RoleCustomer, Code: "CU-042"},
		ports.RequestSignals{Principal: ports.PrincipalClaims{Subject: "u1", Role: domain.RoleCustomer}},
	))

	if view.Error != "" {
		t.Fatalf("transient transport error must not surface, got %q", view.Error)
	}
	if view.Data.Source != domain.SourceNetworkFallback {
		t.Fatalf("expected network-fallback provenance, got %q", view.Data.Source)
	}
	if got := view.Data.Fields["customer_id"]; got != "CU-042" {
		t.Fatalf("expected resolved code in demo data, got %v", got)
	}
}

func TestHydrate_TransportErrorNonTransientSurfaces(t *testing.T) {
	client := newStubProfileClient()
	client.primaryErr = errors.New("x509: certificate signed by unknown authority")
	h := newHydrator(client, newStubSessionCache())

	view := h.Hydrate(context.Background(), hydrateInput(
		domain.Identity{Role: domain.RoleCenter, Code: "001-D"},
		ports.RequestSignals{},
	))

	if view.Error == "" || view.Data != nil {
		t.Fatalf("non-transient transport error must surface, got %+v", view)
	}
}

// ---------------------------------------------------------------------------
// Normalization
// ---------------------------------------------------------------------------

func TestHydrate_UnwrapsDataEnvelope(t *testing.T) {
	client := newStubProfileClient()
	client.primary = &ports.ProfilePayload{
		Status: 200,
		Body: map[string]any{
			"kind": "center",
			"data": map[string]any{"code": "004-B", "name": "Westside"},
		},
	}
	h := newHydrator(client, newStubSessionCache())

	view := h.Hydrate(context.Background(), hydrateInput(
		domain.Identity{Role: domain.RoleCenter, Code: "004-B"},
		ports.RequestSignals{Principal: ports.PrincipalClaims{Subject: "u1", Role: domain.RoleCenter}},
	))

	if view.Kind != domain.RoleCenter {
		t.Fatalf("expected center kind, got %s", view.Kind)
	}
	// Identifier is backfilled from the code alias.
	if got := view.Data.Fields["center_id"]; got != "004-B" {
		t.Fatalf("expected backfilled center_id, got %v", got)
	}
	if got := view.Data.Fields["name"]; got != "Westside" {
		t.Fatalf("envelope fields lost: %v", view.Data.Fields)
	}
}

func TestHydrate_ManagerDisplayFieldBackfill(t *testing.T) {
	client := newStubProfileClient()
	client.primary = &ports.ProfilePayload{Status: 200, Body: map[string]any{}}
	h := newHydrator(client, newStubSessionCache())

	view := h.Hydrate(context.Background(), hydrateInput(
		domain.Identity{Role: domain.RoleManager},
		ports.RequestSignals{Principal: ports.PrincipalClaims{Subject: "u1", Role: domain.RoleManager}},
	))

	if view.Kind != domain.RoleManager {
		t.Fatalf("kind must backfill from the principal claim, got %s", view.Kind)
	}
	if got := view.Data.Fields["manager_id"]; got != "demo-mgr-000" {
		t.Fatalf("expected default manager_id, got %v", got)
	}
	if got := view.Data.Fields["name"]; got != "Manager Demo" {
		t.Fatalf("expected default name, got %v", got)
	}
}

func TestHydrate_Idempotent(t *testing.T) {
	client := newStubProfileClient()
	client.primary = &ports.ProfilePayload{
		Status: 200,
		Body:   map[string]any{"role": "center", "center_id": "009-C", "name": "Harbor"},
	}
	h := newHydrator(client, newStubSessionCache())
	in := hydrateInput(
		domain.Identity{Role: domain.RoleCenter, Code: "009-C"},
		ports.RequestSignals{Principal: ports.PrincipalClaims{Subject: "u1", Role: domain.RoleCenter}},
	)

	first := h.Hydrate(context.Background(), in)
	second := h.Hydrate(context.Background(), in)

	if !first.Data.EqualData(second.Data) {
		t.Fatalf("hydration not idempotent: %v vs %v", first.Data.Fields, second.Data.Fields)
	}
}

// ---------------------------------------------------------------------------
// Session cache write-back
// ---------------------------------------------------------------------------

func TestHydrate_WritesResolutionBackToCache(t *testing.T) {
	client := newStubProfileClient()
	client.primary = &ports.ProfilePayload{
		Status: 200,
		Body:   map[string]any{"role": "center", "center_id": "002-A"},
	}
	cache := newStubSessionCache()
	h := newHydrator(client, cache)

	h.Hydrate(context.Background(), hydrateInput(
		domain.Identity{Role: domain.RoleCenter, Code: "002-A"},
		ports.RequestSignals{SessionID: "sess-9", Principal: ports.PrincipalClaims{Subject: "u1", Role: domain.RoleCenter}},
	))

	got := cache.identities["sess-9"]
	if got.Role != domain.RoleCenter || got.Code != "002-A" {
		t.Fatalf("expected cache write-back, got %+v", got)
	}
}

func TestHydrate_AdminResolutionNotCached(t *testing.T) {
	client := newStubProfileClient()
	client.primary = &ports.ProfilePayload{
		Status: 200,
		Body:   map[string]any{"role": "admin", "code": "000-A"},
	}
	cache := newStubSessionCache()
	h := newHydrator(client, cache)

	h.Hydrate(context.Background(), hydrateInput(
		domain.Identity{Role: domain.RoleAdmin, Code: "000-A"},
		ports.RequestSignals{SessionID: "sess-9", Principal: ports.PrincipalClaims{Subject: "u1", Role: domain.RoleAdmin}},
	))

	if len(cache.stored) != 0 {
		t.Fatalf("admin resolutions must not be remembered, stored %v", cache.stored)
	}
}

func TestHydrate_CacheWriteFailureIsNonFatal(t *testing.T) {
	client := newStubProfileClient()
	client.primary = &ports.ProfilePayload{
		Status: 200,
		Body:   map[string]any{"role": "center", "center_id": "002-A"},
	}
	cache := newStubSessionCache()
	cache.storeErr = errors.New("redis down")
	h := newHydrator(client, cache)

	view := h.Hydrate(context.Background(), hydrateInput(
		domain.Identity{Role: domain.RoleCenter, Code: "002-A"},
		ports.RequestSignals{SessionID: "sess-9", Principal: ports.PrincipalClaims{Subject: "u1", Role: domain.RoleCenter}},
	))

	if view.Error != "" || view.Data == nil {
		t.Fatalf("cache failure must not affect the view: %+v", view)
	}
}
