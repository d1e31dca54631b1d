package domain

import (
	"encoding/json"
	"reflect"
	"sort"
)

// Hydration layer tags recorded in ProfileRecord.Source. Every record carries
// exactly one, so callers can render a "data may be stale/demo" indicator.
const (
	SourceOverride        = "override"
	SourcePrimary         = "/me/profile"
	Source404NoData       = "404-no-data"
	SourceSoftFallback    = "soft-fallback"
	SourceNetworkFallback = "network-fallback"
	SourceError           = "error"
)

// StubSource returns the provenance tag for a synthesized stub record.
func StubSource(role Role) string {
	return "stub:" + string(role)
}

// ProfileRecord is a role-tagged field map hydrated for one identity.
// Records are never mutated in place after hydration; a refresh produces a
// new record.
type ProfileRecord struct {
	Role   Role
	Source string
	Stub   bool
	Fields map[string]any
}

// NewProfileRecord returns an empty record tagged with role and source.
func NewProfileRecord(role Role, source string) *ProfileRecord {
	return &ProfileRecord{Role: role, Source: source, Fields: map[string]any{}}
}

// identifyingKeys maps each role to the field key that must always be
// populated on a hydrated record for that role.
var identifyingKeys = map[Role]string{
	RoleCenter:     "center_id",
	RoleCrew:       "crew_id",
	RoleContractor: "contractor_id",
	RoleCustomer:   "customer_id",
	RoleManager:    "manager_id",
}

// IdentifyingKey returns the role-appropriate identifier field key, or "code"
// for roles without a dedicated one.
func IdentifyingKey(role Role) string {
	if k, ok := identifyingKeys[role]; ok {
		return k
	}
	return "code"
}

// Identifier returns the record's own code, checking the role-appropriate
// field first and the generic "code" alias second.
func (r *ProfileRecord) Identifier() string {
	if v := r.stringField(IdentifyingKey(r.Role)); v != "" {
		return v
	}
	return r.stringField("code")
}

// EnsureIdentifier backfills the role-appropriate identifying field from the
// "code" alias (and vice versa) so downstream consumers never see a record
// without one.
func (r *ProfileRecord) EnsureIdentifier() {
	key := IdentifyingKey(r.Role)
	id := r.stringField(key)
	code := r.stringField("code")
	if id == "" && code != "" {
		r.Fields[key] = code
	}
	if code == "" && id != "" {
		r.Fields["code"] = id
	}
}

// SetDefault assigns value to key only when the field is absent or empty.
func (r *ProfileRecord) SetDefault(key string, value any) {
	if v, ok := r.Fields[key]; ok && v != nil && v != "" {
		return
	}
	r.Fields[key] = value
}

func (r *ProfileRecord) stringField(key string) string {
	v, ok := r.Fields[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// EqualData compares two records on their field maps only, ignoring the
// provenance tag and stub flag.
func (r *ProfileRecord) EqualData(other *ProfileRecord) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Role == other.Role && reflect.DeepEqual(r.Fields, other.Fields)
}

// FieldKeys returns the record's field keys in sorted order.
func (r *ProfileRecord) FieldKeys() []string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON flattens the field map and appends the diagnostic _source and
// _stub markers, matching the wire shape the view layer consumes.
func (r *ProfileRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["_source"] = r.Source
	if r.Stub {
		out["_stub"] = true
	}
	return json.Marshal(out)
}

// stubEligible lists roles that synthesize a placeholder record once the 404
// alternate-endpoint chain is exhausted. Only managers are provisioned late
// enough in practice to need one.
var stubEligible = map[Role]bool{
	RoleManager: true,
}

// StubEligible reports whether role gets a synthesized stub after an
// exhausted 404 chain.
func StubEligible(role Role) bool {
	return stubEligible[role]
}

// NewStubRecord synthesizes the placeholder record for a stub-eligible role.
// Shapes are fixed so tests and demo flows can assert on them.
func NewStubRecord(role Role) *ProfileRecord {
	rec := NewProfileRecord(role, StubSource(role))
	rec.Stub = true
	switch role {
	case RoleManager:
		rec.Fields = map[string]any{
			"role":       string(RoleManager),
			"kind":       string(RoleManager),
			"manager_id": "demo-mgr-000",
			"name":       "Manager Demo (stub)",
		}
	default:
		rec.Fields = map[string]any{"code": ""}
	}
	rec.EnsureIdentifier()
	return rec
}

// NewDemoRecord synthesizes deterministic demo data for a role, used by the
// override and fallback hydration layers. When code is empty each role falls
// back to its fixed demo identifier.
func NewDemoRecord(role Role, code string) *ProfileRecord {
	rec := NewProfileRecord(role, SourceOverride)
	c := code
	switch role {
	case RoleCenter:
		if c == "" {
			c = "001-D"
		}
		rec.Fields = map[string]any{"center_id": c, "name": "Center Demo", "code": c}
	case RoleCrew:
		if c == "" {
			c = "CR-001"
		}
		rec.Fields = map[string]any{"crew_id": c, "name": "Crew Demo", "code": c}
	case RoleContractor:
		if c == "" {
			c = "con-000"
		}
		rec.Fields = map[string]any{"contractor_id": c, "company_name": "Contractor Demo", "code": c}
	case RoleCustomer:
		if c == "" {
			c = "CU-001"
		}
		rec.Fields = map[string]any{"customer_id": c, "company_name": "Customer Demo", "code": c}
	case RoleManager:
		if c == "" {
			c = "M-001"
		}
		rec.Fields = map[string]any{"manager_id": c, "name": "Manager Demo", "code": c}
	default:
		if c == "" {
			c = "000-A"
		}
		rec.Fields = map[string]any{"code": c}
	}
	return rec
}
