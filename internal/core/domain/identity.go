package domain

// Provenance tags where an identity signal came from.
type Provenance string

const (
	// ProvenanceOverride marks explicit caller-supplied query values.
	ProvenanceOverride Provenance = "override"
	// ProvenanceCache marks a previously persisted identity.
	ProvenanceCache Provenance = "cache"
	// ProvenancePrincipal marks claims attached to the authenticated session.
	ProvenancePrincipal Provenance = "principal"
)

// IdentitySignal is one candidate source of an identity fragment. A signal
// may carry a role only, a code only, both, or neither.
type IdentitySignal struct {
	Provenance Provenance `json:"provenance"`
	Role       Role       `json:"role,omitempty"`
	Code       string     `json:"code,omitempty"`
}

// Empty reports whether the signal carries no usable fragment.
func (s IdentitySignal) Empty() bool {
	return !s.Role.Known() && s.Code == ""
}

// Identity is the resolved (role, code) pair for the current session.
type Identity struct {
	Role Role   `json:"role"`
	Code string `json:"code"`
}

// Resolved reports whether both fields are populated with a concrete role.
func (i Identity) Resolved() bool {
	return i.Role.Known() && i.Code != ""
}
