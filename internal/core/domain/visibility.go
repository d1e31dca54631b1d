package domain

import "sort"

// Tier is a nested field-access level: public ⊆ partner ⊆ internal.
type Tier string

const (
	TierPublic   Tier = "public"
	TierPartner  Tier = "partner"
	TierInternal Tier = "internal"
)

var tierRank = map[Tier]int{
	TierPublic:   0,
	TierPartner:  1,
	TierInternal: 2,
}

// Relationship tags how a viewer relates to a subject.
type Relationship string

const (
	RelationshipNone        Relationship = "none"
	RelationshipOwnsSubject Relationship = "owns-subject"

	// Assignment relationships promote the viewer to partner tier plus one
	// role-specific extra field.
	RelationshipAssignedManager Relationship = "assigned-manager"
	RelationshipAssignedCrew    Relationship = "assigned-crew"

	// Partner relationships (serving/owning) promote the viewer to partner tier.
	RelationshipServingContractor Relationship = "serving-contractor"
	RelationshipOwningCustomer    Relationship = "owning-customer"
)

// assignmentExtras maps each assignment relationship to the single extra
// field it unlocks on top of the partner tier.
var assignmentExtras = map[Relationship]FieldKey{
	RelationshipAssignedManager: "manager-id",
	RelationshipAssignedCrew:    "crew-id",
}

// AssignmentExtra returns the extra field an assignment relationship grants,
// and whether rel is an assignment relationship at all.
func AssignmentExtra(rel Relationship) (FieldKey, bool) {
	k, ok := assignmentExtras[rel]
	return k, ok
}

// PartnerRelationship reports whether rel is a recognized serving/owning
// partner relationship.
func PartnerRelationship(rel Relationship) bool {
	return rel == RelationshipServingContractor || rel == RelationshipOwningCustomer
}

// FieldKey names a single displayable profile field.
type FieldKey string

// VisibilityPolicy is the computed field-access decision for one
// viewer/subject pair.
type VisibilityPolicy struct {
	Tier     Tier
	ReadOnly bool
	Allowed  map[FieldKey]struct{}
}

// Allows reports whether key may be displayed under this policy.
func (p VisibilityPolicy) Allows(key FieldKey) bool {
	_, ok := p.Allowed[key]
	return ok
}

// AllowedKeys returns the allowed field keys in sorted order.
func (p VisibilityPolicy) AllowedKeys() []FieldKey {
	keys := make([]FieldKey, 0, len(p.Allowed))
	for k := range p.Allowed {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// fieldTiers lists, per subject role, the fields each tier introduces on top
// of the tier below it. TierFields materializes the cumulative set.
var fieldTiers = map[Role]map[Tier][]FieldKey{
	RoleCenter: {
		TierPublic:   {"center_id", "name", "address", "website"},
		TierPartner:  {"phone", "email", "hours", "service_area"},
		TierInternal: {"manager_id", "contract_start", "budget_code", "internal_notes"},
	},
	RoleManager: {
		TierPublic:   {"manager_id", "name"},
		TierPartner:  {"email", "phone", "territory"},
		TierInternal: {"hire_date", "reports_to", "internal_notes"},
	},
	RoleContractor: {
		TierPublic:   {"contractor_id", "company_name", "website"},
		TierPartner:  {"main_contact", "email", "phone"},
		TierInternal: {"cks_manager", "contract_tier", "internal_notes"},
	},
	RoleCustomer: {
		TierPublic:   {"customer_id", "company_name"},
		TierPartner:  {"main_contact", "email", "phone"},
		TierInternal: {"cks_manager", "account_status", "internal_notes"},
	},
	RoleCrew: {
		TierPublic:   {"crew_id", "name"},
		TierPartner:  {"assigned_center", "email", "phone"},
		TierInternal: {"manager_id", "certifications", "internal_notes"},
	},
}

// genericTiers covers subject roles without a dedicated profile layout.
var genericTiers = map[Tier][]FieldKey{
	TierPublic:   {"code", "name"},
	TierPartner:  {"email"},
	TierInternal: {"internal_notes"},
}

// TierFields returns the cumulative field set a viewer at tier may see for a
// subject of the given role. The result is always a fresh copy; callers
// cannot reach the canonical tier tables through it.
func TierFields(subject Role, tier Tier) map[FieldKey]struct{} {
	layout, ok := fieldTiers[subject]
	if !ok {
		layout = genericTiers
	}
	rank, ok := tierRank[tier]
	if !ok {
		rank = 0
	}
	out := make(map[FieldKey]struct{})
	for t, fields := range layout {
		if tierRank[t] > rank {
			continue
		}
		for _, f := range fields {
			out[f] = struct{}{}
		}
	}
	return out
}
