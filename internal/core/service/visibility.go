package service

import (
	"github.com/rs/zerolog"

	"github.com/cks-portal/identity-service/internal/core/domain"
)

// VisibilityPolicyEngine computes which profile fields a viewer may see for a
// subject. Rules are checked in fixed order, first match wins; there is no
// specificity scoring. An unmatched combination falls through to the most
// restrictive tier.
type VisibilityPolicyEngine struct {
	log zerolog.Logger
}

func NewVisibilityPolicyEngine(log zerolog.Logger) *VisibilityPolicyEngine {
	return &VisibilityPolicyEngine{log: log}
}

// Compute returns the policy for (viewer, subject, relationship). The allowed
// set is always a materialized copy; callers cannot mutate the canonical tier
// tables through it.
func (e *VisibilityPolicyEngine) Compute(viewer, subject domain.Role, rel domain.Relationship) domain.VisibilityPolicy {
	policy, rule := e.compute(viewer, subject, rel)
	e.log.Debug().
		Str("viewer", string(viewer)).
		Str("subject", string(subject)).
		Str("relationship", string(rel)).
		Str("tier", string(policy.Tier)).
		Str("rule", rule).
		Msg("visibility computed")
	return policy
}

func (e *VisibilityPolicyEngine) compute(viewer, subject domain.Role, rel domain.Relationship) (domain.VisibilityPolicy, string) {
	// 1. The subject viewing itself: full internal tier, writable.
	if rel == domain.RelationshipOwnsSubject {
		return domain.VisibilityPolicy{
			Tier:     domain.TierInternal,
			ReadOnly: false,
			Allowed:  domain.TierFields(subject, domain.TierInternal),
		}, "owns-subject"
	}

	// 2. Admins see everything, read-only.
	if viewer == domain.RoleAdmin {
		return domain.VisibilityPolicy{
			Tier:     domain.TierInternal,
			ReadOnly: true,
			Allowed:  domain.TierFields(subject, domain.TierInternal),
		}, "admin"
	}

	// 3. Assignment: partner tier plus the one extra field the assignment
	// unlocks.
	if extra, ok := domain.AssignmentExtra(rel); ok {
		allowed := domain.TierFields(subject, domain.TierPartner)
		allowed[extra] = struct{}{}
		return domain.VisibilityPolicy{
			Tier:     domain.TierPartner,
			ReadOnly: true,
			Allowed:  allowed,
		}, "assignment"
	}

	// 4. Recognized serving/owning partner.
	if domain.PartnerRelationship(rel) {
		return domain.VisibilityPolicy{
			Tier:     domain.TierPartner,
			ReadOnly: true,
			Allowed:  domain.TierFields(subject, domain.TierPartner),
		}, "partner"
	}

	// 5. No recognized relationship: public, read-only.
	return domain.VisibilityPolicy{
		Tier:     domain.TierPublic,
		ReadOnly: true,
		Allowed:  domain.TierFields(subject, domain.TierPublic),
	}, "public-default"
}
