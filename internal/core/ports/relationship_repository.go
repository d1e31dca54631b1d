package ports

import (
	"context"

	"github.com/cks-portal/identity-service/internal/core/domain"
)

// RelationshipLink is one directory entry connecting a viewer to a subject.
type RelationshipLink struct {
	ViewerCode   string
	SubjectCode  string
	Relationship domain.Relationship
}

// RelationshipRepository resolves how a viewer relates to a subject from the
// relationship directory. Find returns domain.ErrRelationshipNotFound when no
// link exists; callers treat that as RelationshipNone rather than an error.
type RelationshipRepository interface {
	Find(ctx context.Context, viewerCode, subjectCode string) (domain.Relationship, error)
	// Upsert records or replaces a directory link (admin provisioning).
	Upsert(ctx context.Context, link RelationshipLink) error
}
