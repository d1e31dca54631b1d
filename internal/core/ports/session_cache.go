package ports

import (
	"context"

	"github.com/cks-portal/identity-service/internal/core/domain"
)

// SessionCache persists the last resolved identity across navigations within
// a session. Role and code are independent last-writer-wins keys; entries are
// removed only by explicit logout, never proactively expired.
type SessionCache interface {
	// LastIdentity returns the cached identity for the session. A session
	// with no cached entry yields a zero Identity and no error.
	LastIdentity(ctx context.Context, sessionID string) (domain.Identity, error)
	// StoreIdentity overwrites the session's cached role and code.
	StoreIdentity(ctx context.Context, sessionID string, id domain.Identity) error
	// Clear removes the session's cached identity (sign-out).
	Clear(ctx context.Context, sessionID string) error
}
