package ports

import (
	"context"

	"github.com/cks-portal/identity-service/internal/core/domain"
)

// ProfilePayload is the raw upstream response: HTTP status plus the decoded
// JSON body. A nil Body with a 2xx status means the upstream returned an
// empty or undecodable document.
type ProfilePayload struct {
	Status int
	Body   map[string]any
}

// OK reports whether the payload carries a 2xx status.
func (p *ProfilePayload) OK() bool {
	return p != nil && p.Status >= 200 && p.Status < 300
}

// ErrorMessage extracts the upstream error string from the body, if any.
func (p *ProfilePayload) ErrorMessage() string {
	if p == nil || p.Body == nil {
		return ""
	}
	if msg, ok := p.Body["error"].(string); ok {
		return msg
	}
	return ""
}

// BootstrapResult is the authoritative role/code pair returned by the
// upstream bootstrap endpoint at session start.
type BootstrapResult struct {
	Role domain.Role
	Code string
}

// ProfileClient talks to the upstream profile backend. The token is the raw
// bearer credential of the calling principal, forwarded verbatim; it may be
// empty for anonymous demo flows.
type ProfileClient interface {
	// FetchProfile calls the primary profile endpoint, optionally scoped to
	// an explicit code.
	FetchProfile(ctx context.Context, token, code string) (*ProfilePayload, error)
	// FetchPath calls one alternate profile path (e.g. "/manager/profile").
	FetchPath(ctx context.Context, token, path string) (*ProfilePayload, error)
	// FetchBootstrap retrieves the authoritative identity used to seed the
	// session cache.
	FetchBootstrap(ctx context.Context, token string) (*BootstrapResult, error)
}
