// Package upstream implements the HTTP client for the external profile
// backend consumed by the hydrator.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cks-portal/identity-service/internal/api/metrics"
	"github.com/cks-portal/identity-service/internal/core/domain"
	"github.com/cks-portal/identity-service/internal/core/ports"
)

const defaultTimeout = 5 * time.Second

// Client talks to the upstream profile backend over HTTP. Bodies are decoded
// best-effort: an undecodable body yields a payload with a nil Body rather
// than an error, because the hydrator classifies by status first.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a Client for the given base URL (e.g. "http://host/api").
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// FetchProfile calls the primary profile endpoint, optionally scoped to an
// explicit code.
func (c *Client) FetchProfile(ctx context.Context, token, code string) (*ports.ProfilePayload, error) {
	path := "/me/profile"
	if code != "" {
		path += "?code=" + url.QueryEscape(code)
	}
	return c.get(ctx, token, "/me/profile", path)
}

// FetchPath calls one alternate profile path.
func (c *Client) FetchPath(ctx context.Context, token, path string) (*ports.ProfilePayload, error) {
	return c.get(ctx, token, path, path)
}

// FetchBootstrap retrieves the authoritative role/code pair used to seed the
// session cache at sign-in.
func (c *Client) FetchBootstrap(ctx context.Context, token string) (*ports.BootstrapResult, error) {
	payload, err := c.get(ctx, token, "/me/bootstrap", "/me/bootstrap")
	if err != nil {
		return nil, err
	}
	if !payload.OK() || payload.Body == nil {
		return nil, fmt.Errorf("%w: status %d", domain.ErrBootstrapUnavailable, payload.Status)
	}

	role, _ := payload.Body["role"].(string)
	code, _ := payload.Body["code"].(string)
	return &ports.BootstrapResult{Role: domain.ParseRole(role), Code: code}, nil
}

// get performs one GET against the backend. metricPath is the logical path
// used as the metric label so code query values do not explode cardinality.
func (c *Client) get(ctx context.Context, token, metricPath, path string) (*ports.ProfilePayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequestDuration.WithLabelValues(metricPath, "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("upstream %s: %w", path, err)
	}
	defer res.Body.Close()
	metrics.UpstreamRequestDuration.WithLabelValues(metricPath, statusClass(res.StatusCode)).Observe(time.Since(start).Seconds())

	payload := &ports.ProfilePayload{Status: res.StatusCode}
	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		c.log.Debug().Err(err).Str("path", path).Int("status", res.StatusCode).Msg("undecodable upstream body")
	} else {
		payload.Body = body
	}

	return payload, nil
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "other"
	}
}
