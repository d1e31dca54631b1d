package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cks-portal/identity-service/internal/core/domain"
)

// SessionCache stores the last resolved identity per session.
// Key format: me:lastRole:<session_id> and me:lastCode:<session_id>.
// Role and code are independent last-writer-wins keys with no TTL; they are
// removed only by Clear (sign-out).
type SessionCache struct {
	client *redis.Client
}

// NewSessionCache creates a SessionCache wrapping the given Redis client.
func NewSessionCache(client *redis.Client) *SessionCache {
	return &SessionCache{client: client}
}

// LastIdentity returns the cached identity for a session. Missing keys yield
// empty fields, not an error.
func (c *SessionCache) LastIdentity(ctx context.Context, sessionID string) (domain.Identity, error) {
	role, err := c.get(ctx, c.roleKey(sessionID))
	if err != nil {
		return domain.Identity{}, fmt.Errorf("session cache get role: %w", err)
	}
	code, err := c.get(ctx, c.codeKey(sessionID))
	if err != nil {
		return domain.Identity{}, fmt.Errorf("session cache get code: %w", err)
	}

	id := domain.Identity{Code: code}
	if role != "" {
		id.Role = domain.ParseRole(role)
	}
	return id, nil
}

// StoreIdentity overwrites the session's role and code keys.
func (c *SessionCache) StoreIdentity(ctx context.Context, sessionID string, id domain.Identity) error {
	if err := c.client.Set(ctx, c.roleKey(sessionID), string(id.Role), 0).Err(); err != nil {
		return fmt.Errorf("session cache set role: %w", err)
	}
	if err := c.client.Set(ctx, c.codeKey(sessionID), id.Code, 0).Err(); err != nil {
		return fmt.Errorf("session cache set code: %w", err)
	}
	return nil
}

// Clear removes the session's cached identity.
func (c *SessionCache) Clear(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, c.roleKey(sessionID), c.codeKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("session cache clear: %w", err)
	}
	return nil
}

func (c *SessionCache) get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *SessionCache) roleKey(sessionID string) string {
	return "me:lastRole:" + sessionID
}

func (c *SessionCache) codeKey(sessionID string) string {
	return "me:lastCode:" + sessionID
}
