package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bloodlink/bloodlink/internal/auth"
)

const (
	// identityCachePrefix is the Redis key prefix for resolved identities.
	identityCachePrefix = "auth:identity:"
	// identityCacheTTL bounds how stale a cached role/status may be.
	// Role and status patches invalidate eagerly; the TTL covers
	// writes that bypass this process.
	identityCacheTTL = 5 * time.Minute
)

// GetIdentity retrieves a cached identity by email.
// Returns nil on a cache miss.
func (c *Cache) GetIdentity(ctx context.Context, email string) (*auth.Identity, error) {
	data, err := c.client.Get(ctx, identityCachePrefix+email).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var id auth.Identity
	if err := json.Unmarshal(data, &id); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &id, nil
}

// SetIdentity caches a resolved identity.
func (c *Cache) SetIdentity(ctx context.Context, id *auth.Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	return c.client.Set(ctx, identityCachePrefix+id.Email, data, identityCacheTTL).Err()
}

// DeleteIdentity removes a cached identity.
// Called when an admin patches a user's role or status so the change
// takes effect on the next request rather than after the TTL.
func (c *Cache) DeleteIdentity(ctx context.Context, email string) error {
	return c.client.Del(ctx, identityCachePrefix+email).Err()
}
