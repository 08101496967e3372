// Package channels provides the channel-profile read path shared by handlers.
package channels

import (
	"context"
	"sync"
	"time"

	"github.com/vidtube/backend/internal/models"
)

// ProfileSource resolves a channel profile as seen by a particular viewer.
type ProfileSource interface {
	ChannelProfile(ctx context.Context, userName, viewerID string) (models.ChannelProfile, error)
}

type cacheEntry struct {
	profile models.ChannelProfile
	expires time.Time
}

// CachingProfileSource wraps another ProfileSource with a TTL-based in-memory
// cache. Entries are keyed per viewer because isSubscribed is viewer-relative.
type CachingProfileSource struct {
	base ProfileSource
	ttl  time.Duration

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingProfileSource returns a ProfileSource that caches lookups for the
// provided TTL.
func NewCachingProfileSource(base ProfileSource, ttl time.Duration) *CachingProfileSource {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingProfileSource{
		base:  base,
		ttl:   ttl,
		items: make(map[string]cacheEntry),
	}
}

// ChannelProfile returns a cached profile when available, otherwise it
// delegates to the underlying source and stores the result.
func (c *CachingProfileSource) ChannelProfile(ctx context.Context, userName, viewerID string) (models.ChannelProfile, error) {
	key := userName + "\x00" + viewerID
	now := time.Now()

	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.profile, nil
	}

	profile, err := c.base.ChannelProfile(ctx, userName, viewerID)
	if err != nil {
		return models.ChannelProfile{}, err
	}

	c.mu.Lock()
	c.items[key] = cacheEntry{profile: profile, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return profile, nil
}

// Invalidate drops every cached view of the named channel, e.g. after a
// subscription toggle changes its counts.
func (c *CachingProfileSource) Invalidate(userName string) {
	prefix := userName + "\x00"

	c.mu.Lock()
	for key := range c.items {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.items, key)
		}
	}
	c.mu.Unlock()
}
