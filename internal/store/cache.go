package store

import (
	"context"
	"time"

	"pmchat/internal/models"

	"github.com/c-pro/geche"
)

const profileTTL = 5 * time.Minute

// CachedStore caches sender profiles in front of another Store. The send
// path looks up the sender on every message, and profiles change rarely
// enough that a short TTL is safe.
type CachedStore struct {
	Store
	profiles geche.Geche[string, models.SenderProfile]
}

func NewCachedStore(ctx context.Context, inner Store) *CachedStore {
	return &CachedStore{
		Store:    inner,
		profiles: geche.NewMapTTLCache[string, models.SenderProfile](ctx, profileTTL, time.Minute),
	}
}

func (c *CachedStore) SenderProfile(ctx context.Context, userID string) (models.SenderProfile, error) {
	if profile, err := c.profiles.Get(userID); err == nil {
		return profile, nil
	}

	profile, err := c.Store.SenderProfile(ctx, userID)
	if err != nil {
		return models.SenderProfile{}, err
	}

	c.profiles.Set(userID, profile)
	return profile, nil
}
