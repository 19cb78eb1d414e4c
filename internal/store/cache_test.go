package store

import (
	"context"
	"testing"

	"pmchat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	Store
	profileCalls int
}

func (c *countingStore) SenderProfile(ctx context.Context, userID string) (models.SenderProfile, error) {
	c.profileCalls++
	if userID == "missing" {
		return models.SenderProfile{}, models.ErrNotFound
	}
	return models.SenderProfile{Name: "Alice"}, nil
}

func TestCachedStore_SenderProfile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inner := &countingStore{}
	cached := NewCachedStore(ctx, inner)

	for i := 0; i < 3; i++ {
		profile, err := cached.SenderProfile(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Alice", profile.Name)
	}
	assert.Equal(t, 1, inner.profileCalls, "repeat lookups served from cache")
}

func TestCachedStore_MissesNotCached(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inner := &countingStore{}
	cached := NewCachedStore(ctx, inner)

	for i := 0; i < 2; i++ {
		_, err := cached.SenderProfile(ctx, "missing")
		assert.ErrorIs(t, err, models.ErrNotFound)
	}
	assert.Equal(t, 2, inner.profileCalls)
}
