package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinelogapp/cinelog-server/internal/domain"
	"github.com/cinelogapp/cinelog-server/internal/store"
)

func TestRegistry_ReserveAndRelease(t *testing.T) {
	tc := newTestCatalog(t)
	ctx := context.Background()
	registry := NewRegistry(tc.store)

	claim := domain.ImdbClaim{ImdbID: "tt0468569", OwnerKind: domain.OwnerMovie, OwnerID: NewID()}
	require.NoError(t, registry.Reserve(ctx, claim))

	exists, err := registry.Exists(ctx, claim.ImdbID)
	require.NoError(t, err)
	assert.True(t, exists)

	owner, err := registry.Owner(ctx, claim.ImdbID)
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, claim, *owner)
	assert.True(t, owner.Owns(domain.OwnerMovie, claim.OwnerID))
	assert.False(t, owner.Owns(domain.OwnerSeries, claim.OwnerID))

	// The store's primary key is what makes the reservation exclusive.
	rival := domain.ImdbClaim{ImdbID: claim.ImdbID, OwnerKind: domain.OwnerSeries, OwnerID: NewID()}
	err = registry.Reserve(ctx, rival)
	require.ErrorIs(t, err, store.ErrDuplicateID)

	require.NoError(t, registry.Release(ctx, claim.ImdbID))

	owner, err = registry.Owner(ctx, claim.ImdbID)
	require.NoError(t, err)
	assert.Nil(t, owner, "released ids resolve to no claim")

	exists, err = registry.Exists(ctx, claim.ImdbID)
	require.NoError(t, err)
	assert.False(t, exists)

	// Releasing an id nobody holds is not an error; compensation paths
	// call this without knowing whether the reservation ever landed.
	require.NoError(t, registry.Release(ctx, "tt0000000"))

	require.NoError(t, registry.Reserve(ctx, rival))
}

func TestRegistry_Claims(t *testing.T) {
	tc := newTestCatalog(t)
	ctx := context.Background()
	registry := NewRegistry(tc.store)

	claims, err := registry.Claims(ctx)
	require.NoError(t, err)
	assert.Empty(t, claims)

	want := map[string]domain.OwnerKind{
		"tt0468569": domain.OwnerMovie,
		"tt0903747": domain.OwnerSeries,
		"tt0111161": domain.OwnerMovie,
	}
	for imdbID, kind := range want {
		claim := domain.ImdbClaim{ImdbID: imdbID, OwnerKind: kind, OwnerID: NewID()}
		require.NoError(t, registry.Reserve(ctx, claim))
	}

	claims, err = registry.Claims(ctx)
	require.NoError(t, err)
	require.Len(t, claims, 3)
	for _, claim := range claims {
		assert.Equal(t, want[claim.ImdbID], claim.OwnerKind)
	}
}

func TestParseOwnerKind(t *testing.T) {
	kind, err := domain.ParseOwnerKind("movie")
	require.NoError(t, err)
	assert.Equal(t, domain.OwnerMovie, kind)

	kind, err = domain.ParseOwnerKind("series")
	require.NoError(t, err)
	assert.Equal(t, domain.OwnerSeries, kind)

	_, err = domain.ParseOwnerKind("book")
	require.Error(t, err)
}
