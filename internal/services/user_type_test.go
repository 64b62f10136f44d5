package services

import (
	"context"
	"testing"

	"github.com/creatorhub/apiserver/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserTypeService(t *testing.T) {
	svc := NewUserTypeService(memstore.New().UserTypes())
	ctx := context.Background()

	artist, err := svc.Create(ctx, UserTypeInput{Name: " Artist ", Description: ptr("Visual artists")})
	require.NoError(t, err)
	assert.Equal(t, "Artist", artist.Name)
	assert.True(t, artist.IsActive)

	_, err = svc.Create(ctx, UserTypeInput{Name: "Artist"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Create(ctx, UserTypeInput{Name: ""})
	assert.ErrorIs(t, err, ErrValidation)

	musician, err := svc.Create(ctx, UserTypeInput{Name: "Musician"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, musician.ID, UserTypeInput{Name: "Musician", IsActive: ptr(false)})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, musician.CreatedAt, updated.CreatedAt)

	_, err = svc.Update(ctx, musician.ID, UserTypeInput{Name: "Artist"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Update(ctx, 999, UserTypeInput{Name: "Ghost"})
	assert.ErrorIs(t, err, ErrNotFound)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Artist", active[0].Name)
}
