package service

import (
	"context"
	"testing"

	"sfu-globe/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateProfile(t, f.db, "alice")

	public, err := f.profiles.GetPublic(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", public.Name)

	name := "Alice Chen"
	major := "Mathematics"
	updated, err := f.profiles.Update(ctx, user.ID, UpdateProfileRequest{FullName: &name, Major: &major})
	require.NoError(t, err)
	assert.Equal(t, "Alice Chen", updated.FullName)
	assert.Equal(t, "Mathematics", updated.Major)
	assert.Equal(t, "2025", updated.Batch, "Fields not in the request stay unchanged")

	bad := "x"
	_, err = f.profiles.Update(ctx, user.ID, UpdateProfileRequest{Username: &bad})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, f.profiles.SetAvatar(ctx, user.ID, "/api/avatars/a/b.png"))
	own, err := f.profiles.GetOwn(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "/api/avatars/a/b.png", own.AvatarURL)

	_, err = f.profiles.GetPublic(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrProfileNotFound)
}
