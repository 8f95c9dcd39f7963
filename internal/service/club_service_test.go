package service

import (
	"context"
	"testing"

	"sfu-globe/pkg/feed"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClubService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	club, err := f.clubs.Create(ctx, CreateClubRequest{
		Name:        "SFU Dance",
		Description: "Dance workshops and performances",
		Icon:        "music",
		Location:    "Rotunda",
		MeetingTime: "Tuesdays 6pm",
		Activities:  []string{"Hip Hop", "Contemporary"},
	})
	require.NoError(t, err)
	assert.Len(t, f.pub.OnTopic(feed.ClubsTopic()), 1)

	_, err = f.clubs.Create(ctx, CreateClubRequest{Name: "No details"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	got, err := f.clubs.Get(ctx, club.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hip Hop", "Contemporary"}, got.Activities)

	clubs, err := f.clubs.List(ctx, "dance")
	require.NoError(t, err)
	assert.Len(t, clubs, 1)

	clubs, err = f.clubs.List(ctx, "chess")
	require.NoError(t, err)
	assert.Empty(t, clubs)

	_, err = f.clubs.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrClubNotFound)
}
