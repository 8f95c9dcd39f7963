package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"sfu-globe/internal/model"
	"sfu-globe/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRepository_ListByClub(t *testing.T) {
	conn := testutil.NewDB(t)
	repo := NewMessageRepository(conn)
	ctx := context.Background()
	sender := testutil.CreateProfile(t, conn, "sender")
	club := testutil.CreateClub(t, conn, "Chat Club")
	other := testutil.CreateClub(t, conn, "Other Club")

	base := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	// 故意乱序写入
	for _, i := range []int{2, 0, 3, 1} {
		msg := &model.ClubMessage{
			ClubID:    club.ID,
			UserID:    sender.ID,
			Content:   fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(ctx, msg))
	}
	require.NoError(t, repo.Create(ctx, &model.ClubMessage{ClubID: other.ID, UserID: sender.ID, Content: "elsewhere"}))

	t.Run("all ascending", func(t *testing.T) {
		messages, err := repo.ListByClub(ctx, club.ID, 0, nil)
		require.NoError(t, err)
		require.Len(t, messages, 4)
		for i, m := range messages {
			assert.Equal(t, fmt.Sprintf("message %d", i), m.Content)
		}
	})

	t.Run("limit keeps latest ascending", func(t *testing.T) {
		messages, err := repo.ListByClub(ctx, club.ID, 2, nil)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, "message 2", messages[0].Content)
		assert.Equal(t, "message 3", messages[1].Content)
	})

	t.Run("since", func(t *testing.T) {
		since := base.Add(time.Minute)
		messages, err := repo.ListByClub(ctx, club.ID, 0, &since)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, "message 2", messages[0].Content)
	})
}

func TestMessageRepository_FindByID(t *testing.T) {
	conn := testutil.NewDB(t)
	repo := NewMessageRepository(conn)
	ctx := context.Background()
	sender := testutil.CreateProfile(t, conn, "reread")
	club := testutil.CreateClub(t, conn, "Reread Club")

	msg := &model.ClubMessage{ClubID: club.ID, UserID: sender.ID, Content: "hello"}
	require.NoError(t, repo.Create(ctx, msg))
	require.NotEqual(t, uuid.Nil, msg.ID)

	found, err := repo.FindByID(ctx, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "hello", found.Content)
	assert.Equal(t, sender.ID, found.UserID)

	missing, err := repo.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
