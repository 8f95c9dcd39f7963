package repository

import (
	"context"
	"testing"

	"sfu-globe/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupMembershipRepo(t *testing.T) (*gorm.DB, *MembershipRepository, *ClubRepository) {
	conn := testutil.NewDB(t)
	return conn, NewMembershipRepository(conn), NewClubRepository(conn)
}

func TestMembershipRepository_Join(t *testing.T) {
	conn, repo, clubRepo := setupMembershipRepo(t)
	ctx := context.Background()
	user := testutil.CreateProfile(t, conn, "joiner")
	club := testutil.CreateClub(t, conn, "Photography Club")

	membership, created, err := repo.Join(ctx, club.ID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, membership)
	assert.True(t, created)
	assert.Equal(t, club.ID, membership.ClubID)
	assert.Equal(t, user.ID, membership.UserID)
	assert.False(t, membership.JoinedAt.IsZero())

	found, err := clubRepo.FindByID(ctx, club.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Members)
}

func TestMembershipRepository_JoinTwiceKeepsSingleRow(t *testing.T) {
	conn, repo, clubRepo := setupMembershipRepo(t)
	ctx := context.Background()
	user := testutil.CreateProfile(t, conn, "twice")
	club := testutil.CreateClub(t, conn, "Dance Club")

	first, created, err := repo.Join(ctx, club.ID, user.ID)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := repo.Join(ctx, club.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, created, "second join must not insert")
	assert.Equal(t, first.ID, second.ID)

	memberships, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, memberships, 1)

	found, err := clubRepo.FindByID(ctx, club.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Members, "member count moves once")
}

func TestMembershipRepository_Leave(t *testing.T) {
	conn, repo, clubRepo := setupMembershipRepo(t)
	ctx := context.Background()
	user := testutil.CreateProfile(t, conn, "leaver")
	club := testutil.CreateClub(t, conn, "Game Development Club")

	_, _, err := repo.Join(ctx, club.ID, user.ID)
	require.NoError(t, err)

	removedRow, removed, err := repo.Leave(ctx, club.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	require.NotNil(t, removedRow)
	assert.Equal(t, user.ID, removedRow.UserID)

	isMember, err := repo.IsMember(ctx, club.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, isMember)

	found, err := clubRepo.FindByID(ctx, club.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, found.Members)
}

func TestMembershipRepository_LeaveNotJoinedIsNoop(t *testing.T) {
	conn, repo, clubRepo := setupMembershipRepo(t)
	ctx := context.Background()
	member := testutil.CreateProfile(t, conn, "member")
	stranger := testutil.CreateProfile(t, conn, "stranger")
	club := testutil.CreateClub(t, conn, "Sustainability Club")

	_, _, err := repo.Join(ctx, club.ID, member.ID)
	require.NoError(t, err)

	row, removed, err := repo.Leave(ctx, club.ID, stranger.ID)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Nil(t, row)

	found, err := clubRepo.FindByID(ctx, club.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Members, "count untouched")

	isMember, err := repo.IsMember(ctx, club.ID, member.ID)
	require.NoError(t, err)
	assert.True(t, isMember, "other memberships untouched")
}

func TestMembershipRepository_LeaveNeverDropsCountBelowZero(t *testing.T) {
	conn, repo, clubRepo := setupMembershipRepo(t)
	ctx := context.Background()
	user := testutil.CreateProfile(t, conn, "zero")
	club := testutil.CreateClub(t, conn, "Chess Club")

	_, _, err := repo.Join(ctx, club.ID, user.ID)
	require.NoError(t, err)
	// 人数被外部改成 0
	require.NoError(t, conn.Exec("UPDATE clubs SET members = 0 WHERE id = ?", club.ID).Error)

	_, removed, err := repo.Leave(ctx, club.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	found, err := clubRepo.FindByID(ctx, club.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, found.Members)
}

func TestMembershipRepository_ListByUserAndMemberIDs(t *testing.T) {
	conn, repo, _ := setupMembershipRepo(t)
	ctx := context.Background()
	alice := testutil.CreateProfile(t, conn, "alice")
	bob := testutil.CreateProfile(t, conn, "bob")
	clubA := testutil.CreateClub(t, conn, "A Club")
	clubB := testutil.CreateClub(t, conn, "B Club")

	for _, pair := range []struct{ club, user uuid.UUID }{
		{clubA.ID, alice.ID}, {clubB.ID, alice.ID}, {clubA.ID, bob.ID},
	} {
		_, _, err := repo.Join(ctx, pair.club, pair.user)
		require.NoError(t, err)
	}

	aliceClubs, err := repo.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceClubs, 2)
	assert.ElementsMatch(t, []uuid.UUID{clubA.ID, clubB.ID}, []uuid.UUID{aliceClubs[0].ClubID, aliceClubs[1].ClubID})

	none, err := repo.Find(ctx, clubB.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, none)
}
