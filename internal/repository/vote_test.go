package repository

import (
	"context"
	"testing"

	"respawn/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteRepository_CountersFollowVotes(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewVoteRepository(db)
	reviews := NewReviewRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	v1 := createUser(t, db, "v1")
	v2 := createUser(t, db, "v2")
	game := createGame(t, db, "tunic")
	review := createReview(t, db, author.ID, game.ID, 8.5)

	ok, err := repo.TargetExists(ctx, models.VoteTargetReview, review.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Create(ctx, &models.Vote{UserID: v1.ID, TargetType: models.VoteTargetReview, TargetID: review.ID, Value: models.VoteUp}))
	require.NoError(t, repo.Create(ctx, &models.Vote{UserID: v2.ID, TargetType: models.VoteTargetReview, TargetID: review.ID, Value: models.VoteDown}))

	got, err := reviews.GetByID(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UpvotesCount)
	assert.Equal(t, 1, got.DownvotesCount)

	dup := &models.Vote{UserID: v1.ID, TargetType: models.VoteTargetReview, TargetID: review.ID, Value: models.VoteDown}
	assert.True(t, models.HasCode(repo.Create(ctx, dup), models.CodeConflict))

	require.NoError(t, repo.UpdateValue(ctx, &models.Vote{UserID: v2.ID, TargetType: models.VoteTargetReview, TargetID: review.ID, Value: models.VoteUp}))
	got, err = reviews.GetByID(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UpvotesCount)
	assert.Equal(t, 0, got.DownvotesCount)

	require.NoError(t, repo.Delete(ctx, v1.ID, models.VoteTargetReview, review.ID))
	tally, err := repo.Tally(ctx, models.VoteTargetReview, review.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VoteTally{Upvotes: 1, Downvotes: 0}, tally)

	got, err = reviews.GetByID(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UpvotesCount)

	assert.True(t, models.HasCode(repo.Delete(ctx, v1.ID, models.VoteTargetReview, review.ID), models.CodeNotFound))
	missing := &models.Vote{UserID: v1.ID, TargetType: models.VoteTargetReview, TargetID: review.ID, Value: 1}
	assert.True(t, models.HasCode(repo.UpdateValue(ctx, missing), models.CodeNotFound))
}

func TestVoteRepository_TargetExistsUnknownType(t *testing.T) {
	db := setupSQLiteDB(t)
	ok, err := NewVoteRepository(db).TargetExists(context.Background(), "GAME", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}
