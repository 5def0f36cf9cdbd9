package repository

import (
	"context"
	"testing"

	"respawn/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	game := createGame(t, db, "inside")
	review := createReview(t, db, author.ID, game.ID, 9)

	first := &models.Comment{ReviewID: review.ID, UserID: author.ID, BodyMD: "first", Status: models.CommentStatusPublished}
	hidden := &models.Comment{ReviewID: review.ID, UserID: author.ID, BodyMD: "hidden", Status: models.CommentStatusHidden}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, hidden))

	list, err := repo.ListByReview(ctx, review.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "first", list[0].BodyMD)
	require.NotNil(t, list[0].User)

	n, err := repo.CountByReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	first.BodyMD = "edited"
	require.NoError(t, repo.Update(ctx, first))
	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.BodyMD)

	require.NoError(t, repo.Delete(ctx, first.ID))
	assert.True(t, models.HasCode(repo.Delete(ctx, first.ID), models.CodeNotFound))
}
