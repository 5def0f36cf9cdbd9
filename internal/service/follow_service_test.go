package service

import (
	"context"
	"testing"

	"respawn/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowService_Follow(t *testing.T) {
	ctx := context.Background()
	follows := newFollowRepoStub()
	svc := NewFollowService(follows, newUserRepoStub(&models.User{ID: 1}, &models.User{ID: 2}))

	assertCode(t, svc.Follow(ctx, 1, 1), models.CodeValidation)
	assertCode(t, svc.Follow(ctx, 1, 42), models.CodeNotFound)

	require.NoError(t, svc.Follow(ctx, 1, 2))
	assertCode(t, svc.Follow(ctx, 1, 2), models.CodeConflict)
	assert.Len(t, follows.edges, 1)

	require.NoError(t, svc.Unfollow(ctx, 1, 2))
	assertCode(t, svc.Unfollow(ctx, 1, 2), models.CodeNotFound)
	assert.Empty(t, follows.edges)
}

func TestFollowService_ListsRequireUser(t *testing.T) {
	svc := NewFollowService(newFollowRepoStub(), newUserRepoStub(&models.User{ID: 1}))

	_, _, err := svc.Followers(context.Background(), 9, 1, 20)
	assertCode(t, err, models.CodeNotFound)
	_, _, err = svc.Following(context.Background(), 1, 1, 20)
	assert.NoError(t, err)
}
