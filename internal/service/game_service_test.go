package service

import (
	"context"
	"testing"
	"time"

	"respawn/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameService_CreateGame(t *testing.T) {
	games := newGameRepoStub()
	audit := &auditRepoStub{}
	svc := NewGameService(games, NewAuditService(audit))

	game, err := svc.CreateGame(context.Background(), GameInput{
		ActorID:     1,
		Slug:        "  Hollow-Knight ",
		Title:       " Hollow Knight ",
		Genres:      []string{"Metroidvania"},
		ReleaseDate: "2017-02-24",
	})
	require.NoError(t, err)
	assert.Equal(t, "hollow-knight", game.Slug)
	assert.Equal(t, "Hollow Knight", game.Title)
	require.NotNil(t, game.ReleaseDate)
	assert.Equal(t, time.Date(2017, 2, 24, 0, 0, 0, 0, time.UTC), *game.ReleaseDate)
	assert.Empty(t, game.Tags)
	assert.NotNil(t, game.Tags)
	assert.Equal(t, []string{models.AuditGameCreated}, audit.actions())
}

func TestGameService_CreateGame_Rejections(t *testing.T) {
	score := 140
	tests := []struct {
		name  string
		in    GameInput
		taken bool
		code  string
	}{
		{"missing title", GameInput{Slug: "a"}, false, models.CodeValidation},
		{"bad slug", GameInput{Slug: "not a slug!", Title: "X"}, false, models.CodeValidation},
		{"critic score out of range", GameInput{Slug: "x", Title: "X", CriticScore: &score}, false, models.CodeValidation},
		{"bad release date", GameInput{Slug: "x", Title: "X", ReleaseDate: "24/02/2017"}, false, models.CodeValidation},
		{"slug taken", GameInput{Slug: "x", Title: "X"}, true, models.CodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			games := newGameRepoStub()
			games.slugTaken = tt.taken
			svc := NewGameService(games, NewAuditService(&auditRepoStub{}))
			_, err := svc.CreateGame(context.Background(), tt.in)
			assertCode(t, err, tt.code)
			assert.Empty(t, games.created)
		})
	}
}

func TestGameService_UpdateGame(t *testing.T) {
	games := newGameRepoStub(&models.Game{ID: 4, Slug: "celeste", Title: "Celeste"})
	svc := NewGameService(games, NewAuditService(&auditRepoStub{}))

	game, err := svc.UpdateGame(context.Background(), 4, GameInput{Slug: "celeste", Title: "Celeste Classic", ReleaseDate: "2018-01-25T00:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, "Celeste Classic", games.games[4].Title)
	require.NotNil(t, game.ReleaseDate)

	_, err = svc.UpdateGame(context.Background(), 99, GameInput{Slug: "x", Title: "X"})
	assertCode(t, err, models.CodeNotFound)
}

func TestGameService_DeleteGame(t *testing.T) {
	t.Run("refused while reviews exist", func(t *testing.T) {
		games := newGameRepoStub(&models.Game{ID: 4, Slug: "celeste"})
		games.reviews = 2
		audit := &auditRepoStub{}
		svc := NewGameService(games, NewAuditService(audit))

		err := svc.DeleteGame(context.Background(), 1, 4)
		assertCode(t, err, models.CodeValidation)
		assert.Empty(t, games.deleted)
		assert.Empty(t, audit.entries)
	})

	t.Run("deletes and audits", func(t *testing.T) {
		games := newGameRepoStub(&models.Game{ID: 4, Slug: "celeste"})
		audit := &auditRepoStub{}
		svc := NewGameService(games, NewAuditService(audit))

		require.NoError(t, svc.DeleteGame(context.Background(), 1, 4))
		assert.Equal(t, []uint{4}, games.deleted)
		assert.Equal(t, []string{models.AuditGameDeleted}, audit.actions())
	})
}
