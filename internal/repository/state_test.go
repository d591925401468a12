package repository_test

import (
	"context"
	"testing"

	"github.com/rocketscienceinc/tictactoe-store/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-store/internal/entity"
	"github.com/rocketscienceinc/tictactoe-store/internal/repository"
	"github.com/rocketscienceinc/tictactoe-store/internal/repository/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "live-t3-storage-key"

func TestStateRepository_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing key yields the empty document", func(t *testing.T) {
		// Given: an empty storage
		repo := repository.NewStateRepository(storage.NewMemoryStorage(), testKey)

		// When: loading the state
		state, err := repo.Load(ctx)

		// Then: the canonical empty document is returned
		require.NoError(t, err)
		assert.Equal(t, entity.NewGameState(), state)
	})

	t.Run("Corrupted payloads fail with ErrParse", func(t *testing.T) {
		payloads := []string{
			"",
			"null",
			"not json",
			`{"currentGameMoves": 5}`,
			`{"currentGameMoves": [], "unknown": true}`,
			`{"currentGameMoves": [{"squareId": 12, "player": {"id": 1}}]}`,
			`{"currentGameMoves": []} {}`,
		}

		for _, payload := range payloads {
			// Given: a storage holding a corrupted payload
			st := storage.NewMemoryStorage()
			require.NoError(t, st.Set(ctx, testKey, payload))

			repo := repository.NewStateRepository(st, testKey)

			// When: loading the state
			_, err := repo.Load(ctx)

			// Then: a parse error is reported
			require.ErrorIs(t, err, apperror.ErrParse, "payload %q", payload)
		}
	})

	t.Run("Documents written by older clients are accepted", func(t *testing.T) {
		// Given: a document with a numeric isComplete flag
		payload := `{
			"currentGameMoves": [{"squareId": 5, "player": {"id": 1, "name": "Player 1", "iconClass": "fa-o", "colorClass": "yellow"}}],
			"history": {
				"currentRoundGames": [{"moves": [], "status": {"isComplete": 1, "winner": null}}],
				"allRounds": []
			}
		}`

		st := storage.NewMemoryStorage()
		require.NoError(t, st.Set(ctx, testKey, payload))

		repo := repository.NewStateRepository(st, testKey)

		// When: loading the state
		state, err := repo.Load(ctx)

		// Then: the document is decoded
		require.NoError(t, err)
		require.Len(t, state.CurrentGameMoves, 1)
		assert.Equal(t, 5, state.CurrentGameMoves[0].SquareID)
		require.Len(t, state.History.CurrentRoundGames, 1)
		assert.True(t, state.History.CurrentRoundGames[0].Status.IsComplete)
		assert.Nil(t, state.History.CurrentRoundGames[0].Status.Winner)
	})
}

func TestStateRepository_SaveLoad(t *testing.T) {
	ctx := context.Background()
	players := entity.DefaultPlayers()

	// Given: a document with moves and both kinds of history
	winner := players[1]
	state := entity.NewGameState()
	state.CurrentGameMoves = []entity.Move{
		{SquareID: 5, Player: players[0]},
		{SquareID: 1, Player: players[1]},
	}
	state.History.CurrentRoundGames = []entity.RoundResult{{
		Moves: []entity.Move{
			{SquareID: 1, Player: players[0]},
			{SquareID: 3, Player: players[1]},
		},
		Status: entity.Status{IsComplete: true, Winner: &winner},
	}}
	state.History.AllRounds = []entity.RoundResult{{
		Moves:  []entity.Move{},
		Status: entity.Status{IsComplete: true},
	}}

	repo := repository.NewStateRepository(storage.NewMemoryStorage(), testKey)

	// When: saving and loading it back
	require.NoError(t, repo.Save(ctx, state))
	loaded, err := repo.Load(ctx)

	// Then: the loaded document is deeply equal
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
}
