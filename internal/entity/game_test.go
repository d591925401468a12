package entity

import (
	"testing"

	"github.com/rocketscienceinc/tictactoe-store/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func movesOf(players Players, squares ...int) []Move {
	moves := make([]Move, 0, len(squares))
	for i, square := range squares {
		moves = append(moves, Move{SquareID: square, Player: players[i%2]})
	}

	return moves
}

func TestDerive(t *testing.T) {
	players := DefaultPlayers()

	t.Run("Player 1 wins with the top row", func(t *testing.T) {
		// Given: player 1 owns squares 1, 2 and 3
		moves := []Move{
			{SquareID: 1, Player: players[0]},
			{SquareID: 2, Player: players[0]},
			{SquareID: 3, Player: players[0]},
		}

		// When: deriving the game
		game := Derive(moves, players)

		// Then: player 1 is the winner and the game is complete
		require.NotNil(t, game.Status.Winner)
		assert.Equal(t, players[0], *game.Status.Winner)
		assert.True(t, game.Status.IsComplete)
	})

	t.Run("Full board without a line is a draw", func(t *testing.T) {
		// Given: all nine squares filled, no line owned by one player
		// X O X
		// X O O
		// O X X
		moves := []Move{
			{SquareID: 1, Player: players[0]},
			{SquareID: 2, Player: players[1]},
			{SquareID: 3, Player: players[0]},
			{SquareID: 5, Player: players[1]},
			{SquareID: 4, Player: players[0]},
			{SquareID: 6, Player: players[1]},
			{SquareID: 8, Player: players[0]},
			{SquareID: 7, Player: players[1]},
			{SquareID: 9, Player: players[0]},
		}

		// When: deriving the game
		game := Derive(moves, players)

		// Then: there is no winner but the game is complete
		assert.Nil(t, game.Status.Winner)
		assert.True(t, game.Status.IsComplete)
	})

	t.Run("Five moves without a line keep the game going", func(t *testing.T) {
		// Given: five alternating moves without any completed line
		moves := movesOf(players, 1, 2, 3, 5, 4)

		// When: deriving the game
		game := Derive(moves, players)

		// Then: nobody has won yet
		assert.Nil(t, game.Status.Winner)
		assert.False(t, game.Status.IsComplete)
		assert.Equal(t, players[1], game.CurrentPlayer)
	})

	t.Run("Every winning line is detected", func(t *testing.T) {
		for _, combo := range WinCombos {
			// Given: player 2 owns the line
			moves := []Move{
				{SquareID: combo[0], Player: players[1]},
				{SquareID: combo[1], Player: players[1]},
				{SquareID: combo[2], Player: players[1]},
			}

			// When: deriving the game
			game := Derive(moves, players)

			// Then: player 2 wins
			require.NotNil(t, game.Status.Winner, "combo %v", combo)
			assert.Equal(t, players[1].ID, game.Status.Winner.ID)
		}
	})

	t.Run("Last matching player wins when both own a line", func(t *testing.T) {
		// Given: an illegal log where both players own a row
		moves := []Move{
			{SquareID: 1, Player: players[0]},
			{SquareID: 2, Player: players[0]},
			{SquareID: 3, Player: players[0]},
			{SquareID: 7, Player: players[1]},
			{SquareID: 8, Player: players[1]},
			{SquareID: 9, Player: players[1]},
		}

		// When: deriving the game
		game := Derive(moves, players)

		// Then: the later player in the registry is reported
		require.NotNil(t, game.Status.Winner)
		assert.Equal(t, players[1].ID, game.Status.Winner.ID)
	})

	t.Run("Turns alternate by number of moves", func(t *testing.T) {
		squares := []int{5, 1, 9, 3, 2, 8, 4, 6, 7}

		for n := 0; n <= BoardSize; n++ {
			// When: deriving after n moves
			game := Derive(movesOf(players, squares[:n]...), players)

			// Then: player 1 moves on even counts, player 2 on odd
			assert.Equal(t, players[n%2].ID, game.CurrentPlayer.ID, "after %d moves", n)
		}
	})

	t.Run("Derive is pure and idempotent", func(t *testing.T) {
		orderings := [][]int{
			{1, 5, 9, 3, 7, 2, 8, 4, 6},
			{5, 1, 9, 3, 2, 8, 4, 6, 7},
			{1, 2, 3, 5, 4, 6, 8, 7, 9},
			{9, 8, 7, 6, 5, 4, 3, 2, 1},
		}

		for _, squares := range orderings {
			for n := 0; n <= len(squares); n++ {
				// Given: a prefix of a move log
				moves := movesOf(players, squares[:n]...)

				// When: deriving twice
				first := Derive(moves, players)
				second := Derive(moves, players)

				// Then: both results are equal and the log itself is untouched
				assert.Equal(t, first, second, "%v after %d moves", squares, n)
				assert.Equal(t, movesOf(players, squares[:n]...), moves, "%v after %d moves", squares, n)

				if n > 0 {
					first.Moves[0].SquareID = 0
					assert.Equal(t, squares[0], moves[0].SquareID, "%v after %d moves", squares, n)
				}
			}
		}
	})
}

func TestGameState_Clone(t *testing.T) {
	players := DefaultPlayers()

	t.Run("Clone shares no memory with the original", func(t *testing.T) {
		// Given: a document with history
		winner := players[0]
		state := NewGameState()
		state.CurrentGameMoves = movesOf(players, 1, 2)
		state.History.CurrentRoundGames = []RoundResult{{
			Moves:  movesOf(players, 1, 4, 2, 5, 3),
			Status: Status{IsComplete: true, Winner: &winner},
		}}

		// When: cloning and mutating the clone
		clone := state.Clone()
		clone.CurrentGameMoves = append(clone.CurrentGameMoves, Move{SquareID: 9, Player: players[0]})
		clone.CurrentGameMoves[0].SquareID = 7
		clone.History.CurrentRoundGames[0].Moves[0].SquareID = 8
		clone.History.CurrentRoundGames[0].Status.Winner.Name = "changed"

		// Then: the original is unchanged
		assert.Len(t, state.CurrentGameMoves, 2)
		assert.Equal(t, 1, state.CurrentGameMoves[0].SquareID)
		assert.Equal(t, 1, state.History.CurrentRoundGames[0].Moves[0].SquareID)
		assert.Equal(t, "Player 1", state.History.CurrentRoundGames[0].Status.Winner.Name)
	})

	t.Run("Clone of a zero document is normalized", func(t *testing.T) {
		clone := GameState{}.Clone()

		assert.Equal(t, NewGameState(), clone)
	})
}

func TestGameState_Validate(t *testing.T) {
	players := DefaultPlayers()

	t.Run("Accepts a well formed document", func(t *testing.T) {
		state := NewGameState()
		state.CurrentGameMoves = movesOf(players, 1, 2, 3)

		assert.NoError(t, state.Validate())
	})

	t.Run("Rejects a square outside the board", func(t *testing.T) {
		state := NewGameState()
		state.CurrentGameMoves = []Move{{SquareID: 10, Player: players[0]}}

		assert.ErrorIs(t, state.Validate(), apperror.ErrInvalidCell)
	})

	t.Run("Rejects moves without a player", func(t *testing.T) {
		state := NewGameState()
		state.History.AllRounds = []RoundResult{{Moves: []Move{{SquareID: 1}}}}

		assert.ErrorIs(t, state.Validate(), ErrUnknownPlayer)
	})

	t.Run("Rejects more than nine moves", func(t *testing.T) {
		state := NewGameState()
		state.CurrentGameMoves = movesOf(players, 1, 2, 3, 4, 5, 6, 7, 8, 9, 1)

		assert.ErrorIs(t, state.Validate(), ErrTooManyMoves)
	})
}

func TestComputeStats(t *testing.T) {
	players := DefaultPlayers()

	result := func(winner *Player) RoundResult {
		return RoundResult{Status: Status{IsComplete: true, Winner: winner}}
	}

	t.Run("Counts wins and ties of the current round-group only", func(t *testing.T) {
		// Given: 3 wins for player 1, 1 for player 2, 2 ties, and archived rounds
		p1, p2 := players[0], players[1]
		history := History{
			CurrentRoundGames: []RoundResult{
				result(&p1), result(nil), result(&p2), result(&p1), result(nil), result(&p1),
			},
			AllRounds: []RoundResult{result(&p2), result(&p2)},
		}

		// When: computing stats
		stats := ComputeStats(players, history)

		// Then: only current round games are counted
		assert.Equal(t, 3, stats.Wins(1))
		assert.Equal(t, 1, stats.Wins(2))
		assert.Equal(t, 2, stats.Ties)
		require.Len(t, stats.PlayerWithStats, 2)
		assert.Equal(t, "Player 1", stats.PlayerWithStats[0].Name)
	})

	t.Run("Empty history yields zeroes", func(t *testing.T) {
		stats := ComputeStats(players, NewGameState().History)

		assert.Equal(t, 0, stats.Wins(1))
		assert.Equal(t, 0, stats.Wins(2))
		assert.Equal(t, 0, stats.Ties)
	})
}
