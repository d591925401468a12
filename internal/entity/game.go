package entity

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-store/internal/apperror"
)

const (
	FirstSquare = 1
	LastSquare  = 9

	BoardSize = LastSquare - FirstSquare + 1
)

var (
	ErrTooManyMoves  = errors.New("too many moves")
	ErrUnknownPlayer = errors.New("unknown player")
	ErrBadStatus     = errors.New("bad game status")
)

type Move struct {
	SquareID int    `json:"squareId"`
	Player   Player `json:"player"`
}

type Status struct {
	IsComplete bool    `json:"isComplete"`
	Winner     *Player `json:"winner"`
}

// RoundResult - an archived game. It is never mutated after it is created.
type RoundResult struct {
	Moves  []Move `json:"moves"`
	Status Status `json:"status"`
}

type History struct {
	CurrentRoundGames []RoundResult `json:"currentRoundGames"`
	AllRounds         []RoundResult `json:"allRounds"`
}

// GameState - the whole persisted document.
type GameState struct {
	CurrentGameMoves []Move  `json:"currentGameMoves"`
	History          History `json:"history"`
}

// NewGameState - returns the canonical empty document.
func NewGameState() GameState {
	return GameState{
		CurrentGameMoves: []Move{},
		History: History{
			CurrentRoundGames: []RoundResult{},
			AllRounds:         []RoundResult{},
		},
	}
}

// Clone - returns a deep copy which shares no memory with the receiver.
func (that GameState) Clone() GameState {
	return GameState{
		CurrentGameMoves: cloneMoves(that.CurrentGameMoves),
		History: History{
			CurrentRoundGames: cloneResults(that.History.CurrentRoundGames),
			AllRounds:         cloneResults(that.History.AllRounds),
		},
	}
}

// Normalize - replaces absent sequences with empty ones so that the stored form is stable.
func (that GameState) Normalize() GameState {
	if that.CurrentGameMoves == nil {
		that.CurrentGameMoves = []Move{}
	}

	if that.History.CurrentRoundGames == nil {
		that.History.CurrentRoundGames = []RoundResult{}
	}

	if that.History.AllRounds == nil {
		that.History.AllRounds = []RoundResult{}
	}

	return that
}

// Validate - checks the structure of a decoded document.
func (that GameState) Validate() error {
	if err := validateMoves(that.CurrentGameMoves); err != nil {
		return fmt.Errorf("current game: %w", err)
	}

	for i, result := range that.History.CurrentRoundGames {
		if err := validateMoves(result.Moves); err != nil {
			return fmt.Errorf("current round game %d: %w", i, err)
		}
	}

	for i, result := range that.History.AllRounds {
		if err := validateMoves(result.Moves); err != nil {
			return fmt.Errorf("archived game %d: %w", i, err)
		}
	}

	return nil
}

// HasMove - reports whether a square is already taken in the current game.
func (that GameState) HasMove(squareID int) bool {
	for _, move := range that.CurrentGameMoves {
		if move.SquareID == squareID {
			return true
		}
	}

	return false
}

func IsValidSquare(squareID int) bool {
	return squareID >= FirstSquare && squareID <= LastSquare
}

func validateMoves(moves []Move) error {
	if len(moves) > BoardSize {
		return fmt.Errorf("%w: %d", ErrTooManyMoves, len(moves))
	}

	for _, move := range moves {
		if !IsValidSquare(move.SquareID) {
			return fmt.Errorf("%w: %d", apperror.ErrInvalidCell, move.SquareID)
		}

		if move.Player.ID <= 0 {
			return fmt.Errorf("%w: id %d", ErrUnknownPlayer, move.Player.ID)
		}
	}

	return nil
}

func cloneMoves(moves []Move) []Move {
	if moves == nil {
		return []Move{}
	}

	out := make([]Move, len(moves))
	copy(out, moves)

	return out
}

func cloneResults(results []RoundResult) []RoundResult {
	if results == nil {
		return []RoundResult{}
	}

	out := make([]RoundResult, len(results))
	for i, result := range results {
		out[i] = RoundResult{
			Moves:  cloneMoves(result.Moves),
			Status: result.Status.clone(),
		}
	}

	return out
}

func (that Status) clone() Status {
	if that.Winner == nil {
		return that
	}

	winner := *that.Winner
	that.Winner = &winner

	return that
}

// UnmarshalJSON - also accepts 0 and 1 for isComplete, as written by older clients.
func (that *Status) UnmarshalJSON(data []byte) error {
	var raw struct {
		IsComplete json.RawMessage `json:"isComplete"`
		Winner     *Player         `json:"winner"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err //nolint: wrapcheck // decoding error is reported by the caller
	}

	switch string(raw.IsComplete) {
	case "true", "1":
		that.IsComplete = true
	case "false", "0", "", "null":
		that.IsComplete = false
	default:
		return fmt.Errorf("%w: isComplete %s", ErrBadStatus, raw.IsComplete)
	}

	that.Winner = raw.Winner

	return nil
}
