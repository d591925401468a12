package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-store/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-store/internal/entity"
)

// Transform - computes the next document from the previous one. It receives a private copy.
type Transform func(prev entity.GameState) entity.GameState

type stateRepo interface {
	Load(ctx context.Context) (entity.GameState, error)
	Save(ctx context.Context, state entity.GameState) error
	Watch(ctx context.Context) (<-chan struct{}, error)
}

type changeNotifier interface {
	Subscribe() (<-chan struct{}, func())
	Publish()
}

type storeMetrics interface {
	MoveAccepted()
	RoundArchived(hasWinner bool)
	RoundGroupClosed()
}

// GameStore - the state engine. Every mutation reads the stored document, applies the
// change to a copy and persists the copy; subscribers are signaled only after the write.
type GameStore struct {
	logger   *slog.Logger
	players  entity.Players
	repo     stateRepo
	notifier changeNotifier
	metrics  storeMetrics

	// serializes read-modify-write within the process; other processes still race (last write wins)
	mu sync.Mutex
}

func NewGameStore(logger *slog.Logger, players entity.Players, repo stateRepo, notifier changeNotifier, metrics storeMetrics) *GameStore {
	return &GameStore{
		logger:   logger.With("component", "game-store"),
		players:  players,
		repo:     repo,
		notifier: notifier,
		metrics:  metrics,
	}
}

func (that *GameStore) Players() entity.Players {
	return that.players
}

// LoadState - returns the stored document, or the empty one when nothing is stored yet.
func (that *GameStore) LoadState(ctx context.Context) (entity.GameState, error) {
	state, err := that.repo.Load(ctx)
	if err != nil {
		return entity.GameState{}, fmt.Errorf("failed to load state: %w", err)
	}

	return state, nil
}

// SaveState - persists either a replacement document (entity.GameState, *entity.GameState)
// or a Transform of the stored one, then signals subscribers.
func (that *GameStore) SaveState(ctx context.Context, next any) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.saveState(ctx, next)
}

func (that *GameStore) PlayerMove(ctx context.Context, squareID int) error {
	log := that.logger.With("method", "PlayerMove", "squareId", squareID)

	if !entity.IsValidSquare(squareID) {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidCell, squareID)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	state, err := that.LoadState(ctx)
	if err != nil {
		return err
	}

	if state.HasMove(squareID) {
		return fmt.Errorf("%w: %d", apperror.ErrCellOccupied, squareID)
	}

	game := entity.Derive(state.CurrentGameMoves, that.players)
	if game.IsComplete() {
		return apperror.ErrGameFinished
	}

	next := state.Clone()
	next.CurrentGameMoves = append(next.CurrentGameMoves, entity.Move{
		SquareID: squareID,
		Player:   game.CurrentPlayer,
	})

	if err = that.saveState(ctx, next); err != nil {
		return err
	}

	that.metrics.MoveAccepted()
	log.Debug("move accepted", "playerId", game.CurrentPlayer.ID)

	return nil
}

// Reset - clears the board; a finished game is scored before that, an unfinished one is dropped.
func (that *GameStore) Reset(ctx context.Context) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.reset(ctx)
}

// NewRound - resets the board, then moves the scoreboard of the round-group into allRounds.
func (that *GameStore) NewRound(ctx context.Context) error {
	log := that.logger.With("method", "NewRound")

	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.reset(ctx); err != nil {
		return err
	}

	state, err := that.LoadState(ctx)
	if err != nil {
		return err
	}

	next := state.Clone()
	closed := len(next.History.CurrentRoundGames)
	next.History.AllRounds = append(next.History.AllRounds, next.History.CurrentRoundGames...)
	next.History.CurrentRoundGames = []entity.RoundResult{}

	if err = that.saveState(ctx, next); err != nil {
		return err
	}

	that.metrics.RoundGroupClosed()
	log.Debug("round-group closed", "games", closed)

	return nil
}

// Game - the derived view of the current game.
func (that *GameStore) Game(ctx context.Context) (entity.DerivedGame, error) {
	state, err := that.LoadState(ctx)
	if err != nil {
		return entity.DerivedGame{}, err
	}

	return entity.Derive(state.CurrentGameMoves, that.players), nil
}

// Stats - the scoreboard of the current round-group.
func (that *GameStore) Stats(ctx context.Context) (entity.Stats, error) {
	state, err := that.LoadState(ctx)
	if err != nil {
		return entity.Stats{}, err
	}

	return entity.ComputeStats(that.players, state.History), nil
}

// Subscribe - in-process change signals.
func (that *GameStore) Subscribe() (<-chan struct{}, func()) {
	return that.notifier.Subscribe()
}

// WatchExternal - signals writes made by other contexts sharing the storage.
func (that *GameStore) WatchExternal(ctx context.Context) (<-chan struct{}, error) {
	changes, err := that.repo.Watch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to watch external changes: %w", err)
	}

	return changes, nil
}

func (that *GameStore) reset(ctx context.Context) error {
	log := that.logger.With("method", "Reset")

	state, err := that.LoadState(ctx)
	if err != nil {
		return err
	}

	game := entity.Derive(state.CurrentGameMoves, that.players)

	next := state.Clone()
	if game.IsComplete() {
		next.History.CurrentRoundGames = append(next.History.CurrentRoundGames, game.Result())
	}
	next.CurrentGameMoves = []entity.Move{}

	if err = that.saveState(ctx, next); err != nil {
		return err
	}

	if game.IsComplete() {
		that.metrics.RoundArchived(game.Status.Winner != nil)
	}

	log.Debug("board cleared", "archived", game.IsComplete())

	return nil
}

func (that *GameStore) saveState(ctx context.Context, next any) error {
	var newState entity.GameState

	switch value := next.(type) {
	case entity.GameState:
		newState = value.Clone()
	case *entity.GameState:
		if value == nil {
			return fmt.Errorf("%w: nil document", apperror.ErrInvalidArgument)
		}

		newState = value.Clone()
	case Transform:
		if value == nil {
			return fmt.Errorf("%w: nil transform", apperror.ErrInvalidArgument)
		}

		prev, err := that.LoadState(ctx)
		if err != nil {
			return err
		}

		newState = value(prev.Clone())
	case func(entity.GameState) entity.GameState:
		return that.saveState(ctx, Transform(value))
	default:
		return fmt.Errorf("%w: %T", apperror.ErrInvalidArgument, next)
	}

	// a document that fails here could never be loaded again
	if err := newState.Validate(); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidArgument, err)
	}

	if err := that.repo.Save(ctx, newState); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	that.notifier.Publish()

	return nil
}
