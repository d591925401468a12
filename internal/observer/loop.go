package observer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-store/internal/entity"
)

var ErrFeedClosed = errors.New("external change feed closed")

// Renderer - a passive consumer of the derived game and scoreboard.
type Renderer interface {
	Render(ctx context.Context, game entity.DerivedGame, stats entity.Stats)
}

type gameStore interface {
	Game(ctx context.Context) (entity.DerivedGame, error)
	Stats(ctx context.Context) (entity.Stats, error)
	Subscribe() (<-chan struct{}, func())
	WatchExternal(ctx context.Context) (<-chan struct{}, error)
}

type loopMetrics interface {
	ExternalChange()
}

// Loop - the host render path. It re-reads state and renders on start, on every
// in-process change and on every write from another context.
type Loop struct {
	logger    *slog.Logger
	store     gameStore
	metrics   loopMetrics
	renderers []Renderer
}

func NewLoop(logger *slog.Logger, store gameStore, metrics loopMetrics, renderers ...Renderer) *Loop {
	return &Loop{
		logger:    logger.With("component", "observer"),
		store:     store,
		metrics:   metrics,
		renderers: renderers,
	}
}

// Run - blocks until ctx is canceled.
func (that *Loop) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	changes, unsubscribe := that.store.Subscribe()
	defer unsubscribe()

	external, err := that.store.WatchExternal(ctx)
	if err != nil {
		return fmt.Errorf("failed to start observer loop: %w", err)
	}

	// first load of the document
	that.render(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info("observer loop stopped")
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}

			that.render(ctx)
		case _, ok := <-external:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}

				return ErrFeedClosed
			}

			log.Info("state changed from another context")
			that.metrics.ExternalChange()
			that.render(ctx)
		}
	}
}

func (that *Loop) render(ctx context.Context) {
	log := that.logger.With("method", "render")

	game, err := that.store.Game(ctx)
	if err != nil {
		log.Error("failed to derive game", "error", err)
		return
	}

	stats, err := that.store.Stats(ctx)
	if err != nil {
		log.Error("failed to compute stats", "error", err)
		return
	}

	for _, renderer := range that.renderers {
		renderer.Render(ctx, game, stats)
	}
}

// LogRenderer - writes every rendered state to the log.
type LogRenderer struct {
	logger *slog.Logger
}

func NewLogRenderer(logger *slog.Logger) *LogRenderer {
	return &LogRenderer{logger: logger.With("component", "log-renderer")}
}

func (that *LogRenderer) Render(_ context.Context, game entity.DerivedGame, stats entity.Stats) {
	attrs := []any{
		"moves", len(game.Moves),
		"ties", stats.Ties,
	}

	for _, player := range stats.PlayerWithStats {
		attrs = append(attrs, fmt.Sprintf("wins_%d", player.ID), player.Wins)
	}

	switch {
	case game.Status.Winner != nil:
		that.logger.Info(game.Status.Winner.Name+" wins!", attrs...)
	case game.IsComplete():
		that.logger.Info("It's a Tie", attrs...)
	default:
		that.logger.Info("waiting for move", append(attrs, "currentPlayer", game.CurrentPlayer.Name)...)
	}
}
