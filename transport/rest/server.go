package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rocketscienceinc/tictactoe-store/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type gameStore interface {
	PlayerMove(ctx context.Context, squareID int) error
	Reset(ctx context.Context) error
	NewRound(ctx context.Context) error
	Game(ctx context.Context) (entity.DerivedGame, error)
	Stats(ctx context.Context) (entity.Stats, error)
}

type Server struct {
	logger   *slog.Logger
	store    gameStore
	gatherer prometheus.Gatherer
}

func New(logger *slog.Logger, store gameStore, gatherer prometheus.Gatherer) *Server {
	return &Server{
		logger:   logger.With("component", "rest"),
		store:    store,
		gatherer: gatherer,
	}
}

func (that *Server) Router() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/ping", NewPingHandler().PingHandler).Methods(http.MethodGet)
	router.HandleFunc("/state", that.getState).Methods(http.MethodGet)
	router.HandleFunc("/moves", that.postMove).Methods(http.MethodPost)
	router.HandleFunc("/reset", that.postReset).Methods(http.MethodPost)
	router.HandleFunc("/new-round", that.postNewRound).Methods(http.MethodPost)
	router.Handle("/metrics", promhttp.HandlerFor(that.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return router
}

// Start - serves until ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
