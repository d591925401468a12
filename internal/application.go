package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rocketscienceinc/tictactoe-store/internal/config"
	"github.com/rocketscienceinc/tictactoe-store/internal/entity"
	"github.com/rocketscienceinc/tictactoe-store/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-store/internal/notifier"
	"github.com/rocketscienceinc/tictactoe-store/internal/observer"
	"github.com/rocketscienceinc/tictactoe-store/internal/repository"
	"github.com/rocketscienceinc/tictactoe-store/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-store/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-store/transport/rest"
	"github.com/rocketscienceinc/tictactoe-store/transport/websocket"
)

const metricsNamespace = "tictactoe"

var (
	ErrAddrNotFound   = errors.New("redis address string is empty")
	ErrUnknownStorage = errors.New("unknown storage driver")
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	backend, err := openStorage(ctx, logger, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = backend.Close(); err != nil {
			log.Error("could not close storage", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	appMetrics := metrics.New(metricsNamespace, registry)

	stateRepo := repository.NewStateRepository(backend, conf.StorageKey)
	gameStore := usecase.NewGameStore(logger, entity.DefaultPlayers(), stateRepo, notifier.New(), appMetrics)

	wsServer := websocket.New(logger, gameStore, appMetrics)
	restServer := rest.New(logger, gameStore, registry)
	renderLoop := observer.NewLoop(logger, gameStore, appMetrics, wsServer, observer.NewLogRenderer(logger))

	loopErrCh := make(chan error, 1)
	go func() {
		if loopErr := renderLoop.Run(ctx); loopErr != nil {
			log.Error("Observer loop error", "error", loopErr)
			loopErrCh <- loopErr
		}
	}()

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-loopErrCh:
		return fmt.Errorf("observer loop error: %w", err)
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

func openStorage(ctx context.Context, logger *slog.Logger, conf *config.Config) (repository.Storage, error) {
	switch conf.Storage.Driver {
	case config.DriverRedis:
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, logger, redisAddrString, conf.Redis.Channel)
		if err != nil {
			return nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return redisStorage, nil
	case config.DriverSQLite:
		sqliteStorage, err := storage.NewSQLiteStorage(logger, conf.SQLite.Path, conf.SQLite.PollInterval)
		if err != nil {
			return nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			_ = sqliteStorage.Close()
			return nil, fmt.Errorf("could not init sqlite storage: %w", err)
		}

		return sqliteStorage, nil
	case config.DriverMemory:
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStorage, conf.Storage.Driver)
	}
}
