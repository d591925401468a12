package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	// import the SQLite driver to register it with the database/sql package.
	_ "github.com/mattn/go-sqlite3"
)

const (
	DefaultPollInterval = 500 * time.Millisecond

	changeLogSize = 1000
)

type SQLiteStorage struct {
	Connection *sql.DB

	logger       *slog.Logger
	pollInterval time.Duration
	origin       string
}

func NewSQLiteStorage(logger *slog.Logger, path string, pollInterval time.Duration) (*SQLiteStorage, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	if err = conn.Ping(); err != nil {
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return NewSQLiteStorageFromDB(logger, conn, pollInterval), nil
}

// NewSQLiteStorageFromDB - wraps an open database. Every call returns a handle with its own origin.
func NewSQLiteStorageFromDB(logger *slog.Logger, conn *sql.DB, pollInterval time.Duration) *SQLiteStorage {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	return &SQLiteStorage{
		Connection:   conn,
		logger:       logger.With("component", "sqlite-storage"),
		pollInterval: pollInterval,
		origin:       uuid.NewString(),
	}
}

func (that *SQLiteStorage) Init(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			key     TEXT PRIMARY KEY,
			value   TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			origin  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS changes (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			key    TEXT NOT NULL,
			origin TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS changes_key_id ON changes (key, id)`,
	}

	for _, query := range queries {
		if _, err := that.Connection.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("can't create table: %w", err)
		}
	}

	return nil
}

func (that *SQLiteStorage) Get(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM documents WHERE key = ?`

	var value string

	err := that.Connection.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("can't get %s: %w", key, err)
	}

	return value, true, nil
}

// Set - writes the document and appends the write to the change log in one transaction.
func (that *SQLiteStorage) Set(ctx context.Context, key, value string) error {
	tx, err := that.Connection.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("can't begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	upsert := `INSERT INTO documents (key, value, version, origin) VALUES (?, ?, 1, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			version = documents.version + 1,
			origin = excluded.origin`

	if _, err = tx.ExecContext(ctx, upsert, key, value, that.origin); err != nil {
		return fmt.Errorf("can't set %s: %w", key, err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO changes (key, origin) VALUES (?, ?)`, key, that.origin)
	if err != nil {
		return fmt.Errorf("can't log change of %s: %w", key, err)
	}

	changeID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("can't read change id of %s: %w", key, err)
	}

	// watchers lagging more than changeLogSize writes behind only see the latest ones
	_, err = tx.ExecContext(ctx, `DELETE FROM changes WHERE key = ? AND id <= ?`, key, changeID-changeLogSize)
	if err != nil {
		return fmt.Errorf("can't trim change log of %s: %w", key, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("can't commit %s: %w", key, err)
	}

	return nil
}

// Watch - polls the change log; SQLite has no way to push changes made by other processes.
func (that *SQLiteStorage) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	log := that.logger.With("method", "Watch", "key", key)

	lastID, _, err := that.changesSince(ctx, key, 0)
	if err != nil {
		return nil, err
	}

	changes := make(chan struct{}, 1)

	go func() {
		defer close(changes)

		ticker := time.NewTicker(that.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				latestID, foreign, err := that.changesSince(ctx, key, lastID)
				if err != nil {
					if ctx.Err() == nil {
						log.Warn("failed to poll change log", "error", err)
					}
					continue
				}

				lastID = latestID
				if foreign > 0 {
					notify(changes)
				}
			}
		}
	}()

	return changes, nil
}

func (that *SQLiteStorage) Close() error {
	if err := that.Connection.Close(); err != nil {
		return fmt.Errorf("can't close database: %w", err)
	}

	return nil
}

// changesSince - the newest change id of key and how many writes after afterID came from other handles.
func (that *SQLiteStorage) changesSince(ctx context.Context, key string, afterID int64) (int64, int, error) {
	query := `SELECT COALESCE(MAX(id), ?), COUNT(CASE WHEN origin != ? THEN 1 END)
		FROM changes WHERE key = ? AND id > ?`

	var (
		latestID int64
		foreign  int
	)

	err := that.Connection.QueryRowContext(ctx, query, afterID, that.origin, key, afterID).Scan(&latestID, &foreign)
	if err != nil {
		return 0, 0, fmt.Errorf("can't read changes of %s: %w", key, err)
	}

	return latestID, foreign, nil
}
