package application

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-store/internal/config"
	"github.com/rocketscienceinc/tictactoe-store/testing/suite"
)

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("Memory driver", func(t *testing.T) {
		conf := &config.Config{Storage: config.Storage{Driver: config.DriverMemory}}

		backend, err := openStorage(ctx, suite.Logger(), conf)

		require.NoError(t, err)
		assert.NoError(t, backend.Close())
	})

	t.Run("SQLite driver creates the schema", func(t *testing.T) {
		conf := &config.Config{
			Storage: config.Storage{Driver: config.DriverSQLite},
			SQLite:  config.SQLite{Path: filepath.Join(t.TempDir(), "state.db")},
		}

		backend, err := openStorage(ctx, suite.Logger(), conf)
		require.NoError(t, err)
		defer backend.Close()

		require.NoError(t, backend.Set(ctx, "key", "value"))

		value, ok, err := backend.Get(ctx, "key")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "value", value)
	})

	t.Run("Unknown driver", func(t *testing.T) {
		conf := &config.Config{Storage: config.Storage{Driver: "etcd"}}

		_, err := openStorage(ctx, suite.Logger(), conf)

		assert.ErrorIs(t, err, ErrUnknownStorage)
	})
}
