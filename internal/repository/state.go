package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-store/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-store/internal/entity"
)

// Storage - durable key-value backend shared by every context that uses the same key.
type Storage interface {
	// Get - returns the stored value and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Watch - signals every write to key made through another handle of the backend.
	Watch(ctx context.Context, key string) (<-chan struct{}, error)
	Close() error
}

type StateRepository interface {
	Load(ctx context.Context) (entity.GameState, error)
	Save(ctx context.Context, state entity.GameState) error
	Watch(ctx context.Context) (<-chan struct{}, error)
}

var errTrailingData = errors.New("trailing data after document")

type stateRepository struct {
	storage Storage
	key     string
}

func NewStateRepository(storage Storage, key string) StateRepository {
	return &stateRepository{
		storage: storage,
		key:     key,
	}
}

func (that *stateRepository) Load(ctx context.Context) (entity.GameState, error) {
	response, ok, err := that.storage.Get(ctx, that.key)
	if err != nil {
		return entity.GameState{}, fmt.Errorf("failed to get game state: %w", err)
	}

	if !ok {
		return entity.NewGameState(), nil
	}

	state, err := decodeState(response)
	if err != nil {
		return entity.GameState{}, fmt.Errorf("%w: key %s: %w", apperror.ErrParse, that.key, err)
	}

	return state, nil
}

func (that *stateRepository) Save(ctx context.Context, state entity.GameState) error {
	stateJSON, err := json.Marshal(state.Normalize())
	if err != nil {
		return fmt.Errorf("could not marshal game state: %w", err)
	}

	if err = that.storage.Set(ctx, that.key, string(stateJSON)); err != nil {
		return fmt.Errorf("failed to set game state: %w", err)
	}

	return nil
}

func (that *stateRepository) Watch(ctx context.Context) (<-chan struct{}, error) {
	changes, err := that.storage.Watch(ctx, that.key)
	if err != nil {
		return nil, fmt.Errorf("failed to watch game state: %w", err)
	}

	return changes, nil
}

func decodeState(payload string) (entity.GameState, error) {
	if payload == "" || payload == "null" {
		return entity.GameState{}, fmt.Errorf("empty document %q", payload)
	}

	decoder := json.NewDecoder(bytes.NewReader([]byte(payload)))
	decoder.DisallowUnknownFields()

	var state entity.GameState
	if err := decoder.Decode(&state); err != nil {
		return entity.GameState{}, fmt.Errorf("failed to unmarshal game state: %w", err)
	}

	if decoder.More() {
		return entity.GameState{}, errTrailingData
	}

	if err := state.Validate(); err != nil {
		return entity.GameState{}, err
	}

	return state.Normalize(), nil
}
