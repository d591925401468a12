package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryBackend - process-local document store. Handles opened from the same backend
// behave like browser tabs sharing one storage area.
type MemoryBackend struct {
	mu       sync.RWMutex
	values   map[string]string
	watchers map[*memoryWatcher]struct{}
}

type memoryWatcher struct {
	key     string
	origin  string
	changes chan struct{}
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		values:   make(map[string]string),
		watchers: make(map[*memoryWatcher]struct{}),
	}
}

// Open - returns a new handle with its own origin.
func (that *MemoryBackend) Open() *MemoryStorage {
	return &MemoryStorage{
		backend: that,
		origin:  uuid.NewString(),
	}
}

type MemoryStorage struct {
	backend *MemoryBackend
	origin  string
}

// NewMemoryStorage - a handle on a fresh, unshared backend.
func NewMemoryStorage() *MemoryStorage {
	return NewMemoryBackend().Open()
}

func (that *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	that.backend.mu.RLock()
	defer that.backend.mu.RUnlock()

	value, ok := that.backend.values[key]

	return value, ok, nil
}

func (that *MemoryStorage) Set(_ context.Context, key, value string) error {
	that.backend.mu.Lock()
	defer that.backend.mu.Unlock()

	that.backend.values[key] = value

	for watcher := range that.backend.watchers {
		if watcher.key == key && watcher.origin != that.origin {
			notify(watcher.changes)
		}
	}

	return nil
}

func (that *MemoryStorage) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	watcher := &memoryWatcher{
		key:     key,
		origin:  that.origin,
		changes: make(chan struct{}, 1),
	}

	that.backend.mu.Lock()
	that.backend.watchers[watcher] = struct{}{}
	that.backend.mu.Unlock()

	go func() {
		<-ctx.Done()

		that.backend.mu.Lock()
		delete(that.backend.watchers, watcher)
		close(watcher.changes)
		that.backend.mu.Unlock()
	}()

	return watcher.changes, nil
}

func (that *MemoryStorage) Close() error {
	return nil
}
