package notifier

import "sync"

// Notifier - fans out a zero-payload "state changed" signal to every subscriber.
// Listeners pull fresh state themselves. A slow listener sees pending signals coalesced into one.
type Notifier struct {
	mu          sync.RWMutex
	subscribers map[chan struct{}]struct{}
}

func New() *Notifier {
	return &Notifier{
		subscribers: make(map[chan struct{}]struct{}),
	}
}

// Subscribe - returns the signal channel and a function that removes the subscription and closes the channel.
func (that *Notifier) Subscribe() (<-chan struct{}, func()) {
	changes := make(chan struct{}, 1)

	that.mu.Lock()
	that.subscribers[changes] = struct{}{}
	that.mu.Unlock()

	var once sync.Once

	unsubscribe := func() {
		once.Do(func() {
			that.mu.Lock()
			delete(that.subscribers, changes)
			close(changes)
			that.mu.Unlock()
		})
	}

	return changes, unsubscribe
}

// Publish - never blocks.
func (that *Notifier) Publish() {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for changes := range that.subscribers {
		select {
		case changes <- struct{}{}:
		default:
		}
	}
}

func (that *Notifier) Subscribers() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.subscribers)
}
