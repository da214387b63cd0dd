package bus

import (
	"context"
	"sync"
)

// Change announces that the record stored under Key was written or removed.
type Change struct {
	Key string `json:"key"`
	// Remote is set when the change originated in another process.
	Remote bool `json:"remote,omitempty"`
}

// Bus fans change notifications out to every current subscriber.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Change)
}

func New() *Bus {
	return &Bus{subs: make(map[int]func(Change))}
}

// Subscribe registers fn and returns a func that removes it. Calling the
// returned func more than once is safe.
func (b *Bus) Subscribe(fn func(Change)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers a local change to all subscribers before returning.
func (b *Bus) Publish(key string) {
	b.deliver(Change{Key: key})
}

// PublishRemote delivers a change observed from another process.
func (b *Bus) PublishRemote(key string) {
	b.deliver(Change{Key: key, Remote: true})
}

func (b *Bus) deliver(c Change) {
	// snapshot so subscribers may unsubscribe from inside their callback
	b.mu.RLock()
	fns := make([]func(Change), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

// SubscribeChan adapts the bus to a channel that is closed when ctx ends.
// A full channel drops the notification rather than blocking the publisher.
func (b *Bus) SubscribeChan(ctx context.Context, buf int) <-chan Change {
	if buf <= 0 {
		buf = 16
	}
	ch := make(chan Change, buf)

	var mu sync.Mutex
	closed := false
	unsubscribe := b.Subscribe(func(c Change) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- c:
		default:
		}
	})

	go func() {
		<-ctx.Done()
		unsubscribe()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()

	return ch
}

// Len returns the number of registered subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
