package sandbox

import (
	"context"
	"log"
	"time"

	"github.com/uncase/dashboard/internal/models"
)

const DefaultWatchInterval = time.Second

// Expired is emitted once when a recorded session runs out.
type Expired struct {
	Session models.SandboxSession
}

// Watcher polls the session on a ticker so expiry happens even when nothing
// else reads it.
type Watcher struct {
	manager  *Manager
	interval time.Duration
	logger   *log.Logger
}

func NewWatcher(manager *Manager, interval time.Duration, logger *log.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{manager: manager, interval: interval, logger: logger}
}

// Run returns a channel of expiry events that is closed when ctx is done.
func (w *Watcher) Run(ctx context.Context) <-chan Expired {
	out := make(chan Expired, 1)

	go func() {
		defer close(out)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ev, ok := w.Check(ctx); ok {
					w.logger.Printf("sandbox session for %s expired", ev.Session.Domain)
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out
}

// Check runs one expiry pass and reports whether it ended a session. A
// session whose delete fails is retried on the next pass and reported then.
func (w *Watcher) Check(ctx context.Context) (Expired, bool) {
	session := w.manager.peek(ctx)
	if session == nil {
		return Expired{}, false
	}
	if w.manager.remaining(session) > 0 {
		return Expired{}, false
	}
	if err := w.manager.expire(ctx); err != nil {
		return Expired{}, false
	}
	return Expired{Session: *session}, true
}
