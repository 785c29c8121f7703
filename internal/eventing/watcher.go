package eventing

import (
	"context"
	"errors"
	"log"
	"time"
)

// Watcher polls the relay's changed path on an interval so writes by other
// processes sharing the same backend are picked up.
type Watcher struct {
	relay    *Relay
	interval time.Duration
	logger   *log.Logger
}

// NewWatcher constructs a watcher.
func NewWatcher(relay *Relay, interval time.Duration, logger *log.Logger) (*Watcher, error) {
	if relay == nil {
		return nil, errors.New("eventing: nil relay")
	}
	if interval <= 0 {
		return nil, errors.New("eventing: non-positive watch interval")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{relay: relay, interval: interval, logger: logger}, nil
}

// Run polls until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	if w == nil {
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.relay.NotifyIfChanged(ctx); err != nil {
				w.logger.Printf("eventing: watch poll failed: %v", err)
			}
		}
	}
}
