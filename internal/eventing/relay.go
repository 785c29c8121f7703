package eventing

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"log"
	"sync"

	"wastetrack-cloud/internal/observability/metrics"
)

// FingerprintSource yields the serialized state whose changes the relay
// tracks. The entry store's concatenated collections back this in
// production.
type FingerprintSource interface {
	RawEntryCollections(ctx context.Context) (string, error)
}

// Handler observes a change notification. Handlers receive no payload;
// observers re-read whatever state they care about.
type Handler func(ctx context.Context)

// Relay fans change notifications out to any number of subscribers and
// tracks a content fingerprint so unchanged writes stay silent.
type Relay struct {
	mu          sync.Mutex
	source      FingerprintSource
	logger      *log.Logger
	handlers    map[int]Handler
	nextID      int
	fingerprint string
	primed      bool
}

// NewRelay constructs a relay.
func NewRelay(source FingerprintSource, logger *log.Logger) (*Relay, error) {
	if source == nil {
		return nil, errors.New("eventing: nil fingerprint source")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Relay{
		source:   source,
		logger:   logger,
		handlers: make(map[int]Handler),
	}, nil
}

// Subscribe registers a handler and returns its unsubscribe func. The
// returned func is idempotent.
func (r *Relay) Subscribe(handler Handler) func() {
	if r == nil || handler == nil {
		return func() {}
	}
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.handlers[id] = handler
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.handlers, id)
		r.mu.Unlock()
	}
}

// NotifyIfChanged recomputes the fingerprint and fans out only when the
// serialized collections differ from the last observed state. The first
// successful read records the baseline without fanning out, so state that
// predates the relay is not announced as a change. Returns whether a
// notification went out.
func (r *Relay) NotifyIfChanged(ctx context.Context) (bool, error) {
	if r == nil {
		return false, errors.New("eventing: nil relay")
	}
	next, err := r.currentFingerprint(ctx)
	if err != nil {
		return false, err
	}
	r.mu.Lock()
	if !r.primed {
		r.primed = true
		r.fingerprint = next
		r.mu.Unlock()
		return false, nil
	}
	if next == r.fingerprint {
		r.mu.Unlock()
		return false, nil
	}
	r.fingerprint = next
	handlers := r.snapshotHandlers()
	r.mu.Unlock()
	metrics.IncRelayNotification("changed")
	r.dispatch(ctx, handlers)
	return true, nil
}

// ForceNotify fans out unconditionally and records the current fingerprint
// so the same state is not re-announced by the changed path. Local mutations
// call this after every write.
func (r *Relay) ForceNotify(ctx context.Context) error {
	if r == nil {
		return errors.New("eventing: nil relay")
	}
	next, err := r.currentFingerprint(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.primed = true
	r.fingerprint = next
	handlers := r.snapshotHandlers()
	r.mu.Unlock()
	metrics.IncRelayNotification("forced")
	r.dispatch(ctx, handlers)
	return nil
}

func (r *Relay) currentFingerprint(ctx context.Context) (string, error) {
	raw, err := r.source.RawEntryCollections(ctx)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:]), nil
}

// snapshotHandlers must be called with the mutex held.
func (r *Relay) snapshotHandlers() []Handler {
	handlers := make([]Handler, 0, len(r.handlers))
	for _, h := range r.handlers {
		handlers = append(handlers, h)
	}
	return handlers
}

func (r *Relay) dispatch(ctx context.Context, handlers []Handler) {
	for _, handler := range handlers {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					r.logger.Printf("eventing: handler panic: %v", rec)
				}
			}()
			handler(ctx)
		}()
	}
}
