package notify

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	alerts "wastetrack-cloud/internal/alerts/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type sendRecord struct {
	at   time.Time
	hash string
}

// Notifier delivers fired alerts over a channel. Identical rendered content
// within the dedupe window is suppressed; the rule engine's per-rule
// cooldowns already rate-limit beyond that.
type Notifier struct {
	channel      Channel
	template     *Template
	clock        Clock
	dedupeWindow time.Duration

	mu   sync.Mutex
	sent map[string]sendRecord
}

// Option configures the notifier.
type Option func(*Notifier)

// WithClock overrides the default clock.
func WithClock(clock Clock) Option {
	return func(n *Notifier) {
		if clock != nil {
			n.clock = clock
		}
	}
}

// WithDedupeWindow suppresses identical notifications within the window.
func WithDedupeWindow(window time.Duration) Option {
	return func(n *Notifier) {
		if window > 0 {
			n.dedupeWindow = window
		}
	}
}

// NewNotifier constructs an alert notifier.
func NewNotifier(channel Channel, template *Template, opts ...Option) (*Notifier, error) {
	if channel == nil {
		return nil, errors.New("alert notifier: nil channel")
	}
	if template == nil {
		defaultTemplate, err := NewTemplate("")
		if err != nil {
			return nil, err
		}
		template = defaultTemplate
	}
	n := &Notifier{
		channel:  channel,
		template: template,
		clock:    systemClock{},
		sent:     make(map[string]sendRecord),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Notify renders and sends a fired alert.
func (n *Notifier) Notify(ctx context.Context, alert alerts.Alert) {
	if n == nil || n.channel == nil {
		return
	}
	content, err := n.template.Render(TemplateData{
		ID:        alert.ID,
		Type:      string(alert.Type),
		TypeLabel: typeLabel(alert.Type),
		Message:   alert.Message,
		Category:  alert.Category,
		FiredAt:   alert.Timestamp.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if !n.shouldSend(content) {
		return
	}
	if err := n.channel.Send(ctx, content); err != nil {
		return
	}
	n.markSent(content)
}

func typeLabel(t alerts.AlertType) string {
	switch t {
	case alerts.TypeWarning:
		return "Warning"
	case alerts.TypeError:
		return "Critical"
	case alerts.TypeInfo:
		return "Info"
	case alerts.TypeSuccess:
		return "Goal Met"
	default:
		return string(t)
	}
}

func (n *Notifier) shouldSend(content string) bool {
	if n.dedupeWindow <= 0 {
		return true
	}
	hash := hashContent(content)
	now := n.clock.Now().UTC()
	n.mu.Lock()
	record, ok := n.sent[hash]
	n.mu.Unlock()
	if !ok {
		return true
	}
	return now.Sub(record.at) >= n.dedupeWindow
}

func (n *Notifier) markSent(content string) {
	hash := hashContent(content)
	n.mu.Lock()
	n.sent[hash] = sendRecord{at: n.clock.Now().UTC(), hash: hash}
	n.mu.Unlock()
}

func hashContent(content string) string {
	sum := sha1.Sum([]byte(content))
	return hex.EncodeToString(sum[:8])
}
