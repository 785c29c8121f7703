package notify

import (
	"context"

	alertapp "wastetrack-cloud/internal/alerts/application"
	alerts "wastetrack-cloud/internal/alerts/domain"
)

// MultiNotifier dispatches fired alerts to multiple notifiers.
type MultiNotifier struct {
	notifiers []alertapp.Notifier
}

// NewMultiNotifier constructs a MultiNotifier.
func NewMultiNotifier(notifiers ...alertapp.Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Notify forwards the alert to all notifiers.
func (m *MultiNotifier) Notify(ctx context.Context, alert alerts.Alert) {
	if m == nil {
		return
	}
	for _, notifier := range m.notifiers {
		if notifier != nil {
			notifier.Notify(ctx, alert)
		}
	}
}
