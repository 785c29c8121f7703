package application

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	alerts "wastetrack-cloud/internal/alerts/domain"
	analytics "wastetrack-cloud/internal/analytics/domain"
	entries "wastetrack-cloud/internal/entries/domain"
	"wastetrack-cloud/internal/observability/metrics"
)

// monthlyRecyclingTargetKg anchors the monthly progress condition.
const monthlyRecyclingTargetKg = 300.0

// containerFullComparator is the fixed fill-percentage comparator for the
// category_weight condition. The rule threshold acts as the capacity
// denominator; this value is what the computed percentage is compared
// against. Intentional, matching the shipped behaviour of the default
// container-full rule (threshold 80 makes the two coincide).
const containerFullComparator = 80.0

// ConfigSource loads the active alert configuration.
type ConfigSource interface {
	Load(ctx context.Context) (alerts.Configuration, error)
}

// Notifier delivers a fired alert.
type Notifier interface {
	Notify(ctx context.Context, alert alerts.Alert)
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Input is the metric state one evaluation pass runs against.
type Input struct {
	Snapshot        analytics.Snapshot
	HoursSinceEntry float64
	HasEntries      bool
}

// Service evaluates alert rules against derived metrics. Cooldown state is
// held in memory only; a restart clears it and rules may re-fire early.
type Service struct {
	config   ConfigSource
	notifier Notifier
	clock    Clock

	mu        sync.Mutex
	lastFired map[string]time.Time
}

// ServiceOption customizes the alert service.
type ServiceOption func(*Service)

// WithNotifier assigns a notifier.
func WithNotifier(notifier Notifier) ServiceOption {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService constructs an alert service.
func NewService(config ConfigSource, opts ...ServiceOption) (*Service, error) {
	if config == nil {
		return nil, errors.New("alerts: nil config source")
	}
	service := &Service{
		config:    config,
		clock:     systemClock{},
		lastFired: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Evaluate runs one pass over the configured rules in list order and
// returns the alerts fired. At most maxAlertsDisplayed alerts fire per
// pass; rules inside their cooldown window are skipped without consuming
// the cap.
func (s *Service) Evaluate(ctx context.Context, input Input) ([]alerts.Alert, error) {
	if s == nil {
		return nil, errors.New("alerts: nil service")
	}
	cfg, err := s.config.Load(ctx)
	if err != nil {
		return nil, err
	}
	metrics.IncAlertEvaluation()
	if !cfg.GlobalSettings.EnabledAlerts {
		return nil, nil
	}

	now := s.clock.Now()
	var fired []alerts.Alert
	for _, rule := range cfg.Rules {
		if !rule.Enabled {
			continue
		}
		if s.inCooldown(rule, now) {
			continue
		}
		value, category, triggered := evaluateCondition(rule, input, now)
		if !triggered {
			continue
		}

		alert := alerts.Alert{
			ID:        rule.ID + "_" + strconv.FormatInt(now.UnixMilli(), 10),
			Type:      rule.Type,
			Message:   renderMessage(rule, value, category),
			Timestamp: now,
			Category:  category,
		}
		s.markFired(rule.ID, now)
		metrics.IncAlertFired(rule.ID, string(rule.Message.Severity))
		if s.notifier != nil {
			s.notifier.Notify(ctx, alert)
		}
		fired = append(fired, alert)
		if len(fired) >= cfg.GlobalSettings.MaxAlertsDisplayed {
			break
		}
	}
	return fired, nil
}

// ResetCooldowns clears all cooldown bookkeeping.
func (s *Service) ResetCooldowns() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.lastFired = make(map[string]time.Time)
	s.mu.Unlock()
}

func (s *Service) inCooldown(rule alerts.Rule, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastFired[rule.ID]
	if !ok {
		return false
	}
	return now.Sub(last) < time.Duration(rule.Actions.CooldownMinutes)*time.Minute
}

func (s *Service) markFired(ruleID string, now time.Time) {
	s.mu.Lock()
	s.lastFired[ruleID] = now
	s.mu.Unlock()
}

// evaluateCondition computes the observed value for a rule and whether it
// triggers. Unknown conditions never trigger.
func evaluateCondition(rule alerts.Rule, input Input, now time.Time) (value float64, category string, triggered bool) {
	snap := input.Snapshot
	switch rule.Trigger.Condition {
	case alerts.ConditionDailyTotalWaste:
		value = snap.TodayRecycled + snap.TodayWaste
		return value, "", rule.Trigger.Comparison.Compare(value, rule.Trigger.Threshold)

	case alerts.ConditionRecyclingRate:
		value = snap.CurrentRate
		return value, "", rule.Trigger.Comparison.Compare(value, rule.Trigger.Threshold)

	case alerts.ConditionCategoryWeight:
		// The rule threshold is the per-category capacity; the fill
		// percentage is compared against the fixed comparator. First
		// matching category in declared order wins.
		for _, cat := range entries.AllCategories {
			weight := snap.CategoryTotals[string(cat)]
			percentage := weight / rule.Trigger.Threshold * 100
			if rule.Trigger.Comparison.Compare(percentage, containerFullComparator) {
				return percentage, string(cat), true
			}
		}
		return 0, "", false

	case alerts.ConditionMonthlyRecyclingProgress:
		daysInMonth := float64(time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day())
		expected := float64(now.Day()) / daysInMonth * 100
		actual := snap.MonthlyRecyclingTotal / monthlyRecyclingTargetKg * 100
		pace := expected * (rule.Trigger.Threshold / 100)
		return actual, "", rule.Trigger.Comparison.Compare(actual, pace)

	case alerts.ConditionHoursSinceLastEntry:
		if !input.HasEntries {
			return 0, "", false
		}
		value = input.HoursSinceEntry
		return value, "", rule.Trigger.Comparison.Compare(value, rule.Trigger.Threshold)

	default:
		return 0, "", false
	}
}

// renderMessage substitutes every occurrence of the {value}, {threshold}
// and {category} placeholders. The value is rounded to one decimal and
// trailing zeros are dropped; {category} falls back to the condition name
// for conditions that carry no category.
func renderMessage(rule alerts.Rule, value float64, category string) string {
	if category == "" {
		category = string(rule.Trigger.Condition)
	}
	message := rule.Message.Template
	message = strings.ReplaceAll(message, "{value}", formatNumber(math.Round(value*10)/10))
	message = strings.ReplaceAll(message, "{threshold}", formatNumber(rule.Trigger.Threshold))
	message = strings.ReplaceAll(message, "{category}", category)
	return message
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
