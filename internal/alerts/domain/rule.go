package alerts

import (
	"errors"
	"time"
)

// AlertType drives presentation of a fired alert.
type AlertType string

const (
	TypeWarning AlertType = "warning"
	TypeError   AlertType = "error"
	TypeInfo    AlertType = "info"
	TypeSuccess AlertType = "success"
)

// Severity grades a rule's message.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Comparison is a threshold operator.
type Comparison string

const (
	CompareGreater        Comparison = ">"
	CompareLess           Comparison = "<"
	CompareGreaterOrEqual Comparison = ">="
	CompareLessOrEqual    Comparison = "<="
	CompareEqual          Comparison = "=="
	CompareNotEqual       Comparison = "!="
)

// Compare applies the operator. Unknown operators never match, which keeps
// rules with garbage comparisons inert instead of failing evaluation.
func (c Comparison) Compare(actual, threshold float64) bool {
	switch c {
	case CompareGreater:
		return actual > threshold
	case CompareLess:
		return actual < threshold
	case CompareGreaterOrEqual:
		return actual >= threshold
	case CompareLessOrEqual:
		return actual <= threshold
	case CompareEqual:
		return actual == threshold
	case CompareNotEqual:
		return actual != threshold
	default:
		return false
	}
}

// Condition names the metric a rule watches. Unknown conditions are inert.
type Condition string

const (
	ConditionDailyTotalWaste          Condition = "daily_total_waste"
	ConditionRecyclingRate            Condition = "recycling_rate"
	ConditionCategoryWeight           Condition = "category_weight"
	ConditionMonthlyRecyclingProgress Condition = "monthly_recycling_progress"
	ConditionHoursSinceLastEntry      Condition = "hours_since_last_entry"
)

// Trigger is the condition half of a rule.
type Trigger struct {
	Condition  Condition  `json:"condition"`
	Threshold  float64    `json:"threshold"`
	Timeframe  string     `json:"timeframe,omitempty"`
	Comparison Comparison `json:"comparison"`
}

// Message is the template half of a rule. Template placeholders {value},
// {threshold} and {category} are substituted on firing.
type Message struct {
	Template string   `json:"template"`
	Severity Severity `json:"severity"`
}

// Actions carries per-rule delivery behaviour.
type Actions struct {
	AutoResolve     bool `json:"autoResolve"`
	CooldownMinutes int  `json:"cooldownMinutes"`
	SendEmail       bool `json:"sendEmail"`
	PlaySound       bool `json:"playSound"`
}

// Rule is one configurable alert rule.
type Rule struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Enabled     bool      `json:"enabled"`
	Type        AlertType `json:"type"`
	Trigger     Trigger   `json:"trigger"`
	Message     Message   `json:"message"`
	Actions     Actions   `json:"actions"`
}

// Validate checks rule invariants for rules arriving over the API.
func (r Rule) Validate() error {
	if r.ID == "" {
		return errors.New("alerts: empty rule id")
	}
	if r.Message.Template == "" {
		return errors.New("alerts: empty message template")
	}
	if r.Actions.CooldownMinutes < 0 {
		return errors.New("alerts: negative cooldown")
	}
	return nil
}

// GlobalSettings gate and shape alert delivery as a whole.
type GlobalSettings struct {
	EnabledAlerts           bool `json:"enabledAlerts"`
	SoundEnabled            bool `json:"soundEnabled"`
	EmailNotifications      bool `json:"emailNotifications"`
	MaxAlertsDisplayed      int  `json:"maxAlertsDisplayed"`
	AutoResolveAfterMinutes int  `json:"autoResolveAfterMinutes"`
}

// Configuration is the persisted alert document: settings plus the ordered
// rule list. Rules evaluate in list order.
type Configuration struct {
	GlobalSettings GlobalSettings `json:"globalSettings"`
	Rules          []Rule         `json:"rules"`
}

// MergeDefaults re-adds default rules missing from cfg, preserving the
// stored rules untouched. Missing defaults come first in default order, so
// a freshly upgraded configuration evaluates new built-ins before edits.
func MergeDefaults(cfg Configuration) Configuration {
	defaults := DefaultConfiguration()
	present := make(map[string]bool, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		present[rule.ID] = true
	}
	merged := make([]Rule, 0, len(defaults.Rules)+len(cfg.Rules))
	for _, rule := range defaults.Rules {
		if !present[rule.ID] {
			merged = append(merged, rule)
		}
	}
	merged = append(merged, cfg.Rules...)
	cfg.Rules = merged
	return cfg
}

// Alert is a fired alert instance. Not persisted; consumers that want
// history keep their own.
type Alert struct {
	ID        string    `json:"id"`
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category,omitempty"`
}
