package application

import (
	"context"
	"strings"
	"testing"
	"time"

	alerts "wastetrack-cloud/internal/alerts/domain"
	analytics "wastetrack-cloud/internal/analytics/domain"
)

type stubConfig struct {
	cfg alerts.Configuration
	err error
}

func (s stubConfig) Load(context.Context) (alerts.Configuration, error) {
	return s.cfg, s.err
}

type recordingNotifier struct {
	alerts []alerts.Alert
}

func (n *recordingNotifier) Notify(_ context.Context, alert alerts.Alert) {
	n.alerts = append(n.alerts, alert)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// quietInput produces metric state that fires none of the default rules.
func quietInput() Input {
	return Input{
		Snapshot: analytics.Snapshot{
			TodayRecycled:         10,
			TodayWaste:            10,
			CurrentRate:           60,
			MonthlyRecyclingTotal: 300,
		},
	}
}

func newTestService(t *testing.T, cfg alerts.Configuration, clock *fakeClock) (*Service, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	service, err := NewService(stubConfig{cfg: cfg}, WithNotifier(notifier), WithClock(clock))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service, notifier
}

func TestEvaluateQuietInputFiresNothing(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)}
	service, notifier := newTestService(t, alerts.DefaultConfiguration(), clock)

	fired, err := service.Evaluate(context.Background(), quietInput())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(fired) != 0 || len(notifier.alerts) != 0 {
		t.Fatalf("expected no alerts, got %v", fired)
	}
}

func TestEvaluateHighWasteVolume(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)}
	service, notifier := newTestService(t, alerts.DefaultConfiguration(), clock)

	input := quietInput()
	input.Snapshot.TodayRecycled = 60
	input.Snapshot.TodayWaste = 50

	fired, err := service.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(fired) != 1 {
		t.Fatalf("fired count: got %d, want 1", len(fired))
	}
	alert := fired[0]
	if alert.Type != alerts.TypeWarning {
		t.Fatalf("type: got %s", alert.Type)
	}
	if !strings.HasPrefix(alert.ID, "high-waste-volume_") {
		t.Fatalf("id: got %s", alert.ID)
	}
	want := "High waste volume detected: 110kg exceeds daily limit of 100kg"
	if alert.Message != want {
		t.Fatalf("message: got %q, want %q", alert.Message, want)
	}
	if len(notifier.alerts) != 1 || notifier.alerts[0].ID != alert.ID {
		t.Fatalf("notifier: got %v", notifier.alerts)
	}
}

func TestEvaluateDisabledGlobally(t *testing.T) {
	cfg := alerts.DefaultConfiguration()
	cfg.GlobalSettings.EnabledAlerts = false
	clock := &fakeClock{now: time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)}
	service, _ := newTestService(t, cfg, clock)

	input := quietInput()
	input.Snapshot.TodayWaste = 500
	fired, err := service.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if fired != nil {
		t.Fatalf("expected nil, got %v", fired)
	}
}

func TestEvaluateCooldown(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)}
	service, _ := newTestService(t, alerts.DefaultConfiguration(), clock)

	input := quietInput()
	input.Snapshot.TodayWaste = 150

	fired, err := service.Evaluate(context.Background(), input)
	if err != nil || len(fired) != 1 {
		t.Fatalf("first pass: fired=%v err=%v", fired, err)
	}

	// Inside the 60 minute cooldown the rule stays silent.
	clock.now = clock.now.Add(30 * time.Minute)
	fired, err = service.Evaluate(context.Background(), input)
	if err != nil || len(fired) != 0 {
		t.Fatalf("cooldown pass: fired=%v err=%v", fired, err)
	}

	clock.now = clock.now.Add(31 * time.Minute)
	fired, err = service.Evaluate(context.Background(), input)
	if err != nil || len(fired) != 1 {
		t.Fatalf("post-cooldown pass: fired=%v err=%v", fired, err)
	}
}

func TestEvaluateResetCooldowns(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)}
	service, _ := newTestService(t, alerts.DefaultConfiguration(), clock)

	input := quietInput()
	input.Snapshot.TodayWaste = 150
	if fired, _ := service.Evaluate(context.Background(), input); len(fired) != 1 {
		t.Fatal("expected first fire")
	}
	service.ResetCooldowns()
	if fired, _ := service.Evaluate(context.Background(), input); len(fired) != 1 {
		t.Fatal("expected re-fire after reset")
	}
}

func TestEvaluateMaxAlertsCap(t *testing.T) {
	cfg := alerts.DefaultConfiguration()
	cfg.GlobalSettings.MaxAlertsDisplayed = 1
	clock := &fakeClock{now: time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)}
	service, _ := newTestService(t, cfg, clock)

	// 250kg trips both daily_total_waste rules; the cap stops after one.
	input := quietInput()
	input.Snapshot.TodayWaste = 250
	fired, err := service.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(fired) != 1 || !strings.HasPrefix(fired[0].ID, "high-waste-volume_") {
		t.Fatalf("fired: got %v", fired)
	}
}

func TestEvaluateCooldownSkipDoesNotConsumeCap(t *testing.T) {
	cfg := alerts.DefaultConfiguration()
	cfg.GlobalSettings.MaxAlertsDisplayed = 1
	clock := &fakeClock{now: time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)}
	service, _ := newTestService(t, cfg, clock)

	input := quietInput()
	input.Snapshot.TodayWaste = 150
	if fired, _ := service.Evaluate(context.Background(), input); len(fired) != 1 {
		t.Fatal("expected high waste fire")
	}

	// high-waste-volume is cooling down; the later low-recycling-rate rule
	// still gets the single slot.
	clock.now = clock.now.Add(time.Minute)
	input.Snapshot.CurrentRate = 40
	fired, err := service.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(fired) != 1 || !strings.HasPrefix(fired[0].ID, "low-recycling-rate_") {
		t.Fatalf("fired: got %v", fired)
	}
}

func TestEvaluateCategoryWeight(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)}
	service, _ := newTestService(t, alerts.DefaultConfiguration(), clock)

	input := quietInput()
	input.Snapshot.CategoryTotals = map[string]float64{"cardboard": 70}

	fired, err := service.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(fired) != 1 {
		t.Fatalf("fired count: got %d, want 1", len(fired))
	}
	if fired[0].Category != "cardboard" {
		t.Fatalf("category: got %q", fired[0].Category)
	}
	want := "cardboard container is 87.5% full - consider emptying soon"
	if fired[0].Message != want {
		t.Fatalf("message: got %q, want %q", fired[0].Message, want)
	}
}

func TestEvaluateCategoryWeightDeclarationOrderWins(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)}
	service, _ := newTestService(t, alerts.DefaultConfiguration(), clock)

	input := quietInput()
	input.Snapshot.CategoryTotals = map[string]float64{"cardboard": 70, "pet": 70}

	fired, err := service.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(fired) != 1 || fired[0].Category != "pet" {
		t.Fatalf("expected pet to win, got %v", fired)
	}
}

func TestEvaluateMonthlyProgressBehind(t *testing.T) {
	// June 15th of a 30 day month: expected pace 50%, rule pace 37.5%.
	clock := &fakeClock{now: time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)}
	service, _ := newTestService(t, alerts.DefaultConfiguration(), clock)

	input := quietInput()
	input.Snapshot.MonthlyRecyclingTotal = 90 // 30% of the 300kg target

	fired, err := service.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(fired) != 1 {
		t.Fatalf("fired count: got %d, want 1", len(fired))
	}
	want := "Monthly recycling progress at 30% - behind target pace of 75%"
	if fired[0].Message != want {
		t.Fatalf("message: got %q, want %q", fired[0].Message, want)
	}

	// Ahead of pace stays silent.
	service.ResetCooldowns()
	input.Snapshot.MonthlyRecyclingTotal = 150
	fired, _ = service.Evaluate(context.Background(), input)
	if len(fired) != 0 {
		t.Fatalf("expected silence ahead of pace, got %v", fired)
	}
}

func TestEvaluateHoursSinceLastEntryGuard(t *testing.T) {
	cfg := alerts.DefaultConfiguration()
	for i := range cfg.Rules {
		cfg.Rules[i].Enabled = cfg.Rules[i].ID == "no-recent-activity"
	}
	clock := &fakeClock{now: time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)}
	service, _ := newTestService(t, cfg, clock)

	// With no entries at all the rule stays inert.
	input := Input{Snapshot: quietInput().Snapshot, HoursSinceEntry: 30, HasEntries: false}
	fired, err := service.Evaluate(context.Background(), input)
	if err != nil || len(fired) != 0 {
		t.Fatalf("no-entries pass: fired=%v err=%v", fired, err)
	}

	input.HasEntries = true
	fired, err = service.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(fired) != 1 {
		t.Fatalf("fired count: got %d, want 1", len(fired))
	}
	want := "No waste entries recorded in the last 30 hours"
	if fired[0].Message != want {
		t.Fatalf("message: got %q, want %q", fired[0].Message, want)
	}
}

func TestEvaluateRoundsValueToOneDecimal(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)}
	service, _ := newTestService(t, alerts.DefaultConfiguration(), clock)

	input := quietInput()
	input.Snapshot.CurrentRate = 43.26

	fired, err := service.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(fired) != 1 {
		t.Fatalf("fired count: got %d, want 1", len(fired))
	}
	want := "Recycling rate is low: 43.3% is below target of 50%"
	if fired[0].Message != want {
		t.Fatalf("message: got %q, want %q", fired[0].Message, want)
	}
}

func TestEvaluateUnknownConditionInert(t *testing.T) {
	cfg := alerts.Configuration{
		GlobalSettings: alerts.GlobalSettings{EnabledAlerts: true, MaxAlertsDisplayed: 5},
		Rules: []alerts.Rule{{
			ID:      "mystery",
			Enabled: true,
			Type:    alerts.TypeInfo,
			Trigger: alerts.Trigger{Condition: "phase_of_moon", Threshold: 1, Comparison: alerts.CompareGreater},
			Message: alerts.Message{Template: "{value}", Severity: alerts.SeverityLow},
		}},
	}
	clock := &fakeClock{now: time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)}
	service, _ := newTestService(t, cfg, clock)

	fired, err := service.Evaluate(context.Background(), quietInput())
	if err != nil || len(fired) != 0 {
		t.Fatalf("fired=%v err=%v", fired, err)
	}
}
