package kvconfig

import (
	"context"
	"testing"

	alerts "wastetrack-cloud/internal/alerts/domain"
	"wastetrack-cloud/internal/entries/infrastructure/kvstore"
	"wastetrack-cloud/internal/entries/infrastructure/memory"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	store, err := kvstore.NewStore(memory.NewBackend(), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	repo, err := NewRepository(store)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	return repo
}

func TestLoadWithoutStoredDocumentYieldsDefaults(t *testing.T) {
	repo := newTestRepository(t)
	cfg, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := alerts.DefaultConfiguration()
	if len(cfg.Rules) != len(want.Rules) {
		t.Fatalf("rule count: got %d, want %d", len(cfg.Rules), len(want.Rules))
	}
	for i, rule := range cfg.Rules {
		if rule.ID != want.Rules[i].ID {
			t.Fatalf("rule %d: got %s, want %s", i, rule.ID, want.Rules[i].ID)
		}
	}
	if cfg.GlobalSettings != want.GlobalSettings {
		t.Fatalf("global settings: %+v", cfg.GlobalSettings)
	}
}

func TestSaveThenLoadMergesMissingDefaults(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	edited := alerts.DefaultConfiguration().Rules[0]
	edited.Trigger.Threshold = 150
	stored := alerts.Configuration{
		GlobalSettings: alerts.GlobalSettings{EnabledAlerts: true, MaxAlertsDisplayed: 2},
		Rules:          []alerts.Rule{edited},
	}
	if err := repo.Save(ctx, stored); err != nil {
		t.Fatalf("save: %v", err)
	}

	cfg, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Rules) != 7 {
		t.Fatalf("rule count: got %d, want 7", len(cfg.Rules))
	}
	// The six untouched defaults come first; the edited rule keeps its
	// stored threshold.
	last := cfg.Rules[6]
	if last.ID != "high-waste-volume" || last.Trigger.Threshold != 150 {
		t.Fatalf("edited rule: %+v", last)
	}
	if cfg.GlobalSettings.MaxAlertsDisplayed != 2 {
		t.Fatalf("global settings lost: %+v", cfg.GlobalSettings)
	}
}

func TestLoadPartialStoredRuleKeepsOnlyItsOwnFields(t *testing.T) {
	backend := memory.NewBackend()
	store, err := kvstore.NewStore(backend, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	repo, err := NewRepository(store)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	ctx := context.Background()

	// A document written by another process, carrying only a subset of the
	// rule fields.
	raw := `{"rules":[{"id":"custom-rule","enabled":true}]}`
	if err := backend.Put(ctx, kvstore.KeyNotificationConfig, raw); err != nil {
		t.Fatalf("put: %v", err)
	}

	cfg, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Rules) != 8 {
		t.Fatalf("rule count: got %d, want 8", len(cfg.Rules))
	}
	custom := cfg.Rules[7]
	if custom.ID != "custom-rule" || !custom.Enabled {
		t.Fatalf("stored rule: %+v", custom)
	}
	// Omitted fields stay zero instead of inheriting from the default rule
	// that happens to share the slice index.
	if custom.Name != "" || custom.Trigger.Condition != "" ||
		custom.Message.Template != "" || custom.Actions.CooldownMinutes != 0 {
		t.Fatalf("default fields leaked into stored rule: %+v", custom)
	}
}

func TestSaveRejectsInvalidRule(t *testing.T) {
	repo := newTestRepository(t)
	bad := alerts.Configuration{
		Rules: []alerts.Rule{{ID: "", Message: alerts.Message{Template: "x"}}},
	}
	if err := repo.Save(context.Background(), bad); err == nil {
		t.Fatal("expected validation error")
	}
}
