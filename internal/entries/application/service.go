package application

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	analyticsapp "wastetrack-cloud/internal/analytics/application"
	analytics "wastetrack-cloud/internal/analytics/domain"
	"wastetrack-cloud/internal/audit"
	"wastetrack-cloud/internal/auth"
	entries "wastetrack-cloud/internal/entries/domain"
	"wastetrack-cloud/internal/entries/infrastructure/kvstore"
	"wastetrack-cloud/internal/observability/metrics"
)

// ChangeRelay announces entry collection changes to subscribers.
type ChangeRelay interface {
	ForceNotify(ctx context.Context) error
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Service owns entry CRUD and the derived dashboard snapshot. Every
// mutation rewrites its collection, recomputes the snapshot and
// force-notifies the relay, in that order.
type Service struct {
	store      *kvstore.Store
	aggregator *analyticsapp.Aggregator
	relay      ChangeRelay
	auditLog   audit.Logger
	clock      Clock
	logger     *log.Logger
}

// ServiceOption customizes the entry service.
type ServiceOption func(*Service)

// WithRelay assigns a change relay.
func WithRelay(relay ChangeRelay) ServiceOption {
	return func(s *Service) {
		s.relay = relay
	}
}

// WithAuditLogger assigns an audit logger.
func WithAuditLogger(logger audit.Logger) ServiceOption {
	return func(s *Service) {
		s.auditLog = logger
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

// NewService constructs an entry service.
func NewService(store *kvstore.Store, aggregator *analyticsapp.Aggregator, logger *log.Logger, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("entries: nil store")
	}
	if aggregator == nil {
		return nil, errors.New("entries: nil aggregator")
	}
	if logger == nil {
		logger = log.Default()
	}
	service := &Service{
		store:      store,
		aggregator: aggregator,
		clock:      systemClock{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// AddWasteEntry stores a new waste entry. The id is assigned here and
// recyclability is derived from the category regardless of what the caller
// sent.
func (s *Service) AddWasteEntry(ctx context.Context, entry entries.WasteEntry) (entries.WasteEntry, error) {
	if s == nil {
		return entries.WasteEntry{}, errors.New("entries: nil service")
	}
	started := time.Now()
	entry.ID = uuid.NewString()
	entry.Recyclable = entry.Category.Recyclable()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.clock.Now()
	}
	if err := entry.Validate(); err != nil {
		metrics.ObserveEntryWrite("waste", metrics.ResultError, time.Since(started))
		return entries.WasteEntry{}, err
	}

	list, err := s.store.WasteEntries(ctx)
	if err != nil {
		metrics.ObserveEntryWrite("waste", metrics.ResultError, time.Since(started))
		return entries.WasteEntry{}, err
	}
	list = append(list, entry)
	if err := s.store.SaveWasteEntries(ctx, list); err != nil {
		metrics.ObserveEntryWrite("waste", metrics.ResultError, time.Since(started))
		return entries.WasteEntry{}, err
	}
	if err := s.afterMutation(ctx, "waste_add"); err != nil {
		metrics.ObserveEntryWrite("waste", metrics.ResultError, time.Since(started))
		return entries.WasteEntry{}, err
	}
	s.recordAudit(ctx, "waste_entry.create", "waste_entry", entry.ID, map[string]any{
		"category": entry.Category,
		"weight":   entry.Weight,
	})
	metrics.ObserveEntryWrite("waste", metrics.ResultSuccess, time.Since(started))
	return entry, nil
}

// WasteEntries returns waste entries passing the filter.
func (s *Service) WasteEntries(ctx context.Context, filter entries.Filter) ([]entries.WasteEntry, error) {
	if s == nil {
		return nil, errors.New("entries: nil service")
	}
	list, err := s.store.WasteEntries(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	result := make([]entries.WasteEntry, 0, len(list))
	for _, entry := range list {
		if filter.Matches(entry, now) {
			result = append(result, entry)
		}
	}
	return result, nil
}

// DeleteWasteEntry removes a waste entry by id.
func (s *Service) DeleteWasteEntry(ctx context.Context, id string) error {
	if s == nil {
		return errors.New("entries: nil service")
	}
	started := time.Now()
	list, err := s.store.WasteEntries(ctx)
	if err != nil {
		return err
	}
	kept := list[:0]
	found := false
	for _, entry := range list {
		if entry.ID == id {
			found = true
			continue
		}
		kept = append(kept, entry)
	}
	if !found {
		return entries.ErrNotFound
	}
	if err := s.store.SaveWasteEntries(ctx, kept); err != nil {
		metrics.ObserveEntryWrite("waste", metrics.ResultError, time.Since(started))
		return err
	}
	if err := s.afterMutation(ctx, "waste_delete"); err != nil {
		return err
	}
	s.recordAudit(ctx, "waste_entry.delete", "waste_entry", id, nil)
	metrics.ObserveEntryWrite("waste", metrics.ResultSuccess, time.Since(started))
	return nil
}

// DeleteWasteEntries removes every waste entry passing the filter and
// returns how many were removed. A filter matching nothing is not an error.
func (s *Service) DeleteWasteEntries(ctx context.Context, filter entries.Filter) (int, error) {
	if s == nil {
		return 0, errors.New("entries: nil service")
	}
	list, err := s.store.WasteEntries(ctx)
	if err != nil {
		return 0, err
	}
	now := s.clock.Now()
	kept := make([]entries.WasteEntry, 0, len(list))
	removed := 0
	for _, entry := range list {
		if filter.Matches(entry, now) {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	if removed == 0 {
		return 0, nil
	}
	if err := s.store.SaveWasteEntries(ctx, kept); err != nil {
		return 0, err
	}
	if err := s.afterMutation(ctx, "waste_bulk_delete"); err != nil {
		return 0, err
	}
	s.recordAudit(ctx, "waste_entry.bulk_delete", "waste_entry", "", map[string]any{"removed": removed})
	return removed, nil
}

// AddLandfillEntry stores a new landfill disposal record.
func (s *Service) AddLandfillEntry(ctx context.Context, entry entries.LandfillEntry) (entries.LandfillEntry, error) {
	if s == nil {
		return entries.LandfillEntry{}, errors.New("entries: nil service")
	}
	started := time.Now()
	entry.ID = uuid.NewString()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.clock.Now()
	}
	if entry.CollectionDate.IsZero() {
		entry.CollectionDate = entry.Timestamp
	}
	if err := entry.Validate(); err != nil {
		metrics.ObserveEntryWrite("landfill", metrics.ResultError, time.Since(started))
		return entries.LandfillEntry{}, err
	}
	list, err := s.store.LandfillEntries(ctx)
	if err != nil {
		return entries.LandfillEntry{}, err
	}
	list = append(list, entry)
	if err := s.store.SaveLandfillEntries(ctx, list); err != nil {
		metrics.ObserveEntryWrite("landfill", metrics.ResultError, time.Since(started))
		return entries.LandfillEntry{}, err
	}
	if err := s.afterMutation(ctx, "landfill_add"); err != nil {
		return entries.LandfillEntry{}, err
	}
	s.recordAudit(ctx, "landfill_entry.create", "landfill_entry", entry.ID, map[string]any{"weight": entry.Weight})
	metrics.ObserveEntryWrite("landfill", metrics.ResultSuccess, time.Since(started))
	return entry, nil
}

// UpdateLandfillEntry replaces an existing landfill record in place.
func (s *Service) UpdateLandfillEntry(ctx context.Context, entry entries.LandfillEntry) (entries.LandfillEntry, error) {
	if s == nil {
		return entries.LandfillEntry{}, errors.New("entries: nil service")
	}
	if entry.ID == "" {
		return entries.LandfillEntry{}, errors.New("entries: entry id required")
	}
	if err := entry.Validate(); err != nil {
		return entries.LandfillEntry{}, err
	}
	started := time.Now()
	list, err := s.store.LandfillEntries(ctx)
	if err != nil {
		return entries.LandfillEntry{}, err
	}
	found := false
	for i := range list {
		if list[i].ID == entry.ID {
			if entry.Timestamp.IsZero() {
				entry.Timestamp = list[i].Timestamp
			}
			if entry.CollectionDate.IsZero() {
				entry.CollectionDate = list[i].CollectionDate
			}
			list[i] = entry
			found = true
			break
		}
	}
	if !found {
		return entries.LandfillEntry{}, entries.ErrNotFound
	}
	if err := s.store.SaveLandfillEntries(ctx, list); err != nil {
		metrics.ObserveEntryWrite("landfill", metrics.ResultError, time.Since(started))
		return entries.LandfillEntry{}, err
	}
	if err := s.afterMutation(ctx, "landfill_update"); err != nil {
		return entries.LandfillEntry{}, err
	}
	s.recordAudit(ctx, "landfill_entry.update", "landfill_entry", entry.ID, map[string]any{"weight": entry.Weight})
	metrics.ObserveEntryWrite("landfill", metrics.ResultSuccess, time.Since(started))
	return entry, nil
}

// DeleteLandfillEntry removes a landfill record by id.
func (s *Service) DeleteLandfillEntry(ctx context.Context, id string) error {
	if s == nil {
		return errors.New("entries: nil service")
	}
	list, err := s.store.LandfillEntries(ctx)
	if err != nil {
		return err
	}
	kept := list[:0]
	found := false
	for _, entry := range list {
		if entry.ID == id {
			found = true
			continue
		}
		kept = append(kept, entry)
	}
	if !found {
		return entries.ErrNotFound
	}
	if err := s.store.SaveLandfillEntries(ctx, kept); err != nil {
		return err
	}
	if err := s.afterMutation(ctx, "landfill_delete"); err != nil {
		return err
	}
	s.recordAudit(ctx, "landfill_entry.delete", "landfill_entry", id, nil)
	return nil
}

// LandfillEntries returns all landfill records.
func (s *Service) LandfillEntries(ctx context.Context) ([]entries.LandfillEntry, error) {
	if s == nil {
		return nil, errors.New("entries: nil service")
	}
	return s.store.LandfillEntries(ctx)
}

// AddRecyclingEntry stores a new recycling disposal record.
func (s *Service) AddRecyclingEntry(ctx context.Context, entry entries.RecyclingEntry) (entries.RecyclingEntry, error) {
	if s == nil {
		return entries.RecyclingEntry{}, errors.New("entries: nil service")
	}
	started := time.Now()
	entry.ID = uuid.NewString()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.clock.Now()
	}
	if entry.ProcessingDate.IsZero() {
		entry.ProcessingDate = entry.Timestamp
	}
	if err := entry.Validate(); err != nil {
		metrics.ObserveEntryWrite("recycling", metrics.ResultError, time.Since(started))
		return entries.RecyclingEntry{}, err
	}
	list, err := s.store.RecyclingEntries(ctx)
	if err != nil {
		return entries.RecyclingEntry{}, err
	}
	list = append(list, entry)
	if err := s.store.SaveRecyclingEntries(ctx, list); err != nil {
		metrics.ObserveEntryWrite("recycling", metrics.ResultError, time.Since(started))
		return entries.RecyclingEntry{}, err
	}
	if err := s.afterMutation(ctx, "recycling_add"); err != nil {
		return entries.RecyclingEntry{}, err
	}
	s.recordAudit(ctx, "recycling_entry.create", "recycling_entry", entry.ID, map[string]any{"weight": entry.Weight})
	metrics.ObserveEntryWrite("recycling", metrics.ResultSuccess, time.Since(started))
	return entry, nil
}

// UpdateRecyclingEntry replaces an existing recycling record in place.
func (s *Service) UpdateRecyclingEntry(ctx context.Context, entry entries.RecyclingEntry) (entries.RecyclingEntry, error) {
	if s == nil {
		return entries.RecyclingEntry{}, errors.New("entries: nil service")
	}
	if entry.ID == "" {
		return entries.RecyclingEntry{}, errors.New("entries: entry id required")
	}
	if err := entry.Validate(); err != nil {
		return entries.RecyclingEntry{}, err
	}
	started := time.Now()
	list, err := s.store.RecyclingEntries(ctx)
	if err != nil {
		return entries.RecyclingEntry{}, err
	}
	found := false
	for i := range list {
		if list[i].ID == entry.ID {
			if entry.Timestamp.IsZero() {
				entry.Timestamp = list[i].Timestamp
			}
			if entry.ProcessingDate.IsZero() {
				entry.ProcessingDate = list[i].ProcessingDate
			}
			list[i] = entry
			found = true
			break
		}
	}
	if !found {
		return entries.RecyclingEntry{}, entries.ErrNotFound
	}
	if err := s.store.SaveRecyclingEntries(ctx, list); err != nil {
		metrics.ObserveEntryWrite("recycling", metrics.ResultError, time.Since(started))
		return entries.RecyclingEntry{}, err
	}
	if err := s.afterMutation(ctx, "recycling_update"); err != nil {
		return entries.RecyclingEntry{}, err
	}
	s.recordAudit(ctx, "recycling_entry.update", "recycling_entry", entry.ID, map[string]any{"weight": entry.Weight})
	metrics.ObserveEntryWrite("recycling", metrics.ResultSuccess, time.Since(started))
	return entry, nil
}

// DeleteRecyclingEntry removes a recycling record by id.
func (s *Service) DeleteRecyclingEntry(ctx context.Context, id string) error {
	if s == nil {
		return errors.New("entries: nil service")
	}
	list, err := s.store.RecyclingEntries(ctx)
	if err != nil {
		return err
	}
	kept := list[:0]
	found := false
	for _, entry := range list {
		if entry.ID == id {
			found = true
			continue
		}
		kept = append(kept, entry)
	}
	if !found {
		return entries.ErrNotFound
	}
	if err := s.store.SaveRecyclingEntries(ctx, kept); err != nil {
		return err
	}
	if err := s.afterMutation(ctx, "recycling_delete"); err != nil {
		return err
	}
	s.recordAudit(ctx, "recycling_entry.delete", "recycling_entry", id, nil)
	return nil
}

// RecyclingEntries returns all recycling records.
func (s *Service) RecyclingEntries(ctx context.Context) ([]entries.RecyclingEntry, error) {
	if s == nil {
		return nil, errors.New("entries: nil service")
	}
	return s.store.RecyclingEntries(ctx)
}

// ClearAll wipes the three entry collections.
func (s *Service) ClearAll(ctx context.Context) error {
	if s == nil {
		return errors.New("entries: nil service")
	}
	if err := s.store.SaveWasteEntries(ctx, []entries.WasteEntry{}); err != nil {
		return err
	}
	if err := s.store.SaveLandfillEntries(ctx, []entries.LandfillEntry{}); err != nil {
		return err
	}
	if err := s.store.SaveRecyclingEntries(ctx, []entries.RecyclingEntry{}); err != nil {
		return err
	}
	if err := s.afterMutation(ctx, "clear_all"); err != nil {
		return err
	}
	s.recordAudit(ctx, "entries.clear_all", "kv_store", "", nil)
	return nil
}

// RefreshSnapshot recomputes the dashboard snapshot from the stored
// collections and persists it. trigger labels the metric only.
func (s *Service) RefreshSnapshot(ctx context.Context, trigger string) (analytics.Snapshot, error) {
	if s == nil {
		return analytics.Snapshot{}, errors.New("entries: nil service")
	}
	started := time.Now()
	waste, err := s.store.WasteEntries(ctx)
	if err != nil {
		metrics.ObserveSnapshotRefresh(trigger, metrics.ResultError, time.Since(started))
		return analytics.Snapshot{}, err
	}
	landfill, err := s.store.LandfillEntries(ctx)
	if err != nil {
		metrics.ObserveSnapshotRefresh(trigger, metrics.ResultError, time.Since(started))
		return analytics.Snapshot{}, err
	}
	recycling, err := s.store.RecyclingEntries(ctx)
	if err != nil {
		metrics.ObserveSnapshotRefresh(trigger, metrics.ResultError, time.Since(started))
		return analytics.Snapshot{}, err
	}
	snapshot, err := s.aggregator.Compute(waste, landfill, recycling)
	if err != nil {
		metrics.ObserveSnapshotRefresh(trigger, metrics.ResultError, time.Since(started))
		return analytics.Snapshot{}, err
	}
	if err := s.store.StoreJSON(ctx, kvstore.KeyDashboardData, snapshot); err != nil {
		metrics.ObserveSnapshotRefresh(trigger, metrics.ResultError, time.Since(started))
		return analytics.Snapshot{}, err
	}
	metrics.ObserveSnapshotRefresh(trigger, metrics.ResultSuccess, time.Since(started))
	return snapshot, nil
}

// Snapshot loads the persisted dashboard snapshot. The second return is
// false when no snapshot has been written yet.
func (s *Service) Snapshot(ctx context.Context) (analytics.Snapshot, bool, error) {
	if s == nil {
		return analytics.Snapshot{}, false, errors.New("entries: nil service")
	}
	var snapshot analytics.Snapshot
	if err := s.store.LoadJSON(ctx, kvstore.KeyDashboardData, &snapshot); err != nil {
		return analytics.Snapshot{}, false, err
	}
	if snapshot.LastUpdated.IsZero() {
		return analytics.Snapshot{}, false, nil
	}
	return snapshot, true, nil
}

// Series buckets the stored waste entries into the chart series for a
// range.
func (s *Service) Series(ctx context.Context, rng entries.TimeRange) ([]analytics.SeriesPoint, error) {
	if s == nil {
		return nil, errors.New("entries: nil service")
	}
	waste, err := s.store.WasteEntries(ctx)
	if err != nil {
		return nil, err
	}
	return s.aggregator.BuildSeries(waste, rng)
}

// HoursSinceLastEntry reports the age of the newest waste entry. The second
// return is false with no entries stored.
func (s *Service) HoursSinceLastEntry(ctx context.Context) (float64, bool, error) {
	if s == nil {
		return 0, false, errors.New("entries: nil service")
	}
	waste, err := s.store.WasteEntries(ctx)
	if err != nil {
		return 0, false, err
	}
	hours, ok := s.aggregator.HoursSinceLastEntry(waste)
	return hours, ok, nil
}

// Preferences loads the stored preference document, defaulting to
// kilograms.
func (s *Service) Preferences(ctx context.Context) (entries.Preferences, error) {
	if s == nil {
		return entries.Preferences{}, errors.New("entries: nil service")
	}
	prefs := entries.DefaultPreferences()
	if err := s.store.LoadJSON(ctx, kvstore.KeyUserPreferences, &prefs); err != nil {
		return entries.Preferences{}, err
	}
	if prefs.Validate() != nil {
		return entries.DefaultPreferences(), nil
	}
	return prefs, nil
}

// SavePreferences replaces the stored preference document.
func (s *Service) SavePreferences(ctx context.Context, prefs entries.Preferences) error {
	if s == nil {
		return errors.New("entries: nil service")
	}
	if err := prefs.Validate(); err != nil {
		return err
	}
	if err := s.store.StoreJSON(ctx, kvstore.KeyUserPreferences, prefs); err != nil {
		return err
	}
	s.recordAudit(ctx, "preferences.update", "preferences", "", map[string]any{"units": prefs.Units})
	return nil
}

// SeedSampleData inserts a small fixed set of waste entries for demo
// installs. Repeated calls append; callers wanting a clean slate run
// ClearAll first.
func (s *Service) SeedSampleData(ctx context.Context) error {
	if s == nil {
		return errors.New("entries: nil service")
	}
	now := s.clock.Now()
	samples := []entries.WasteEntry{
		{UserID: "user_1", Category: entries.CategoryPET, Weight: 2.5, Timestamp: now, Notes: "Sample PET bottle"},
		{UserID: "user_1", Category: entries.CategoryAluminum, Weight: 0.8, Timestamp: now.Add(-1 * time.Hour), Notes: "Sample aluminum can"},
		{UserID: "user_1", Category: entries.CategoryCardboard, Weight: 1.2, Timestamp: now.Add(-2 * time.Hour), Notes: "Sample cardboard box"},
		{UserID: "user_1", Category: entries.CategoryGlass, Weight: 3.0, Timestamp: now.Add(-3 * time.Hour), Notes: "Sample glass jar"},
		{UserID: "user_1", Category: entries.CategoryNonRecyclable, Weight: 1.5, Timestamp: now.Add(-4 * time.Hour), Notes: "Sample non-recyclable waste"},
	}
	for _, sample := range samples {
		if _, err := s.AddWasteEntry(ctx, sample); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) afterMutation(ctx context.Context, trigger string) error {
	if _, err := s.RefreshSnapshot(ctx, trigger); err != nil {
		return err
	}
	if s.relay == nil {
		return nil
	}
	if err := s.relay.ForceNotify(ctx); err != nil {
		s.logger.Printf("entries: change notify failed: %v", err)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action, resourceType, resourceID string, meta map[string]any) {
	if s.auditLog == nil {
		return
	}
	var raw json.RawMessage
	if meta != nil {
		raw, _ = json.Marshal(meta)
	}
	err := s.auditLog.Log(ctx, audit.Entry{
		Actor:        auth.SubjectFromContext(ctx),
		Role:         string(auth.RoleFromContext(ctx)),
		UserID:       auth.UserIDFromContext(ctx),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     raw,
		CreatedAt:    s.clock.Now().UTC(),
	})
	if err != nil {
		s.logger.Printf("entries: audit write failed: %v", err)
	}
}
