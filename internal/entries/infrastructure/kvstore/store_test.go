package kvstore

import (
	"context"
	"testing"
	"time"

	entries "wastetrack-cloud/internal/entries/domain"
	"wastetrack-cloud/internal/entries/infrastructure/memory"
)

func newTestStore(t *testing.T) (*Store, *memory.Backend) {
	t.Helper()
	backend := memory.NewBackend()
	store, err := NewStore(backend, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, backend
}

func TestMissingKeyLoadsEmpty(t *testing.T) {
	store, _ := newTestStore(t)
	list, err := store.WasteEntries(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty collection, got %d", len(list))
	}
}

func TestCorruptValueTreatedAsEmpty(t *testing.T) {
	store, backend := newTestStore(t)
	if err := backend.Put(context.Background(), KeyWasteEntries, "{not json"); err != nil {
		t.Fatalf("put: %v", err)
	}
	list, err := store.WasteEntries(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty collection, got %d", len(list))
	}
}

func TestWasteEntriesRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	in := []entries.WasteEntry{
		{
			ID:         "e1",
			UserID:     "user_1",
			Category:   entries.CategoryPET,
			Weight:     2.5,
			Timestamp:  time.Date(2026, 5, 15, 10, 0, 0, 0, time.UTC),
			Recyclable: true,
		},
	}
	if err := store.SaveWasteEntries(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := store.WasteEntries(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 1 || out[0] != in[0] {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestRawEntryCollectionsFixedOrder(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()
	if err := backend.Put(ctx, KeyRecyclingEntries, "R"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := backend.Put(ctx, KeyWasteEntries, "W"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := backend.Put(ctx, KeyLandfillEntries, "L"); err != nil {
		t.Fatalf("put: %v", err)
	}

	raw, err := store.RawEntryCollections(ctx)
	if err != nil {
		t.Fatalf("raw collections: %v", err)
	}
	if raw != "WLR" {
		t.Fatalf("order changed: got %q, want %q", raw, "WLR")
	}
}

func TestLoadJSONLeavesDefaultsOnMissingKey(t *testing.T) {
	store, _ := newTestStore(t)
	prefs := entries.DefaultPreferences()
	if err := store.LoadJSON(context.Background(), KeyUserPreferences, &prefs); err != nil {
		t.Fatalf("load json: %v", err)
	}
	if prefs.Units != entries.UnitKilograms {
		t.Fatalf("defaults clobbered: %+v", prefs)
	}
}

func TestDeleteKey(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()
	if err := backend.Put(ctx, KeyDashboardData, "{}"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.DeleteKey(ctx, KeyDashboardData); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, ok, err := backend.Get(ctx, KeyDashboardData)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("key still present after delete")
	}
}
