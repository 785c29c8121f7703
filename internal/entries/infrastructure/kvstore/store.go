package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	entries "wastetrack-cloud/internal/entries/domain"
)

// Fixed keys of the persistence substrate. All collections are stored whole
// as JSON documents under these names.
const (
	KeyWasteEntries       = "waste-entries"
	KeyLandfillEntries    = "landfill-entries"
	KeyRecyclingEntries   = "recycling-entries"
	KeyDashboardData      = "dashboard-data"
	KeyNotificationConfig = "notification-config"
	KeyUserPreferences    = "user-preferences"
)

// Backend is a minimal string key-value substrate.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store reads and writes typed collections over a Backend. A missing key
// decodes as the empty collection; a corrupt value is logged and likewise
// treated as empty rather than surfaced to callers.
type Store struct {
	backend Backend
	logger  *log.Logger
}

// NewStore constructs a store.
func NewStore(backend Backend, logger *log.Logger) (*Store, error) {
	if backend == nil {
		return nil, errors.New("kvstore: nil backend")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Store{backend: backend, logger: logger}, nil
}

// WasteEntries loads the waste entry collection.
func (s *Store) WasteEntries(ctx context.Context) ([]entries.WasteEntry, error) {
	var list []entries.WasteEntry
	if err := s.load(ctx, KeyWasteEntries, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SaveWasteEntries replaces the waste entry collection.
func (s *Store) SaveWasteEntries(ctx context.Context, list []entries.WasteEntry) error {
	return s.store(ctx, KeyWasteEntries, list)
}

// LandfillEntries loads the landfill entry collection.
func (s *Store) LandfillEntries(ctx context.Context) ([]entries.LandfillEntry, error) {
	var list []entries.LandfillEntry
	if err := s.load(ctx, KeyLandfillEntries, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SaveLandfillEntries replaces the landfill entry collection.
func (s *Store) SaveLandfillEntries(ctx context.Context, list []entries.LandfillEntry) error {
	return s.store(ctx, KeyLandfillEntries, list)
}

// RecyclingEntries loads the recycling entry collection.
func (s *Store) RecyclingEntries(ctx context.Context) ([]entries.RecyclingEntry, error) {
	var list []entries.RecyclingEntry
	if err := s.load(ctx, KeyRecyclingEntries, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SaveRecyclingEntries replaces the recycling entry collection.
func (s *Store) SaveRecyclingEntries(ctx context.Context, list []entries.RecyclingEntry) error {
	return s.store(ctx, KeyRecyclingEntries, list)
}

// LoadJSON decodes the value at key into v. Missing and corrupt values leave
// v untouched and return nil.
func (s *Store) LoadJSON(ctx context.Context, key string, v any) error {
	return s.load(ctx, key, v)
}

// StoreJSON encodes v and writes it at key.
func (s *Store) StoreJSON(ctx context.Context, key string, v any) error {
	return s.store(ctx, key, v)
}

// DeleteKey removes a key outright.
func (s *Store) DeleteKey(ctx context.Context, key string) error {
	if s == nil || s.backend == nil {
		return errors.New("kvstore: nil store")
	}
	return s.backend.Delete(ctx, key)
}

// RawEntryCollections returns the three serialized entry collections
// concatenated in fixed key order. Change detection fingerprints this value,
// so the order must never change.
func (s *Store) RawEntryCollections(ctx context.Context) (string, error) {
	if s == nil || s.backend == nil {
		return "", errors.New("kvstore: nil store")
	}
	combined := ""
	for _, key := range []string{KeyWasteEntries, KeyLandfillEntries, KeyRecyclingEntries} {
		value, _, err := s.backend.Get(ctx, key)
		if err != nil {
			return "", err
		}
		combined += value
	}
	return combined, nil
}

func (s *Store) load(ctx context.Context, key string, v any) error {
	if s == nil || s.backend == nil {
		return errors.New("kvstore: nil store")
	}
	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok || raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.logger.Printf("kvstore: corrupt value at %q, treating as empty: %v", key, err)
		return nil
	}
	return nil
}

func (s *Store) store(ctx context.Context, key string, v any) error {
	if s == nil || s.backend == nil {
		return errors.New("kvstore: nil store")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.backend.Put(ctx, key, string(raw))
}
