package kvconfig

import (
	"context"
	"errors"

	alerts "wastetrack-cloud/internal/alerts/domain"
	"wastetrack-cloud/internal/entries/infrastructure/kvstore"
)

// Repository persists the alert configuration whole under the
// notification-config key.
type Repository struct {
	store *kvstore.Store
}

// NewRepository constructs a repository.
func NewRepository(store *kvstore.Store) (*Repository, error) {
	if store == nil {
		return nil, errors.New("kvconfig: nil store")
	}
	return &Repository{store: store}, nil
}

// Load returns the stored configuration merged with defaults. A missing or
// corrupt document yields the defaults; a stored document missing newer
// built-in rules gets them re-added by id without touching edited rules.
// The stored document decodes into a zero value so a partial rule never
// picks up fields from whichever default sits at the same index.
func (r *Repository) Load(ctx context.Context) (alerts.Configuration, error) {
	if r == nil || r.store == nil {
		return alerts.Configuration{}, errors.New("kvconfig: nil repository")
	}
	var stored *alerts.Configuration
	if err := r.store.LoadJSON(ctx, kvstore.KeyNotificationConfig, &stored); err != nil {
		return alerts.Configuration{}, err
	}
	if stored == nil {
		return alerts.DefaultConfiguration(), nil
	}
	return alerts.MergeDefaults(*stored), nil
}

// Save replaces the stored configuration.
func (r *Repository) Save(ctx context.Context, cfg alerts.Configuration) error {
	if r == nil || r.store == nil {
		return errors.New("kvconfig: nil repository")
	}
	for _, rule := range cfg.Rules {
		if err := rule.Validate(); err != nil {
			return err
		}
	}
	return r.store.StoreJSON(ctx, kvstore.KeyNotificationConfig, cfg)
}
