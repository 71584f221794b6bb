package settings

import (
	"context"
	"fmt"
	"slices"

	"SearchScorer/internal/domain"
	"SearchScorer/internal/ports"
)

// Store reads and writes provider settings in the shared key-value store.
// Keys are stored verbatim; cache entries live under their own prefix.
type Store struct {
	kv ports.KVStore
}

var _ ports.SettingsStore = (*Store)(nil)

// NewStore wraps a key-value backend.
func NewStore(kv ports.KVStore) *Store {
	return &Store{kv: kv}
}

// Load returns the requested keys; absent keys are omitted from the map.
func (s *Store) Load(ctx context.Context, keys ...string) (map[string]string, error) {
	if len(keys) == 0 {
		keys = domain.SettingKeys
	}
	values, err := s.kv.GetMany(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return values, nil
}

// Save writes one known setting.
func (s *Store) Save(ctx context.Context, key, value string) error {
	if !slices.Contains(domain.SettingKeys, key) {
		return fmt.Errorf("unknown setting %q", key)
	}
	if err := s.kv.Put(ctx, key, value); err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}
