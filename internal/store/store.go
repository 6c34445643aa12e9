package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"featurepolicy-admin/internal/config"
	"featurepolicy-admin/internal/model"
)

// Store reads and writes the settings document. Save replaces the subtree of
// every policy type it is given and leaves other policy types alone. There is
// no locking: the last write wins.
type Store interface {
	Load(ctx context.Context) (model.Settings, error)
	Save(ctx context.Context, settings model.Settings) error
	Close() error
}

// Open returns the store selected by cfg.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store {
	case config.StoreYAML:
		return NewYAMLStore(cfg.SettingsFile), nil
	case config.StoreSQLite:
		s, err := OpenSQLite(ctx, cfg.SQLitePath, cfg.ConfigName)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreMariaDB:
		s, err := OpenMariaDB(ctx, cfg.DSN, cfg.ConfigName)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store: %s", cfg.Store)
	}
}

// Entry is one stored key, e.g. enforce.directives.camera.sources, with its
// JSON-encoded value.
type Entry struct {
	Key   string
	Value json.RawMessage
}

// Flatten maps settings onto storage keys, sorted by key.
func Flatten(settings model.Settings) ([]Entry, error) {
	var entries []Entry
	add := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		entries = append(entries, Entry{Key: key, Value: raw})
		return nil
	}

	for pt, policy := range settings {
		if err := add(model.EnableKey(pt), policy.Enable); err != nil {
			return nil, err
		}
		for name, dc := range policy.Directives {
			if dc.Base != nil {
				if err := add(model.DirectiveKey(pt, name, model.FieldBase), *dc.Base); err != nil {
					return nil, err
				}
			}
			if len(dc.Sources) > 0 {
				if err := add(model.DirectiveKey(pt, name, model.FieldSources), dc.Sources); err != nil {
					return nil, err
				}
			}
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries, nil
}

// Unflatten rebuilds settings from stored entries.
func Unflatten(entries []Entry) (model.Settings, error) {
	settings := make(model.Settings)
	for _, e := range entries {
		pt, name, field, ok := model.SplitKey(e.Key)
		if !ok {
			return nil, fmt.Errorf("unexpected config key %q", e.Key)
		}
		policy := settings[pt]
		if policy.Directives == nil {
			policy.Directives = make(map[model.DirectiveName]model.DirectiveConfig)
		}

		switch field {
		case "enable":
			if err := json.Unmarshal(e.Value, &policy.Enable); err != nil {
				return nil, fmt.Errorf("decode %s: %w", e.Key, err)
			}
		case model.FieldBase:
			var base model.SourceListBase
			if err := json.Unmarshal(e.Value, &base); err != nil {
				return nil, fmt.Errorf("decode %s: %w", e.Key, err)
			}
			dc := policy.Directives[name]
			dc.Base = &base
			policy.Directives[name] = dc
		case model.FieldSources:
			var sources []string
			if err := json.Unmarshal(e.Value, &sources); err != nil {
				return nil, fmt.Errorf("decode %s: %w", e.Key, err)
			}
			dc := policy.Directives[name]
			dc.Sources = sources
			policy.Directives[name] = dc
		}
		settings[pt] = policy
	}
	return settings, nil
}

// normalizeLoaded gives every policy a non-nil directive map and drops
// directives that carry nothing.
func normalizeLoaded(settings model.Settings) model.Settings {
	if settings == nil {
		return model.Settings{}
	}
	for pt, policy := range settings {
		if policy.Directives == nil {
			policy.Directives = make(map[model.DirectiveName]model.DirectiveConfig)
		}
		for name, dc := range policy.Directives {
			if dc.Empty() {
				delete(policy.Directives, name)
			}
		}
		settings[pt] = policy
	}
	return settings
}
