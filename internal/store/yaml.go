package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"featurepolicy-admin/internal/model"

	"gopkg.in/yaml.v3"
)

// YAMLStore keeps the settings in a YAML file shaped like a config export:
//
//	enforce:
//	  enable: true
//	  directives:
//	    camera:
//	      base: self
//	      sources: [example.com]
type YAMLStore struct {
	path string
}

func NewYAMLStore(path string) *YAMLStore {
	return &YAMLStore{path: path}
}

// Load returns empty settings when the file does not exist yet.
func (s *YAMLStore) Load(ctx context.Context) (model.Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Settings{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	var settings model.Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return normalizeLoaded(settings), nil
}

func (s *YAMLStore) Save(ctx context.Context, settings model.Settings) error {
	current, err := s.Load(ctx)
	if err != nil {
		return err
	}
	for pt, policy := range settings {
		current[pt] = policy
	}

	data, err := yaml.Marshal(current)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func (s *YAMLStore) Close() error {
	return nil
}
