package store

import (
	"context"
	"testing"

	"featurepolicy-admin/internal/config"
	"featurepolicy-admin/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSettings() model.Settings {
	return model.Settings{
		model.Enforce: {
			Enable: true,
			Directives: map[model.DirectiveName]model.DirectiveConfig{
				"camera": {
					Base:    model.BasePtr(model.BaseSelf),
					Sources: []string{"example.com", "*.cdn.example.org:8443"},
				},
				"geolocation": {Base: model.BasePtr(model.BaseNone)},
				"usb": {
					Base:    model.BasePtr(model.BaseNA),
					Sources: []string{"https:"},
				},
			},
		},
	}
}

func TestFlattenUsesStorageKeyShape(t *testing.T) {
	entries, err := Flatten(sampleSettings())
	require.NoError(t, err)

	got := make(map[string]string, len(entries))
	var keys []string
	for _, e := range entries {
		got[e.Key] = string(e.Value)
		keys = append(keys, e.Key)
	}
	assert.IsIncreasing(t, keys)
	assert.Equal(t, map[string]string{
		"enforce.enable":                      "true",
		"enforce.directives.camera.base":      `"self"`,
		"enforce.directives.camera.sources":   `["example.com","*.cdn.example.org:8443"]`,
		"enforce.directives.geolocation.base": `"none"`,
		"enforce.directives.usb.base":         `""`,
		"enforce.directives.usb.sources":      `["https:"]`,
	}, got)
}

func TestUnflattenRejectsUnknownKeys(t *testing.T) {
	_, err := Unflatten([]Entry{{Key: "enforce.other", Value: []byte("1")}})
	assert.Error(t, err)

	_, err = Unflatten([]Entry{{Key: "enforce.enable", Value: []byte(`"yes"`)}})
	assert.Error(t, err)
}

func TestFlattenUnflattenRoundTrip(t *testing.T) {
	entries, err := Flatten(sampleSettings())
	require.NoError(t, err)

	settings, err := Unflatten(entries)
	require.NoError(t, err)
	assert.Equal(t, sampleSettings(), settings)
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, &config.Config{Store: config.StoreYAML, SettingsFile: dir + "/s.yml"})
	require.NoError(t, err)
	assert.IsType(t, &YAMLStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open(ctx, &config.Config{Store: config.StoreSQLite, SQLitePath: dir + "/fp.db", ConfigName: config.DefaultConfigName})
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, &config.Config{Store: "etcd"})
	assert.Error(t, err)
}

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	empty, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, s.Save(ctx, sampleSettings()))
	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleSettings(), loaded)

	// A later save overwrites the whole policy subtree.
	next := model.Settings{
		model.Enforce: {
			Enable: false,
			Directives: map[model.DirectiveName]model.DirectiveConfig{
				"usb": {Base: model.BasePtr(model.BaseAny)},
			},
		},
	}
	require.NoError(t, s.Save(ctx, next))
	loaded, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, next, loaded)

	// Policy types missing from a save are left alone.
	other := model.Settings{"report": {Enable: true, Directives: map[model.DirectiveName]model.DirectiveConfig{}}}
	require.NoError(t, s.Save(ctx, other))
	loaded, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, next[model.Enforce], loaded[model.Enforce])
	assert.True(t, loaded["report"].Enable)
	assert.Empty(t, loaded["report"].Directives)
}
