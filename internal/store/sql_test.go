package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T, name string) *SQLStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "fp.db"), name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	exerciseStore(t, openTestSQLite(t, "featurepolicy.settings"))
}

func TestSQLiteStoreScopesRowsByConfigName(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fp.db")

	a, err := OpenSQLite(ctx, path, "site-a")
	require.NoError(t, err)
	require.NoError(t, a.Save(ctx, sampleSettings()))
	require.NoError(t, a.Close())

	b, err := OpenSQLite(ctx, path, "site-b")
	require.NoError(t, err)
	defer b.Close()

	loaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestSQLiteStoreRejectsCorruptRow(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t, "featurepolicy.settings")
	_, err := s.db.ExecContext(ctx, "INSERT INTO featurepolicy_config (name, config_key, value) VALUES (?, ?, ?)",
		"featurepolicy.settings", "enforce.directives.camera.sources", "not json")
	require.NoError(t, err)

	_, err = s.Load(ctx)
	assert.Error(t, err)
}

// MariaDB tests run only when FPADMIN_TEST_MARIADB_DSN points at a reachable
// server, e.g. root:static@tcp(127.0.0.1:3306)/featurepolicy.
func TestMariaDBStore(t *testing.T) {
	dsn := os.Getenv("FPADMIN_TEST_MARIADB_DSN")
	if dsn == "" {
		t.Skip("FPADMIN_TEST_MARIADB_DSN not set")
	}
	ctx := context.Background()
	s, err := OpenMariaDB(ctx, dsn, "featurepolicy.settings.test")
	if err != nil {
		t.Skipf("MariaDB not reachable: %v", err)
	}
	defer s.Close()
	_, err = s.db.ExecContext(ctx, "DELETE FROM featurepolicy_config WHERE name = ?", "featurepolicy.settings.test")
	require.NoError(t, err)

	exerciseStore(t, s)
}

func TestOpenMariaDBInvalidDSN(t *testing.T) {
	_, err := OpenMariaDB(context.Background(), "invalid-dsn", "featurepolicy.settings")
	assert.Error(t, err)
}
