package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"featurepolicy-admin/internal/model"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

const (
	mysqlDriverName  = "mysql"
	sqliteDriverName = "sqlite"

	defaultBusyTimeout = 5 * time.Second
)

// Both dialects accept this schema and the ? placeholders used below.
var schema = `CREATE TABLE IF NOT EXISTS featurepolicy_config (
	name VARCHAR(128) NOT NULL,
	config_key VARCHAR(255) NOT NULL,
	value LONGTEXT NOT NULL,
	PRIMARY KEY (name, config_key)
)`

// SQLStore keeps each settings key as one row of featurepolicy_config, with
// values JSON-encoded.
type SQLStore struct {
	db   *sql.DB
	name string
}

// OpenMariaDB connects to MariaDB/MySQL and ensures the schema.
func OpenMariaDB(ctx context.Context, dsn, configName string) (*SQLStore, error) {
	db, err := sql.Open(mysqlDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open mariadb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mariadb: %w", err)
	}
	return newSQLStore(ctx, db, configName)
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(ctx context.Context, path, configName string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure sqlite dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", filepath.ToSlash(path), int(defaultBusyTimeout/time.Millisecond))
	db, err := sql.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return newSQLStore(ctx, db, configName)
}

func newSQLStore(ctx context.Context, db *sql.DB, configName string) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLStore{db: db, name: configName}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Load(ctx context.Context) (model.Settings, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT config_key, value FROM featurepolicy_config WHERE name = ? ORDER BY config_key", s.name)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan settings: %w", err)
		}
		entries = append(entries, Entry{Key: key, Value: []byte(value)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	settings, err := Unflatten(entries)
	if err != nil {
		return nil, err
	}
	return normalizeLoaded(settings), nil
}

// Save clears each given policy type's keys and inserts the new ones in a
// single transaction.
func (s *SQLStore) Save(ctx context.Context, settings model.Settings) error {
	entries, err := Flatten(settings)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for pt := range settings {
		prefix := string(pt) + "."
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM featurepolicy_config WHERE name = ? AND SUBSTR(config_key, 1, ?) = ?",
			s.name, len(prefix), prefix); err != nil {
			return fmt.Errorf("clear %s: %w", pt, err)
		}
	}
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO featurepolicy_config (name, config_key, value) VALUES (?, ?, ?)",
			s.name, e.Key, string(e.Value)); err != nil {
			return fmt.Errorf("insert %s: %w", e.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
