package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/jonathanprogram2/obel/internal/profile"
	"github.com/jonathanprogram2/obel/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database named by the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// WAL journal mode avoids locking issues for the single-user local case;
	// with the modernc driver each pragma must be prefixed with `_pragma=`.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// SQLite: a single connection is optimal with WAL.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	driver := DB{db: sqliteDB, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS user (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS portfolio_holding (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	shares REAL NOT NULL DEFAULT 0,
	cost_basis REAL NOT NULL DEFAULT 0,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL,
	UNIQUE(user_id, symbol)
);

CREATE TABLE IF NOT EXISTS workspace_board (
	user_key TEXT PRIMARY KEY,
	tasks_json TEXT NOT NULL DEFAULT '{}',
	updated_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS system_setting (
	name TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Migrate applies the schema. The DDL is idempotent; there is no version
// ladder yet.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}
	return nil
}

const schemaVersionSettingName = "schema_version"

func (d *DB) GetSchemaVersion(ctx context.Context) (string, error) {
	var value string
	err := d.db.QueryRowContext(ctx,
		"SELECT value FROM system_setting WHERE name = ?", schemaVersionSettingName,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to query schema version")
	}
	return value, nil
}

func (d *DB) UpsertSchemaVersion(ctx context.Context, version string) error {
	if _, err := d.db.ExecContext(ctx, `
		INSERT INTO system_setting (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = EXCLUDED.value`,
		schemaVersionSettingName, version,
	); err != nil {
		return errors.Wrap(err, "failed to upsert schema version")
	}
	return nil
}
