package postgres

import (
	"context"
	"database/sql"

	// Import the Postgres driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/jonathanprogram2/obel/internal/profile"
	"github.com/jonathanprogram2/obel/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a Postgres connection with the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	driver := DB{db: db, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS "user" (
	id SERIAL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS portfolio_holding (
	id BIGSERIAL PRIMARY KEY,
	user_id INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	shares DOUBLE PRECISION NOT NULL DEFAULT 0,
	cost_basis DOUBLE PRECISION NOT NULL DEFAULT 0,
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

// Migrate applies the schema. The DDL is idempotent.
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
		"SELECT value FROM system_setting WHERE name = $1", schemaVersionSettingName,
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
		INSERT INTO system_setting (name, value) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value`,
		schemaVersionSettingName, version,
	); err != nil {
		return errors.Wrap(err, "failed to upsert schema version")
	}
	return nil
}
