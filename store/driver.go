package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error
	Migrate(ctx context.Context) error

	// Schema version bookkeeping, stored in system_setting.
	GetSchemaVersion(ctx context.Context) (string, error)
	UpsertSchemaVersion(ctx context.Context, version string) error

	// User model related methods.
	CreateUser(ctx context.Context, create *User) (*User, error)
	GetUser(ctx context.Context, find *FindUser) (*User, error)

	// Portfolio model related methods.
	UpsertHolding(ctx context.Context, upsert *Holding) (*Holding, error)
	ListHoldings(ctx context.Context, find *FindHolding) ([]*Holding, error)
	DeleteHolding(ctx context.Context, delete *DeleteHolding) error

	// Workspace board related methods.
	UpsertBoard(ctx context.Context, upsert *Board) (*Board, error)
	GetBoard(ctx context.Context, userKey string) (*Board, error)
}
