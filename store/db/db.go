package db

import (
	"github.com/pkg/errors"

	"github.com/jonathanprogram2/obel/internal/profile"
	"github.com/jonathanprogram2/obel/store"
	"github.com/jonathanprogram2/obel/store/db/postgres"
	"github.com/jonathanprogram2/obel/store/db/sqlite"
)

// NewDBDriver creates a new db driver based on the profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "sqlite":
		return sqlite.NewDB(profile)
	case "postgres":
		return postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q", profile.Driver)
	}
}
