package store

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/jonathanprogram2/obel/internal/version"
)

// Schema version is tracked in system_setting. The DDL itself is idempotent,
// so applying it is always safe; the version record exists to refuse running
// a binary older than the database that created the schema.

// currentSchemaVersion derives the schema version from the binary version.
// Schema changes only land on minor releases, so the patch component is
// pinned to zero.
func currentSchemaVersion(mode string) string {
	minorVersion := version.GetMinorVersion(version.GetCurrentVersion(mode))
	if minorVersion == "" {
		minorVersion = "0.0"
	}
	return minorVersion + ".0"
}

// Migrate applies the schema and records the schema version, rejecting a
// downgrade against a database written by a newer release.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.driver.Migrate(ctx); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}

	storedVersion, err := s.driver.GetSchemaVersion(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get stored schema version")
	}
	targetVersion := currentSchemaVersion(s.profile.Mode)

	if storedVersion != "" && !version.IsVersionGreaterOrEqualThan(targetVersion, storedVersion) {
		return errors.Errorf("cannot downgrade schema version from %s to %s", storedVersion, targetVersion)
	}
	if storedVersion == targetVersion {
		return nil
	}

	if err := s.driver.UpsertSchemaVersion(ctx, targetVersion); err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}
	slog.Info("schema version recorded", "from", storedVersion, "to", targetVersion)
	return nil
}
