package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// migrationLogger adapts zap to the migrate logger interface
type migrationLogger struct {
	logger *zap.SugaredLogger
}

func (l migrationLogger) Printf(format string, v ...any) {
	l.logger.Infof(format, v...)
}

func (l migrationLogger) Verbose() bool {
	return true
}

// resolveMigrationFolder tries the configured path as-is, then relative to
// the working directory. Binaries run from different places in dev and in
// containers.
func resolveMigrationFolder(folder string) string {
	if _, err := os.Stat(folder); err == nil {
		return folder
	}
	workingDirectory, _ := os.Getwd()
	return filepath.Join(workingDirectory, folder)
}

// MigrateOptions tunes how migrations are applied. The zero value migrates
// to the latest version.
type MigrateOptions struct {
	// Version pins the target schema version; zero means latest
	Version int
	// Force marks the given version as applied and clears the dirty flag
	// before migrating. Operator escape hatch for a half-applied migration.
	Force int
	// AutoRollback steps back one migration when applying fails
	AutoRollback bool
}

// Migrate applies file-based migrations from the given folder
func Migrate(db *sqlx.DB, databaseName, folder string, opts MigrateOptions, logger *zap.Logger) error {
	migrationFolder := resolveMigrationFolder(folder)
	if _, err := os.Stat(migrationFolder); err != nil {
		return fmt.Errorf("migration folder %s does not exist: %w", migrationFolder, err)
	}

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationFolder, databaseName, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	m.Log = migrationLogger{logger: logger.Sugar()}

	if opts.Force > 0 {
		logger.Warn("forcing migration version", zap.Int("version", opts.Force))
		if err := m.Force(opts.Force); err != nil {
			return fmt.Errorf("failed to force migration version %d: %w", opts.Force, err)
		}
	}

	if opts.Version > 0 {
		err = m.Migrate(uint(opts.Version))
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		if opts.AutoRollback {
			if rollbackErr := m.Steps(-1); rollbackErr != nil && !errors.Is(rollbackErr, migrate.ErrNoChange) {
				logger.Error("migration rollback failed", zap.Error(rollbackErr))
			}
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("database migrations applied",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))

	return nil
}
