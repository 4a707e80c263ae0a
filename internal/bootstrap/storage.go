package bootstrap

import (
	"fmt"

	"noteguard-be/internal/config"
	"noteguard-be/internal/model"
	"noteguard-be/internal/repository/memory"
	"noteguard-be/internal/repository/unitofwork"
	"noteguard-be/pkg/database"
)

// OpenStorage returns the repository factory for the configured driver and
// a func that releases it. Postgres schemas are migrated on open.
func OpenStorage(cfg *config.Config) (unitofwork.RepositoryFactory, func() error, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		return memory.NewRepositoryFactory(memory.NewStore()), func() error { return nil }, nil

	case config.DriverPostgres:
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, !cfg.IsProduction())
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(db, model.All()...); err != nil {
			_ = database.Close(db)
			return nil, nil, err
		}
		return unitofwork.NewRepositoryFactory(db), func() error { return database.Close(db) }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
