package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/emiliopalmerini/soilstab/internal/adapters/turso"
	"github.com/emiliopalmerini/soilstab/internal/engine"
	"github.com/emiliopalmerini/soilstab/internal/migrate"
	"github.com/emiliopalmerini/soilstab/internal/ports"
)

var errHistoryNotConfigured = errors.New("history is not configured: set SOILSTAB_DATABASE_PATH or SOILSTAB_DATABASE_URL")

func loadParams() (engine.Params, error) {
	p, err := engine.LoadParams(appConfig.ParamsFile)
	if err != nil {
		return engine.Params{}, fmt.Errorf("failed to load engine parameters: %w", err)
	}
	return p, nil
}

func buildEngine() (*engine.Engine, error) {
	p, err := loadParams()
	if err != nil {
		return nil, err
	}
	return engine.NewDefault(p)
}

func openDB(ctx context.Context) (*sql.DB, error) {
	if !appConfig.Database.Configured() {
		return nil, errHistoryNotConfigured
	}
	db, err := turso.Open(ctx, turso.Config{
		URL:       appConfig.Database.URL,
		AuthToken: appConfig.Database.AuthToken,
		Path:      appConfig.Database.Path,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// openHistory connects and migrates the history store. It returns a nil
// repository and nil error when history is not configured.
func openHistory(ctx context.Context) (*sql.DB, ports.HistoryRepository, error) {
	if !appConfig.Database.Configured() {
		return nil, nil, nil
	}
	db, err := openDB(ctx)
	if err != nil {
		return nil, nil, err
	}
	if _, err := migrate.New(db, logger).Up(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, turso.NewRepositories(db).History, nil
}
