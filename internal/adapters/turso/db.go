package turso

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	_ "github.com/tursodatabase/go-libsql"
)

// Config selects the history database. A remote URL wins over a local path.
type Config struct {
	URL       string
	AuthToken string
	Path      string
}

func (c Config) dsn() (string, error) {
	switch {
	case c.URL != "" && c.AuthToken != "":
		return fmt.Sprintf("%s?authToken=%s", c.URL, c.AuthToken), nil
	case c.URL != "":
		return c.URL, nil
	case c.Path != "":
		return "file:" + c.Path, nil
	}
	return "", fmt.Errorf("database URL or path is required")
}

// Open connects to the history database, retrying the initial ping with
// exponential backoff.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dsn, err := cfg.dsn()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.URL != "" {
		configureRemotePool(db)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = 10 * time.Second

	err = backoff.Retry(func() error {
		if err := db.PingContext(ctx); err != nil {
			logger.Warn("database ping failed", zap.Error(err))
			return err
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, 4), ctx))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// configureRemotePool keeps few, short-lived connections. Turso closes idle
// Hrana streams aggressively and a stale pooled connection fails with
// "stream not found".
func configureRemotePool(db *sql.DB) {
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(0)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(0)
}
