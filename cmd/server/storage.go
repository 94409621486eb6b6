package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"intake-assistant/internal/config"
	"intake-assistant/internal/core"
	"intake-assistant/internal/db"
)

// profileStore is what the commands need from either backend.
type profileStore interface {
	core.ProfileStore
	Ping(ctx context.Context) error
}

type storage struct {
	profiles profileStore
	notifier *db.Notifier // nil for SQLite or when NOTIFY_CHANNEL is empty
	close    func() error
}

// openStorage connects to the configured backend and ensures the schema
// exists.
func openStorage(ctx context.Context, c *config.Config, logger *slog.Logger) (*storage, error) {
	switch c.DB.Driver {
	case config.DriverSQLite:
		store, err := db.NewSQLite(c.DB.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("Database connected", "driver", c.DB.Driver, "path", c.DB.Path)
		return &storage{profiles: store, close: store.Close}, nil

	case config.DriverPostgres:
		conn, err := sql.Open("postgres", c.DB.URL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := conn.PingContext(pingCtx); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		if err := db.Migrate(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		var notifier *db.Notifier
		if c.DB.NotifyChannel != "" {
			notifier = db.NewNotifier(conn, c.DB.URL, c.DB.NotifyChannel, logger)
		}
		logger.Info("Database connected", "driver", c.DB.Driver, "notify_channel", c.DB.NotifyChannel)
		return &storage{
			profiles: db.NewRepository(conn, notifier, logger),
			notifier: notifier,
			close:    conn.Close,
		}, nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
}

func (s *storage) Close(logger *slog.Logger) {
	if err := s.close(); err != nil {
		logger.Error("Failed to close database", "error", err)
	}
}
