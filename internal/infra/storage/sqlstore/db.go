package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Use pgx via database/sql
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/vietddude/seqgate/internal/core/domain"
	"github.com/vietddude/seqgate/internal/metrics"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its dialect and filesystem in package state.
var migrateMu sync.Mutex

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Config holds journal database configuration.
type Config struct {
	// Driver is one of "pgx", "postgres" or "sqlite". Empty picks one from URL.
	Driver   string `yaml:"driver"`
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// DB wraps the journal connection.
type DB struct {
	*sqlx.DB
	dialect string
}

// Open connects to the journal database and applies pending migrations.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	driver, dsn, dialect, err := resolveDriver(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == "sqlite3" {
		// A second connection would see a different in-memory database.
		db.SetMaxOpenConns(1)
	} else {
		if cfg.MaxConns > 0 {
			db.SetMaxOpenConns(cfg.MaxConns)
		} else {
			db.SetMaxOpenConns(10)
		}
		if cfg.MinConns > 0 {
			db.SetMaxIdleConns(cfg.MinConns)
		} else {
			db.SetMaxIdleConns(2)
		}
		db.SetConnMaxLifetime(time.Hour)
		db.SetConnMaxIdleTime(30 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(ctx, db.DB, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{DB: db, dialect: dialect}, nil
}

func migrate(ctx context.Context, db *sql.DB, dialect string) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// resolveDriver maps the configuration to a database/sql driver, DSN and goose dialect.
func resolveDriver(cfg Config) (driver, dsn, dialect string, err error) {
	dsn = strings.TrimSpace(cfg.URL)
	if dsn == "" {
		return "", "", "", fmt.Errorf("%w: journal url is required", domain.ErrConfiguration)
	}

	driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		switch {
		case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
			driver = "pgx"
		case strings.HasPrefix(dsn, "sqlite://"), strings.HasPrefix(dsn, "file:"),
			strings.HasPrefix(dsn, ":memory:"), strings.HasSuffix(dsn, ".db"),
			strings.HasSuffix(dsn, ".sqlite"):
			driver = "sqlite"
		default:
			return "", "", "", fmt.Errorf("%w: cannot infer journal driver from %q", domain.ErrConfiguration, dsn)
		}
	}

	switch driver {
	case "pgx", "postgres":
		return driver, dsn, "postgres", nil
	case "sqlite", "sqlite3":
		dsn = strings.TrimPrefix(dsn, "sqlite://")
		if !strings.Contains(dsn, "_time_format=") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_time_format=sqlite"
		}
		return "sqlite", dsn, "sqlite3", nil
	}
	return "", "", "", fmt.Errorf("%w: unsupported journal driver %q", domain.ErrConfiguration, cfg.Driver)
}

// StartMetricsCollector starts a background goroutine to collect DB metrics.
func (db *DB) StartMetricsCollector(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := db.Stats()
				// MaxOpenConnections is 0 when unlimited.
				if stats.MaxOpenConnections > 0 {
					usage := float64(stats.OpenConnections) / float64(stats.MaxOpenConnections) * 100
					metrics.JournalPoolUsage.Set(usage)
				}
			}
		}
	}()
}

// Health checks if the database is healthy.
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}
