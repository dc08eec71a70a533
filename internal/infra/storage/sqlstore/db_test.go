package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/vietddude/seqgate/internal/core/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{URL: ":memory:"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestResolveDriver(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		wantDriver  string
		wantDialect string
		wantDSN     string
		wantErr     bool
	}{
		{
			name:        "postgres url defaults to pgx",
			cfg:         Config{URL: "postgres://u:p@localhost:5432/seqgate?sslmode=disable"},
			wantDriver:  "pgx",
			wantDialect: "postgres",
			wantDSN:     "postgres://u:p@localhost:5432/seqgate?sslmode=disable",
		},
		{
			name:        "explicit lib/pq",
			cfg:         Config{Driver: "postgres", URL: "postgres://localhost/seqgate"},
			wantDriver:  "postgres",
			wantDialect: "postgres",
			wantDSN:     "postgres://localhost/seqgate",
		},
		{
			name:        "sqlite file",
			cfg:         Config{URL: "sqlite://journal.db"},
			wantDriver:  "sqlite",
			wantDialect: "sqlite3",
			wantDSN:     "journal.db?_time_format=sqlite",
		},
		{
			name:        "sqlite keeps params",
			cfg:         Config{URL: "file:journal.db?cache=shared"},
			wantDriver:  "sqlite",
			wantDialect: "sqlite3",
			wantDSN:     "file:journal.db?cache=shared&_time_format=sqlite",
		},
		{name: "empty url", cfg: Config{}, wantErr: true},
		{name: "unknown scheme", cfg: Config{URL: "mysql://localhost"}, wantErr: true},
		{name: "unknown driver", cfg: Config{Driver: "mysql", URL: "x.db"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, dsn, dialect, err := resolveDriver(tt.cfg)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrConfiguration) {
					t.Fatalf("expected ErrConfiguration, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if driver != tt.wantDriver || dialect != tt.wantDialect || dsn != tt.wantDSN {
				t.Errorf("got (%s, %s, %s), want (%s, %s, %s)",
					driver, dsn, dialect, tt.wantDriver, tt.wantDSN, tt.wantDialect)
			}
		})
	}
}

func TestOpen_MigratesSchema(t *testing.T) {
	db := openTestDB(t)

	var count int
	if err := db.GetContext(context.Background(), &count, `SELECT COUNT(*) FROM submissions`); err != nil {
		t.Fatalf("submissions table missing: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty journal, got %d rows", count)
	}
	if err := db.Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}
}
