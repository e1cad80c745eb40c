// AngelaMos | 2026
// postgres.go

//go:build integration

// Package testdb starts a throwaway PostgreSQL container with the
// application schema applied. Docker must be reachable.
package testdb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/carterperez-dev/solution-ledger/internal/config"
	"github.com/carterperez-dev/solution-ledger/internal/core"
)

const image = "postgres:16-alpine"

// Start returns a migrated database that is torn down with the test.
func Start(t *testing.T) *sqlx.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "ledger",
				"POSTGRES_PASSWORD": "ledger",
				"POSTGRES_DB":       "ledger",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("postgres host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}

	db, err := core.NewDatabase(ctx, config.DatabaseConfig{
		URL: fmt.Sprintf(
			"postgres://ledger:ledger@%s:%s/ledger?sslmode=disable",
			host,
			port.Port(),
		),
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute,
	})
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := core.Migrate(ctx, db.DB, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db.DB
}

// SeedUser inserts a bare account and returns its id.
func SeedUser(t *testing.T, db *sqlx.DB, name string) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO users (id, email, password_hash, name, role)
		VALUES ($1, $2, 'x', $3, 'user')`,
		id, id+"@example.com", name,
	)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}
