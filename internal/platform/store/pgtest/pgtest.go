//go:build integration_pg

// Package pgtest boots a throwaway postgres for integration tests and applies the schema
package pgtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"signalgate/internal/platform/logger"
	"signalgate/internal/platform/store"
	"signalgate/internal/platform/store/migrate"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Start runs postgres:16-alpine, opens a Store against it and applies every migration
// The container and the store are torn down on test cleanup
func Start(t *testing.T) *store.Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "signalgate",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/signalgate?sslmode=disable", host, port.Port())

	s, err := store.Open(ctx, store.Config{
		AppName: "signalgate-test",
		PG:      store.PGConfig{Enabled: true, URL: dsn, MaxConns: 32},
	}, store.WithLogger(*logger.Get()))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	if _, err := migrate.Postgres(ctx, s.PG); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}
