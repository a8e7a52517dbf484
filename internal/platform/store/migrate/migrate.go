// Package migrate applies the embedded schema to postgres and clickhouse
package migrate

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"signalgate/internal/platform/logger"
	"signalgate/internal/platform/store"
)

//go:embed sql/*.sql
var pgFiles embed.FS

//go:embed clickhouse/*.sql
var chFiles embed.FS

// lockKey serializes concurrent migrators through pg_advisory_xact_lock
const lockKey = 0x5167_6174

const ensureTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres applies every pending migration in name order, one transaction per file
// Returns the versions applied by this call
func Postgres(ctx context.Context, db store.TxRunner) ([]string, error) {
	if _, err := db.Exec(ctx, ensureTable); err != nil {
		return nil, fmt.Errorf("migrate: ensure schema_migrations: %w", err)
	}
	files, err := list(pgFiles, "sql")
	if err != nil {
		return nil, err
	}

	log := logger.Named("migrate")
	var applied []string
	for _, f := range files {
		version := strings.TrimSuffix(path.Base(f), ".sql")
		body, err := fs.ReadFile(pgFiles, f)
		if err != nil {
			return applied, err
		}
		ran := false
		err = db.Tx(ctx, func(q store.RowQuerier) error {
			if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(lockKey)); err != nil {
				return err
			}
			done, err := store.Scalar[bool](ctx, q,
				`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, version)
			if err != nil || done {
				return err
			}
			if _, err := q.Exec(ctx, string(body)); err != nil {
				return err
			}
			if _, err := q.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
				return err
			}
			ran = true
			return nil
		})
		if err != nil {
			return applied, fmt.Errorf("migrate: %s: %w", version, err)
		}
		if ran {
			log.Info().Str("version", version).Msg("migration applied")
			applied = append(applied, version)
		}
	}
	return applied, nil
}

// Clickhouse runs the idempotent clickhouse DDL files in name order
func Clickhouse(ctx context.Context, ch store.Clickhouse) error {
	files, err := list(chFiles, "clickhouse")
	if err != nil {
		return err
	}
	for _, f := range files {
		body, err := fs.ReadFile(chFiles, f)
		if err != nil {
			return err
		}
		if err := ch.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("migrate: clickhouse %s: %w", path.Base(f), err)
		}
	}
	return nil
}

// Versions lists the embedded postgres migration versions in apply order
func Versions() []string {
	files, _ := list(pgFiles, "sql")
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = strings.TrimSuffix(path.Base(f), ".sql")
	}
	return out
}

func list(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("migrate: read %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			out = append(out, path.Join(dir, e.Name()))
		}
	}
	slices.Sort(out)
	return out, nil
}
