package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/Subrata270/studio-sub001/infrastructure/config"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

type migrationFile struct {
	version int
	name    string
	path    string
	kind    string // up or down
}

type migrator struct {
	db     *sql.DB
	logger logger.Logger
}

func main() {
	mode := flag.String("mode", "up", "migration mode: up, down or status")
	dir := flag.String("dir", "migrations", "directory holding the .sql files")
	steps := flag.Int("steps", 0, "number of migrations to revert in down mode (0 = all)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	structuredLogger := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "subscription-migrate",
	})
	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	m := &migrator{db: db, logger: structuredLogger}
	if err := m.ensureSchemaMigrations(ctx); err != nil {
		log.Fatalf("failed to ensure schema_migrations: %v", err)
	}

	files, err := loadMigrationFiles(*dir)
	if err != nil {
		log.Fatalf("failed to load migrations: %v", err)
	}

	switch strings.ToLower(*mode) {
	case "up":
		n, err := m.applyUp(ctx, files)
		if err != nil {
			log.Fatalf("migration up failed: %v", err)
		}
		structuredLogger.Info(ctx, "Migration up completed", map[string]interface{}{"applied": n})
	case "down":
		n, err := m.applyDown(ctx, files, *steps)
		if err != nil {
			log.Fatalf("migration down failed: %v", err)
		}
		structuredLogger.Info(ctx, "Migration down completed", map[string]interface{}{"reverted": n})
	case "status":
		if err := m.status(ctx, files); err != nil {
			log.Fatalf("migration status failed: %v", err)
		}
	default:
		log.Fatalf("unknown mode: %s", *mode)
	}
}

func (m *migrator) ensureSchemaMigrations(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return err
}

func loadMigrationFiles(dir string) ([]migrationFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []migrationFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		lower := strings.ToLower(name)
		if !strings.HasSuffix(lower, ".sql") {
			continue
		}

		kind := "up"
		if strings.HasSuffix(lower, ".down.sql") {
			kind = "down"
		}

		version, migName, err := parseVersionAndName(name)
		if err != nil {
			log.Printf("skip migration without version prefix: %s", name)
			continue
		}
		files = append(files, migrationFile{
			version: version,
			name:    migName,
			path:    filepath.Join(dir, name),
			kind:    kind,
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}

// parseVersionAndName splits "002_create_subscriptions.up.sql" into 2 and
// "create_subscriptions".
func parseVersionAndName(filename string) (int, string, error) {
	parts := strings.SplitN(filename, "_", 2)
	if len(parts) < 2 {
		return 0, "", errors.New("invalid filename")
	}
	version, err := strconv.Atoi(parts[0])
	if err != nil || version <= 0 {
		return 0, "", errors.New("invalid version")
	}
	name := strings.TrimSuffix(parts[1], ".sql")
	name = strings.TrimSuffix(strings.TrimSuffix(name, ".up"), ".down")
	return version, name, nil
}

func (m *migrator) applied(ctx context.Context) (map[int]time.Time, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int]time.Time{}
	for rows.Next() {
		var version int
		var at time.Time
		if err := rows.Scan(&version, &at); err != nil {
			return nil, err
		}
		out[version] = at
	}
	return out, rows.Err()
}

func (m *migrator) applyUp(ctx context.Context, files []migrationFile) (int, error) {
	done, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, f := range files {
		if f.kind != "up" {
			continue
		}
		if _, ok := done[f.version]; ok {
			continue
		}

		m.logger.Info(ctx, "Applying migration", map[string]interface{}{"version": f.version, "name": f.name})
		err := m.inTx(ctx, f.path, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, f.version, f.name)
			return err
		})
		if err != nil {
			return count, fmt.Errorf("failed applying %s: %w", f.path, err)
		}
		count++
	}
	return count, nil
}

func (m *migrator) applyDown(ctx context.Context, files []migrationFile, steps int) (int, error) {
	done, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	var downs []migrationFile
	for _, f := range files {
		if f.kind == "down" {
			downs = append(downs, f)
		}
	}
	sort.Slice(downs, func(i, j int) bool { return downs[i].version > downs[j].version })

	count := 0
	for _, f := range downs {
		if steps > 0 && count >= steps {
			break
		}
		if _, ok := done[f.version]; !ok {
			continue
		}

		m.logger.Info(ctx, "Reverting migration", map[string]interface{}{"version": f.version, "name": f.name})
		err := m.inTx(ctx, f.path, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, f.version)
			return err
		})
		if err != nil {
			return count, fmt.Errorf("failed reverting %s: %w", f.path, err)
		}
		count++
	}
	return count, nil
}

func (m *migrator) status(ctx context.Context, files []migrationFile) error {
	done, err := m.applied(ctx)
	if err != nil {
		return err
	}
	for _, f := range files {
		if f.kind != "up" {
			continue
		}
		state := "pending"
		if at, ok := done[f.version]; ok {
			state = "applied " + at.Format(time.RFC3339)
		}
		fmt.Printf("%03d  %-32s %s\n", f.version, f.name, state)
	}
	return nil
}

// inTx runs the file and the bookkeeping statement in one transaction
func (m *migrator) inTx(ctx context.Context, path string, record func(tx *sql.Tx) error) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, string(body)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := record(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
