package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// MigrationFile is one schema change unit parsed from disk. Files are named
// <version>_<name>.sql and contain an -- UP section with an optional -- DOWN
// section after the marker. Versions sort lexicographically.
type MigrationFile struct {
	Version string
	Name    string
	Up      string
	Down    string
}

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS migrations (
		version VARCHAR(255) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		applied_at TIMESTAMP DEFAULT NOW()
	)
`

// LoadMigrationFiles reads and parses every .sql file in dir, ordered by
// filename.
func LoadMigrationFiles(dir string) ([]MigrationFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	files := make([]MigrationFile, 0, len(names))
	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		files = append(files, parseMigrationFile(name, string(content)))
	}
	return files, nil
}

func parseMigrationFile(filename, content string) MigrationFile {
	base := strings.TrimSuffix(filename, ".sql")
	version, name, _ := strings.Cut(base, "_")

	up := content
	var down string
	if upPart, downPart, found := strings.Cut(content, "-- DOWN"); found {
		up = upPart
		down = strings.TrimSpace(downPart)
	}
	up = strings.TrimSpace(strings.Replace(up, "-- UP", "", 1))

	return MigrationFile{
		Version: version,
		Name:    name,
		Up:      up,
		Down:    down,
	}
}

// pendingMigrations filters files down to those not yet applied, honoring an
// optional upper-bound target version (inclusive).
func pendingMigrations(files []MigrationFile, applied map[string]bool, target string) []MigrationFile {
	var pending []MigrationFile
	for _, f := range files {
		if applied[f.Version] {
			continue
		}
		if target != "" && f.Version > target {
			continue
		}
		pending = append(pending, f)
	}
	return pending
}

// rollbackPlan selects the applied versions to reverse, newest first, down to
// and excluding target. Every selected migration must carry a down script;
// a missing one fails the whole plan so no partial rollback ever starts.
func rollbackPlan(applied []string, files []MigrationFile, target string) ([]MigrationFile, error) {
	byVersion := make(map[string]MigrationFile, len(files))
	for _, f := range files {
		byVersion[f.Version] = f
	}

	descending := make([]string, len(applied))
	copy(descending, applied)
	sort.Sort(sort.Reverse(sort.StringSlice(descending)))

	var plan []MigrationFile
	for _, version := range descending {
		if target != "" && version <= target {
			continue
		}
		f, ok := byVersion[version]
		if !ok || f.Down == "" {
			return nil, fmt.Errorf("no rollback script for migration %s", version)
		}
		plan = append(plan, f)
	}
	return plan, nil
}

// RunMigrations applies every pending migration in dir, in one transaction.
// A non-empty target caps how far forward to migrate (inclusive). Nothing
// pending is a no-op.
func (db *DB) RunMigrations(ctx context.Context, dir, target string) error {
	if _, err := db.Exec(ctx, createMigrationsTable); err != nil {
		return err
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return err
	}

	files, err := LoadMigrationFiles(dir)
	if err != nil {
		return err
	}

	appliedSet := make(map[string]bool, len(applied))
	for _, v := range applied {
		appliedSet[v] = true
	}

	pending := pendingMigrations(files, appliedSet, target)
	if len(pending) == 0 {
		db.log.Info("no pending migrations")
		return nil
	}

	err = db.Transaction(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, m := range pending {
			db.log.Info("applying migration",
				zap.String("version", m.Version), zap.String("name", m.Name))

			if _, err := tx.Exec(ctx, m.Up); err != nil {
				return Normalize(err, fmt.Sprintf("apply migration %s", m.Version), m.Up)
			}
			if _, err := tx.Exec(ctx,
				"INSERT INTO migrations (version, name) VALUES ($1, $2)",
				m.Version, m.Name); err != nil {
				return Normalize(err, fmt.Sprintf("record migration %s", m.Version), "")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.log.Info("applied migrations", zap.Int("count", len(pending)))
	return nil
}

// RollbackMigrations reverses applied migrations newest-first down to and
// excluding target (all of them when target is empty), in one transaction.
func (db *DB) RollbackMigrations(ctx context.Context, dir, target string) error {
	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return err
	}

	files, err := LoadMigrationFiles(dir)
	if err != nil {
		return err
	}

	plan, err := rollbackPlan(applied, files, target)
	if err != nil {
		return err
	}
	if len(plan) == 0 {
		db.log.Info("no migrations to rollback")
		return nil
	}

	err = db.Transaction(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, m := range plan {
			db.log.Info("rolling back migration",
				zap.String("version", m.Version), zap.String("name", m.Name))

			if _, err := tx.Exec(ctx, m.Down); err != nil {
				return Normalize(err, fmt.Sprintf("rollback migration %s", m.Version), m.Down)
			}
			if _, err := tx.Exec(ctx,
				"DELETE FROM migrations WHERE version = $1", m.Version); err != nil {
				return Normalize(err, fmt.Sprintf("unrecord migration %s", m.Version), "")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.log.Info("rolled back migrations", zap.Int("count", len(plan)))
	return nil
}

func (db *DB) appliedVersions(ctx context.Context) ([]string, error) {
	rows, err := db.Query(ctx, "SELECT version FROM migrations ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, Normalize(err, "scan applied migrations", "")
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, Normalize(err, "read applied migrations", "")
	}
	return versions, nil
}
