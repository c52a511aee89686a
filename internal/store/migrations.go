package store

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

type migration struct {
	version int
	name    string
	up      string
	down    string
}

func loadMigrations() ([]migration, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	byVersion := make(map[int]*migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		base, direction, ok := splitMigrationName(name)
		if !ok {
			return nil, fmt.Errorf("migration %s: expected NNNN_name.up.sql or .down.sql", name)
		}
		versionText, stepName, found := strings.Cut(base, "_")
		if !found {
			return nil, fmt.Errorf("migration %s: missing version prefix", name)
		}
		version, err := strconv.Atoi(versionText)
		if err != nil {
			return nil, fmt.Errorf("migration %s: bad version: %w", name, err)
		}

		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}

		step, ok := byVersion[version]
		if !ok {
			step = &migration{version: version, name: stepName}
			byVersion[version] = step
		}
		if direction == "up" {
			step.up = string(data)
		} else {
			step.down = string(data)
		}
	}

	migrations := make([]migration, 0, len(byVersion))
	for _, step := range byVersion {
		if step.up == "" {
			return nil, fmt.Errorf("migration %04d_%s: missing up script", step.version, step.name)
		}
		migrations = append(migrations, *step)
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].version < migrations[j].version })
	return migrations, nil
}

func splitMigrationName(name string) (base, direction string, ok bool) {
	switch {
	case strings.HasSuffix(name, ".up.sql"):
		return strings.TrimSuffix(name, ".up.sql"), "up", true
	case strings.HasSuffix(name, ".down.sql"):
		return strings.TrimSuffix(name, ".down.sql"), "down", true
	}
	return "", "", false
}

// applyMigrations walks the ladder, running each pending step in its own
// transaction. Steps whose objects already exist are recorded as applied so
// databases predating the ladder converge without error.
func (s *Store) applyMigrations(ctx context.Context) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
            version INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            applied_at TEXT NOT NULL
        )`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied, err := s.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, step := range migrations {
		if applied[step.version] {
			continue
		}
		if err := s.applyStep(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) applyStep(ctx context.Context, step migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, step.up); err != nil {
		_ = tx.Rollback()
		if !isAlreadyApplied(err) {
			return fmt.Errorf("apply migration %04d_%s: %w", step.version, step.name, err)
		}
		// The step's objects predate the ladder; record it as applied.
		s.logger.Warn("migration objects already exist, recording as applied",
			"version", step.version, "name", step.name)
		return s.recordMigration(ctx, s.db, step)
	}
	if err := s.recordMigration(ctx, tx, step); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %04d_%s: %w", step.version, step.name, err)
	}
	return nil
}

func (s *Store) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// SchemaVersion returns the highest applied migration version, 0 when none.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

// Downgrade runs down scripts in reverse until the schema version is at most
// target. Steps without a down script stop the walk.
func (s *Store) Downgrade(ctx context.Context, target int) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}
	applied, err := s.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		step := migrations[i]
		if step.version <= target || !applied[step.version] {
			continue
		}
		if step.down == "" {
			return fmt.Errorf("migration %04d_%s has no down script", step.version, step.name)
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin downgrade tx: %w", err)
		}
		if _, err := tx.ExecContext(ctx, step.down); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("downgrade %04d_%s: %w", step.version, step.name, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = ?`, step.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("unrecord migration %04d_%s: %w", step.version, step.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit downgrade %04d_%s: %w", step.version, step.name, err)
		}
	}
	return nil
}

func (s *Store) recordMigration(ctx context.Context, q execer, step migration) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
		step.version, step.name, formatTime(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("record migration %04d_%s: %w", step.version, step.name, err)
	}
	return nil
}
