package legacy

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"time"

	_ "modernc.org/sqlite"

	"picksort/internal/logging"
	"picksort/internal/pathutil"
	"picksort/internal/store"
)

// ErrEmptyDatabase is returned when the legacy file contains no scored rows.
var ErrEmptyDatabase = errors.New("legacy database has no rows")

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// Import reads a legacy score database and materializes it as a new project
// in the destination store. The project's single directory root is the parent
// of the first row's source path; image files under that root which the
// legacy database never scored are added as unscored.
func Import(ctx context.Context, st *store.Store, projectName, legacyPath string, logger *slog.Logger) (*store.Project, error) {
	log := logging.NewComponentLogger(logger, "legacy")

	if _, err := os.Stat(legacyPath); err != nil {
		return nil, fmt.Errorf("legacy database %s: %w", legacyPath, err)
	}

	snap, err := readSnapshot(ctx, projectName, legacyPath)
	if err != nil {
		return nil, err
	}
	log.Info("read legacy database",
		logging.String("path", legacyPath),
		logging.Int("scored", len(snap.Rows)),
		logging.Int("unscored", len(snap.UnscoredPaths)))

	project, err := st.ApplyLegacySnapshot(ctx, *snap)
	if err != nil {
		return nil, err
	}
	log.Info("legacy import complete",
		logging.Int64("project_id", project.ID),
		logging.String("directory", snap.Directory))
	return project, nil
}

// readSnapshot extracts everything from the legacy file without touching the
// destination store.
func readSnapshot(ctx context.Context, projectName, legacyPath string) (*store.LegacySnapshot, error) {
	db, err := sql.Open("sqlite", legacyPath)
	if err != nil {
		return nil, fmt.Errorf("open legacy database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT id, source_path, score, categories, timestamp FROM scores ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("read legacy scores: %w", err)
	}
	defer rows.Close()

	var legacyRows []store.LegacyRow
	scored := make(map[string]bool)
	for rows.Next() {
		var (
			row      store.LegacyRow
			catsRaw  sql.NullString
			stampRaw sql.NullString
		)
		if err := rows.Scan(&row.ID, &row.SourcePath, &row.Score, &catsRaw, &stampRaw); err != nil {
			return nil, fmt.Errorf("scan legacy row: %w", err)
		}
		row.SourcePath = pathutil.Canonical(row.SourcePath)
		if catsRaw.Valid && catsRaw.String != "" {
			if err := json.Unmarshal([]byte(catsRaw.String), &row.Categories); err != nil {
				return nil, fmt.Errorf("legacy row %d: decode categories: %w", row.ID, err)
			}
		}
		row.Timestamp = parseTimestamp(stampRaw.String)
		legacyRows = append(legacyRows, row)
		scored[row.SourcePath] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate legacy rows: %w", err)
	}
	if len(legacyRows) == 0 {
		return nil, ErrEmptyDatabase
	}

	// Canonical paths are forward-slashed, so path.Dir applies on every
	// platform.
	directory := path.Dir(legacyRows[0].SourcePath)

	onDisk, err := pathutil.ScanImages(directory)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", directory, err)
	}
	var unscored []string
	for _, p := range onDisk {
		if !scored[p] {
			unscored = append(unscored, p)
		}
	}

	return &store.LegacySnapshot{
		ProjectName:   projectName,
		Directory:     directory,
		Rows:          legacyRows,
		UnscoredPaths: unscored,
	}, nil
}

func parseTimestamp(value string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}
