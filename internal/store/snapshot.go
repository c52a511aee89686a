package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// LegacyRow is one scored image read out of a legacy database.
type LegacyRow struct {
	ID         int64
	SourcePath string
	Score      string
	Categories []string
	Timestamp  time.Time
}

// LegacySnapshot is everything the legacy importer extracted: the scored rows
// plus the on-disk image files that were never scored.
type LegacySnapshot struct {
	ProjectName   string
	Directory     string
	Rows          []LegacyRow
	UnscoredPaths []string
}

// ApplyLegacySnapshot materializes a legacy snapshot as a new project in a
// single transaction. Legacy ids are offset past the current maximum image id
// so they cannot collide with existing rows; legacy timestamps are preserved.
func (s *Store) ApplyLegacySnapshot(ctx context.Context, snap LegacySnapshot) (*Project, error) {
	offset, err := s.MaxImageID(ctx)
	if err != nil {
		return nil, err
	}
	offset++

	var projectID int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		dirsJSON, err := json.Marshal([]string{snap.Directory})
		if err != nil {
			return fmt.Errorf("marshal directories: %w", err)
		}
		now := formatTime(time.Now().UTC())
		res, err := tx.ExecContext(ctx,
			`INSERT INTO projects (project_name, project_directories, created_at, updated_at, version)
             VALUES (?, ?, ?, ?, 1)`,
			snap.ProjectName, string(dirsJSON), now, now)
		if err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		projectID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		imageStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO images (image_id, project_id, source_path, timestamp) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare image insert: %w", err)
		}
		defer imageStmt.Close()

		scoreStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO scores (image_id, project_id, score, categories, timestamp) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare score insert: %w", err)
		}
		defer scoreStmt.Close()

		for _, row := range snap.Rows {
			id := row.ID + offset
			stamp := formatTime(row.Timestamp)
			if _, err := imageStmt.ExecContext(ctx, id, projectID, row.SourcePath, stamp); err != nil {
				return fmt.Errorf("insert legacy image %d: %w", row.ID, err)
			}
			catsJSON, err := json.Marshal(row.Categories)
			if err != nil {
				return fmt.Errorf("marshal legacy categories: %w", err)
			}
			if _, err := scoreStmt.ExecContext(ctx, id, projectID, row.Score, string(catsJSON), stamp); err != nil {
				return fmt.Errorf("insert legacy score %d: %w", row.ID, err)
			}
		}

		unscoredStmt, err := tx.PrepareContext(ctx,
			`INSERT OR IGNORE INTO images (project_id, source_path, timestamp) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare unscored insert: %w", err)
		}
		defer unscoredStmt.Close()

		now = formatTime(time.Now().UTC())
		for _, path := range snap.UnscoredPaths {
			if _, err := unscoredStmt.ExecContext(ctx, projectID, path, now); err != nil {
				return fmt.Errorf("insert unscored image: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProject(ctx, projectID)
}
