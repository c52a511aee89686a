package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SetScore assigns or replaces an image's score label. At most one score row
// exists per image; the project's updated_at is bumped either way.
func (s *Store) SetScore(ctx context.Context, imageID int64, label string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		projectID, err := projectIDForImage(ctx, tx, imageID)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO scores (image_id, project_id, score, categories, timestamp)
             VALUES (?, ?, ?, '[]', ?)
             ON CONFLICT(image_id) DO UPDATE SET score = excluded.score, timestamp = excluded.timestamp`,
			imageID, projectID, label, formatTime(time.Now().UTC()))
		if err != nil {
			return fmt.Errorf("set score: %w", err)
		}
		return touchProject(ctx, tx, projectID)
	})
}

// GetScore returns an image's score row, or nil when the image is unscored.
func (s *Store) GetScore(ctx context.Context, imageID int64) (*Score, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT image_id, project_id, score, categories, timestamp FROM scores WHERE image_id = ?`, imageID)

	var (
		score    Score
		catsRaw  string
		stampRaw string
	)
	err := row.Scan(&score.ImageID, &score.ProjectID, &score.Score, &catsRaw, &stampRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get score: %w", err)
	}
	if catsRaw != "" {
		if err := json.Unmarshal([]byte(catsRaw), &score.Categories); err != nil {
			return nil, fmt.Errorf("decode legacy categories: %w", err)
		}
	}
	if stamp, err := parseTimeString(stampRaw); err == nil {
		score.UpdatedAt = stamp
	}
	return &score, nil
}

// ClearScore removes an image's score row, returning it to unscored.
func (s *Store) ClearScore(ctx context.Context, imageID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		projectID, err := projectIDForImage(ctx, tx, imageID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM scores WHERE image_id = ?`, imageID); err != nil {
			return fmt.Errorf("clear score: %w", err)
		}
		return touchProject(ctx, tx, projectID)
	})
}

// ScoredCount returns the number of scored images in a project.
func (s *Store) ScoredCount(ctx context.Context, projectID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM scores WHERE project_id = ?`, projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count scores: %w", err)
	}
	return count, nil
}

// LatestScoredImageID returns the largest image id carrying a score in the
// project, 0 when nothing is scored yet.
func (s *Store) LatestScoredImageID(ctx context.Context, projectID int64) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(image_id), 0) FROM scores WHERE project_id = ?`, projectID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("latest scored image: %w", err)
	}
	return id, nil
}

// ScoresByImage returns the score label of every scored image in a project.
func (s *Store) ScoresByImage(ctx context.Context, projectID int64) (map[int64]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT image_id, score FROM scores WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("scores by image: %w", err)
	}
	defer rows.Close()

	scores := make(map[int64]string)
	for rows.Next() {
		var imageID int64
		var label string
		if err := rows.Scan(&imageID, &label); err != nil {
			return nil, err
		}
		scores[imageID] = label
	}
	return scores, rows.Err()
}
