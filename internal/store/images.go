package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"picksort/internal/pathutil"
)

const imageColumns = "image_id, project_id, source_path, timestamp"

// AddImages inserts the given source paths into a project, skipping paths the
// project already tracks. Paths are canonicalized before comparison. Returns
// the number of rows actually inserted.
func (s *Store) AddImages(ctx context.Context, projectID int64, paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}

	inserted := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := formatTime(time.Now().UTC())
		stmt, err := tx.PrepareContext(ctx,
			`INSERT OR IGNORE INTO images (project_id, source_path, timestamp) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare image insert: %w", err)
		}
		defer stmt.Close()

		for _, path := range paths {
			res, err := stmt.ExecContext(ctx, projectID, pathutil.Canonical(path), now)
			if err != nil {
				return fmt.Errorf("insert image: %w", err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			inserted += int(affected)
		}
		if inserted > 0 {
			return touchProject(ctx, tx, projectID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListImages returns a project's images ordered by identifier.
func (s *Store) ListImages(ctx context.Context, projectID int64) ([]*Image, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+imageColumns+` FROM images WHERE project_id = ? ORDER BY image_id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []*Image
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

// GetImage fetches an image by identifier.
func (s *Store) GetImage(ctx context.Context, imageID int64) (*Image, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images WHERE image_id = ?`, imageID)
	image, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("image %d: %w", imageID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	return image, nil
}

// GetImagePath returns the canonical source path of an image.
func (s *Store) GetImagePath(ctx context.Context, imageID int64) (string, error) {
	var path string
	err := s.db.QueryRowContext(ctx, `SELECT source_path FROM images WHERE image_id = ?`, imageID).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("image %d: %w", imageID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get image path: %w", err)
	}
	return path, nil
}

// ImageCount returns the number of images tracked by a project.
func (s *Store) ImageCount(ctx context.Context, projectID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM images WHERE project_id = ?`, projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return count, nil
}

// MaxImageID returns the largest image identifier across all projects, 0 when
// the table is empty. The legacy importer offsets incoming ids past it.
func (s *Store) MaxImageID(ctx context.Context) (int64, error) {
	var max int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(image_id), 0) FROM images`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max image id: %w", err)
	}
	return max, nil
}

func scanImage(scanner interface{ Scan(dest ...any) error }) (*Image, error) {
	var (
		id        int64
		projectID int64
		path      string
		stampRaw  string
	)
	if err := scanner.Scan(&id, &projectID, &path, &stampRaw); err != nil {
		return nil, err
	}
	image := &Image{ID: id, ProjectID: projectID, SourcePath: path}
	if stamp, err := parseTimeString(stampRaw); err == nil {
		image.AddedAt = stamp
	}
	return image, nil
}
