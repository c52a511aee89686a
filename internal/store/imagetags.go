package store

import (
	"context"
	"database/sql"
	"fmt"
)

// HasImageTag reports whether a tag is assigned to an image.
func (s *Store) HasImageTag(ctx context.Context, imageID, tagID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM image_tags WHERE image_id = ? AND tag_id = ?`,
		imageID, tagID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check image tag: %w", err)
	}
	return count > 0, nil
}

// AssignTag attaches a tag to an image. Returns true when the assignment is
// new; assigning an already-assigned tag is a no-op that reports false.
func (s *Store) AssignTag(ctx context.Context, imageID, tagID int64) (bool, error) {
	added := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO image_tags (image_id, tag_id) VALUES (?, ?)`,
			imageID, tagID)
		if err != nil {
			return fmt.Errorf("assign tag: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return nil
		}
		added = true
		projectID, err := projectIDForImage(ctx, tx, imageID)
		if err != nil {
			return err
		}
		return touchProject(ctx, tx, projectID)
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// UnassignTag detaches a tag from an image.
func (s *Store) UnassignTag(ctx context.Context, imageID, tagID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM image_tags WHERE image_id = ? AND tag_id = ?`, imageID, tagID)
		if err != nil {
			return fmt.Errorf("unassign tag: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return nil
		}
		projectID, err := projectIDForImage(ctx, tx, imageID)
		if err != nil {
			return err
		}
		return touchProject(ctx, tx, projectID)
	})
}

// ImageTagIDs returns the set of tag ids assigned to an image.
func (s *Store) ImageTagIDs(ctx context.Context, imageID int64) (map[int64]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tag_id FROM image_tags WHERE image_id = ?`, imageID)
	if err != nil {
		return nil, fmt.Errorf("image tags: %w", err)
	}
	defer rows.Close()

	selected := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		selected[id] = true
	}
	return selected, rows.Err()
}

// ImageTagDetails bulk-fetches the caption-ordering projection of an image's
// assigned tags, sorted by group display order then tag display order.
func (s *Store) ImageTagDetails(ctx context.Context, imageID int64) ([]ImageTagDetail, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.tag_id, t.group_id, t.tag_name, t.display_order, g.display_order
         FROM image_tags it
         JOIN tags t ON t.tag_id = it.tag_id
         JOIN tag_groups g ON g.group_id = t.group_id
         WHERE it.image_id = ?
         ORDER BY g.display_order, t.display_order`,
		imageID)
	if err != nil {
		return nil, fmt.Errorf("image tag details: %w", err)
	}
	defer rows.Close()

	var details []ImageTagDetail
	for rows.Next() {
		var d ImageTagDetail
		if err := rows.Scan(&d.TagID, &d.GroupID, &d.TagName, &d.TagDisplayOrder, &d.GroupDisplayOrder); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// GroupTagCount returns how many of a group's tags are assigned to an image.
func (s *Store) GroupTagCount(ctx context.Context, imageID, groupID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1)
         FROM image_tags it
         JOIN tags t ON t.tag_id = it.tag_id
         WHERE it.image_id = ? AND t.group_id = ?`,
		imageID, groupID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("group tag count: %w", err)
	}
	return count, nil
}
