package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreateTag appends a tag at the end of its group's display order.
func (s *Store) CreateTag(ctx context.Context, groupID int64, name string) (*Tag, error) {
	var tag *Tag
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		projectID, err := projectIDForGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		var next int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM tags WHERE group_id = ?`, groupID).Scan(&next); err != nil {
			return fmt.Errorf("next tag order: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO tags (group_id, tag_name, display_order) VALUES (?, ?, ?)`,
			groupID, name, next)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("tag %q: %w", name, ErrDuplicateName)
			}
			return fmt.Errorf("insert tag: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		tag = &Tag{ID: id, GroupID: groupID, Name: name, DisplayOrder: next}
		return touchProject(ctx, tx, projectID)
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// RenameTag changes a tag's name within its group's uniqueness scope.
func (s *Store) RenameTag(ctx context.Context, tagID int64, name string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		projectID, _, err := projectIDForTag(ctx, tx, tagID)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE tags SET tag_name = ? WHERE tag_id = ?`, name, tagID)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("tag %q: %w", name, ErrDuplicateName)
			}
			return fmt.Errorf("rename tag: %w", err)
		}
		return touchProject(ctx, tx, projectID)
	})
}

// ReorderTags renumbers a group's tags to match orderedIDs; unlisted tags
// keep their relative order after the listed ones. Display orders come out
// contiguous from 0.
func (s *Store) ReorderTags(ctx context.Context, groupID int64, orderedIDs []int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		projectID, err := projectIDForGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		current, err := tagIDsInOrder(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if err := renumber(ctx, tx, "tags", "tag_id", mergeOrder(orderedIDs, current)); err != nil {
			return err
		}
		return touchProject(ctx, tx, projectID)
	})
}

// DeleteTag removes a tag; image assignments cascade away and the group's
// remaining tags are renumbered contiguously.
func (s *Store) DeleteTag(ctx context.Context, tagID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		projectID, groupID, err := projectIDForTag(ctx, tx, tagID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE tag_id = ?`, tagID); err != nil {
			return fmt.Errorf("delete tag: %w", err)
		}
		remaining, err := tagIDsInOrder(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if err := renumber(ctx, tx, "tags", "tag_id", remaining); err != nil {
			return err
		}
		return touchProject(ctx, tx, projectID)
	})
}

func projectIDForGroup(ctx context.Context, q execer, groupID int64) (int64, error) {
	var projectID int64
	err := q.QueryRowContext(ctx,
		`SELECT project_id FROM tag_groups WHERE group_id = ?`, groupID).Scan(&projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("tag group %d: %w", groupID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve group project: %w", err)
	}
	return projectID, nil
}

func projectIDForTag(ctx context.Context, q execer, tagID int64) (projectID, groupID int64, err error) {
	err = q.QueryRowContext(ctx,
		`SELECT g.project_id, t.group_id
         FROM tags t
         JOIN tag_groups g ON g.group_id = t.group_id
         WHERE t.tag_id = ?`, tagID).Scan(&projectID, &groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("tag %d: %w", tagID, ErrNotFound)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("resolve tag project: %w", err)
	}
	return projectID, groupID, nil
}

func tagIDsInOrder(ctx context.Context, q execer, groupID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT tag_id FROM tags WHERE group_id = ? ORDER BY display_order`, groupID)
	if err != nil {
		return nil, fmt.Errorf("tag order: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
