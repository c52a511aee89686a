package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"picksort/internal/condition"
)

const tagGroupColumns = "group_id, project_id, group_name, is_required, allow_multiple, min_tags, prevent_auto_scroll, condition, display_order"

// ListTagGroups returns a project's tag groups in display order with their
// tags eagerly loaded, tags in display order within each group.
func (s *Store) ListTagGroups(ctx context.Context, projectID int64) ([]*TagGroup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagGroupColumns+` FROM tag_groups WHERE project_id = ? ORDER BY display_order`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("list tag groups: %w", err)
	}
	defer rows.Close()

	var groups []*TagGroup
	byID := make(map[int64]*TagGroup)
	for rows.Next() {
		group, err := scanTagGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
		byID[group.ID] = group
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, nil
	}

	tagRows, err := s.db.QueryContext(ctx,
		`SELECT t.tag_id, t.group_id, t.tag_name, t.display_order
         FROM tags t
         JOIN tag_groups g ON g.group_id = t.group_id
         WHERE g.project_id = ?
         ORDER BY t.group_id, t.display_order`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer tagRows.Close()

	for tagRows.Next() {
		tag := &Tag{}
		if err := tagRows.Scan(&tag.ID, &tag.GroupID, &tag.Name, &tag.DisplayOrder); err != nil {
			return nil, err
		}
		if group, ok := byID[tag.GroupID]; ok {
			group.Tags = append(group.Tags, tag)
		}
	}
	return groups, tagRows.Err()
}

// GetTagGroup fetches one group with its tags.
func (s *Store) GetTagGroup(ctx context.Context, groupID int64) (*TagGroup, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagGroupColumns+` FROM tag_groups WHERE group_id = ?`, groupID)
	group, err := scanTagGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tag group %d: %w", groupID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tag group: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT tag_id, group_id, tag_name, display_order FROM tags WHERE group_id = ? ORDER BY display_order`,
		groupID)
	if err != nil {
		return nil, fmt.Errorf("group tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		tag := &Tag{}
		if err := rows.Scan(&tag.ID, &tag.GroupID, &tag.Name, &tag.DisplayOrder); err != nil {
			return nil, err
		}
		group.Tags = append(group.Tags, tag)
	}
	return group, rows.Err()
}

// CreateTagGroup appends a new group at the end of the project's order.
func (s *Store) CreateTagGroup(ctx context.Context, projectID int64, name string) (*TagGroup, error) {
	var group *TagGroup
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var next int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(display_order) + 1, 0) FROM tag_groups WHERE project_id = ?`,
			projectID).Scan(&next); err != nil {
			return fmt.Errorf("next group order: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO tag_groups (project_id, group_name, is_required, allow_multiple, min_tags, prevent_auto_scroll, display_order)
             VALUES (?, ?, 0, 0, 1, 0, ?)`,
			projectID, name, next)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("tag group %q: %w", name, ErrDuplicateName)
			}
			return fmt.Errorf("insert tag group: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		group = &TagGroup{
			ID:           id,
			ProjectID:    projectID,
			Name:         name,
			MinTags:      1,
			DisplayOrder: next,
		}
		return touchProject(ctx, tx, projectID)
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// UpdateTagGroup persists all mutable fields of a group. A non-empty
// condition must parse and may only reference groups earlier in the project's
// order; violations fail the update and leave the store unchanged.
func (s *Store) UpdateTagGroup(ctx context.Context, group *TagGroup) error {
	if group == nil {
		return errors.New("tag group is nil")
	}
	if group.MinTags < 1 {
		return fmt.Errorf("tag group %q: min_tags must be at least 1", group.Name)
	}

	if group.Condition != "" {
		expr, err := condition.Parse(group.Condition)
		if err != nil {
			return err
		}
		groups, err := s.ListTagGroups(ctx, group.ProjectID)
		if err != nil {
			return err
		}
		if err := condition.Validate(expr, group.DisplayOrder, ConditionViews(groups)); err != nil {
			return err
		}
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE tag_groups
             SET group_name = ?, is_required = ?, allow_multiple = ?, min_tags = ?,
                 prevent_auto_scroll = ?, condition = ?
             WHERE group_id = ?`,
			group.Name,
			boolToInt(group.IsRequired),
			boolToInt(group.AllowMultiple),
			group.MinTags,
			boolToInt(group.PreventAutoScroll),
			nullableString(group.Condition),
			group.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("tag group %q: %w", group.Name, ErrDuplicateName)
			}
			return fmt.Errorf("update tag group: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("tag group %d: %w", group.ID, ErrNotFound)
		}
		return touchProject(ctx, tx, group.ProjectID)
	})
}

// ReorderTagGroups renumbers a project's groups to match orderedIDs; any
// groups not listed keep their relative order after the listed ones. Display
// orders come out gap-free from 0.
func (s *Store) ReorderTagGroups(ctx context.Context, projectID int64, orderedIDs []int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := groupIDsInOrder(ctx, tx, projectID)
		if err != nil {
			return err
		}
		if err := renumber(ctx, tx, "tag_groups", "group_id", mergeOrder(orderedIDs, current)); err != nil {
			return err
		}
		return touchProject(ctx, tx, projectID)
	})
}

// DeleteTagGroup removes a group; its tags and their image assignments
// cascade away, and the remaining groups are renumbered gap-free.
func (s *Store) DeleteTagGroup(ctx context.Context, groupID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var projectID int64
		err := tx.QueryRowContext(ctx,
			`SELECT project_id FROM tag_groups WHERE group_id = ?`, groupID).Scan(&projectID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("tag group %d: %w", groupID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("resolve group project: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM tag_groups WHERE group_id = ?`, groupID); err != nil {
			return fmt.Errorf("delete tag group: %w", err)
		}

		remaining, err := groupIDsInOrder(ctx, tx, projectID)
		if err != nil {
			return err
		}
		if err := renumber(ctx, tx, "tag_groups", "group_id", remaining); err != nil {
			return err
		}
		return touchProject(ctx, tx, projectID)
	})
}

// ConditionViews projects store tag groups into the condition package's view
// type for validation and evaluation.
func ConditionViews(groups []*TagGroup) []condition.Group {
	views := make([]condition.Group, 0, len(groups))
	for _, group := range groups {
		view := condition.Group{
			ID:      group.ID,
			Name:    group.Name,
			Order:   group.DisplayOrder,
			MinTags: group.MinTags,
		}
		for _, tag := range group.Tags {
			view.Tags = append(view.Tags, condition.Tag{ID: tag.ID, Name: tag.Name})
		}
		views = append(views, view)
	}
	return views
}

func groupIDsInOrder(ctx context.Context, q execer, projectID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT group_id FROM tag_groups WHERE project_id = ? ORDER BY display_order`, projectID)
	if err != nil {
		return nil, fmt.Errorf("group order: %w", err)
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

// mergeOrder places requested first (deduplicated), then any remaining ids in
// their current order.
func mergeOrder(requested, current []int64) []int64 {
	seen := make(map[int64]bool, len(requested))
	merged := make([]int64, 0, len(current))
	currentSet := make(map[int64]bool, len(current))
	for _, id := range current {
		currentSet[id] = true
	}
	for _, id := range requested {
		if currentSet[id] && !seen[id] {
			merged = append(merged, id)
			seen[id] = true
		}
	}
	for _, id := range current {
		if !seen[id] {
			merged = append(merged, id)
		}
	}
	return merged
}

// renumber assigns display_order 0..n-1 following the given id order.
func renumber(ctx context.Context, q execer, table, idColumn string, ids []int64) error {
	for position, id := range ids {
		query := fmt.Sprintf(`UPDATE %s SET display_order = ? WHERE %s = ?`, table, idColumn)
		if _, err := q.ExecContext(ctx, query, position, id); err != nil {
			return fmt.Errorf("renumber %s: %w", table, err)
		}
	}
	return nil
}

func scanTagGroup(scanner interface{ Scan(dest ...any) error }) (*TagGroup, error) {
	var (
		group             TagGroup
		isRequired        int
		allowMultiple     int
		preventAutoScroll int
		cond              sql.NullString
	)
	if err := scanner.Scan(
		&group.ID,
		&group.ProjectID,
		&group.Name,
		&isRequired,
		&allowMultiple,
		&group.MinTags,
		&preventAutoScroll,
		&cond,
		&group.DisplayOrder,
	); err != nil {
		return nil, err
	}
	group.IsRequired = isRequired != 0
	group.AllowMultiple = allowMultiple != 0
	group.PreventAutoScroll = preventAutoScroll != 0
	group.Condition = cond.String
	return &group, nil
}
