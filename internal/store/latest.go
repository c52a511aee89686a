package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LatestUnfinished locates the jump-to-work target for a project: the largest
// image id that still has a required group with fewer than min_tags assigned,
// tie-broken by the smallest group display order. Strict mode ignores
// is_required and considers every group. Returns nil when nothing qualifies.
func (s *Store) LatestUnfinished(ctx context.Context, projectID int64, strict bool) (*UnfinishedGroup, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT i.image_id, g.group_id, g.display_order
         FROM images i
         JOIN tag_groups g ON g.project_id = i.project_id
         LEFT JOIN (
             SELECT it.image_id, t.group_id, COUNT(1) AS assigned
             FROM image_tags it
             JOIN tags t ON t.tag_id = it.tag_id
             GROUP BY it.image_id, t.group_id
         ) counts ON counts.image_id = i.image_id AND counts.group_id = g.group_id
         WHERE i.project_id = ?
           AND (g.is_required = 1 OR ?)
           AND COALESCE(counts.assigned, 0) < g.min_tags
         ORDER BY i.image_id DESC, g.display_order ASC
         LIMIT 1`,
		projectID, boolToInt(strict))

	var result UnfinishedGroup
	err := row.Scan(&result.ImageID, &result.GroupID, &result.GroupDisplayOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest unfinished: %w", err)
	}
	return &result, nil
}
