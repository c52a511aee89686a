package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const categoryColumns = "category_id, project_id, category_name, display_order"

// ListCategories returns a project's categories in display order.
func (s *Store) ListCategories(ctx context.Context, projectID int64) ([]*Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE project_id = ? ORDER BY display_order, category_id`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		category := &Category{}
		if err := rows.Scan(&category.ID, &category.ProjectID, &category.Name, &category.DisplayOrder); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// AddCategory creates a category at the end of the project's display order.
func (s *Store) AddCategory(ctx context.Context, projectID int64, name string) (*Category, error) {
	var category *Category
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var next int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(display_order) + 1, 0) FROM categories WHERE project_id = ?`,
			projectID).Scan(&next); err != nil {
			return fmt.Errorf("next category order: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO categories (project_id, category_name, display_order) VALUES (?, ?, ?)`,
			projectID, name, next)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("category %q: %w", name, ErrDuplicateName)
			}
			return fmt.Errorf("insert category: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		category = &Category{ID: id, ProjectID: projectID, Name: name, DisplayOrder: next}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// CategoryByName resolves a category by its project-unique name.
func (s *Store) CategoryByName(ctx context.Context, projectID int64, name string) (*Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE project_id = ? AND category_name = ?`,
		projectID, name)
	category := &Category{}
	err := row.Scan(&category.ID, &category.ProjectID, &category.Name, &category.DisplayOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return category, nil
}

// DeleteCategory removes a category; image assignments cascade away.
func (s *Store) DeleteCategory(ctx context.Context, categoryID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE category_id = ?`, categoryID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// AssignCategory attaches a category to an image; assigning twice is a no-op.
func (s *Store) AssignCategory(ctx context.Context, imageID, categoryID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO image_categories (image_id, category_id) VALUES (?, ?)`,
		imageID, categoryID)
	if err != nil {
		return fmt.Errorf("assign category: %w", err)
	}
	return nil
}

// UnassignCategory detaches a category from an image.
func (s *Store) UnassignCategory(ctx context.Context, imageID, categoryID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM image_categories WHERE image_id = ? AND category_id = ?`,
		imageID, categoryID)
	if err != nil {
		return fmt.Errorf("unassign category: %w", err)
	}
	return nil
}

// HasImageCategory reports whether an image carries a category.
func (s *Store) HasImageCategory(ctx context.Context, imageID, categoryID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM image_categories WHERE image_id = ? AND category_id = ?`,
		imageID, categoryID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check image category: %w", err)
	}
	return count > 0, nil
}

// ImageCategoryNames returns the names of all categories assigned to an image.
func (s *Store) ImageCategoryNames(ctx context.Context, imageID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.category_name
         FROM image_categories ic
         JOIN categories c ON c.category_id = ic.category_id
         WHERE ic.image_id = ?
         ORDER BY c.display_order, c.category_id`,
		imageID)
	if err != nil {
		return nil, fmt.Errorf("image categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CategoriesByImage bulk-fetches category name sets for a whole project,
// keyed by image id. The export engine matches rules against these sets.
func (s *Store) CategoriesByImage(ctx context.Context, projectID int64) (map[int64][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ic.image_id, c.category_name
         FROM image_categories ic
         JOIN categories c ON c.category_id = ic.category_id
         WHERE c.project_id = ?
         ORDER BY ic.image_id, c.display_order`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("categories by image: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]string)
	for rows.Next() {
		var imageID int64
		var name string
		if err := rows.Scan(&imageID, &name); err != nil {
			return nil, err
		}
		result[imageID] = append(result[imageID], name)
	}
	return result, rows.Err()
}
