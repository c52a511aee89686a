package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"picksort/internal/pathutil"
)

const projectColumns = "project_id, project_name, project_directories, created_at, updated_at, version"

// CreateProject inserts a new project with the given directory roots.
func (s *Store) CreateProject(ctx context.Context, name string, directories []string) (*Project, error) {
	canonical := make([]string, 0, len(directories))
	for _, dir := range directories {
		canonical = append(canonical, pathutil.Canonical(dir))
	}
	dirsJSON, err := json.Marshal(canonical)
	if err != nil {
		return nil, fmt.Errorf("marshal directories: %w", err)
	}

	now := formatTime(time.Now().UTC())
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (project_name, project_directories, created_at, updated_at, version)
         VALUES (?, ?, ?, ?, 1)`,
		name, string(dirsJSON), now, now)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetProject(ctx, id)
}

// GetProject fetches a project by identifier.
func (s *Store) GetProject(ctx context.Context, id int64) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE project_id = ?`, id)
	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return project, nil
}

// ListProjects returns all projects, most recently updated first.
func (s *Store) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// UpdateProjectDirectories replaces a project's directory roots.
func (s *Store) UpdateProjectDirectories(ctx context.Context, projectID int64, directories []string) error {
	canonical := make([]string, 0, len(directories))
	for _, dir := range directories {
		canonical = append(canonical, pathutil.Canonical(dir))
	}
	dirsJSON, err := json.Marshal(canonical)
	if err != nil {
		return fmt.Errorf("marshal directories: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE projects SET project_directories = ?, updated_at = ? WHERE project_id = ?`,
		string(dirsJSON), formatTime(time.Now().UTC()), projectID)
	if err != nil {
		return fmt.Errorf("update project directories: %w", err)
	}
	return nil
}

func scanProject(scanner interface{ Scan(dest ...any) error }) (*Project, error) {
	var (
		id         int64
		name       string
		dirsRaw    string
		createdRaw string
		updatedRaw string
		version    int
	)
	if err := scanner.Scan(&id, &name, &dirsRaw, &createdRaw, &updatedRaw, &version); err != nil {
		return nil, err
	}

	project := &Project{ID: id, Name: name, Version: version}
	if dirsRaw != "" {
		if err := json.Unmarshal([]byte(dirsRaw), &project.Directories); err != nil {
			return nil, fmt.Errorf("decode project directories: %w", err)
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		project.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		project.UpdatedAt = updated
	}
	return project, nil
}
