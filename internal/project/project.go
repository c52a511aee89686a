package project

import (
	"context"
	"fmt"

	"picksort/internal/store"
)

// Project is the in-memory aggregate for one open project.
type Project struct {
	ID          int64
	Name        string
	Directories []string

	Groups []*store.TagGroup
	Cursor *Cursor
}

// Load builds the aggregate for a stored project: identity, groups in display
// order, and a cursor positioned on the first image.
func Load(ctx context.Context, st *store.Store, projectID int64) (*Project, error) {
	stored, err := st.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	groups, err := st.ListTagGroups(ctx, projectID)
	if err != nil {
		return nil, err
	}
	images, err := st.ListImages(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return &Project{
		ID:          stored.ID,
		Name:        stored.Name,
		Directories: stored.Directories,
		Groups:      groups,
		Cursor:      NewCursor(images),
	}, nil
}

// RefreshGroups reloads the tag groups after structural edits.
func (p *Project) RefreshGroups(ctx context.Context, st *store.Store) error {
	groups, err := st.ListTagGroups(ctx, p.ID)
	if err != nil {
		return err
	}
	p.Groups = groups
	return nil
}

// GroupAt returns the group at the given display order position.
func (p *Project) GroupAt(position int) (*store.TagGroup, error) {
	if position < 0 || position >= len(p.Groups) {
		return nil, fmt.Errorf("group position %d out of range [0, %d)", position, len(p.Groups))
	}
	return p.Groups[position], nil
}
