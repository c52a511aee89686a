package testsupport

import (
	"context"
	"testing"

	"picksort/internal/config"
	"picksort/internal/logging"
	"picksort/internal/pathutil"
	"picksort/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Store) *store.Store {
	t.Helper()

	st, err := store.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewProject creates a project for tests using the provided store.
func NewProject(t testing.TB, st *store.Store, name string, directories ...string) *store.Project {
	t.Helper()

	project, err := st.CreateProject(context.Background(), name, directories)
	if err != nil {
		t.Fatalf("store.CreateProject: %v", err)
	}
	return project
}

// NewGroup creates a tag group with the given cardinality settings and tags,
// returning the group with its tags loaded.
func NewGroup(t testing.TB, st *store.Store, projectID int64, name string, required, multiple bool, minTags int, tagNames ...string) *store.TagGroup {
	t.Helper()

	ctx := context.Background()
	group, err := st.CreateTagGroup(ctx, projectID, name)
	if err != nil {
		t.Fatalf("store.CreateTagGroup: %v", err)
	}
	group.IsRequired = required
	group.AllowMultiple = multiple
	group.MinTags = minTags
	if err := st.UpdateTagGroup(ctx, group); err != nil {
		t.Fatalf("store.UpdateTagGroup: %v", err)
	}
	for _, tagName := range tagNames {
		if _, err := st.CreateTag(ctx, group.ID, tagName); err != nil {
			t.Fatalf("store.CreateTag(%q): %v", tagName, err)
		}
	}
	loaded, err := st.GetTagGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("store.GetTagGroup: %v", err)
	}
	return loaded
}

// AddImage inserts a single image path and returns its id.
func AddImage(t testing.TB, st *store.Store, projectID int64, path string) int64 {
	t.Helper()

	ctx := context.Background()
	if _, err := st.AddImages(ctx, projectID, []string{path}); err != nil {
		t.Fatalf("store.AddImages: %v", err)
	}
	images, err := st.ListImages(ctx, projectID)
	if err != nil {
		t.Fatalf("store.ListImages: %v", err)
	}
	canonical := pathutil.Canonical(path)
	for _, image := range images {
		if image.SourcePath == canonical {
			return image.ID
		}
	}
	t.Fatalf("image %q not found after insert", path)
	return 0
}
