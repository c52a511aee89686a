package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"picksort/internal/logging"
	"picksort/internal/store"
	"picksort/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	version, err := st.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != 4 {
		t.Fatalf("schema version = %d, want 4", version)
	}
}

func TestOpenSecondHandleReportsLocked(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	_, err := store.OpenPath(st.Path(), logging.NewNop())
	if !errors.Is(err, store.ErrLocked) {
		t.Fatalf("second open error = %v, want ErrLocked", err)
	}
}

func TestDowngradeAndReapply(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db", "dataset_classifier.db")
	st, err := store.OpenPath(dbPath, logging.NewNop())
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}

	ctx := context.Background()
	if err := st.Downgrade(ctx, 2); err != nil {
		t.Fatalf("Downgrade: %v", err)
	}
	version, err := st.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != 2 {
		t.Fatalf("schema version after downgrade = %d, want 2", version)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st, err = store.OpenPath(dbPath, logging.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()

	version, err = st.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != 4 {
		t.Fatalf("schema version after reopen = %d, want 4", version)
	}
}

func TestCreateAndListProjects(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first, err := st.CreateProject(ctx, "alpha", []string{"/data/alpha"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if len(first.Directories) != 1 {
		t.Fatalf("directories = %v, want one entry", first.Directories)
	}

	time.Sleep(5 * time.Millisecond)
	second, err := st.CreateProject(ctx, "beta", []string{"/data/beta"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	projects, err := st.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("len(projects) = %d, want 2", len(projects))
	}
	if projects[0].ID != second.ID {
		t.Fatalf("most recently updated project = %d, want %d", projects[0].ID, second.ID)
	}

	_, err = st.GetProject(ctx, 999)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetProject(999) error = %v, want ErrNotFound", err)
	}
}

func TestAddImagesDeduplicates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	project := testsupport.NewProject(t, st, "dedupe", "/data")

	paths := []string{"/data/a.jpg", "/data/b.jpg"}
	inserted, err := st.AddImages(ctx, project.ID, paths)
	if err != nil {
		t.Fatalf("AddImages: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("inserted = %d, want 2", inserted)
	}

	// Same paths again, one of them in uncleaned form.
	inserted, err = st.AddImages(ctx, project.ID, []string{"/data/a.jpg", "/data/./b.jpg", "/data/c.jpg"})
	if err != nil {
		t.Fatalf("AddImages (second pass): %v", err)
	}
	if inserted != 1 {
		t.Fatalf("inserted = %d, want 1", inserted)
	}

	count, err := st.ImageCount(ctx, project.ID)
	if err != nil {
		t.Fatalf("ImageCount: %v", err)
	}
	if count != 3 {
		t.Fatalf("image count = %d, want 3", count)
	}
}

func TestScoreUpsertKeepsSingleRow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	project := testsupport.NewProject(t, st, "scores", "/data")
	imageID := testsupport.AddImage(t, st, project.ID, "/data/a.jpg")

	score, err := st.GetScore(ctx, imageID)
	if err != nil {
		t.Fatalf("GetScore: %v", err)
	}
	if score != nil {
		t.Fatalf("unscored image returned score %+v", score)
	}

	if err := st.SetScore(ctx, imageID, "score_9"); err != nil {
		t.Fatalf("SetScore: %v", err)
	}
	if err := st.SetScore(ctx, imageID, "score_7_up"); err != nil {
		t.Fatalf("SetScore (replace): %v", err)
	}

	score, err = st.GetScore(ctx, imageID)
	if err != nil {
		t.Fatalf("GetScore: %v", err)
	}
	if score == nil || score.Score != "score_7_up" {
		t.Fatalf("score = %+v, want score_7_up", score)
	}

	count, err := st.ScoredCount(ctx, project.ID)
	if err != nil {
		t.Fatalf("ScoredCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("scored count = %d, want 1", count)
	}

	if err := st.ClearScore(ctx, imageID); err != nil {
		t.Fatalf("ClearScore: %v", err)
	}
	score, err = st.GetScore(ctx, imageID)
	if err != nil {
		t.Fatalf("GetScore after clear: %v", err)
	}
	if score != nil {
		t.Fatalf("cleared image returned score %+v", score)
	}
}

func TestMutationsBumpProjectUpdatedAt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	project := testsupport.NewProject(t, st, "touch", "/data")
	imageID := testsupport.AddImage(t, st, project.ID, "/data/a.jpg")

	before, err := st.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if err := st.SetScore(ctx, imageID, "score_9"); err != nil {
		t.Fatalf("SetScore: %v", err)
	}

	after, err := st.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Fatalf("updated_at not bumped: before=%v after=%v", before.UpdatedAt, after.UpdatedAt)
	}
}
