package store_test

import (
	"context"
	"testing"
	"time"

	"picksort/internal/store"
	"picksort/internal/testsupport"
)

func TestApplyLegacySnapshot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	// Pre-existing project occupies low image ids; legacy ids must not collide.
	existing := testsupport.NewProject(t, st, "existing", "/old")
	testsupport.AddImage(t, st, existing.ID, "/old/a.jpg")
	offset, err := st.MaxImageID(ctx)
	if err != nil {
		t.Fatalf("MaxImageID: %v", err)
	}

	legacyStamp := time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)
	snap := store.LegacySnapshot{
		ProjectName: "imported",
		Directory:   "/legacy/images",
		Rows: []store.LegacyRow{
			{ID: 1, SourcePath: "/legacy/images/1.jpg", Score: "score_9", Categories: []string{"meme"}, Timestamp: legacyStamp},
			{ID: 2, SourcePath: "/legacy/images/2.jpg", Score: "discard", Timestamp: legacyStamp},
		},
		UnscoredPaths: []string{"/legacy/images/3.jpg"},
	}

	project, err := st.ApplyLegacySnapshot(ctx, snap)
	if err != nil {
		t.Fatalf("ApplyLegacySnapshot: %v", err)
	}
	if project.Name != "imported" {
		t.Fatalf("project name = %q, want imported", project.Name)
	}

	images, err := st.ListImages(ctx, project.ID)
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	if len(images) != 3 {
		t.Fatalf("len(images) = %d, want 3", len(images))
	}
	for _, image := range images {
		if image.ID <= offset {
			t.Errorf("image id %d collides with pre-existing range (max %d)", image.ID, offset)
		}
	}

	// Scored rows keep their labels, legacy categories, and timestamps.
	score, err := st.GetScore(ctx, images[0].ID)
	if err != nil {
		t.Fatalf("GetScore: %v", err)
	}
	if score == nil || score.Score != "score_9" {
		t.Fatalf("score = %+v, want score_9", score)
	}
	if len(score.Categories) != 1 || score.Categories[0] != "meme" {
		t.Fatalf("legacy categories = %v, want [meme]", score.Categories)
	}
	if !score.UpdatedAt.Equal(legacyStamp) {
		t.Fatalf("score timestamp = %v, want %v", score.UpdatedAt, legacyStamp)
	}

	// The trailing image came from the directory scan and is unscored.
	score, err = st.GetScore(ctx, images[2].ID)
	if err != nil {
		t.Fatalf("GetScore: %v", err)
	}
	if score != nil {
		t.Fatalf("unscored import carries score %+v", score)
	}

	scored, err := st.ScoredCount(ctx, project.ID)
	if err != nil {
		t.Fatalf("ScoredCount: %v", err)
	}
	if scored != 2 {
		t.Fatalf("scored count = %d, want 2", scored)
	}
}
