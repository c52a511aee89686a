package export_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"picksort/internal/export"
	"picksort/internal/logging"
	"picksort/internal/store"
	"picksort/internal/testsupport"
)

type Rule = export.Rule

type fixture struct {
	st      *store.Store
	project *store.Project
	srcDir  string
	outDir  string
	engine  *export.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	srcDir := t.TempDir()
	project := testsupport.NewProject(t, st, "export", srcDir)
	return &fixture{
		st:      st,
		project: project,
		srcDir:  srcDir,
		outDir:  t.TempDir(),
		engine:  export.NewEngine(st, logging.NewNop()),
	}
}

// addScoredImage writes a real file, registers it, and scores it.
func (f *fixture) addScoredImage(t *testing.T, name, label string, categories ...string) int64 {
	t.Helper()

	ctx := context.Background()
	path := filepath.Join(f.srcDir, name)
	testsupport.WriteFile(t, path, []byte(name))
	imageID := testsupport.AddImage(t, f.st, f.project.ID, path)
	if err := f.st.SetScore(ctx, imageID, label); err != nil {
		t.Fatalf("SetScore: %v", err)
	}
	for _, category := range categories {
		stored, err := f.st.CategoryByName(ctx, f.project.ID, category)
		if err != nil {
			stored, err = f.st.AddCategory(ctx, f.project.ID, category)
			if err != nil {
				t.Fatalf("AddCategory: %v", err)
			}
		}
		if err := f.st.AssignCategory(ctx, imageID, stored.ID); err != nil {
			t.Fatalf("AssignCategory: %v", err)
		}
	}
	return imageID
}

func mustExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s: %v", path, err)
	}
}

func TestRulePrecedence(t *testing.T) {
	f := newFixture(t)
	f.addScoredImage(t, "both.jpg", "score_9", "sfw", "portrait")
	f.addScoredImage(t, "plain.jpg", "score_9", "sfw")
	f.addScoredImage(t, "none.jpg", "score_9")

	report, err := f.engine.Run(context.Background(), export.Request{
		ProjectID: f.project.ID,
		OutputDir: f.outDir,
		Rules: []Rule{
			{Categories: nil, Destination: "."},
			{Categories: []string{"sfw"}, Destination: "sfw"},
			{Categories: []string{"sfw", "portrait"}, Destination: "sfw/portrait"},
		},
		AcceptedScores: []string{"score_9"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	mustExist(t, filepath.Join(f.outDir, "sfw", "portrait", "both.jpg"))
	mustExist(t, filepath.Join(f.outDir, "sfw", "plain.jpg"))
	mustExist(t, filepath.Join(f.outDir, "none.jpg"))

	if report.Failed != 0 {
		t.Fatalf("failed = %d, want 0", report.Failed)
	}
	want := map[string]int{"sfw/portrait": 1, "sfw": 1, ".": 1}
	for dir, count := range want {
		if report.Dirs[dir] != count {
			t.Errorf("Dirs[%q] = %d, want %d", dir, report.Dirs[dir], count)
		}
	}
	if report.RunID == "" {
		t.Fatal("report missing run id")
	}
}

func TestCaptionOrderingWithRuleAddedTag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	imageID := f.addScoredImage(t, "fox.jpg", "score_9")

	composition := testsupport.NewGroup(t, f.st, f.project.ID, "Composition", false, true, 1, "from above", "from side")
	subject := testsupport.NewGroup(t, f.st, f.project.ID, "Subject", false, true, 1, "fox", "rabbit")
	for _, tag := range composition.Tags {
		if _, err := f.st.AssignTag(ctx, imageID, tag.ID); err != nil {
			t.Fatalf("AssignTag: %v", err)
		}
	}
	if _, err := f.st.AssignTag(ctx, imageID, subject.Tags[0].ID); err != nil {
		t.Fatalf("AssignTag: %v", err)
	}

	_, err := f.st.CreateExportRule(ctx, f.project.ID, "perspectives",
		"Composition[has_all:from above,from side]", []string{"mixed perspectives"})
	if err != nil {
		t.Fatalf("CreateExportRule: %v", err)
	}

	_, err = f.engine.Run(ctx, export.Request{
		ProjectID:      f.project.ID,
		OutputDir:      f.outDir,
		Rules:          []Rule{{Categories: nil, Destination: "."}},
		AcceptedScores: []string{"score_9"},
		ExportCaptions: true,
		ApplyTagRules:  true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	caption, err := os.ReadFile(filepath.Join(f.outDir, "fox.txt"))
	if err != nil {
		t.Fatalf("read caption: %v", err)
	}
	want := "from above, from side, fox, mixed perspectives"
	if string(caption) != want {
		t.Fatalf("caption = %q, want %q", caption, want)
	}
}

func TestSeparateByScore(t *testing.T) {
	f := newFixture(t)
	f.addScoredImage(t, "good.jpg", "score_9")
	f.addScoredImage(t, "ok.jpg", "score_7_up")
	f.addScoredImage(t, "bad.jpg", "discard")

	report, err := f.engine.Run(context.Background(), export.Request{
		ProjectID:       f.project.ID,
		OutputDir:       f.outDir,
		Rules:           []Rule{{Categories: nil, Destination: "."}},
		AcceptedScores:  []string{"score_9", "score_7_up"},
		SeparateByScore: true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	mustExist(t, filepath.Join(f.outDir, "score_9", "good.jpg"))
	mustExist(t, filepath.Join(f.outDir, "score_7_up", "ok.jpg"))
	if _, err := os.Stat(filepath.Join(f.outDir, "discard")); !os.IsNotExist(err) {
		t.Fatal("discarded score exported")
	}
	if report.Dirs["score_9"] != 1 || report.Dirs["score_7_up"] != 1 {
		t.Fatalf("Dirs = %v, want one image per score", report.Dirs)
	}
}

func TestWipeAndIdempotentRerun(t *testing.T) {
	f := newFixture(t)
	f.addScoredImage(t, "keep.jpg", "score_9")

	// Stale content from an older run disappears on the next.
	testsupport.WriteFile(t, filepath.Join(f.outDir, "stale", "old.jpg"), []byte("old"))
	testsupport.WriteFile(t, filepath.Join(f.outDir, "loose.txt"), []byte("old"))

	req := export.Request{
		ProjectID:      f.project.ID,
		OutputDir:      f.outDir,
		Rules:          []Rule{{Categories: nil, Destination: "."}},
		AcceptedScores: []string{"score_9"},
	}
	ctx := context.Background()
	if _, err := f.engine.Run(ctx, req); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(f.outDir, "stale")); !os.IsNotExist(err) {
		t.Fatal("stale directory survived the wipe")
	}
	if _, err := os.Stat(filepath.Join(f.outDir, "loose.txt")); !os.IsNotExist(err) {
		t.Fatal("stale file survived the wipe")
	}

	first, err := os.ReadFile(filepath.Join(f.outDir, "keep.jpg"))
	if err != nil {
		t.Fatalf("read exported file: %v", err)
	}
	if _, err := f.engine.Run(ctx, req); err != nil {
		t.Fatalf("Run (rerun): %v", err)
	}
	second, err := os.ReadFile(filepath.Join(f.outDir, "keep.jpg"))
	if err != nil {
		t.Fatalf("read exported file after rerun: %v", err)
	}
	if string(first) != string(second) {
		t.Fatal("rerun changed exported bytes")
	}
}

func TestMissingSourceIsCounted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	imageID := testsupport.AddImage(t, f.st, f.project.ID, filepath.Join(f.srcDir, "ghost.jpg"))
	if err := f.st.SetScore(ctx, imageID, "score_9"); err != nil {
		t.Fatalf("SetScore: %v", err)
	}
	f.addScoredImage(t, "real.jpg", "score_9")

	report, err := f.engine.Run(ctx, export.Request{
		ProjectID:      f.project.ID,
		OutputDir:      f.outDir,
		Rules:          []Rule{{Categories: nil, Destination: "."}},
		AcceptedScores: []string{"score_9"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.MissingSources != 1 {
		t.Fatalf("missing sources = %d, want 1", report.MissingSources)
	}
	mustExist(t, filepath.Join(f.outDir, "real.jpg"))
}

func TestNoCatchAllCountsFailures(t *testing.T) {
	f := newFixture(t)
	f.addScoredImage(t, "uncategorized.jpg", "score_9")

	report, err := f.engine.Run(context.Background(), export.Request{
		ProjectID:      f.project.ID,
		OutputDir:      f.outDir,
		Rules:          []Rule{{Categories: []string{"sfw"}, Destination: "sfw"}},
		AcceptedScores: []string{"score_9"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("failed = %d, want 1", report.Failed)
	}
}

func TestDeleteImagesRemovesSources(t *testing.T) {
	f := newFixture(t)
	f.addScoredImage(t, "moved.jpg", "score_9")
	src := filepath.Join(f.srcDir, "moved.jpg")

	_, err := f.engine.Run(context.Background(), export.Request{
		ProjectID:      f.project.ID,
		OutputDir:      f.outDir,
		Rules:          []Rule{{Categories: nil, Destination: "."}},
		AcceptedScores: []string{"score_9"},
		DeleteImages:   true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("source survived delete_images export")
	}
	mustExist(t, filepath.Join(f.outDir, "moved.jpg"))
}
