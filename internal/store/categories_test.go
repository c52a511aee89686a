package store_test

import (
	"context"
	"errors"
	"testing"

	"picksort/internal/store"
	"picksort/internal/testsupport"
)

func TestCategoryLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	project := testsupport.NewProject(t, st, "categories", "/data")

	names := []string{"meme", "screenshot", "art"}
	for _, name := range names {
		if _, err := st.AddCategory(ctx, project.ID, name); err != nil {
			t.Fatalf("AddCategory(%q): %v", name, err)
		}
	}
	if _, err := st.AddCategory(ctx, project.ID, "meme"); !errors.Is(err, store.ErrDuplicateName) {
		t.Fatalf("duplicate category error = %v, want ErrDuplicateName", err)
	}

	categories, err := st.ListCategories(ctx, project.ID)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(categories) != 3 {
		t.Fatalf("len(categories) = %d, want 3", len(categories))
	}
	for i, category := range categories {
		if category.Name != names[i] {
			t.Errorf("category[%d] = %q, want %q", i, category.Name, names[i])
		}
		if category.DisplayOrder != i {
			t.Errorf("category %q display order = %d, want %d", category.Name, category.DisplayOrder, i)
		}
	}

	found, err := st.CategoryByName(ctx, project.ID, "art")
	if err != nil {
		t.Fatalf("CategoryByName: %v", err)
	}
	if found.Name != "art" {
		t.Fatalf("CategoryByName = %q, want art", found.Name)
	}
	if _, err := st.CategoryByName(ctx, project.ID, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing category error = %v, want ErrNotFound", err)
	}
}

func TestCategoryAssignments(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	project := testsupport.NewProject(t, st, "assignments", "/data")
	imageID := testsupport.AddImage(t, st, project.ID, "/data/a.jpg")

	meme, err := st.AddCategory(ctx, project.ID, "meme")
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	art, err := st.AddCategory(ctx, project.ID, "art")
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}

	// Assigning twice is a no-op.
	for i := 0; i < 2; i++ {
		if err := st.AssignCategory(ctx, imageID, meme.ID); err != nil {
			t.Fatalf("AssignCategory: %v", err)
		}
	}
	if err := st.AssignCategory(ctx, imageID, art.ID); err != nil {
		t.Fatalf("AssignCategory: %v", err)
	}

	names, err := st.ImageCategoryNames(ctx, imageID)
	if err != nil {
		t.Fatalf("ImageCategoryNames: %v", err)
	}
	if len(names) != 2 || names[0] != "meme" || names[1] != "art" {
		t.Fatalf("category names = %v, want [meme art]", names)
	}

	byImage, err := st.CategoriesByImage(ctx, project.ID)
	if err != nil {
		t.Fatalf("CategoriesByImage: %v", err)
	}
	if got := byImage[imageID]; len(got) != 2 {
		t.Fatalf("bulk categories = %v, want two entries", got)
	}

	// Deleting the category cascades its assignments away.
	if err := st.DeleteCategory(ctx, meme.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	has, err := st.HasImageCategory(ctx, imageID, meme.ID)
	if err != nil {
		t.Fatalf("HasImageCategory: %v", err)
	}
	if has {
		t.Fatal("assignment survived category delete")
	}

	if err := st.UnassignCategory(ctx, imageID, art.ID); err != nil {
		t.Fatalf("UnassignCategory: %v", err)
	}
	names, err = st.ImageCategoryNames(ctx, imageID)
	if err != nil {
		t.Fatalf("ImageCategoryNames: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("category names = %v, want none", names)
	}
}
