package tagging_test

import (
	"context"
	"fmt"
	"testing"

	"picksort/internal/config"
	"picksort/internal/logging"
	"picksort/internal/project"
	"picksort/internal/store"
	"picksort/internal/tagging"
	"picksort/internal/testsupport"
)

type fixture struct {
	cfg     *config.Store
	st      *store.Store
	proj    *project.Project
	machine *tagging.Machine
}

// newFixture builds a project with a single-select required "Torso" group and
// a single-select required "Legs" group over the given number of images.
func newFixture(t *testing.T, imageCount int) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	stored := testsupport.NewProject(t, st, "tagging", "/data")
	for i := 0; i < imageCount; i++ {
		testsupport.AddImage(t, st, stored.ID, fmt.Sprintf("/data/%d.jpg", i))
	}
	testsupport.NewGroup(t, st, stored.ID, "Torso", true, false, 1, "fur", "scale")
	testsupport.NewGroup(t, st, stored.ID, "Legs", true, false, 1, "short", "long")

	proj, err := project.Load(context.Background(), st, stored.ID)
	if err != nil {
		t.Fatalf("project.Load: %v", err)
	}
	return &fixture{
		cfg:     cfg,
		st:      st,
		proj:    proj,
		machine: tagging.NewMachine(st, cfg, proj, logging.NewNop()),
	}
}

func (f *fixture) tagID(t *testing.T, groupName, tagName string) int64 {
	t.Helper()
	for _, group := range f.proj.Groups {
		if group.Name != groupName {
			continue
		}
		for _, tag := range group.Tags {
			if tag.Name == tagName {
				return tag.ID
			}
		}
	}
	t.Fatalf("tag %s/%s not found", groupName, tagName)
	return 0
}

func TestAssignTagAdvancesOnThreshold(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	imageID := f.proj.Cursor.Current().ID

	advance, err := f.machine.AssignTag(ctx, imageID, f.tagID(t, "Torso", "fur"))
	if err != nil {
		t.Fatalf("AssignTag: %v", err)
	}
	if !advance.MovedGroup || advance.MovedImage {
		t.Fatalf("advance = %+v, want group move within the image", advance)
	}
	if got := f.machine.ActiveGroup().Name; got != "Legs" {
		t.Fatalf("active group = %q, want Legs", got)
	}
}

func TestAssignTagDoesNotAdvancePastThreshold(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	imageID := f.proj.Cursor.Current().ID

	// Multi-select group already satisfied before the second add.
	torso := f.proj.Groups[0]
	torso.AllowMultiple = true
	if err := f.st.UpdateTagGroup(ctx, torso); err != nil {
		t.Fatalf("UpdateTagGroup: %v", err)
	}
	if err := f.proj.RefreshGroups(ctx, f.st); err != nil {
		t.Fatalf("RefreshGroups: %v", err)
	}

	advance, err := f.machine.AssignTag(ctx, imageID, f.tagID(t, "Torso", "fur"))
	if err != nil {
		t.Fatalf("AssignTag: %v", err)
	}
	if !advance.MovedGroup {
		t.Fatal("threshold-crossing add did not advance")
	}
	if err := f.machine.SetActiveGroup(0); err != nil {
		t.Fatalf("SetActiveGroup: %v", err)
	}

	advance, err = f.machine.AssignTag(ctx, imageID, f.tagID(t, "Torso", "scale"))
	if err != nil {
		t.Fatalf("AssignTag: %v", err)
	}
	if advance.MovedGroup {
		t.Fatal("add past an already-met threshold advanced")
	}
}

func TestAssignTagRepeatIsNoOp(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	imageID := f.proj.Cursor.Current().ID
	tagID := f.tagID(t, "Torso", "fur")

	if _, err := f.machine.AssignTag(ctx, imageID, tagID); err != nil {
		t.Fatalf("AssignTag: %v", err)
	}
	if err := f.machine.SetActiveGroup(0); err != nil {
		t.Fatalf("SetActiveGroup: %v", err)
	}
	advance, err := f.machine.AssignTag(ctx, imageID, tagID)
	if err != nil {
		t.Fatalf("AssignTag (repeat): %v", err)
	}
	if advance.MovedGroup {
		t.Fatal("repeat assignment advanced")
	}
}

func TestAssignTagRespectsBehaviourFlags(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value any
	}{
		{"auto scroll disabled", "behaviour.auto_scroll_on_tag_condition", false},
		{"sticky disable set", "behaviour.auto_scroll_disable_until_enabled", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, 1)
			if err := f.cfg.Set(tc.key, tc.value); err != nil {
				t.Fatalf("config.Set: %v", err)
			}
			imageID := f.proj.Cursor.Current().ID
			advance, err := f.machine.AssignTag(context.Background(), imageID, f.tagID(t, "Torso", "fur"))
			if err != nil {
				t.Fatalf("AssignTag: %v", err)
			}
			if advance.MovedGroup {
				t.Fatal("advanced despite behaviour flag")
			}
		})
	}
}

func TestAssignTagRespectsPreventAutoScroll(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	torso := f.proj.Groups[0]
	torso.PreventAutoScroll = true
	if err := f.st.UpdateTagGroup(ctx, torso); err != nil {
		t.Fatalf("UpdateTagGroup: %v", err)
	}
	if err := f.proj.RefreshGroups(ctx, f.st); err != nil {
		t.Fatalf("RefreshGroups: %v", err)
	}

	imageID := f.proj.Cursor.Current().ID
	advance, err := f.machine.AssignTag(ctx, imageID, f.tagID(t, "Torso", "fur"))
	if err != nil {
		t.Fatalf("AssignTag: %v", err)
	}
	if advance.MovedGroup {
		t.Fatal("advanced despite prevent_auto_scroll")
	}
}

func TestAssignTagRespectsGroupCondition(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	legs := f.proj.Groups[1]
	legs.Condition = "Torso[has:scale]"
	if err := f.st.UpdateTagGroup(ctx, legs); err != nil {
		t.Fatalf("UpdateTagGroup: %v", err)
	}
	if err := f.proj.RefreshGroups(ctx, f.st); err != nil {
		t.Fatalf("RefreshGroups: %v", err)
	}
	if err := f.machine.SetActiveGroup(1); err != nil {
		t.Fatalf("SetActiveGroup: %v", err)
	}

	// Legs completes but its own condition is false: no advance.
	imageID := f.proj.Cursor.Current().ID
	advance, err := f.machine.AssignTag(ctx, imageID, f.tagID(t, "Legs", "short"))
	if err != nil {
		t.Fatalf("AssignTag: %v", err)
	}
	if advance.MovedGroup {
		t.Fatal("advanced despite failing group condition")
	}
}

func TestGroupRolloverAcrossImages(t *testing.T) {
	f := newFixture(t, 2)

	// Forward past the last group rolls to the next image's first group.
	advance := f.machine.NextGroup()
	if !advance.MovedGroup || advance.MovedImage {
		t.Fatalf("advance = %+v, want in-image move", advance)
	}
	advance = f.machine.NextGroup()
	if !advance.MovedImage {
		t.Fatalf("advance = %+v, want image rollover", advance)
	}
	if got := f.machine.ActiveGroup().Name; got != "Torso" {
		t.Fatalf("active group after rollover = %q, want Torso", got)
	}

	// Backward before the first group rolls to the previous image's last group.
	advance = f.machine.PreviousGroup()
	if !advance.MovedImage {
		t.Fatalf("advance = %+v, want image rollover", advance)
	}
	if got := f.machine.ActiveGroup().Name; got != "Legs" {
		t.Fatalf("active group after rollback = %q, want Legs", got)
	}

	// At the very start nothing moves.
	f.machine.PreviousGroup()
	advance = f.machine.PreviousGroup()
	if advance.MovedGroup || advance.MovedImage {
		t.Fatalf("advance = %+v, want none at the start", advance)
	}
}

func TestGroupStatusAndImageValidity(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	imageID := f.proj.Cursor.Current().ID
	torso := f.proj.Groups[0]

	status, err := f.machine.GroupStatus(ctx, imageID, torso)
	if err != nil {
		t.Fatalf("GroupStatus: %v", err)
	}
	if status.Count != 0 || status.ConditionMet || status.Acceptable {
		t.Fatalf("empty required group status = %+v", status)
	}

	valid, err := f.machine.ImageValid(ctx, imageID)
	if err != nil {
		t.Fatalf("ImageValid: %v", err)
	}
	if valid {
		t.Fatal("image valid with required groups unmet")
	}

	if _, err := f.st.AssignTag(ctx, imageID, f.tagID(t, "Torso", "fur")); err != nil {
		t.Fatalf("AssignTag: %v", err)
	}
	if _, err := f.st.AssignTag(ctx, imageID, f.tagID(t, "Legs", "long")); err != nil {
		t.Fatalf("AssignTag: %v", err)
	}

	status, err = f.machine.GroupStatus(ctx, imageID, torso)
	if err != nil {
		t.Fatalf("GroupStatus: %v", err)
	}
	if status.Count != 1 || !status.ConditionMet || !status.Acceptable {
		t.Fatalf("filled group status = %+v", status)
	}

	valid, err = f.machine.ImageValid(ctx, imageID)
	if err != nil {
		t.Fatalf("ImageValid: %v", err)
	}
	if !valid {
		t.Fatal("image invalid with all required groups met")
	}
}

func TestSingleSelectOverfilledIsNotMet(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	imageID := f.proj.Cursor.Current().ID
	torso := f.proj.Groups[0]

	for _, name := range []string{"fur", "scale"} {
		if _, err := f.st.AssignTag(ctx, imageID, f.tagID(t, "Torso", name)); err != nil {
			t.Fatalf("AssignTag: %v", err)
		}
	}
	status, err := f.machine.GroupStatus(ctx, imageID, torso)
	if err != nil {
		t.Fatalf("GroupStatus: %v", err)
	}
	if status.ConditionMet {
		t.Fatal("single-select group met with two tags")
	}
}

func TestJumpToLatestUnfinished(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()
	images := make([]int64, 0, 4)
	_, total := f.proj.Cursor.Progress()
	for i := 0; i < total; i++ {
		images = append(images, f.proj.Cursor.Current().ID)
		f.proj.Cursor.Next()
	}

	fur := f.tagID(t, "Torso", "fur")
	long := f.tagID(t, "Legs", "long")

	// Image 4: Torso done, Legs missing. Image 3: both done. Image 2: Torso
	// missing. Image 1: nothing.
	for _, imageID := range []int64{images[2], images[3]} {
		if _, err := f.st.AssignTag(ctx, imageID, fur); err != nil {
			t.Fatalf("AssignTag: %v", err)
		}
	}
	if _, err := f.st.AssignTag(ctx, images[1], long); err != nil {
		t.Fatalf("AssignTag: %v", err)
	}
	if _, err := f.st.AssignTag(ctx, images[2], long); err != nil {
		t.Fatalf("AssignTag: %v", err)
	}

	found, err := f.machine.JumpToLatestUnfinished(ctx, false)
	if err != nil {
		t.Fatalf("JumpToLatestUnfinished: %v", err)
	}
	if !found {
		t.Fatal("no unfinished target found")
	}
	if got := f.proj.Cursor.Current().ID; got != images[3] {
		t.Fatalf("cursor = image %d, want %d", got, images[3])
	}
	if got := f.machine.ActiveGroup().Name; got != "Legs" {
		t.Fatalf("active group = %q, want Legs", got)
	}
}

func TestJumpToLatestUnfinishedNothingLeft(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	imageID := f.proj.Cursor.Current().ID
	if _, err := f.st.AssignTag(ctx, imageID, f.tagID(t, "Torso", "fur")); err != nil {
		t.Fatalf("AssignTag: %v", err)
	}
	if _, err := f.st.AssignTag(ctx, imageID, f.tagID(t, "Legs", "long")); err != nil {
		t.Fatalf("AssignTag: %v", err)
	}

	found, err := f.machine.JumpToLatestUnfinished(ctx, false)
	if err != nil {
		t.Fatalf("JumpToLatestUnfinished: %v", err)
	}
	if found {
		t.Fatal("found unfinished work in a finished project")
	}
}
