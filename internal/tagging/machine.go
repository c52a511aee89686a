package tagging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"picksort/internal/condition"
	"picksort/internal/config"
	"picksort/internal/logging"
	"picksort/internal/project"
	"picksort/internal/store"
)

// GroupStatus is the per-group validity contract the shell renders.
type GroupStatus struct {
	Count        int
	ConditionMet bool
	Acceptable   bool
}

// Advance describes what happened to the active position after an operation.
type Advance struct {
	MovedGroup bool
	MovedImage bool
}

// Machine traverses a project's tag groups for the image under the cursor.
type Machine struct {
	st     *store.Store
	cfg    *config.Store
	proj   *project.Project
	logger *slog.Logger
	active int
}

// NewMachine starts traversal on the project's first group.
func NewMachine(st *store.Store, cfg *config.Store, proj *project.Project, logger *slog.Logger) *Machine {
	return &Machine{
		st:     st,
		cfg:    cfg,
		proj:   proj,
		logger: logging.NewComponentLogger(logger, "tagging"),
	}
}

// ActiveGroup returns the group under traversal, nil when the project has no
// groups.
func (m *Machine) ActiveGroup() *store.TagGroup {
	if m.active < 0 || m.active >= len(m.proj.Groups) {
		return nil
	}
	return m.proj.Groups[m.active]
}

// SetActiveGroup positions traversal on the group at the given display order.
func (m *Machine) SetActiveGroup(position int) error {
	if position < 0 || position >= len(m.proj.Groups) {
		return fmt.Errorf("group position %d out of range [0, %d)", position, len(m.proj.Groups))
	}
	m.active = position
	return nil
}

// GroupStatus computes the validity predicates for one group on one image.
// Single-select groups are met by exactly one tag; multi-select by at least
// min_tags. Optional groups are acceptable regardless.
func (m *Machine) GroupStatus(ctx context.Context, imageID int64, group *store.TagGroup) (GroupStatus, error) {
	count, err := m.st.GroupTagCount(ctx, imageID, group.ID)
	if err != nil {
		return GroupStatus{}, err
	}
	met := conditionMet(group, count)
	return GroupStatus{
		Count:        count,
		ConditionMet: met,
		Acceptable:   met || !group.IsRequired,
	}, nil
}

// ImageValid reports whole-image validity: every required group met.
func (m *Machine) ImageValid(ctx context.Context, imageID int64) (bool, error) {
	for _, group := range m.proj.Groups {
		if !group.IsRequired {
			continue
		}
		status, err := m.GroupStatus(ctx, imageID, group)
		if err != nil {
			return false, err
		}
		if !status.ConditionMet {
			return false, nil
		}
	}
	return true, nil
}

// AssignTag attaches a tag to the image and decides whether the active group
// advances. Advancement requires the behaviour flag, a group that does not
// suppress it, a passing group condition, and an assignment that crossed the
// completion threshold rather than padding an already-met group.
func (m *Machine) AssignTag(ctx context.Context, imageID, tagID int64) (Advance, error) {
	group := m.ActiveGroup()
	if group == nil {
		return Advance{}, errors.New("no active tag group")
	}

	added, err := m.st.AssignTag(ctx, imageID, tagID)
	if err != nil {
		return Advance{}, err
	}
	if !added {
		return Advance{}, nil
	}

	count, err := m.st.GroupTagCount(ctx, imageID, group.ID)
	if err != nil {
		return Advance{}, err
	}
	if !crossedThreshold(group, count) {
		return Advance{}, nil
	}

	behaviour := m.cfg.Behaviour()
	if !behaviour.AutoScrollOnTagCondition || behaviour.AutoScrollDisableUntilEnabled {
		return Advance{}, nil
	}
	if group.PreventAutoScroll {
		return Advance{}, nil
	}

	ok, err := m.evaluateGroupCondition(ctx, group, imageID)
	if err != nil {
		return Advance{}, err
	}
	if !ok {
		return Advance{}, nil
	}

	advance := m.NextGroup()
	m.logger.Debug("auto-advanced after tag assignment",
		logging.Int64(logging.FieldImageID, imageID),
		logging.String("group", group.Name),
		logging.Bool("moved_image", advance.MovedImage))
	return advance, nil
}

// UnassignTag detaches a tag. Never moves the active position.
func (m *Machine) UnassignTag(ctx context.Context, imageID, tagID int64) error {
	return m.st.UnassignTag(ctx, imageID, tagID)
}

// NextGroup moves to the following group; past the last group it rolls over
// to the next image and resets to the first group. At the very end nothing
// moves.
func (m *Machine) NextGroup() Advance {
	if m.active+1 < len(m.proj.Groups) {
		m.active++
		return Advance{MovedGroup: true}
	}
	if m.proj.Cursor.Next() {
		m.active = 0
		return Advance{MovedGroup: true, MovedImage: true}
	}
	return Advance{}
}

// PreviousGroup moves to the preceding group; before the first group it rolls
// over to the previous image and lands on its last group.
func (m *Machine) PreviousGroup() Advance {
	if m.active > 0 {
		m.active--
		return Advance{MovedGroup: true}
	}
	if m.proj.Cursor.Previous() {
		if len(m.proj.Groups) > 0 {
			m.active = len(m.proj.Groups) - 1
		}
		return Advance{MovedGroup: true, MovedImage: true}
	}
	return Advance{}
}

// JumpToLatestUnfinished moves the cursor and active group to the store's
// latest unfinished target. Returns false when the project has no unfinished
// work under the given strictness.
func (m *Machine) JumpToLatestUnfinished(ctx context.Context, strict bool) (bool, error) {
	target, err := m.st.LatestUnfinished(ctx, m.proj.ID, strict)
	if err != nil {
		return false, err
	}
	if target == nil {
		return false, nil
	}
	if err := m.proj.Cursor.JumpTo(target.ImageID); err != nil {
		return false, err
	}
	if err := m.SetActiveGroup(target.GroupDisplayOrder); err != nil {
		return false, err
	}
	return true, nil
}

// evaluateGroupCondition runs the group's own activation condition against
// the image's current selection. Evaluation faults degrade to false with a
// warning instead of blocking the user.
func (m *Machine) evaluateGroupCondition(ctx context.Context, group *store.TagGroup, imageID int64) (bool, error) {
	if group.Condition == "" {
		return true, nil
	}
	expr, err := condition.Parse(group.Condition)
	if err != nil {
		return false, err
	}
	selected, err := m.st.ImageTagIDs(ctx, imageID)
	if err != nil {
		return false, err
	}
	ok, err := condition.Evaluate(expr, store.ConditionViews(m.proj.Groups), selected)
	var evalErr *condition.EvalError
	if errors.As(err, &evalErr) {
		m.logger.Warn("condition evaluation degraded to false",
			logging.String("group", group.Name),
			logging.Error(err))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ok, nil
}

func conditionMet(group *store.TagGroup, count int) bool {
	if group.AllowMultiple {
		return count >= group.MinTags
	}
	return count == 1
}

// crossedThreshold reports whether the count, after a successful add, landed
// exactly on the completion threshold. Counts past it mean the group was
// already met before the add.
func crossedThreshold(group *store.TagGroup, count int) bool {
	if group.AllowMultiple {
		return count == group.MinTags
	}
	return count == 1
}
