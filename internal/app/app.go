package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"picksort/internal/config"
	"picksort/internal/export"
	"picksort/internal/legacy"
	"picksort/internal/logging"
	"picksort/internal/pathutil"
	"picksort/internal/project"
	"picksort/internal/store"
	"picksort/internal/tagging"
)

// ErrNoProject is returned by operations that need an open project.
var ErrNoProject = errors.New("no project open")

// App exposes the shell contract over one open project at a time.
type App struct {
	st     *store.Store
	cfg    *config.Store
	logger *slog.Logger

	proj    *project.Project
	machine *tagging.Machine
}

// New builds the operations surface over an opened store.
func New(st *store.Store, cfg *config.Store, logger *slog.Logger) *App {
	return &App{
		st:     st,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "app"),
	}
}

// Store exposes the underlying store for shells that need direct queries.
func (a *App) Store() *store.Store { return a.st }

// Config exposes the settings document.
func (a *App) Config() *config.Store { return a.cfg }

// Project returns the open project aggregate, nil when none is open.
func (a *App) Project() *project.Project { return a.proj }

// OpenProject loads a project, rescans its directory roots for new image
// files, and positions the tagging machine on the first image and group.
func (a *App) OpenProject(ctx context.Context, projectID int64) error {
	stored, err := a.st.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if err := a.scanDirectories(ctx, stored); err != nil {
		return err
	}

	proj, err := project.Load(ctx, a.st, projectID)
	if err != nil {
		return err
	}
	a.proj = proj
	a.machine = tagging.NewMachine(a.st, a.cfg, proj, a.logger)
	a.logger.Info("project opened",
		logging.Int64(logging.FieldProjectID, projectID),
		logging.String("name", proj.Name))
	return nil
}

// CreateProject creates a project over the given directory roots, scans them,
// and opens it.
func (a *App) CreateProject(ctx context.Context, name string, directories []string) (*project.Project, error) {
	stored, err := a.st.CreateProject(ctx, name, directories)
	if err != nil {
		return nil, err
	}
	if err := a.OpenProject(ctx, stored.ID); err != nil {
		return nil, err
	}
	return a.proj, nil
}

// ImportLegacy imports a legacy score database as a new project and opens it.
func (a *App) ImportLegacy(ctx context.Context, name, legacyPath string) (*project.Project, error) {
	stored, err := legacy.Import(ctx, a.st, name, legacyPath, a.logger)
	if err != nil {
		return nil, err
	}
	if err := a.OpenProject(ctx, stored.ID); err != nil {
		return nil, err
	}
	return a.proj, nil
}

// Score assigns a score label to an image. When behaviour.auto_scroll_scores
// is set the cursor advances to the next image.
func (a *App) Score(ctx context.Context, imageID int64, label string) error {
	if a.proj == nil {
		return ErrNoProject
	}
	if !a.cfg.IsValidScore(label) {
		return fmt.Errorf("score label %q not in the active preset", label)
	}
	if err := a.st.SetScore(ctx, imageID, label); err != nil {
		return err
	}
	if a.cfg.Behaviour().AutoScrollScores {
		a.proj.Cursor.Next()
	}
	return nil
}

// ToggleCategory flips a category assignment on an image, creating the
// category on first use.
func (a *App) ToggleCategory(ctx context.Context, imageID int64, name string) error {
	if a.proj == nil {
		return ErrNoProject
	}
	category, err := a.st.CategoryByName(ctx, a.proj.ID, name)
	if errors.Is(err, store.ErrNotFound) {
		category, err = a.st.AddCategory(ctx, a.proj.ID, name)
	}
	if err != nil {
		return err
	}

	assigned, err := a.st.HasImageCategory(ctx, imageID, category.ID)
	if err != nil {
		return err
	}
	if assigned {
		return a.st.UnassignCategory(ctx, imageID, category.ID)
	}
	return a.st.AssignCategory(ctx, imageID, category.ID)
}

// AssignTag attaches a tag through the tagging machine, honoring its
// auto-advance rules.
func (a *App) AssignTag(ctx context.Context, imageID, tagID int64) (tagging.Advance, error) {
	if a.machine == nil {
		return tagging.Advance{}, ErrNoProject
	}
	return a.machine.AssignTag(ctx, imageID, tagID)
}

// UnassignTag detaches a tag from an image.
func (a *App) UnassignTag(ctx context.Context, imageID, tagID int64) error {
	if a.machine == nil {
		return ErrNoProject
	}
	return a.machine.UnassignTag(ctx, imageID, tagID)
}

// GroupStatus is the per-image validity view for the shell.
type GroupStatus struct {
	Count        int
	ConditionMet bool
	Acceptable   bool
	WholeValid   bool
}

// ActiveGroupStatus reports the active group's predicates plus whole-image
// validity for the given image.
func (a *App) ActiveGroupStatus(ctx context.Context, imageID int64) (GroupStatus, error) {
	if a.machine == nil {
		return GroupStatus{}, ErrNoProject
	}
	group := a.machine.ActiveGroup()
	if group == nil {
		return GroupStatus{}, errors.New("project has no tag groups")
	}
	status, err := a.machine.GroupStatus(ctx, imageID, group)
	if err != nil {
		return GroupStatus{}, err
	}
	valid, err := a.machine.ImageValid(ctx, imageID)
	if err != nil {
		return GroupStatus{}, err
	}
	return GroupStatus{
		Count:        status.Count,
		ConditionMet: status.ConditionMet,
		Acceptable:   status.Acceptable,
		WholeValid:   valid,
	}, nil
}

// NextGroup advances the active group, rolling over to the next image past
// the last group.
func (a *App) NextGroup() (tagging.Advance, error) {
	if a.machine == nil {
		return tagging.Advance{}, ErrNoProject
	}
	return a.machine.NextGroup(), nil
}

// PreviousGroup steps the active group back, rolling over to the previous
// image before the first group.
func (a *App) PreviousGroup() (tagging.Advance, error) {
	if a.machine == nil {
		return tagging.Advance{}, ErrNoProject
	}
	return a.machine.PreviousGroup(), nil
}

// JumpToLatestUnfinished moves to the newest image with an unmet group.
func (a *App) JumpToLatestUnfinished(ctx context.Context, strict bool) (bool, error) {
	if a.machine == nil {
		return false, ErrNoProject
	}
	return a.machine.JumpToLatestUnfinished(ctx, strict)
}

// Export runs the export engine for the open project. Caption and separation
// flags default from the config document; rules and accepted scores come from
// the caller.
func (a *App) Export(ctx context.Context, req export.Request) (*export.Report, error) {
	if a.proj == nil {
		return nil, ErrNoProject
	}
	req.ProjectID = a.proj.ID
	engine := export.NewEngine(a.st, a.logger)
	return engine.Run(ctx, req)
}

// NewExportRequest seeds an export request from the config document's
// export_options namespace.
func (a *App) NewExportRequest(outputDir string, rules []export.Rule, acceptedScores []string) export.Request {
	options := a.cfg.ExportOptions()
	return export.Request{
		OutputDir:       outputDir,
		Rules:           rules,
		AcceptedScores:  acceptedScores,
		SeparateByScore: options.SeparateByScore,
		ExportCaptions:  options.ExportCaptions,
		DeleteImages:    options.DeleteImages,
		ApplyTagRules:   true,
		CaptionExt:      options.CaptionFormat,
	}
}

// scanDirectories walks each directory root and registers new image files.
func (a *App) scanDirectories(ctx context.Context, stored *store.Project) error {
	for _, dir := range stored.Directories {
		paths, err := pathutil.ScanImages(dir)
		if err != nil {
			a.logger.Warn("directory scan failed",
				logging.String("dir", dir),
				logging.Error(err))
			continue
		}
		added, err := a.st.AddImages(ctx, stored.ID, paths)
		if err != nil {
			return err
		}
		if added > 0 {
			a.logger.Info("new images registered",
				logging.Int64(logging.FieldProjectID, stored.ID),
				logging.String("dir", dir),
				logging.Int("added", added))
		}
	}
	return nil
}
