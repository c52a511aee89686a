package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"

	"picksort/internal/condition"
	"picksort/internal/fileutil"
	"picksort/internal/logging"
	"picksort/internal/store"
)

// Request describes one export run.
type Request struct {
	ProjectID       int64
	OutputDir       string
	Rules           []Rule
	AcceptedScores  []string
	SeparateByScore bool
	ExportCaptions  bool
	DeleteImages    bool
	ApplyTagRules   bool
	CaptionExt      string
}

// Report summarizes an export run for the shell.
type Report struct {
	RunID          string
	Dirs           map[string]int
	Failed         int
	MissingSources int
}

// Engine reads project state from the store and writes the output tree.
type Engine struct {
	st     *store.Store
	logger *slog.Logger
}

// NewEngine builds an export engine over the given store.
func NewEngine(st *store.Store, logger *slog.Logger) *Engine {
	return &Engine{
		st:     st,
		logger: logging.NewComponentLogger(logger, "export"),
	}
}

// tagRule is an export tag rule with its condition pre-parsed.
type tagRule struct {
	name      string
	expr      condition.Expr
	tagsToAdd []string
}

// Run executes the export: wipe, route, copy, caption. Individual image
// failures are counted, not fatal; only store and output-tree errors abort.
func (e *Engine) Run(ctx context.Context, req Request) (*Report, error) {
	if req.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}
	runID := uuid.NewString()
	log := e.logger.With(logging.String(logging.FieldRunID, runID))

	report := &Report{RunID: runID, Dirs: make(map[string]int)}

	images, err := e.st.ListImages(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	scores, err := e.st.ScoresByImage(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	categories, err := e.st.CategoriesByImage(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	groups, err := e.st.ListTagGroups(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	views := store.ConditionViews(groups)

	tagRules, err := e.loadTagRules(ctx, req)
	if err != nil {
		return nil, err
	}
	rules := normalizeRules(req.Rules)

	accepted := make(map[string]bool, len(req.AcceptedScores))
	for _, label := range req.AcceptedScores {
		accepted[label] = true
	}

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure output directory: %w", err)
	}
	e.wipeOutput(req.OutputDir, log)

	captionExt := req.CaptionExt
	if captionExt == "" {
		captionExt = ".txt"
	}

	var captions []captionJob
	for _, image := range images {
		label, scored := scores[image.ID]
		if !scored || !accepted[label] {
			continue
		}

		selected, err := e.st.ImageTagIDs(ctx, image.ID)
		if err != nil {
			return nil, err
		}
		additional := e.additionalTags(tagRules, views, selected, log)

		rule, matched := matchRule(rules, categories[image.ID])
		if !matched {
			report.Failed++
			log.Warn("no export rule matched",
				logging.Int64(logging.FieldImageID, image.ID),
				logging.Any("categories", categories[image.ID]))
			continue
		}

		relDir := rule.Destination
		if req.SeparateByScore {
			relDir = path.Join(label, rule.Destination)
		}
		relDir = path.Clean(relDir)
		destDir := filepath.Join(req.OutputDir, filepath.FromSlash(relDir))
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", destDir, err)
		}

		filename := path.Base(image.SourcePath)
		destPath := filepath.Join(destDir, filename)
		if err := fileutil.CopyPreserve(image.SourcePath, destPath); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				report.MissingSources++
				log.Warn("source file missing",
					logging.Int64(logging.FieldImageID, image.ID),
					logging.String("path", image.SourcePath))
				continue
			}
			return nil, fmt.Errorf("copy %s: %w", image.SourcePath, err)
		}
		if req.DeleteImages {
			if err := os.Remove(image.SourcePath); err != nil {
				log.Warn("delete source failed",
					logging.String("path", image.SourcePath),
					logging.Error(err))
			}
		}
		report.Dirs[relDir]++

		if req.ExportCaptions {
			text, err := e.captionText(ctx, image.ID, additional)
			if err != nil {
				return nil, err
			}
			stem := filename[:len(filename)-len(path.Ext(filename))]
			captions = append(captions, captionJob{
				path: filepath.Join(destDir, stem+captionExt),
				text: text,
			})
		}
	}

	if req.ExportCaptions {
		writeCaptions(captions, log)
	}

	log.Info("export complete",
		logging.Int("copied", countDirs(report.Dirs)),
		logging.Int("failed", report.Failed),
		logging.Int("missing_sources", report.MissingSources))
	return report, nil
}

// loadTagRules fetches and pre-parses the enabled export tag rules.
func (e *Engine) loadTagRules(ctx context.Context, req Request) ([]tagRule, error) {
	if !req.ApplyTagRules {
		return nil, nil
	}
	stored, err := e.st.ListExportRules(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	var rules []tagRule
	for _, rule := range stored {
		if !rule.Enabled {
			continue
		}
		expr, err := condition.Parse(rule.Condition)
		if err != nil {
			return nil, fmt.Errorf("export rule %q: %w", rule.Name, err)
		}
		rules = append(rules, tagRule{name: rule.Name, expr: expr, tagsToAdd: rule.TagsToAdd})
	}
	return rules, nil
}

// additionalTags evaluates the tag rules in stored order and collects their
// additions in discovery order, deduplicated. Evaluation faults degrade to a
// non-match with a warning.
func (e *Engine) additionalTags(rules []tagRule, views []condition.Group, selected map[int64]bool, log *slog.Logger) []string {
	var additional []string
	seen := make(map[string]bool)
	for _, rule := range rules {
		ok, err := condition.Evaluate(rule.expr, views, selected)
		if err != nil {
			log.Warn("tag rule evaluation degraded to false",
				logging.String("rule", rule.name),
				logging.Error(err))
			continue
		}
		if !ok {
			continue
		}
		for _, tag := range rule.tagsToAdd {
			if !seen[tag] {
				seen[tag] = true
				additional = append(additional, tag)
			}
		}
	}
	return additional
}

// wipeOutput removes every direct entry of the output directory. The listing
// is snapshotted before deletion; individual failures are logged and skipped.
func (e *Engine) wipeOutput(outputDir string, log *slog.Logger) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		log.Warn("output wipe listing failed", logging.Error(err))
		return
	}
	for _, entry := range entries {
		target := filepath.Join(outputDir, entry.Name())
		if err := os.RemoveAll(target); err != nil {
			log.Warn("output wipe entry failed",
				logging.String("path", target),
				logging.Error(err))
		}
	}
}

func countDirs(dirs map[string]int) int {
	total := 0
	for _, n := range dirs {
		total += n
	}
	return total
}
