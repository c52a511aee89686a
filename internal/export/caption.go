package export

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"picksort/internal/logging"
)

// captionWorkers bounds the caption write pool.
const captionWorkers = 4

type captionJob struct {
	path string
	text string
}

// captionText builds the single-line caption for an image: stored tag names
// ordered by (group display order, tag display order), then the rule-derived
// additions in discovery order, all ", "-joined.
func (e *Engine) captionText(ctx context.Context, imageID int64, additional []string) (string, error) {
	details, err := e.st.ImageTagDetails(ctx, imageID)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(details)+len(additional))
	for _, detail := range details {
		parts = append(parts, detail.TagName)
	}
	parts = append(parts, additional...)
	return strings.Join(parts, ", "), nil
}

// writeCaptions creates each destination directory once, then writes the
// caption files through a bounded worker pool. Each job owns a distinct path,
// so no synchronization beyond the pool is needed.
func writeCaptions(jobs []captionJob, log *slog.Logger) {
	dirs := make(map[string]bool)
	for _, job := range jobs {
		dir := filepath.Dir(job.path)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warn("caption directory preflight failed",
				logging.String("dir", dir),
				logging.Error(err))
		}
	}

	work := make(chan captionJob)
	var wg sync.WaitGroup
	for i := 0; i < captionWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range work {
				if err := os.WriteFile(job.path, []byte(job.text), 0o644); err != nil {
					log.Warn("caption write failed",
						logging.String("path", job.path),
						logging.Error(err))
				}
			}
		}()
	}
	for _, job := range jobs {
		work <- job
	}
	close(work)
	wg.Wait()
}
