package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/birdsite/archivist/internal/importer"
)

// ImportArchiveTask runs a full archive import in the background.
type ImportArchiveTask struct {
	AuthorID        int64  `json:"author_id"`
	ItemType        string `json:"item_type,omitempty"`
	HashtagTaxonomy string `json:"hashtag_taxonomy,omitempty"`
	SkipReplies     bool   `json:"skip_replies,omitempty"`
	SkipRetweets    bool   `json:"skip_retweets,omitempty"`
	SinceDate       string `json:"since_date,omitempty"`
	UseAsideFormat  bool   `json:"use_aside_format,omitempty"`
}

// Config returns the queue configuration for archive import tasks.
// MaxAttempts is 1: fatal import errors are never retried, and a failed
// run is recovered by re-running the whole import (which is idempotent).
func (t ImportArchiveTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_archive",
		MaxAttempts: 1,
		Timeout:     time.Hour,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportArchiveProcessor creates the processor for archive import tasks.
// The runner builds an importer from task parameters and executes it.
func ImportArchiveProcessor(store importer.ContentStore, archiveDir, mediaBaseURL string) backlite.QueueProcessor[ImportArchiveTask] {
	return func(ctx context.Context, task ImportArchiveTask) error {
		opts := importer.Options{
			ArchiveDir:      archiveDir,
			MediaBaseURL:    mediaBaseURL,
			AuthorID:        task.AuthorID,
			ItemType:        task.ItemType,
			HashtagTaxonomy: task.HashtagTaxonomy,
			SkipReplies:     task.SkipReplies,
			SkipRetweets:    task.SkipRetweets,
			UseAsideFormat:  task.UseAsideFormat,
		}

		if task.SinceDate != "" {
			since, err := importer.ParseSinceDate(task.SinceDate)
			if err != nil {
				return err
			}
			opts.SinceDate = &since
		}

		imp := importer.New(store, opts, importer.Hooks{})
		result, err := imp.Run(ctx)
		if err != nil {
			return fmt.Errorf("import archive for author %d: %w", task.AuthorID, err)
		}

		log.Printf("[TASK] Archive import finished: %d processed, %d skipped", result.Processed, result.Skipped)

		return nil
	}
}

// NewImportArchiveQueue creates a backlite queue for archive imports.
func NewImportArchiveQueue(store importer.ContentStore, archiveDir, mediaBaseURL string) backlite.Queue {
	return backlite.NewQueue(ImportArchiveProcessor(store, archiveDir, mediaBaseURL))
}
