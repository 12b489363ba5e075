package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/birdsite/archivist/internal/config"
	"github.com/birdsite/archivist/internal/importer"
)

// ArchiveSyncScheduler re-runs the archive import on a cron schedule.
// Imports are idempotent, so a scheduled run only creates content for
// records dropped into the archive directory since the previous run.
type ArchiveSyncScheduler struct {
	store importer.ContentStore
	cfg   config.Config

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	cancelFunc context.CancelFunc
}

// NewArchiveSyncScheduler creates a scheduler instance.
func NewArchiveSyncScheduler(store importer.ContentStore, cfg config.Config) *ArchiveSyncScheduler {
	return &ArchiveSyncScheduler{
		store: store,
		cfg:   cfg,
		cron:  cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if sync is enabled.
func (s *ArchiveSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.cfg.ArchiveSync.Enabled {
		log.Printf("Archive sync scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.cfg.ArchiveSync.Schedule, func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.cfg.ArchiveSync.Schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Archive sync scheduler: started with schedule %q", s.cfg.ArchiveSync.Schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sync.
func (s *ArchiveSyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Archive sync scheduler: stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *ArchiveSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next sync will occur.
func (s *ArchiveSyncScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runSync performs one scheduled import. Overlapping runs are skipped:
// two importers racing the duplicate check against the same store could
// create duplicates.
func (s *ArchiveSyncScheduler) runSync() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("Archive sync: skipped (already running)")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	log.Printf("Archive sync: starting import from %s", s.cfg.Archive.Dir)

	imp := importer.New(s.store, importer.Options{
		ArchiveDir:   s.cfg.Archive.Dir,
		MediaBaseURL: s.cfg.Archive.MediaBaseURL,
		AuthorID:     s.cfg.ArchiveSync.AuthorID,
	}, importer.Hooks{})

	result, err := imp.Run(context.Background())
	if err != nil {
		log.Printf("Archive sync: import failed: %v", err)
		return
	}

	log.Printf("Archive sync: finished, %d processed, %d skipped", result.Processed, result.Skipped)
}
