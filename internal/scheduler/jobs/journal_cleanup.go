package jobs

import (
	"context"
	"time"

	"github.com/minjaelee/vigil/internal/trade"
	"github.com/minjaelee/vigil/pkg/logger"
)

// JournalCleanupJob prunes old entries from the order journal
type JournalCleanupJob struct {
	journal   *trade.Journal
	retention time.Duration
	logger    *logger.Logger
}

// NewJournalCleanupJob creates a new journal cleanup job
func NewJournalCleanupJob(journal *trade.Journal, retentionDays int, log *logger.Logger) *JournalCleanupJob {
	return &JournalCleanupJob{
		journal:   journal,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		logger:    log,
	}
}

// Name returns the job name
func (j *JournalCleanupJob) Name() string {
	return "journal_cleanup"
}

// Schedule returns the cron schedule (daily at 03:00)
func (j *JournalCleanupJob) Schedule() string {
	return "0 0 3 * * *"
}

// Run executes the journal cleanup
func (j *JournalCleanupJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled journal cleanup")

	removed, err := j.journal.Prune(ctx, j.retention)
	if err != nil {
		return err
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Journal cleanup completed")
	}

	return nil
}
