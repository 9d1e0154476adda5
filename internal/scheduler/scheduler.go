package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/lehmann314159/vocabtyper/internal/models"
)

const reportTimeout = 30 * time.Second

// StatsSource reports word counts by status
type StatsSource interface {
	GetStats(ctx context.Context) (*models.Stats, error)
}

// Scheduler periodically logs the study backlog
type Scheduler struct {
	scheduler *gocron.Scheduler
	stats     StatsSource
	logger    logrus.FieldLogger
	interval  time.Duration
}

// New creates a new scheduler. A non-positive interval disables reporting.
func New(stats StatsSource, logger logrus.FieldLogger, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		stats:     stats,
		logger:    logger,
		interval:  interval,
	}
}

// Start begins reporting in the background. The first report runs immediately.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("backlog reporter disabled")
		return nil
	}

	if _, err := s.scheduler.Every(s.interval).Do(s.report); err != nil {
		return fmt.Errorf("schedule backlog report: %w", err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) report() {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	stats, err := s.stats.GetStats(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to collect backlog stats")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"total_words":    stats.Total,
		"new_words":      stats.New,
		"learning_words": stats.Learning,
		"review_words":   stats.Review,
		"mastered_words": stats.Mastered,
	}).Info("study backlog")
}
