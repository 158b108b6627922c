package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/buildmart/marketplace-api/internal/config"
	"github.com/buildmart/marketplace-api/internal/events"
	"go.uber.org/zap"
)

const (
	ExpirySweepJobName         = "quote_request_expiry_sweep"
	NotificationCleanupJobName = "notification_cleanup"

	// defaultJobTimeout bounds a single run of a maintenance job
	defaultJobTimeout = 5 * time.Minute
)

// QuoteRequestExpirer closes open quote requests whose deadline has passed
type QuoteRequestExpirer interface {
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// NotificationPurger deletes notifications whose expiry has passed
type NotificationPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ExpirySweepJob moves overdue pending/quoted requests to expired in one bulk update.
// Submission and acceptance still check deadlines themselves; the sweep only
// keeps stored statuses honest for listings.
type ExpirySweepJob struct {
	expirer   QuoteRequestExpirer
	publisher events.Publisher
	logger    *zap.Logger
	timeout   time.Duration
	now       func() time.Time
}

func NewExpirySweepJob(expirer QuoteRequestExpirer, publisher events.Publisher, logger *zap.Logger) *ExpirySweepJob {
	return &ExpirySweepJob{
		expirer:   expirer,
		publisher: publisher,
		logger:    logger,
		timeout:   defaultJobTimeout,
		now:       time.Now,
	}
}

// Run executes one sweep; called by the scheduler
func (j *ExpirySweepJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.RunOnce(ctx); err != nil {
		j.logger.Error("quote request expiry sweep failed", zap.Error(err))
	}
}

// RunOnce performs the sweep and returns how many requests were expired
func (j *ExpirySweepJob) RunOnce(ctx context.Context) (int64, error) {
	start := time.Now()
	now := j.now().UTC()

	expired, err := j.expirer.ExpireOverdue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire overdue quote requests: %w", err)
	}

	j.logger.Info("quote request expiry sweep completed",
		zap.Int64("expired", expired),
		zap.Duration("duration", time.Since(start)))

	if expired > 0 && j.publisher != nil {
		payload := events.ExpirySweepPayload{Expired: expired, SweptAt: now}
		if err := j.publisher.Publish(ctx, events.QuoteRequestsExpired, payload); err != nil {
			j.logger.Warn("failed to publish expiry sweep event", zap.Error(err))
		}
	}

	return expired, nil
}

// NotificationCleanupJob purges notifications past their expiresAt
type NotificationCleanupJob struct {
	purger  NotificationPurger
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewNotificationCleanupJob(purger NotificationPurger, logger *zap.Logger) *NotificationCleanupJob {
	return &NotificationCleanupJob{
		purger:  purger,
		logger:  logger,
		timeout: defaultJobTimeout,
		now:     time.Now,
	}
}

// Run executes one cleanup; called by the scheduler
func (j *NotificationCleanupJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.RunOnce(ctx); err != nil {
		j.logger.Error("notification cleanup failed", zap.Error(err))
	}
}

// RunOnce deletes expired notifications and returns how many were removed
func (j *NotificationCleanupJob) RunOnce(ctx context.Context) (int64, error) {
	deleted, err := j.purger.DeleteExpired(ctx, j.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired notifications: %w", err)
	}

	j.logger.Info("notification cleanup completed", zap.Int64("deleted", deleted))
	return deleted, nil
}

// Register adds the enabled maintenance jobs to the scheduler
func Register(s *Scheduler, cfg *config.JobsConfig, expiry *ExpirySweepJob, cleanup *NotificationCleanupJob) error {
	if cfg.ExpirySweepEnabled {
		if err := s.AddJob(ExpirySweepJobName, cfg.ExpirySweepSchedule, expiry.Run); err != nil {
			return err
		}
	}
	if cfg.NotificationCleanupEnabled {
		if err := s.AddJob(NotificationCleanupJobName, cfg.NotificationCleanupSchedule, cleanup.Run); err != nil {
			return err
		}
	}
	return nil
}
