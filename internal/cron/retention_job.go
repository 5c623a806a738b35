package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/laundrydesk-backend/pkg/logger"
)

const (
	outboxRetentionDays = 30
	outboxMinAttempts   = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PruneFunc deletes rows older than cutoff inside tx and reports how many went.
type PruneFunc func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)

// RetentionTarget is one table the retention job keeps trimmed.
type RetentionTarget struct {
	Name  string
	Days  int
	Prune PruneFunc
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

// OutboxRetention drops published rows and rows parked at minAttempts or more.
// Zero values fall back to 30 days and 10 attempts.
func OutboxRetention(repo outboxRetentionRepo, days, minAttempts int) RetentionTarget {
	if days <= 0 {
		days = outboxRetentionDays
	}
	if minAttempts <= 0 {
		minAttempts = outboxMinAttempts
	}
	return RetentionTarget{
		Name: "outbox_events",
		Days: days,
		Prune: func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
			return repo.DeletePublishedBefore(ctx, tx, cutoff, minAttempts)
		},
	}
}

// NewRetentionJob prunes every target in its own transaction. A failing
// target does not stop the others.
func NewRetentionJob(logg *logger.Logger, db txRunner, targets ...RetentionTarget) (Job, error) {
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if db == nil {
		return nil, errors.New("db runner required")
	}
	if len(targets) == 0 {
		return nil, errors.New("at least one retention target required")
	}
	for _, target := range targets {
		if target.Prune == nil || target.Days <= 0 || target.Name == "" {
			return nil, fmt.Errorf("invalid retention target %q", target.Name)
		}
	}
	return &retentionJob{logg: logg, db: db, targets: targets, now: time.Now}, nil
}

type retentionJob struct {
	logg    *logger.Logger
	db      txRunner
	targets []RetentionTarget
	now     func() time.Time
}

func (j *retentionJob) Name() string { return "retention" }

func (j *retentionJob) Run(ctx context.Context) error {
	var errs error
	now := j.now().UTC()
	for _, target := range j.targets {
		cutoff := now.AddDate(0, 0, -target.Days)
		var deleted int64
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			deleted, err = target.Prune(ctx, tx, cutoff)
			return err
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("prune %s: %w", target.Name, err))
			continue
		}
		j.logg.Info(j.logg.WithFields(ctx, map[string]any{
			"table":          target.Name,
			"cutoff":         cutoff,
			"retention_days": target.Days,
			"rows_deleted":   deleted,
		}), "retention cleanup complete")
	}
	return errs
}
