package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

type fakeOutboxRetentionRepo struct {
	lastCutoff  time.Time
	minAttempts int
	err         error
}

func (f *fakeOutboxRetentionRepo) DeletePublishedBefore(_ context.Context, _ *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error) {
	f.lastCutoff = cutoff
	f.minAttempts = minAttemptCount
	if f.err != nil {
		return 0, f.err
	}
	return 7, nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newRetentionJob(t *testing.T, targets ...RetentionTarget) *retentionJob {
	t.Helper()
	job, err := NewRetentionJob(testLogger(), passthroughTx{}, targets...)
	require.NoError(t, err)
	concrete, ok := job.(*retentionJob)
	require.True(t, ok)
	concrete.now = func() time.Time { return time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC) }
	return concrete
}

func TestRetentionJobUsesOutboxDefaults(t *testing.T) {
	repo := &fakeOutboxRetentionRepo{}
	job := newRetentionJob(t, OutboxRetention(repo, 0, 0))

	require.NoError(t, job.Run(context.Background()))
	assert.True(t, repo.lastCutoff.Equal(time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, outboxMinAttempts, repo.minAttempts)
	assert.Equal(t, "retention", job.Name())
}

func TestRetentionJobKeepsGoingAfterFailure(t *testing.T) {
	var notificationCutoff time.Time
	notifications := RetentionTarget{
		Name: "notifications",
		Days: 90,
		Prune: func(_ context.Context, _ *gorm.DB, cutoff time.Time) (int64, error) {
			notificationCutoff = cutoff
			return 2, nil
		},
	}
	job := newRetentionJob(t, OutboxRetention(&fakeOutboxRetentionRepo{err: errors.New("boom")}, 30, 10), notifications)

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.ErrorContains(t, err, "prune outbox_events: boom")
	assert.True(t, notificationCutoff.Equal(time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)))
}

func TestNewRetentionJobRequiresDependencies(t *testing.T) {
	_, err := NewRetentionJob(nil, passthroughTx{}, OutboxRetention(&fakeOutboxRetentionRepo{}, 0, 0))
	assert.Error(t, err)
	_, err = NewRetentionJob(testLogger(), nil, OutboxRetention(&fakeOutboxRetentionRepo{}, 0, 0))
	assert.Error(t, err)
	_, err = NewRetentionJob(testLogger(), passthroughTx{})
	assert.Error(t, err)
	_, err = NewRetentionJob(testLogger(), passthroughTx{}, RetentionTarget{Name: "x", Days: 1})
	assert.Error(t, err)
}
