package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/laundrydesk-backend/pkg/logger"
)

const defaultStaleRegisterAfter = 18 * time.Hour

type overdueRegisterFlagger interface {
	FlagOverdueRegisters(ctx context.Context, openFor time.Duration) (int, error)
}

// NewStaleRegisterJob flags cash registers left open longer than openFor.
func NewStaleRegisterJob(logg *logger.Logger, registers overdueRegisterFlagger, openFor time.Duration) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if registers == nil {
		return nil, fmt.Errorf("cash service required")
	}
	if openFor <= 0 {
		openFor = defaultStaleRegisterAfter
	}
	return &staleRegisterJob{logg: logg, registers: registers, openFor: openFor}, nil
}

type staleRegisterJob struct {
	logg      *logger.Logger
	registers overdueRegisterFlagger
	openFor   time.Duration
}

func (j *staleRegisterJob) Name() string { return "cash-stale-register" }

func (j *staleRegisterJob) Run(ctx context.Context) error {
	flagged, err := j.registers.FlagOverdueRegisters(ctx, j.openFor)
	if err != nil {
		return fmt.Errorf("flag overdue registers: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"open_for": j.openFor.String(),
		"flagged":  flagged,
	}), "stale register check complete")
	return nil
}
