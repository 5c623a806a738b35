package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/laundrydesk-backend/pkg/logger"
)

type lowStockScanner interface {
	ScanLowStock(ctx context.Context) (int, error)
}

// NewLowStockJob queues low-stock alerts for supplies at or under minimum.
func NewLowStockJob(logg *logger.Logger, scanner lowStockScanner) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if scanner == nil {
		return nil, fmt.Errorf("inventory scanner required")
	}
	return &lowStockJob{logg: logg, scanner: scanner}, nil
}

type lowStockJob struct {
	logg    *logger.Logger
	scanner lowStockScanner
}

func (j *lowStockJob) Name() string { return "inventory-low-stock" }

func (j *lowStockJob) Run(ctx context.Context) error {
	queued, err := j.scanner.ScanLowStock(ctx)
	if err != nil {
		return fmt.Errorf("scan low stock: %w", err)
	}
	if queued > 0 {
		j.logg.Warn(j.logg.WithField(ctx, "alerts_queued", queued), "supplies below minimum stock")
	}
	return nil
}
