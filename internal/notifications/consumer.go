package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/laundrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
	"github.com/angelmondragon/laundrydesk-backend/pkg/logger"
	"github.com/angelmondragon/laundrydesk-backend/pkg/metrics"
	"github.com/angelmondragon/laundrydesk-backend/pkg/outbox"
	"github.com/angelmondragon/laundrydesk-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/laundrydesk-backend/pkg/outbox/payloads"
)

const alertsConsumer = "staff-alerts"

// Receiver is the subscription surface the consumer needs. *pubsub.Subscriber
// satisfies it.
type Receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

type notificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) (bool, error)
}

// Consumer turns low-stock and cash register events into staff notifications.
type Consumer struct {
	repo          notificationWriter
	subscriptions []Receiver
	idempotency   *idempotency.Manager
	logg          *logger.Logger
	metrics       *metrics.AlertMetrics
}

// NewConsumer builds an alerts consumer reading from every given subscription.
func NewConsumer(repo notificationWriter, manager *idempotency.Manager, logg *logger.Logger, subscriptions ...Receiver) (*Consumer, error) {
	if repo == nil {
		return nil, errors.New("notifications repository required")
	}
	if len(subscriptions) == 0 {
		return nil, errors.New("at least one subscription required")
	}
	for _, sub := range subscriptions {
		if sub == nil {
			return nil, errors.New("nil subscription")
		}
	}
	if manager == nil {
		return nil, errors.New("idempotency manager required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Consumer{
		repo:          repo,
		subscriptions: subscriptions,
		idempotency:   manager,
		logg:          logg,
	}, nil
}

// WithMetrics records stored and duplicate notifications on m.
func (c *Consumer) WithMetrics(m *metrics.AlertMetrics) *Consumer {
	c.metrics = m
	return c
}

// Run receives from all subscriptions until the context is canceled or one
// of them fails.
func (c *Consumer) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, sub := range c.subscriptions {
		g.Go(func() error {
			return sub.Receive(gctx, func(ctx context.Context, msg *pubsub.Message) {
				result := c.process(ctx, msg)
				if result.nack {
					msg.Nack()
					return
				}
				msg.Ack()
			})
		})
	}
	return g.Wait()
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	})

	if !handles(eventType) {
		c.logg.Debug(logCtx, "skipping event without alert")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithEventID(logCtx, eventID.String())

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, alertsConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.metrics.IncDuplicate()
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	notification, err := buildNotification(eventType, envelope.Data)
	if err != nil {
		// A payload that cannot be decoded will not decode on redelivery either.
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}
	notification.EventID = eventID

	created, err := c.repo.Create(ctx, notification)
	if err != nil {
		c.logg.Error(logCtx, "failed to store notification", err)
		if delErr := c.idempotency.Delete(ctx, alertsConsumer, eventID); delErr != nil {
			c.logg.Warn(logCtx, "failed to release idempotency mark")
		}
		return processResult{nack: true}
	}
	if !created {
		c.metrics.IncDuplicate()
		return processResult{ack: true}
	}
	c.metrics.IncStored(string(notification.Type))
	c.logg.Info(c.logg.WithField(logCtx, "notification_type", string(notification.Type)), "staff notified")
	return processResult{ack: true}
}

func handles(eventType enums.OutboxEventType) bool {
	switch eventType {
	case enums.EventInventoryLowStock, enums.EventCashRegisterOverdue, enums.EventCashRegisterClosed:
		return true
	}
	return false
}

func buildNotification(eventType enums.OutboxEventType, data json.RawMessage) (*models.Notification, error) {
	switch eventType {
	case enums.EventInventoryLowStock:
		var payload payloads.InventoryLowStockEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return lowStockNotification(payload), nil
	case enums.EventCashRegisterOverdue:
		var payload payloads.CashRegisterOverdueEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return overdueNotification(payload), nil
	case enums.EventCashRegisterClosed:
		var payload payloads.CashRegisterClosedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return closedNotification(payload), nil
	}
	return nil, fmt.Errorf("unsupported event type %q", eventType)
}

func lowStockNotification(p payloads.InventoryLowStockEvent) *models.Notification {
	title := fmt.Sprintf("Low stock: %s", p.Name)
	if p.Level == enums.StockLevelWarning {
		title = fmt.Sprintf("Stock running low: %s", p.Name)
	}
	return &models.Notification{
		Type:    enums.NotificationTypeLowStock,
		Title:   title,
		Message: fmt.Sprintf("%s has %s left (minimum %s).", p.Name, p.CurrentStock.String(), p.MinStock.String()),
		Link:    stringPtr(fmt.Sprintf("/inventory/items/%s", p.ItemID)),
	}
}

func overdueNotification(p payloads.CashRegisterOverdueEvent) *models.Notification {
	return &models.Notification{
		Type:  enums.NotificationTypeRegisterOverdue,
		Title: "Cash register still open",
		Message: fmt.Sprintf("The register opened at %s has been open for %s.",
			p.OpenedAt.Format("2006-01-02 15:04"), p.OpenFor.Round(time.Minute)),
		Link: stringPtr(fmt.Sprintf("/cash/registers/%s", p.RegisterID)),
	}
}

func closedNotification(p payloads.CashRegisterClosedEvent) *models.Notification {
	return &models.Notification{
		Type:  enums.NotificationTypeRegisterClosed,
		Title: "Cash register closed",
		Message: fmt.Sprintf("Closed with %s (opening %s, income %s, expense %s).",
			p.ClosingBalance.StringFixed(2), p.OpeningBalance.StringFixed(2),
			p.TotalIncome.StringFixed(2), p.TotalExpense.StringFixed(2)),
		Link: stringPtr(fmt.Sprintf("/cash/registers/%s", p.RegisterID)),
	}
}

func stringPtr(value string) *string {
	return &value
}
