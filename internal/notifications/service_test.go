package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/laundrydesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/laundrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/laundrydesk-backend/pkg/errors"
	"github.com/angelmondragon/laundrydesk-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, Repository, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo, conn
}

func seedNotification(t *testing.T, repo Repository, kind enums.NotificationType, title string) models.Notification {
	t.Helper()
	n := models.Notification{Type: kind, Title: title, Message: title, EventID: uuid.New()}
	created, err := repo.Create(context.Background(), &n)
	require.NoError(t, err)
	require.True(t, created)
	return n
}

func TestRepositoryCreateIgnoresDuplicateEvent(t *testing.T) {
	_, repo, conn := newTestService(t)
	ctx := context.Background()
	eventID := uuid.New()

	created, err := repo.Create(ctx, &models.Notification{Type: enums.NotificationTypeLowStock, Title: "a", Message: "a", EventID: eventID})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(ctx, &models.Notification{Type: enums.NotificationTypeLowStock, Title: "b", Message: "b", EventID: eventID})
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, conn.Model(&models.Notification{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestServiceListPagesAndFilters(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	seedNotification(t, repo, enums.NotificationTypeLowStock, "Low stock: Detergent")
	seedNotification(t, repo, enums.NotificationTypeRegisterOverdue, "Cash register still open")
	seedNotification(t, repo, enums.NotificationTypeLowStock, "Low stock: Softener")

	page, err := svc.List(ctx, ListFilters{}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)

	next, err := svc.List(ctx, ListFilters{}, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Empty(t, next.NextCursor)

	lowStock := enums.NotificationTypeLowStock
	filtered, err := svc.List(ctx, ListFilters{Type: &lowStock}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, filtered.Items, 2)
	for _, item := range filtered.Items {
		assert.Equal(t, enums.NotificationTypeLowStock, item.Type)
		assert.False(t, item.Read)
	}

	bogus := enums.NotificationType("promo")
	_, err = svc.List(ctx, ListFilters{Type: &bogus}, pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.List(ctx, ListFilters{}, pagination.Params{Cursor: "not-a-cursor"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestServiceMarkRead(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	first := seedNotification(t, repo, enums.NotificationTypeRegisterClosed, "Cash register closed")
	seedNotification(t, repo, enums.NotificationTypeLowStock, "Low stock: Bags")

	require.NoError(t, svc.MarkRead(ctx, first.ID))
	require.NoError(t, svc.MarkRead(ctx, first.ID), "already read is a no-op")

	err := svc.MarkRead(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	err = svc.MarkRead(ctx, uuid.Nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	unread, err := svc.UnreadCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	page, err := svc.List(ctx, ListFilters{UnreadOnly: true}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Low stock: Bags", page.Items[0].Title)

	updated, err := svc.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)

	unread, err = svc.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestRepositoryDeleteReadBeforeKeepsUnread(t *testing.T) {
	_, repo, conn := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := seedNotification(t, repo, enums.NotificationTypeRegisterClosed, "Cash register closed")
	recent := seedNotification(t, repo, enums.NotificationTypeRegisterClosed, "Cash register closed")
	unread := seedNotification(t, repo, enums.NotificationTypeLowStock, "Low stock: Bleach")

	_, err := repo.MarkRead(ctx, old.ID, now.AddDate(0, 0, -100))
	require.NoError(t, err)
	_, err = repo.MarkRead(ctx, recent.ID, now)
	require.NoError(t, err)

	deleted, err := repo.DeleteReadBefore(ctx, now.AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	var remaining []uuid.UUID
	require.NoError(t, conn.Model(&models.Notification{}).Pluck("id", &remaining).Error)
	assert.ElementsMatch(t, []uuid.UUID{recent.ID, unread.ID}, remaining)
}
