package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/laundrydesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/laundrydesk-backend/pkg/errors"
	"github.com/angelmondragon/laundrydesk-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func strPtr(v string) *string { return &v }

func TestCreateDefaultsToPersonal(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.Create(context.Background(), CreateCustomerInput{
		Name:  "  Ana Perez ",
		Email: strPtr(" ana@example.com "),
		Phone: strPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Perez", got.Name)
	assert.Equal(t, enums.CustomerTypePersonal, got.CustomerType)
	require.NotNil(t, got.Email)
	assert.Equal(t, "ana@example.com", *got.Email)
	assert.Nil(t, got.Phone)
	assert.True(t, got.IsActive)
	assert.True(t, got.Balance.IsZero())
}

func TestCreateValidates(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateCustomerInput{Name: " "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(context.Background(), CreateCustomerInput{Name: "Co", CustomerType: "vip"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	neg := decimal.NewFromInt(-1)
	_, err = svc.Create(context.Background(), CreateCustomerInput{Name: "Co", CreditLimit: &neg})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateAndDeactivate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateCustomerInput{Name: "Hotel Sol", CustomerType: enums.CustomerTypeBusiness})
	require.NoError(t, err)

	limit := decimal.RequireFromString("500.499")
	updated, err := svc.Update(ctx, created.ID, UpdateCustomerInput{
		ContactPerson: strPtr("Luis"),
		CreditLimit:   &limit,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ContactPerson)
	assert.Equal(t, "Luis", *updated.ContactPerson)
	assert.True(t, updated.CreditLimit.Equal(decimal.RequireFromString("500.5")))

	require.NoError(t, svc.Deactivate(ctx, created.ID))
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRequireActive(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateCustomerInput{Name: "Marta"})
	require.NoError(t, err)

	customer, err := svc.RequireActive(ctx, conn, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, customer.ID)

	require.NoError(t, svc.Deactivate(ctx, created.ID))
	_, err = svc.RequireActive(ctx, conn, created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = svc.RequireActive(ctx, conn, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListSearchesAndPaginates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"Ana Perez", "Andres Gil", "Bruno Diaz"} {
		_, err := svc.Create(ctx, CreateCustomerInput{Name: name})
		require.NoError(t, err)
	}
	inactive, err := svc.Create(ctx, CreateCustomerInput{Name: "Anabel"})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, inactive.ID))

	page, err := svc.List(ctx, ListFilters{Query: "an"}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Empty(t, page.NextCursor)

	page, err = svc.List(ctx, ListFilters{Query: "an", IncludeInactive: true}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)

	page, err = svc.List(ctx, ListFilters{}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.NotEmpty(t, page.NextCursor)

	_, err = svc.List(ctx, ListFilters{}, pagination.Params{Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
