package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from OrderStatus
		to   OrderStatus
		ok   bool
	}{
		{OrderStatusPending, OrderStatusInProcess, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusReady, false},
		{OrderStatusInProcess, OrderStatusReady, true},
		{OrderStatusInProcess, OrderStatusCancelled, true},
		{OrderStatusInProcess, OrderStatusPending, false},
		{OrderStatusReady, OrderStatusDelivered, true},
		{OrderStatusReady, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatusNext(t *testing.T) {
	next, ok := OrderStatusPending.Next()
	require.True(t, ok)
	assert.Equal(t, OrderStatusInProcess, next)

	next, ok = OrderStatusReady.Next()
	require.True(t, ok)
	assert.Equal(t, OrderStatusDelivered, next)

	_, ok = OrderStatusDelivered.Next()
	assert.False(t, ok)
	_, ok = OrderStatusCancelled.Next()
	assert.False(t, ok)
}

func TestOrderStatusClassification(t *testing.T) {
	assert.True(t, OrderStatusReady.IsFinished())
	assert.False(t, OrderStatusReady.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.True(t, OrderStatusInProcess.IsActive())
	assert.False(t, OrderStatusReady.IsActive())
}

func TestParseOrderStatus(t *testing.T) {
	got, err := ParseOrderStatus("in_process")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusInProcess, got)

	_, err = ParseOrderStatus("en_proceso")
	require.Error(t, err)
	assert.Len(t, OrderStatuses(), 5)
}

func TestParseOtherEnums(t *testing.T) {
	_, err := ParseCashMovementType("income")
	require.NoError(t, err)
	_, err = ParseCashMovementType("refund")
	require.Error(t, err)

	_, err = ParseInventoryMovementType("adjustment")
	require.NoError(t, err)
	_, err = ParseCustomerType("vip")
	require.Error(t, err)
	_, err = ParseServiceUnitType("kilo")
	require.NoError(t, err)
	_, err = ParseStaffRole("cashier")
	require.NoError(t, err)
	assert.True(t, EventOrderPaid.IsValid())
}
