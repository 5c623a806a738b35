package enums

import "fmt"

// OrderStatus tracks the lifecycle of a laundry order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusInProcess OrderStatus = "in_process"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusInProcess,
	OrderStatusReady,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// orderTransitions lists every legal edge of the order state machine.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusInProcess, OrderStatusCancelled},
	OrderStatusInProcess: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:     {OrderStatusDelivered},
}

// forwardFlow is the main pending -> delivered path used by Advance.
var forwardFlow = map[OrderStatus]OrderStatus{
	OrderStatusPending:   OrderStatusInProcess,
	OrderStatusInProcess: OrderStatusReady,
	OrderStatusReady:     OrderStatusDelivered,
}

// OrderStatuses returns the statuses in board order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(validOrderStatuses))
	copy(out, validOrderStatuses)
	return out
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// IsFinished reports whether the order content is frozen: ready orders can
// still be delivered but no longer edited.
func (s OrderStatus) IsFinished() bool {
	return s == OrderStatusReady || s.IsTerminal()
}

// IsActive reports whether the order still shows in the working list.
func (s OrderStatus) IsActive() bool {
	return s == OrderStatusPending || s == OrderStatusInProcess
}

// CanTransitionTo reports whether next is a legal edge from s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Next returns the following status in the main flow.
func (s OrderStatus) Next() (OrderStatus, bool) {
	next, ok := forwardFlow[s]
	return next, ok
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
