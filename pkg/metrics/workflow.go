package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics counts order lifecycle and side-effect outcomes.
type WorkflowMetrics struct {
	transitions   *prometheus.CounterVec
	stockMoves    *prometheus.CounterVec
	payments      prometheus.Counter
	lowStockItems prometheus.Gauge
}

// NewWorkflowMetrics registers the workflow metrics on the provided registerer.
// A nil registerer returns a no-op recorder.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transitions by origin and target status.",
	}, []string{"from", "to"})
	stockMoves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_movements_total",
		Help: "Inventory movements recorded by type.",
	}, []string{"type"})
	payments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_payments_total",
		Help: "Orders marked paid on delivery.",
	})
	lowStock := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "inventory_low_stock_items",
		Help: "Active inventory items at or below minimum stock on the last scan.",
	})
	reg.MustRegister(transitions, stockMoves, payments, lowStock)
	return &WorkflowMetrics{
		transitions:   transitions,
		stockMoves:    stockMoves,
		payments:      payments,
		lowStockItems: lowStock,
	}
}

// IncTransition records one order status change.
func (w *WorkflowMetrics) IncTransition(from, to string) {
	if w == nil || w.transitions == nil {
		return
	}
	w.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncStockMovement records one inventory movement of the given type.
func (w *WorkflowMetrics) IncStockMovement(movementType string) {
	if w == nil || w.stockMoves == nil {
		return
	}
	w.stockMoves.WithLabelValues(normalizeLabel(movementType)).Inc()
}

// IncPayment records an order payment.
func (w *WorkflowMetrics) IncPayment() {
	if w == nil || w.payments == nil {
		return
	}
	w.payments.Inc()
}

// SetLowStockItems publishes the size of the last low-stock scan.
func (w *WorkflowMetrics) SetLowStockItems(n int) {
	if w == nil || w.lowStockItems == nil {
		return
	}
	w.lowStockItems.Set(float64(n))
}
