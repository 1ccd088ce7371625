// Package metrics exposes Prometheus counters for the money path:
// order placement, coupon redemption, return lifecycle and refund
// settlement.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CommerceMetrics holds the engine's Prometheus collectors.
type CommerceMetrics struct {
	ordersPlaced   prometheus.Counter
	ordersRejected *prometheus.CounterVec

	couponsApplied  prometheus.Counter
	couponsRejected *prometheus.CounterVec

	returnsRequested  prometheus.Counter
	returnTransitions *prometheus.CounterVec

	refundsProcessed prometheus.Counter
	refundsFailed    prometheus.Counter
	refundedAmount   prometheus.Counter
}

// NewCommerceMetrics registers the collectors on the default registry.
func NewCommerceMetrics() *CommerceMetrics {
	return NewCommerceMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCommerceMetricsWithRegisterer registers the collectors on the
// given registry; tests pass a private registry to keep runs isolated.
func NewCommerceMetricsWithRegisterer(registerer prometheus.Registerer) *CommerceMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CommerceMetrics{
		ordersPlaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "commerce_orders_placed_total",
			Help: "Total number of orders accepted at checkout",
		}),
		ordersRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "commerce_orders_rejected_total",
			Help: "Total number of checkouts rejected, by error code",
		}, []string{"code"}),
		couponsApplied: registerCounter(registerer, prometheus.CounterOpts{
			Name: "commerce_coupons_applied_total",
			Help: "Total number of coupons successfully applied to orders",
		}),
		couponsRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "commerce_coupons_rejected_total",
			Help: "Total number of coupon validations rejected, by error code",
		}, []string{"code"}),
		returnsRequested: registerCounter(registerer, prometheus.CounterOpts{
			Name: "commerce_returns_requested_total",
			Help: "Total number of return requests created",
		}),
		returnTransitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "commerce_return_transitions_total",
			Help: "Total number of return status transitions, by target status",
		}, []string{"status"}),
		refundsProcessed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "commerce_refunds_processed_total",
			Help: "Total number of refunds settled",
		}),
		refundsFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "commerce_refunds_failed_total",
			Help: "Total number of refund settlements that failed",
		}),
		refundedAmount: registerCounter(registerer, prometheus.CounterOpts{
			Name: "commerce_refunded_amount_dollars_total",
			Help: "Cumulative refunded amount in dollars",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderPlaced increments the accepted checkout counter.
func (m *CommerceMetrics) RecordOrderPlaced() {
	m.ordersPlaced.Inc()
}

// RecordOrderRejected increments the rejected checkout counter for the
// given error code.
func (m *CommerceMetrics) RecordOrderRejected(code string) {
	m.ordersRejected.WithLabelValues(code).Inc()
}

// RecordCouponApplied increments the successful redemption counter.
func (m *CommerceMetrics) RecordCouponApplied() {
	m.couponsApplied.Inc()
}

// RecordCouponRejected increments the rejected validation counter for
// the given error code.
func (m *CommerceMetrics) RecordCouponRejected(code string) {
	m.couponsRejected.WithLabelValues(code).Inc()
}

// RecordReturnRequested increments the created return counter.
func (m *CommerceMetrics) RecordReturnRequested() {
	m.returnsRequested.Inc()
}

// RecordReturnTransition increments the transition counter for the
// target status.
func (m *CommerceMetrics) RecordReturnTransition(status string) {
	m.returnTransitions.WithLabelValues(status).Inc()
}

// RecordRefundProcessed increments the settled refund counter and adds
// the settled amount.
func (m *CommerceMetrics) RecordRefundProcessed(amount float64) {
	m.refundsProcessed.Inc()
	m.refundedAmount.Add(amount)
}

// RecordRefundFailed increments the failed settlement counter.
func (m *CommerceMetrics) RecordRefundFailed() {
	m.refundsFailed.Inc()
}
