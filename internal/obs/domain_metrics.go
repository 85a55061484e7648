package obs

import "github.com/prometheus/client_golang/prometheus"

// DomainMetrics counts storefront business events.
type DomainMetrics struct {
	CartMutations       *prometheus.CounterVec
	CheckoutTransitions *prometheus.CounterVec
	OrdersPlaced        prometheus.Counter
	OrderValue          prometheus.Histogram
}

// NewDomainMetrics registers storefront counters on the given registerer.
func NewDomainMetrics(namespace string, reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &DomainMetrics{
		CartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart mutations by operation (add, update_qty, remove, clear).",
		}, []string{"op"}),
		CheckoutTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_transitions_total",
			Help:      "Checkout step transitions by target step.",
		}, []string{"step"}),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders confirmed through checkout.",
		}),
		OrderValue: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_value",
			Help:      "Order grand total in minor currency units.",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 8),
		}),
	}
	for _, c := range []prometheus.Collector{m.CartMutations, m.CheckoutTransitions, m.OrdersPlaced, m.OrderValue} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
	return m
}
