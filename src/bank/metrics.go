package bank

import "github.com/prometheus/client_golang/prometheus"

// Metrics collects sync engine counters. A nil *Metrics is valid and records
// nothing, so tests can construct components without a registry.
type Metrics struct {
	syncs                *prometheus.CounterVec
	transactionsInserted prometheus.Counter
	upstreamRequests     *prometheus.CounterVec
	tokenRefreshes       *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		syncs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "account_syncs_total",
				Help:      "Total account sync runs by result classification",
			},
			[]string{"result"},
		),
		transactionsInserted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_inserted_total",
				Help:      "Total transactions inserted by reconciliation",
			},
		),
		upstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Upstream bank API requests by api type, endpoint and outcome",
			},
			[]string{"api_type", "endpoint", "outcome"},
		),
		tokenRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_refreshes_total",
				Help:      "Token refresh attempts by result",
			},
			[]string{"result"},
		),
	}
}

// Register registers all collectors with the given registry.
func (m *Metrics) Register(registry *prometheus.Registry) error {
	if m == nil {
		return nil
	}
	collectors := []prometheus.Collector{
		m.syncs,
		m.transactionsInserted,
		m.upstreamRequests,
		m.tokenRefreshes,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) SyncCompleted(result string) {
	if m == nil {
		return
	}
	m.syncs.WithLabelValues(result).Inc()
}

func (m *Metrics) TransactionsInserted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.transactionsInserted.Add(float64(n))
}

func (m *Metrics) UpstreamRequest(apiType, endpoint, outcome string) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(apiType, endpoint, outcome).Inc()
}

func (m *Metrics) TokenRefresh(result string) {
	if m == nil {
		return
	}
	m.tokenRefreshes.WithLabelValues(result).Inc()
}
