package metrics

import (
	"membership-platform/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		entitlementsExpiredTotal,
		entitlementsTotal,
		countersReconciledTotal,
	)
}

var (
	entitlementsExpiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlements_expired_total",
			Help: "Total rows flipped to expired by the sweep, per entitlement kind.",
		},
		[]string{"kind"}, // 'membership', 'subscription'
	)

	entitlementsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "entitlements_total",
			Help: "Current number of entitlements by kind and stored status.",
		},
		[]string{"kind", "status"},
	)

	countersReconciledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "purchase_counters_reconciled_total",
			Help: "Catalog purchase counters repaired by the reconciler.",
		},
	)
)

func IncEntitlementsExpired(kind string, count int64) {
	entitlementsExpiredTotal.WithLabelValues(norm(kind)).Add(float64(count))
}

func SetEntitlementsTotal(kind string, counts map[model.EntitlementStatus]int) {
	for status, count := range counts {
		entitlementsTotal.WithLabelValues(norm(kind), string(status)).Set(float64(count))
	}
}

func AddCountersReconciled(count int) {
	countersReconciledTotal.Add(float64(count))
}
