package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filevault_uploads_total",
		Help: "Count of file uploads by plan and result",
	}, []string{"plan", "result"})

	quotaRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filevault_quota_rejections_total",
		Help: "Count of operations rejected by a hard plan cap",
	}, []string{"plan", "resource"})

	chargeRecomputesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filevault_charge_recomputes_total",
		Help: "Count of billing charge recomputations by plan",
	}, []string{"plan"})

	cascadeStepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filevault_cascade_steps_total",
		Help: "Count of user-deletion cascade steps by step and result",
	}, []string{"step", "result"})
)

// ObserveUpload records an upload attempt.
func ObserveUpload(plan, result string) {
	uploadsTotal.WithLabelValues(plan, result).Inc()
}

// ObserveQuotaRejection records a hard-cap rejection.
func ObserveQuotaRejection(plan, resource string) {
	quotaRejectionsTotal.WithLabelValues(plan, resource).Inc()
}

// ObserveChargeRecompute records a charge recomputation.
func ObserveChargeRecompute(plan string) {
	chargeRecomputesTotal.WithLabelValues(plan).Inc()
}

// ObserveCascadeStep records one step of the user-deletion cascade.
func ObserveCascadeStep(step, result string) {
	cascadeStepsTotal.WithLabelValues(step, result).Inc()
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
