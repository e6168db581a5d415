package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

var (
	CatalogQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "queries_total",
		Help:      "Catalog queries served, by sort mode.",
	}, []string{"sort"})

	QueryCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "query_cache_total",
		Help:      "Memoized query lookups, by result (hit or miss).",
	}, []string{"result"})

	QueryResultSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "query_result_size",
		Help:      "Number of products returned by a catalog query.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 11),
	})

	CatalogProducts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "products",
		Help:      "Products in the loaded catalog snapshot.",
	})

	CartOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cart",
		Name:      "operations_total",
		Help:      "Cart operations, by operation and result.",
	}, []string{"op", "result"})

	PromoRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cart",
		Name:      "promo_rejections_total",
		Help:      "Promo codes rejected as unknown or disabled.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
