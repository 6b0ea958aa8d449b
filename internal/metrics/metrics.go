package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Resolutions     *prometheus.CounterVec
	GeocoderErrors  prometheus.Counter
	GeocoderSeconds *prometheus.HistogramVec
	StoreErrors     *prometheus.CounterVec
	StoreSeconds    *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Resolutions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "boundary_resolutions_total",
			Help: "Total number of location resolutions, by outcome.",
		}, []string{"outcome"}),
		GeocoderErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "boundary_geocoder_errors_total",
			Help: "Total number of errors received from the geocoding provider API.",
		}),
		GeocoderSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "boundary_geocoder_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		StoreErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "boundary_store_errors_total",
			Help: "Total number of failures absorbed at the boundary store adapter.",
		}, []string{"backend"}),
		StoreSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "boundary_store_request_duration_seconds",
			Help:    "Duration of boundary store lookups.",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend", "operation"}),
	}
}
