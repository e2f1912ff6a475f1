// Package metrics exposes Prometheus collectors for sky map rendering and
// animation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skymap_renders_total",
			Help: "Total number of sky map render passes.",
		},
		[]string{"result"},
	)

	RenderDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "skymap_render_duration_seconds",
			Help:    "Render pass duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
	)

	ObjectsDrawn = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "skymap_objects_drawn",
			Help: "Objects drawn in the most recent render pass.",
		},
		[]string{"layer"},
	)

	TweensStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skymap_tweens_started_total",
			Help: "Total number of animations started.",
		},
		[]string{"kind"},
	)

	TweensCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skymap_tweens_cancelled_total",
			Help: "Total number of animations cancelled before completion.",
		},
		[]string{"kind"},
	)

	EphemerisRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skymap_ephemeris_requests_total",
			Help: "Ephemeris lookups by provider and cache outcome.",
		},
		[]string{"provider", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(RendersTotal)
	prometheus.MustRegister(RenderDurationSeconds)
	prometheus.MustRegister(ObjectsDrawn)
	prometheus.MustRegister(TweensStarted)
	prometheus.MustRegister(TweensCancelled)
	prometheus.MustRegister(EphemerisRequests)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRender records one render pass.
func ObserveRender(start time.Time, err error, drawn map[string]int) {
	RenderDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		RendersTotal.WithLabelValues("error").Inc()
		return
	}
	RendersTotal.WithLabelValues("ok").Inc()
	for layer, n := range drawn {
		ObjectsDrawn.WithLabelValues(layer).Set(float64(n))
	}
}

// Serve exposes /metrics on addr until the server fails.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
