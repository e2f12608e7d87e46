package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FramesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "censor_frames_total",
		Help: "Total number of processed frames (still images count as one frame)",
	})
	PartsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "censor_parts_total",
		Help: "Total number of rendered parts by state",
	}, []string{"state"})
	ComparisonsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "censor_resolve_comparisons_total",
		Help: "Total number of pairwise conflict resolver comparisons",
	})
	TracksEvictedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "censor_tracks_evicted_total",
		Help: "Total number of tracked entries evicted after the hold limit",
	})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "censor_cache_hits_total",
		Help: "Total detection cache hits",
	}, []string{"detector"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "censor_cache_misses_total",
		Help: "Total detection cache misses",
	}, []string{"detector"})
	DetectorFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "censor_detector_fail_total",
		Help: "Total detector failures",
	}, []string{"detector"})
	FrameDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "censor_frame_duration_ms",
		Help:    "Frame processing duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
)

func init() {
	prometheus.MustRegister(FramesTotal)
	prometheus.MustRegister(PartsTotal)
	prometheus.MustRegister(ComparisonsTotal)
	prometheus.MustRegister(TracksEvictedTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(DetectorFailTotal)
	prometheus.MustRegister(FrameDurationMs)
}

// Handler exposes registered metrics for Prometheus scraping
func Handler() http.Handler { return promhttp.Handler() }
