package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobalert_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	FetchesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobalert_source_fetches_total",
			Help: "Total number of source page fetches by outcome.",
		},
		[]string{"source", "outcome"},
	)
	ExtractedJobsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobalert_jobs_extracted_total",
			Help: "Total number of job entries extracted from source pages.",
		},
		[]string{"source"},
	)
	StoredJobsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobalert_jobs_stored_total",
			Help: "Total number of new jobs persisted.",
		},
	)
	DuplicateJobsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobalert_jobs_duplicate_total",
			Help: "Total number of jobs skipped as already seen.",
		},
	)
	NotificationsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobalert_notifications_total",
			Help: "Total number of notifications by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jobalert_run_duration_seconds",
			Help:    "Duration of each pipeline run in seconds.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
	)
)

func init() {
	prometheus.MustRegister(
		ErrorsCounter,
		FetchesCounter,
		ExtractedJobsCounter,
		StoredJobsCounter,
		DuplicateJobsCounter,
		NotificationsCounter,
		RunDuration,
	)
}

func StartMetricsServer(address string) *http.Server {

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: address, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithField("error_type", "metrics").Errorf("metrics server stopped: %v", err)
		}
	}()

	return server
}
