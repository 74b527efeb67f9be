package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (O Outcome) String() string {
	return string(O)
}

// The collectors stay nil until Init runs; the Record helpers treat a nil
// collector as metrics being disabled, so one-shot commands and tests do not
// have to start a metrics server.
var (
	once                           sync.Once
	metricsRouter                  *chi.Mux
	chainClientLatency             *prometheus.HistogramVec
	relayClientLatency             *prometheus.HistogramVec
	queueSendErrorCounter          prometheus.Counter
	clientRequestDurationHistogram *prometheus.HistogramVec
	pollerDurationHistogram        *prometheus.HistogramVec
	sweepOutcomeCounter            *prometheus.CounterVec
	sweepCycleDuration             prometheus.Histogram
	activeSweepConfigsGauge        prometheus.Gauge
	dbLatency                      *prometheus.HistogramVec
)

// Init initializes the metrics package.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
		registerMetrics()
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	// Create a custom server with timeout settings
	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	// Start the server in a separate goroutine
	go func() {
		log.Printf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

// registerMetrics initializes and register the Prometheus metrics.
func registerMetrics() {
	defaultHistogramBucketsSeconds := []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}

	// client requests are the ones sending to other service
	clientRequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "client_request_duration_seconds",
			Help:    "Histogram of outgoing client request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"baseurl", "method", "path", "status"},
	)

	chainClientLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chain_client_latency_seconds",
			Help:    "Histogram of chain client durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"method", "status"},
	)

	relayClientLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_client_latency_seconds",
			Help:    "Histogram of relay client durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"method", "status"},
	)

	// add a counter for the number of errors from the fail to push message into queue
	queueSendErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_send_error_count",
			Help: "The total number of errors when sending messages to the queue",
		},
	)

	pollerDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poller_duration_seconds",
			Help:    "Histogram of poller durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"type", "status"},
	)

	sweepOutcomeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_outcome_count",
			Help: "Number of per-account sweep evaluations by terminal state",
		},
		[]string{"state"},
	)

	sweepCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sweep_cycle_duration_seconds",
			Help:    "Duration of full sweep cycles in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
	)

	activeSweepConfigsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sweep_configs_count",
			Help: "Number of enabled sweep configs seen in the last cycle",
		},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "db_latency_seconds",
			Help: "DB latency in seconds splitted by method and execution status",
		},
		[]string{"method", "status"},
	)

	prometheus.MustRegister(
		chainClientLatency,
		relayClientLatency,
		queueSendErrorCounter,
		clientRequestDurationHistogram,
		pollerDurationHistogram,
		sweepOutcomeCounter,
		sweepCycleDuration,
		activeSweepConfigsGauge,
		dbLatency,
	)
}

func RecordChainClientLatency(d time.Duration, method string, failure bool) {
	if chainClientLatency == nil {
		return
	}

	status := Success
	if failure {
		status = Error
	}

	chainClientLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}

func RecordRelayClientLatency(d time.Duration, method string, failure bool) {
	if relayClientLatency == nil {
		return
	}

	status := Success
	if failure {
		status = Error
	}

	relayClientLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}

func RecordDbLatency(d time.Duration, method string, failure bool) {
	if dbLatency == nil {
		return
	}

	status := Success
	if failure {
		status = Error
	}

	dbLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}

func RecordSweepOutcome(state string) {
	if sweepOutcomeCounter == nil {
		return
	}

	sweepOutcomeCounter.WithLabelValues(state).Inc()
}

func RecordSweepCycleDuration(d time.Duration) {
	if sweepCycleDuration == nil {
		return
	}

	sweepCycleDuration.Observe(d.Seconds())
}

func RecordActiveSweepConfigsCount(count int) {
	if activeSweepConfigsGauge == nil {
		return
	}

	activeSweepConfigsGauge.Set(float64(count))
}

// StartClientRequestDurationTimer starts a timer to measure outgoing client request duration.
func StartClientRequestDurationTimer(baseUrl, method, path string) func(statusCode int) {
	startTime := time.Now()
	return func(statusCode int) {
		if clientRequestDurationHistogram == nil {
			return
		}

		duration := time.Since(startTime).Seconds()
		clientRequestDurationHistogram.WithLabelValues(
			baseUrl,
			method,
			path,
			fmt.Sprintf("%d", statusCode),
		).Observe(duration)
	}
}

func RecordQueueSendError() {
	if queueSendErrorCounter == nil {
		return
	}

	queueSendErrorCounter.Inc()
}
