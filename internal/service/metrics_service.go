package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/tutor-billing/internal/models"
)

// MetricsSnapshot summarises counters for the status endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	RemoteCalls              uint64    `json:"remoteCalls"`
	RemoteFailures           uint64    `json:"remoteFailures"`
	SyncCycles               uint64    `json:"syncCycles"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer
// and the sync pipeline.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	remoteDuration   *prometheus.HistogramVec
	remoteFailures   *prometheus.CounterVec
	syncCycles       *prometheus.CounterVec
	conflicts        *prometheus.CounterVec
	tokenRefreshes   *prometheus.CounterVec
	mirrorWrites     *prometheus.CounterVec
	backupJobs       *prometheus.CounterVec
	pendingSaveGauge prometheus.Gauge

	requestCount         uint64
	requestDurationTotal uint64
	remoteCallCount      uint64
	remoteFailureCount   uint64
	syncCycleCount       uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	remoteDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "drive_call_duration_seconds",
		Help:    "Latency of remote file store calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	remoteFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drive_call_failures_total",
		Help: "Remote file store calls that ended in an error",
	}, []string{"op"})

	syncCycles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_cycles_total",
		Help: "Completed save cycles by outcome",
	}, []string{"outcome"})

	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_conflicts_total",
		Help: "Detected conflicts by resolution",
	}, []string{"choice"})

	tokenRefreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "credential_refreshes_total",
		Help: "Credential renewals by result",
	}, []string{"result"})

	mirrorWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mirror_writes_total",
		Help: "Local mirror writes by key",
	}, []string{"key"})

	backupJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backup_jobs_total",
		Help: "Visible backup jobs by result",
	}, []string{"result"})

	pendingSave := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sync_pending_save",
		Help: "1 while a debounced save is armed",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, remoteDuration, remoteFailures, syncCycles, conflicts, tokenRefreshes, mirrorWrites, backupJobs, pendingSave, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		remoteDuration:   remoteDuration,
		remoteFailures:   remoteFailures,
		syncCycles:       syncCycles,
		conflicts:        conflicts,
		tokenRefreshes:   tokenRefreshes,
		mirrorWrites:     mirrorWrites,
		backupJobs:       backupJobs,
		pendingSaveGauge: pendingSave,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveRemoteCall records the latency of one Drive operation.
func (m *MetricsService) ObserveRemoteCall(op string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.remoteDuration.WithLabelValues(op).Observe(duration.Seconds())
	atomic.AddUint64(&m.remoteCallCount, 1)
	if err != nil {
		m.remoteFailures.WithLabelValues(op).Inc()
		atomic.AddUint64(&m.remoteFailureCount, 1)
	}
}

// RecordSyncCycle counts a finished save cycle.
func (m *MetricsService) RecordSyncCycle(outcome models.SyncOutcome) {
	if m == nil {
		return
	}
	m.syncCycles.WithLabelValues(string(outcome)).Inc()
	atomic.AddUint64(&m.syncCycleCount, 1)
}

// RecordConflict counts a conflict by the chosen resolution.
func (m *MetricsService) RecordConflict(choice models.ConflictChoice) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(string(choice)).Inc()
}

// RecordTokenRefresh counts a credential renewal attempt.
func (m *MetricsService) RecordTokenRefresh(success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.tokenRefreshes.WithLabelValues(result).Inc()
}

// RecordMirrorWrite counts a write to the local mirror.
func (m *MetricsService) RecordMirrorWrite(key string) {
	if m == nil {
		return
	}
	if !models.IsMirrorKey(key) {
		key = "other"
	}
	m.mirrorWrites.WithLabelValues(key).Inc()
}

// RecordBackup counts a finished backup job.
func (m *MetricsService) RecordBackup(success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.backupJobs.WithLabelValues(result).Inc()
}

// SetPendingSave flags whether a debounced save is armed.
func (m *MetricsService) SetPendingSave(pending bool) {
	if m == nil {
		return
	}
	if pending {
		m.pendingSaveGauge.Set(1)
		return
	}
	m.pendingSaveGauge.Set(0)
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		RemoteCalls:              atomic.LoadUint64(&m.remoteCallCount),
		RemoteFailures:           atomic.LoadUint64(&m.remoteFailureCount),
		SyncCycles:               atomic.LoadUint64(&m.syncCycleCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
