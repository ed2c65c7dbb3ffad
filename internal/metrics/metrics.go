package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfplatypus",
			Name:      "operations_total",
			Help:      "Total document operations by operation and result",
		},
		[]string{"op", "result"},
	)

	operationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfplatypus",
			Name:      "operation_duration_seconds",
			Help:      "Duration of document operations by operation",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	batchItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfplatypus",
			Name:      "batch_items_total",
			Help:      "Files processed by batch runs, by result (success, failed)",
		},
		[]string{"result"},
	)

	sessionFiles = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pdfplatypus",
			Name:      "session_files",
			Help:      "Files held by the session, by collection (input, output)",
		},
		[]string{"collection"},
	)

	uploadsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfplatypus",
			Name:      "uploads_rejected_total",
			Help:      "Uploads skipped by reason",
		},
		[]string{"reason"},
	)

	bytesSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdfplatypus",
			Name:      "compression_bytes_saved_total",
			Help:      "Bytes saved by compression (growth is not subtracted)",
		},
	)

	autosaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfplatypus",
			Name:      "metadata_autosaves_total",
			Help:      "Debounced metadata saves by trigger (timer, flush)",
		},
		[]string{"trigger"},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(operations, operationLatency, batchItems, sessionFiles, uploadsRejected, bytesSaved, autosaves)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveOperation(op string, err error, dur time.Duration) {
	result := "success"
	if err != nil {
		result = "error"
	}
	operations.WithLabelValues(op, result).Inc()
	operationLatency.WithLabelValues(op).Observe(dur.Seconds())
}

func IncBatchItem(ok bool) {
	if ok {
		batchItems.WithLabelValues("success").Inc()
		return
	}
	batchItems.WithLabelValues("failed").Inc()
}

func SetSessionFiles(input, output int) {
	sessionFiles.WithLabelValues("input").Set(float64(input))
	sessionFiles.WithLabelValues("output").Set(float64(output))
}

func IncUploadRejected(reason string) { uploadsRejected.WithLabelValues(reason).Inc() }

func AddBytesSaved(before, after int) {
	if before > after {
		bytesSaved.Add(float64(before - after))
	}
}

func IncAutosave(trigger string) { autosaves.WithLabelValues(trigger).Inc() }
