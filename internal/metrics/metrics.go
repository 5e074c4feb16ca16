package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var ocrPagesProcessed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ocr_pages_processed_total",
	Help: "Pages successfully extracted across all OCR batches",
})

var ocrPagesSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ocr_pages_skipped_total",
	Help: "Pages skipped due to batch failures or quota exhaustion",
})

var ocrBatchFallbacks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ocr_batch_fallbacks_total",
	Help: "Batches that degraded to per-image OCR after a parse failure",
})

var cardsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cards_generated_total",
	Help: "Cards produced, labelled by processing type",
}, []string{"processing_type"})

var countJobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "count_jobs_in_queue",
	Help: "Number of jobs in queue",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active workers",
})

var llmCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "llm_call_duration_seconds",
	Help:    "Latency of LLM calls, labelled by operation.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60},
}, []string{"operation"})

var jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "job_duration_seconds",
	Help:    "Total time spent processing a job.",
	Buckets: []float64{.5, 1, 2, 5, 10, 30, 60, 120},
}, []string{"status"})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func AddPagesProcessed(n int) {
	ocrPagesProcessed.Add(float64(n))
}

func AddPagesSkipped(n int) {
	ocrPagesSkipped.Add(float64(n))
}

func IncrementBatchFallbacks() {
	ocrBatchFallbacks.Inc()
}

func AddCardsGenerated(processingType string, n int) {
	cardsGenerated.WithLabelValues(processingType).Add(float64(n))
}

func IncrementJobsInQueue() {
	countJobsInQueue.Inc()
}

func DecrementJobsInQueue() {
	countJobsInQueue.Dec()
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}

func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

func ObserveLLMCall(operation string, elapsed time.Duration) {
	llmCallDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func ObserveJob(status string, elapsed time.Duration) {
	jobDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}
