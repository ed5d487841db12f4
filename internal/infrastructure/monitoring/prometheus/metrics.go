package prometheus

import "context"

// AppMetrics holds every metric the service exposes.  Each vector here
// has a call site: the HTTP middleware, the extraction and pipeline
// adapters below, or the worker's job handler.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Extraction pipeline
	CitationsExtractedTotal CounterVec
	DocumentsProcessedTotal CounterVec
	DocumentLengthBytes     HistogramVec
	PipelineDuration        HistogramVec
	ParallelGroupsTotal     CounterVec

	// Verification
	VerificationTotal       CounterVec
	VerificationDuration    HistogramVec
	VerificationCacheHits   CounterVec
	VerificationCacheMisses CounterVec

	// Worker
	JobsTotal   CounterVec
	JobDuration HistogramVec
}

// Default buckets.
var (
	DefaultHTTPDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultPipelineDurationBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 15, 60}
	DefaultDocumentSizeBuckets     = []float64{1000, 10000, 50000, 100000, 500000, 1000000, 2000000}
)

// NewAppMetrics registers all metrics on the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method", "path")

	// Extraction
	m.CitationsExtractedTotal = collector.RegisterCounter("citations_extracted_total", "Citations extracted, by strategy", "method")
	m.DocumentsProcessedTotal = collector.RegisterCounter("documents_processed_total", "Documents run through the pipeline", "status")
	m.DocumentLengthBytes = collector.RegisterHistogram("document_length_bytes", "Length of analyzed documents", DefaultDocumentSizeBuckets)
	m.PipelineDuration = collector.RegisterHistogram("pipeline_duration_seconds", "Pipeline stage duration", DefaultPipelineDurationBuckets, "stage")
	m.ParallelGroupsTotal = collector.RegisterCounter("parallel_groups_total", "Parallel citation clusters formed")

	// Verification
	m.VerificationTotal = collector.RegisterCounter("verification_total", "Verification lookups, by outcome", "outcome")
	m.VerificationDuration = collector.RegisterHistogram("verification_duration_seconds", "External lookup duration", DefaultHTTPDurationBuckets)
	m.VerificationCacheHits = collector.RegisterCounter("verification_cache_hits_total", "Verification cache hits")
	m.VerificationCacheMisses = collector.RegisterCounter("verification_cache_misses_total", "Verification cache misses")

	// Worker
	m.JobsTotal = collector.RegisterCounter("jobs_total", "Background verification jobs", "status")
	m.JobDuration = collector.RegisterHistogram("job_duration_seconds", "Background job duration", DefaultPipelineDurationBuckets)

	return m
}

// ExtractionAdapter exposes AppMetrics through the extraction pipeline's
// narrow metrics interface.
type ExtractionAdapter struct {
	metrics *AppMetrics
}

func NewExtractionAdapter(m *AppMetrics) *ExtractionAdapter {
	return &ExtractionAdapter{metrics: m}
}

func (a *ExtractionAdapter) RecordExtraction(_ context.Context, method string, count int) {
	if a == nil || a.metrics == nil || count <= 0 {
		return
	}
	a.metrics.CitationsExtractedTotal.WithLabelValues(method).Add(float64(count))
}

func (a *ExtractionAdapter) RecordDuration(_ context.Context, stage string, seconds float64) {
	if a == nil || a.metrics == nil {
		return
	}
	a.metrics.PipelineDuration.WithLabelValues(stage).Observe(seconds)
}

// PipelineAdapter exposes AppMetrics through the analysis layer's
// pipeline-metrics interface.
type PipelineAdapter struct {
	metrics *AppMetrics
}

func NewPipelineAdapter(m *AppMetrics) *PipelineAdapter {
	return &PipelineAdapter{metrics: m}
}

func (a *PipelineAdapter) RecordDocument(status string, textLength int) {
	if a == nil || a.metrics == nil {
		return
	}
	a.metrics.DocumentsProcessedTotal.WithLabelValues(status).Inc()
	if textLength > 0 {
		a.metrics.DocumentLengthBytes.WithLabelValues().Observe(float64(textLength))
	}
}

func (a *PipelineAdapter) RecordParallelGroups(count int) {
	if a == nil || a.metrics == nil || count <= 0 {
		return
	}
	a.metrics.ParallelGroupsTotal.WithLabelValues().Add(float64(count))
}

func (a *PipelineAdapter) RecordLookup(outcome string, seconds float64) {
	if a == nil || a.metrics == nil {
		return
	}
	a.metrics.VerificationTotal.WithLabelValues(outcome).Inc()
	if seconds > 0 {
		a.metrics.VerificationDuration.WithLabelValues().Observe(seconds)
	}
}

func (a *PipelineAdapter) RecordCacheLookup(hit bool) {
	if a == nil || a.metrics == nil {
		return
	}
	if hit {
		a.metrics.VerificationCacheHits.WithLabelValues().Inc()
	} else {
		a.metrics.VerificationCacheMisses.WithLabelValues().Inc()
	}
}
