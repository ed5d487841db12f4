package analysis

// PipelineMetrics records document-level and verification telemetry.  The
// interface is deliberately narrow so the application layer never imports
// a metrics backend; see the prometheus package for the production
// implementation.  All call sites tolerate a nil value.
type PipelineMetrics interface {
	// RecordDocument counts one pipeline run by terminal status and
	// observes the analyzed text length.
	RecordDocument(status string, textLength int)
	// RecordParallelGroups counts parallel-citation clusters formed.
	RecordParallelGroups(count int)
	// RecordLookup counts one verification lookup by outcome.  seconds is
	// zero for short-circuited lookups that never left the process.
	RecordLookup(outcome string, seconds float64)
	// RecordCacheLookup counts a verification cache hit or miss.
	RecordCacheLookup(hit bool)
}
