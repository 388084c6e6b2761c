// Package log defines standard attribute keys for preprocessing operations.
//
// This file contains predefined attribute keys that provide consistency across
// all logging operations in AdaptGo. Using these standard keys enables better
// log analysis, monitoring, and debugging of feature preprocessing workflows.
//
// The attributes are organized into categories:
//   - Transform and Operation Context
//   - Data Shape and Characteristics
//   - Learned State Characteristics
//   - Performance Metrics
//   - Error Context
//
// These keys follow a hierarchical naming convention (e.g., "transform.name",
// "data.samples") to enable structured log analysis and filtering.

package log

// Transform and Operation Context
// These attributes identify the transform type, instance, and operation being performed.
const (
	// TransformNameKey identifies the type of preprocessing transform.
	// Examples: "Normalization", "StringLookup", "TextVectorizer"
	TransformNameKey = "transform.name"

	// TransformIDKey provides a unique identifier for a specific transform instance.
	// This is useful for tracking multiple instances of the same transform type.
	// Examples: "norm-001", "lookup-abc123", ULID strings
	TransformIDKey = "transform.id"

	// OperationKey specifies the preprocessing operation being performed.
	// Standard values: "adapt", "transform", "adapt_transform", "inverse_transform"
	OperationKey = "prep.operation"

	// ComponentKey identifies which component or package is performing the operation.
	// Examples: "preprocessing", "stats", "vocab", "encode"
	ComponentKey = "prep.component"

	// PhaseKey indicates the phase of the transform lifecycle.
	// Examples: "adapt", "finalize", "transform", "tokenize"
	PhaseKey = "prep.phase"
)

// Data Shape and Characteristics
// These attributes describe the structure and properties of data being processed.
const (
	// SamplesKey indicates the number of samples (rows) in the batch.
	// This is crucial for understanding the scale of data being processed.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the batch.
	// Important for dimensionality tracking and debugging shape mismatches.
	FeaturesKey = "data.features"

	// BatchKindKey specifies the value kind of the batch being processed.
	// Examples: "floats", "strings", "ints", "index_rows"
	BatchKindKey = "data.kind"

	// TokensKey indicates the number of tokens processed during text operations.
	// Useful for throughput monitoring of tokenization and vocabulary building.
	TokensKey = "data.tokens"

	// ChunksKey indicates how many streaming chunks have been accumulated.
	// Relevant for incremental adapt scenarios.
	ChunksKey = "data.chunks"

	// BatchSizeKey indicates the size of processing batches.
	// Relevant for streaming or chunked adapt scenarios.
	BatchSizeKey = "data.batch_size"
)

// Learned State Characteristics
// These attributes describe the outcome of an adapt pass.
const (
	// VocabSizeKey records the total vocabulary size including reserved slots.
	// Important for capacity planning and OOV analysis.
	VocabSizeKey = "state.vocab_size"

	// BucketsKey records the number of quantile buckets or hash bins in use.
	BucketsKey = "state.buckets"

	// OOVRateKey records the fraction of lookups that mapped to the OOV slot.
	// Range [0.0, 1.0]; a high rate suggests the vocabulary is too small.
	OOVRateKey = "state.oov_rate"

	// StateIDKey identifies a persisted state snapshot.
	StateIDKey = "state.id"
)

// Performance Metrics
// These attributes capture timing and resource usage information.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	// This is essential for performance monitoring and optimization.
	DurationMsKey = "perf.duration_ms"

	// DurationSecondsKey records the execution time in seconds for longer operations.
	// Useful for adapt passes over large corpora.
	DurationSecondsKey = "perf.duration_seconds"

	// MemoryUsageKey records memory usage in bytes during the operation.
	// Important for memory optimization and resource planning.
	MemoryUsageKey = "perf.memory_bytes"
)

// Error and Warning Context
// These attributes provide additional context for error and warning messages.
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	// Examples: "DIMENSION_MISMATCH", "NOT_ADAPTED", "NUMERICAL_INSTABILITY"
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	// Examples: "ValidationError", "NotAdaptedError", "BatchKindError"
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	// Automatically populated by the error logging functions.
	StacktraceKey = "error.stacktrace"

	// SuggestionKey provides helpful suggestions for resolving issues.
	// Examples: "Check input batch shape", "Call Adapt() before Transform()"
	SuggestionKey = "error.suggestion"
)

// Configuration
// These attributes capture transform configuration for reproducibility.
const (
	// ConfigKey contains transform configuration as a structured object.
	// Useful for tracking parameters and reproducibility.
	ConfigKey = "transform.config"

	// SaltKey records the hashing salt in use.
	// Essential for reproducing hashed feature assignments.
	SaltKey = "config.salt"

	// ConfigVersionKey tracks configuration or pipeline version.
	// Useful for A/B testing and state versioning.
	ConfigVersionKey = "config.version"
)

// Standard attribute value constants for common operations.
// Using these constants ensures consistency across the codebase.
const (
	// Standard preprocessing operations
	OperationAdapt            = "adapt"
	OperationTransform        = "transform"
	OperationAdaptTransform   = "adapt_transform"
	OperationInverseTransform = "inverse_transform"
	OperationFinalize         = "finalize"
	OperationSnapshot         = "snapshot"

	// Standard preprocessing phases
	PhaseAdapt     = "adapt"
	PhaseFinalize  = "finalize"
	PhaseTransform = "transform"
	PhaseTokenize  = "tokenize"

	// Standard error codes
	ErrorNotAdapted        = "NOT_ADAPTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorBatchKindMismatch = "BATCH_KIND_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorNumerical         = "NUMERICAL_INSTABILITY"
)
