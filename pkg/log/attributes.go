// Package log defines standard attribute keys for preprocessing operations.
//
// Keys follow a hierarchical naming convention (e.g. "ml.operation",
// "var.name") so log analysis can filter on them consistently.

package log

// Component and operation context.
const (
	// ComponentKey identifies which component is logging.
	// Examples: "preprocessing.Cap", "tactic", "selection"
	ComponentKey = "ml.component"

	// EstimatorIDKey uniquely identifies a component instance (UUID).
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "apply", "check_config"
	OperationKey = "ml.operation"

	// StageKey is the name of the pipeline stage inside a tactic.
	StageKey = "pipeline.stage"

	// GenerationKey is the generation of the reference table produced by a stage.
	GenerationKey = "reference.generation"
)

// Data shape.
const (
	// SamplesKey indicates the number of rows in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of columns in the dataset.
	FeaturesKey = "data.features"

	// VariablesKey is the number of variables a component processes.
	VariablesKey = "data.variables"

	// VariableKey names the variable being processed.
	VariableKey = "var.name"

	// ColumnKey names the physical column a variable currently lives in.
	ColumnKey = "var.column"
)

// Performance.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error context.
const (
	// ErrorCountKey is the number of errors found by a validation pass.
	ErrorCountKey = "error.count"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"
)

// Standard attribute values.
const (
	OperationFit         = "fit"
	OperationApply       = "apply"
	OperationCheckConfig = "check_config"
	OperationFilter      = "filter"
)
