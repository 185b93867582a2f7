// Package log defines standard attribute keys for bcpredict operations.
//
// Using these keys keeps training, inference and HTTP logs consistent so that
// the same filters work across the train and serve commands. Keys follow a
// hierarchical naming convention (e.g. "model.name", "data.samples").

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model.
	// Examples: "LogisticRegression", "StandardScaler"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score", "load", "save"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component is performing the operation.
	// Examples: "dataset", "pipeline", "inference", "server"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) being processed.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns).
	FeaturesKey = "data.features"

	// SourceKey names where data was read from (a file path).
	SourceKey = "data.source"

	// BaseRateKey is the fraction of malignant samples in a dataset.
	BaseRateKey = "data.base_rate"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// LossKey records the loss value during training or evaluation.
	LossKey = "metrics.loss"

	// AUCKey records the area under the ROC curve.
	AUCKey = "metrics.auc"

	// IterationKey records the number of optimizer iterations.
	IterationKey = "training.iteration"
)

// Prediction and Output Context
const (
	// ConfidenceKey records the predicted probability of the positive class.
	ConfidenceKey = "preds.confidence"

	// LabelKey records the predicted label.
	LabelKey = "preds.label"
)

// Error Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// StacktraceKey contains stack trace information for debugging.
	// Populated from cockroachdb/errors safe details by the zerolog backend.
	StacktraceKey = "error.stacktrace"

	// SuggestionKey provides a hint for resolving the issue.
	SuggestionKey = "error.suggestion"
)

// Hyperparameters and Configuration
const (
	RegularizationKey = "hyperparams.regularization"
	RandomSeedKey     = "config.random_seed"
	TestSizeKey       = "config.test_size"
)

// Artifacts and HTTP
const (
	// ArtifactKey names a persisted model artifact.
	ArtifactKey = "artifact.path"

	RequestIDKey  = "http.request_id"
	MethodKey     = "http.method"
	PathKey       = "http.path"
	StatusKey     = "http.status"
	RemoteAddrKey = "http.remote_addr"
)

// Standard attribute value constants.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"
	OperationLoad      = "load"
	OperationSave      = "save"

	PhaseTraining      = "training"
	PhaseTesting       = "testing"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorDataUnavailable   = "DATA_UNAVAILABLE"
	ErrorModelLoad         = "MODEL_LOAD"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
)
