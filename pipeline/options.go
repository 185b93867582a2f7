// Package pipeline trains the diagnosis classifier and persists it.
//
// Train runs the offline steps: fit a StandardScaler on the full feature
// matrix, split the scaled rows with a fixed seed, fit logistic regression on
// the training part and report metrics on the held-out part. ArtifactStore
// writes the fitted pair to disk for the inference service.
package pipeline

import (
	"github.com/YuminosukeSato/bcpredict/pkg/errors"
)

// Options controls a training run.
type Options struct {
	TestSize float64 `yaml:"test_size"`
	Seed     int64   `yaml:"seed"`
	Stratify bool    `yaml:"stratify"`

	// Logistic regression hyperparameters
	C       float64 `yaml:"c"`
	MaxIter int     `yaml:"max_iter"`
	Tol     float64 `yaml:"tol"`
	Solver  string  `yaml:"solver"`
}

// DefaultOptions returns the settings of the reference training run.
func DefaultOptions() Options {
	return Options{
		TestSize: 0.2,
		Seed:     42,
		Stratify: false,
		C:        1.0,
		MaxIter:  1000,
		Tol:      1e-4,
		Solver:   "lbfgs",
	}
}

// Validate checks that the options describe a runnable training job.
func (o Options) Validate() error {
	if !(o.TestSize > 0 && o.TestSize < 1) {
		return errors.NewValidationError("test_size", "must be in (0, 1)", o.TestSize)
	}
	if !(o.C > 0) {
		return errors.NewValidationError("c", "must be positive", o.C)
	}
	if o.MaxIter <= 0 {
		return errors.NewValidationError("max_iter", "must be positive", o.MaxIter)
	}
	if !(o.Tol > 0) {
		return errors.NewValidationError("tol", "must be positive", o.Tol)
	}
	switch o.Solver {
	case "lbfgs", "gd":
	default:
		return errors.NewValidationError("solver", "must be \"lbfgs\" or \"gd\"", o.Solver)
	}
	return nil
}
