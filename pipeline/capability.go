package pipeline

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/bcpredict/dataset"
	"github.com/YuminosukeSato/bcpredict/pkg/errors"
	"github.com/YuminosukeSato/bcpredict/pkg/log"
	"github.com/YuminosukeSato/bcpredict/preprocessing"
)

// Classifier is what inference needs from a fitted model: class
// probabilities in the order of Classes().
type Classifier interface {
	PredictProba(X mat.Matrix) (mat.Matrix, error)
	Classes() []int
}

// State is a fitted scaler and classifier pair. It is read-only once built.
type State struct {
	Classifier Classifier
	Scaler     *preprocessing.StandardScaler
}

// Prediction is the diagnosis for one record.
type Prediction struct {
	Label                dataset.Label `json:"label"`
	ProbabilityBenign    float64       `json:"probability_benign"`
	ProbabilityMalignant float64       `json:"probability_malignant"`
}

// Predict scales rec with the stored statistics and classifies it. The
// label is malignant iff its probability is strictly greater than 0.5.
func (s *State) Predict(rec dataset.FeatureRecord) (Prediction, error) {
	if s == nil || s.Classifier == nil || s.Scaler == nil {
		return Prediction{}, errors.NewNotFittedError("pipeline.State", "Predict")
	}
	if err := rec.Validate(); err != nil {
		return Prediction{}, err
	}

	scaled, err := s.Scaler.TransformVector(rec.Slice())
	if err != nil {
		return Prediction{}, err
	}
	proba, err := s.Classifier.PredictProba(mat.NewDense(1, len(scaled), scaled))
	if err != nil {
		return Prediction{}, err
	}

	col := -1
	for i, c := range s.Classifier.Classes() {
		if c == int(dataset.Malignant) {
			col = i
		}
	}
	if col < 0 {
		return Prediction{}, errors.NewValueError("pipeline.State.Predict", "classifier has no malignant class")
	}

	pm := proba.At(0, col)
	if err := errors.CheckScalar("pipeline.State.Predict", pm, 0); err != nil {
		return Prediction{}, err
	}
	p := Prediction{
		Label:                dataset.Benign,
		ProbabilityMalignant: pm,
		ProbabilityBenign:    1 - pm,
	}
	if pm > 0.5 {
		p.Label = dataset.Malignant
	}
	return p, nil
}

// Capability is a trainable diagnosis model. Alternatives to the logistic
// pipeline implement it without changes to the inference service.
type Capability interface {
	Fit(ds *dataset.Dataset) (*State, error)
	Apply(rec dataset.FeatureRecord, state *State) (Prediction, error)
}

// Logistic is the default Capability: StandardScaler plus logistic
// regression trained by Train.
type Logistic struct {
	Options Options
	Logger  log.Logger

	// Last holds the result of the most recent Fit.
	Last *Result
}

// NewLogistic returns the logistic capability with DefaultOptions.
func NewLogistic(logger log.Logger) *Logistic {
	return &Logistic{Options: DefaultOptions(), Logger: logger}
}

// Fit implements Capability.
func (l *Logistic) Fit(ds *dataset.Dataset) (*State, error) {
	res, err := Train(ds, l.Options, l.Logger)
	if err != nil {
		return nil, err
	}
	l.Last = res
	return res.State(), nil
}

// Apply implements Capability.
func (l *Logistic) Apply(rec dataset.FeatureRecord, state *State) (Prediction, error) {
	return state.Predict(rec)
}

var _ Capability = (*Logistic)(nil)
