package pipeline

import (
	"io"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/bcpredict/core/model"
	"github.com/YuminosukeSato/bcpredict/dataset"
	"github.com/YuminosukeSato/bcpredict/pkg/errors"
	"github.com/YuminosukeSato/bcpredict/preprocessing"
	"github.com/YuminosukeSato/bcpredict/sklearn/linear_model"
)

// Artifact file names inside an ArtifactStore directory.
const (
	ClassifierFile = "classifier.gob"
	ScalerFile     = "scaler.gob"
	WeightsFile    = "classifier.json"
)

// ArtifactStore persists a fitted scaler and classifier in Dir.
type ArtifactStore struct {
	Dir string
}

// NewArtifactStore returns a store rooted at dir.
func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{Dir: dir}
}

// Path returns the location of the named artifact.
func (s *ArtifactStore) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// Save writes the classifier, the scaler and the readable weights sidecar.
// All three are staged as temp files first; only when every one is written
// are they renamed into place, classifier first. A failed save leaves the
// previous artifacts untouched.
func (s *ArtifactStore) Save(res *Result) error {
	if res == nil || res.Classifier == nil || res.Scaler == nil {
		return errors.NewValueError("ArtifactStore.Save", "nothing to save")
	}
	if !res.Classifier.IsFitted() || !res.Scaler.IsFitted() {
		return errors.NewNotFittedError("ArtifactStore", "Save")
	}

	weights, err := res.Classifier.ExportWeights()
	if err != nil {
		return errors.Wrap(err, "export weights")
	}
	weights.Features = dataset.FeatureKeys()
	weights.Metadata["accuracy"] = res.Metrics.Accuracy
	weights.Metadata["auc"] = res.AUC
	weights.Metadata["train_size"] = res.TrainSize
	weights.Metadata["test_size"] = res.TestSize
	data, err := weights.ToJSON()
	if err != nil {
		return errors.Wrap(err, "encode weights")
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return errors.Wrapf(err, "create artifact dir %s", s.Dir)
	}

	var batch model.FileBatch
	steps := []struct {
		name  string
		write func(w io.Writer) error
	}{
		{ClassifierFile, func(w io.Writer) error { return model.SaveModelToWriter(res.Classifier, w) }},
		{ScalerFile, func(w io.Writer) error { return model.SaveModelToWriter(res.Scaler, w) }},
		{WeightsFile, func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}},
	}
	for _, step := range steps {
		if err := batch.Stage(s.Path(step.name), step.write); err != nil {
			batch.Discard()
			return errors.Wrapf(err, "save %s", step.name)
		}
	}
	if err := batch.Commit(); err != nil {
		return errors.Wrap(err, "save artifacts")
	}
	return nil
}

// Load reads the fitted pair back. Every failure is marked ErrModelLoad: a
// missing or undecodable file, an unfitted artifact, or a feature count other
// than dataset.NumFeatures.
func (s *ArtifactStore) Load() (*linear_model.LogisticRegression, *preprocessing.StandardScaler, error) {
	clf := &linear_model.LogisticRegression{}
	if err := s.load(ClassifierFile, clf); err != nil {
		return nil, nil, err
	}
	if !clf.IsFitted() {
		return nil, nil, errors.NewModelLoadError(s.Path(ClassifierFile), "classifier is not fitted", nil)
	}
	if n := clf.NFeatures(); n != dataset.NumFeatures {
		return nil, nil, errors.NewModelLoadError(s.Path(ClassifierFile), "feature count mismatch",
			errors.NewDimensionError("ArtifactStore.Load", dataset.NumFeatures, n, 1))
	}
	if !hasClass(clf.Classes(), int(dataset.Malignant)) {
		return nil, nil, errors.NewModelLoadError(s.Path(ClassifierFile), "classifier has no malignant class", nil)
	}

	scaler := &preprocessing.StandardScaler{}
	if err := s.load(ScalerFile, scaler); err != nil {
		return nil, nil, err
	}
	if !scaler.IsFitted() {
		return nil, nil, errors.NewModelLoadError(s.Path(ScalerFile), "scaler is not fitted", nil)
	}
	if scaler.NFeatures != dataset.NumFeatures || len(scaler.Mean) != dataset.NumFeatures || len(scaler.Scale) != dataset.NumFeatures {
		return nil, nil, errors.NewModelLoadError(s.Path(ScalerFile), "feature count mismatch",
			errors.NewDimensionError("ArtifactStore.Load", dataset.NumFeatures, scaler.NFeatures, 1))
	}

	return clf, scaler, nil
}

// LoadState is Load returning the pair as a State.
func (s *ArtifactStore) LoadState() (*State, error) {
	clf, scaler, err := s.Load()
	if err != nil {
		return nil, err
	}
	return &State{Classifier: clf, Scaler: scaler}, nil
}

func (s *ArtifactStore) load(name string, into interface{}) error {
	path := s.Path(name)
	if _, err := os.Stat(path); err != nil {
		return errors.NewModelLoadError(path, "artifact missing", err)
	}
	if err := model.LoadModel(into, path); err != nil {
		return errors.NewModelLoadError(path, "artifact undecodable", err)
	}
	return nil
}

func hasClass(classes []int, c int) bool {
	for _, x := range classes {
		if x == c {
			return true
		}
	}
	return false
}
