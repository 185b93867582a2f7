package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/bcpredict/core/model"
	"github.com/YuminosukeSato/bcpredict/dataset"
	"github.com/YuminosukeSato/bcpredict/dataset/datasettest"
	"github.com/YuminosukeSato/bcpredict/pkg/errors"
	"github.com/YuminosukeSato/bcpredict/pkg/log"
	"github.com/YuminosukeSato/bcpredict/preprocessing"
	"github.com/YuminosukeSato/bcpredict/sklearn/linear_model"
)

func quietLogger() *log.TestLogger {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	return logger
}

func trainFixture(t *testing.T) *Result {
	t.Helper()
	res, err := Train(datasettest.Synthetic(300, 1), DefaultOptions(), quietLogger())
	require.NoError(t, err)
	return res
}

func TestTrain_Result(t *testing.T) {
	logger := quietLogger()
	res, err := Train(datasettest.Synthetic(300, 1), DefaultOptions(), logger)
	require.NoError(t, err)

	assert.Equal(t, 60, res.TestSize)
	assert.Equal(t, 240, res.TrainSize)
	assert.True(t, res.Classifier.IsFitted())
	assert.Equal(t, dataset.NumFeatures, res.Classifier.NFeatures())
	assert.Equal(t, []int{0, 1}, res.Classifier.Classes())

	assert.Greater(t, res.Metrics.Accuracy, 0.6)
	assert.Greater(t, res.AUC, 0.6)
	require.Len(t, res.Metrics.Classes, 2)
	assert.Equal(t, "benign", res.Metrics.Classes[0].Name)
	assert.Equal(t, "malignant", res.Metrics.Classes[1].Name)
	assert.Equal(t, res.TestSize, res.Metrics.Classes[0].Support+res.Metrics.Classes[1].Support)

	assert.True(t, logger.ContainsMessage("Training completed"))
	assert.True(t, logger.ContainsField(log.OperationKey, log.OperationFit))
}

func TestTrain_Deterministic(t *testing.T) {
	ds := datasettest.Synthetic(200, 3)
	a, err := Train(ds, DefaultOptions(), quietLogger())
	require.NoError(t, err)
	b, err := Train(ds, DefaultOptions(), quietLogger())
	require.NoError(t, err)

	assert.Equal(t, a.Classifier.Coef(), b.Classifier.Coef())
	assert.Equal(t, a.Classifier.Intercept(), b.Classifier.Intercept())
	assert.Equal(t, a.Metrics, b.Metrics)
}

func TestTrain_ScalerFittedOnFullMatrix(t *testing.T) {
	ds := datasettest.Synthetic(150, 2)
	res, err := Train(ds, DefaultOptions(), quietLogger())
	require.NoError(t, err)

	stats := ds.ColumnStats()
	for j := 0; j < dataset.NumFeatures; j++ {
		assert.InDelta(t, stats[j].Mean, res.Scaler.Mean[j], 1e-9)
		assert.InDelta(t, stats[j].Std, res.Scaler.Scale[j], 1e-9)
	}
}

func TestTrain_DegenerateData(t *testing.T) {
	ds := datasettest.Synthetic(40, 1)
	for i := range ds.Samples {
		ds.Samples[i].Label = dataset.Benign
	}
	_, err := Train(ds, DefaultOptions(), quietLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDegenerateTrainingData))
}

func TestTrain_InvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.TestSize = 1.5
	_, err := Train(datasettest.Synthetic(40, 1), opts, quietLogger())
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Equal(t, "test_size", ve.ParamName)
}

func TestState_Predict(t *testing.T) {
	ds := datasettest.Synthetic(300, 1)
	res, err := Train(ds, DefaultOptions(), quietLogger())
	require.NoError(t, err)
	state := res.State()

	for _, s := range ds.Samples[:50] {
		p, err := state.Predict(s.Features)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, p.ProbabilityBenign+p.ProbabilityMalignant, 1e-12)
		assert.Equal(t, p.ProbabilityMalignant > 0.5, p.Label == dataset.Malignant)
	}

	// the mean record scales to the origin, so only the intercept remains
	p, err := state.Predict(ds.MeanRecord())
	require.NoError(t, err)
	assert.InDelta(t, ds.BaseRate(), p.ProbabilityMalignant, 0.15)
}

func TestState_PredictRejectsNonFinite(t *testing.T) {
	res := trainFixture(t)
	values := datasettest.Bases
	values[3] = 1 / zero()
	_, err := res.State().Predict(dataset.RecordFromValues(values))
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Equal(t, "area_mean", ve.ParamName)
}

func zero() float64 { return 0 }

func TestLogistic_Capability(t *testing.T) {
	ds := datasettest.Synthetic(200, 4)
	var c Capability = NewLogistic(quietLogger())

	state, err := c.Fit(ds)
	require.NoError(t, err)
	p, err := c.Apply(ds.Samples[0].Features, state)
	require.NoError(t, err)
	direct, err := state.Predict(ds.Samples[0].Features)
	require.NoError(t, err)
	assert.Equal(t, direct, p)
}

func TestArtifactStore_RoundTrip(t *testing.T) {
	res := trainFixture(t)
	store := NewArtifactStore(filepath.Join(t.TempDir(), "artifacts"))
	require.NoError(t, store.Save(res))

	for _, name := range []string{ClassifierFile, ScalerFile, WeightsFile} {
		assert.FileExists(t, store.Path(name))
	}

	clf, scaler, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, res.Scaler.Mean, scaler.Mean)
	assert.Equal(t, res.Scaler.Scale, scaler.Scale)

	loaded := &State{Classifier: clf, Scaler: scaler}
	for _, s := range datasettest.Synthetic(30, 9).Samples {
		want, err := res.State().Predict(s.Features)
		require.NoError(t, err)
		got, err := loaded.Predict(s.Features)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	data, err := os.ReadFile(store.Path(WeightsFile))
	require.NoError(t, err)
	var w model.ModelWeights
	require.NoError(t, w.FromJSON(data))
	assert.Equal(t, dataset.FeatureKeys(), w.Features)
	assert.Equal(t, res.Classifier.Coef(), w.Coefficients)
}

func TestArtifactStore_LoadFailures(t *testing.T) {
	res := trainFixture(t)

	t.Run("missing", func(t *testing.T) {
		_, _, err := NewArtifactStore(t.TempDir()).Load()
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrModelLoad))
	})

	t.Run("undecodable", func(t *testing.T) {
		store := NewArtifactStore(t.TempDir())
		require.NoError(t, store.Save(res))
		require.NoError(t, os.WriteFile(store.Path(ScalerFile), []byte("not gob"), 0o644))
		_, _, err := store.Load()
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrModelLoad))
	})

	t.Run("not fitted", func(t *testing.T) {
		store := NewArtifactStore(t.TempDir())
		require.NoError(t, store.Save(res))
		require.NoError(t, model.SaveModel(preprocessing.NewStandardScalerDefault(), store.Path(ScalerFile)))
		_, _, err := store.Load()
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrModelLoad))
	})

	t.Run("feature count", func(t *testing.T) {
		store := NewArtifactStore(t.TempDir())
		require.NoError(t, store.Save(res))

		w, err := res.Classifier.ExportWeights()
		require.NoError(t, err)
		w.Coefficients = w.Coefficients[:5]
		short := linear_model.NewLogisticRegression()
		require.NoError(t, short.ImportWeights(w))
		require.NoError(t, model.SaveModel(short, store.Path(ClassifierFile)))

		_, _, err = store.Load()
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrModelLoad))
		var de *errors.DimensionError
		assert.True(t, errors.As(err, &de))
	})
}

func TestArtifactStore_SaveFailureLeavesNoPartialPair(t *testing.T) {
	res := trainFixture(t)

	tests := []struct {
		name  string
		setup func(t *testing.T, store *ArtifactStore) []byte
	}{
		{
			name: "empty dir",
			setup: func(t *testing.T, store *ArtifactStore) []byte {
				return nil
			},
		},
		{
			name: "previous scaler kept",
			setup: func(t *testing.T, store *ArtifactStore) []byte {
				prev := []byte("previous scaler")
				require.NoError(t, os.WriteFile(store.Path(ScalerFile), prev, 0o644))
				return prev
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewArtifactStore(t.TempDir())
			prevScaler := tt.setup(t, store)
			// a directory in the classifier's place makes its rename fail
			require.NoError(t, os.Mkdir(store.Path(ClassifierFile), 0o755))

			require.Error(t, store.Save(res))

			if prevScaler == nil {
				assert.NoFileExists(t, store.Path(ScalerFile))
				assert.NoFileExists(t, store.Path(WeightsFile))
			} else {
				got, err := os.ReadFile(store.Path(ScalerFile))
				require.NoError(t, err)
				assert.Equal(t, prevScaler, got)
			}
			entries, err := os.ReadDir(store.Dir)
			require.NoError(t, err)
			for _, e := range entries {
				assert.NotContains(t, e.Name(), ".tmp-")
			}
		})
	}
}

func TestRun_DatasetFailureWritesNothing(t *testing.T) {
	ds := datasettest.Synthetic(50, 1)
	path := datasettest.WriteFile(t, datasettest.CSVWithout(ds, "diagnosis"))
	dir := filepath.Join(t.TempDir(), "artifacts")

	_, err := Run(path, NewArtifactStore(dir), DefaultOptions(), quietLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDataUnavailable))
	assert.NoDirExists(t, dir)
}

func TestRun_WritesArtifacts(t *testing.T) {
	ds := datasettest.Synthetic(120, 5)
	path := datasettest.WriteFile(t, datasettest.CSV(ds))
	store := NewArtifactStore(t.TempDir())

	res, err := Run(path, store, DefaultOptions(), quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 24, res.TestSize)

	state, err := store.LoadState()
	require.NoError(t, err)
	_, err = state.Predict(ds.Samples[0].Features)
	assert.NoError(t, err)
}
