package pipeline

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/bcpredict/dataset"
	"github.com/YuminosukeSato/bcpredict/metrics"
	"github.com/YuminosukeSato/bcpredict/pkg/errors"
	"github.com/YuminosukeSato/bcpredict/pkg/log"
	"github.com/YuminosukeSato/bcpredict/preprocessing"
	"github.com/YuminosukeSato/bcpredict/sklearn/linear_model"
)

// Result is the outcome of a training run. Metrics describe the held-out
// partition and are never fed back into the model.
type Result struct {
	Classifier *linear_model.LogisticRegression
	Scaler     *preprocessing.StandardScaler
	Metrics    metrics.Report

	AUC     float64
	LogLoss float64

	TrainSize int
	TestSize  int
	BaseRate  float64
	Duration  time.Duration
}

// State returns the fitted pair used for inference.
func (r *Result) State() *State {
	return &State{Classifier: r.Classifier, Scaler: r.Scaler}
}

// Train fits a scaler and a logistic regression classifier on ds and
// evaluates the classifier on a held-out split. A nil logger uses the
// process-wide one.
func Train(ds *dataset.Dataset, opts Options, logger log.Logger) (res *Result, err error) {
	defer errors.Recover(&err, "pipeline.Train")

	if logger == nil {
		logger = log.GetLoggerWithName("pipeline")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if ds == nil || ds.Len() == 0 {
		return nil, errors.NewModelError("pipeline.Train", "empty dataset", errors.ErrEmptyData)
	}
	if n := countClasses(ds); n < 2 {
		return nil, errors.NewDegenerateDataError("pipeline.Train", n)
	}

	start := time.Now()
	logger = logger.With(log.ModelNameKey, "LogisticRegression")
	logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, ds.Len(),
		log.FeaturesKey, dataset.NumFeatures,
		log.BaseRateKey, ds.BaseRate(),
		log.RandomSeedKey, opts.Seed,
		log.TestSizeKey, opts.TestSize,
	)

	X, y := ds.Matrix(), ds.Targets()

	scaler := preprocessing.NewStandardScalerDefault()
	XScaled, err := scaler.FitTransform(X)
	if err != nil {
		return nil, errors.Wrap(err, "scale features")
	}
	logger.Debug("Scaler fitted",
		log.OperationKey, log.OperationTransform,
		log.PhaseKey, log.PhasePreprocessing,
	)

	split, err := preprocessing.TrainTestSplit(XScaled, y, opts.TestSize, opts.Seed, opts.Stratify)
	if err != nil {
		return nil, errors.Wrap(err, "split dataset")
	}
	if n := distinct(split.YTrain); n < 2 {
		return nil, errors.NewDegenerateDataError("pipeline.Train", n)
	}

	clf := linear_model.NewLogisticRegression(
		linear_model.WithLRC(opts.C),
		linear_model.WithLRMaxIter(opts.MaxIter),
		linear_model.WithLRTol(opts.Tol),
		linear_model.WithLRSolver(opts.Solver),
		linear_model.WithLRRandomState(opts.Seed),
	)
	if err := clf.Fit(split.XTrain, split.YTrain); err != nil {
		return nil, errors.Wrap(err, "fit classifier")
	}

	res = &Result{
		Classifier: clf,
		Scaler:     scaler,
		TrainSize:  len(split.TrainIndices),
		TestSize:   len(split.TestIndices),
		BaseRate:   ds.BaseRate(),
	}
	if err := evaluate(res, split.XTest, split.YTest); err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)

	logger.Info("Training completed",
		log.OperationKey, log.OperationScore,
		log.PhaseKey, log.PhaseTesting,
		log.SamplesKey, res.TestSize,
		log.AccuracyKey, res.Metrics.Accuracy,
		log.AUCKey, res.AUC,
		log.LossKey, res.LogLoss,
		log.IterationKey, clf.NIter()[0],
		log.DurationMsKey, res.Duration.Milliseconds(),
	)
	return res, nil
}

// evaluate fills in the held-out metrics of res.
func evaluate(res *Result, XTest, yTest mat.Matrix) error {
	pred, err := res.Classifier.Predict(XTest)
	if err != nil {
		return errors.Wrap(err, "predict held-out split")
	}
	proba, err := res.Classifier.PredictProba(XTest)
	if err != nil {
		return errors.Wrap(err, "predict held-out probabilities")
	}

	n, _ := yTest.Dims()
	yTrue := mat.NewVecDense(n, mat.Col(nil, 0, yTest))
	yPred := mat.NewVecDense(n, mat.Col(nil, 0, pred))
	pMalignant := mat.NewVecDense(n, mat.Col(nil, 1, proba))

	report, err := metrics.ClassificationReport(yTrue, yPred,
		[]float64{float64(dataset.Benign), float64(dataset.Malignant)},
		[]string{dataset.Benign.String(), dataset.Malignant.String()},
	)
	if err != nil {
		return errors.Wrap(err, "classification report")
	}
	res.Metrics = *report

	if res.AUC, err = metrics.AUC(yTrue, pMalignant); err != nil {
		return errors.Wrap(err, "auc")
	}
	if res.LogLoss, err = metrics.BinaryLogLoss(yTrue, pMalignant); err != nil {
		return errors.Wrap(err, "log loss")
	}
	return nil
}

func countClasses(ds *dataset.Dataset) int {
	seen := make(map[dataset.Label]struct{}, 2)
	for _, s := range ds.Samples {
		seen[s.Label] = struct{}{}
	}
	return len(seen)
}

func distinct(y mat.Matrix) int {
	n, _ := y.Dims()
	seen := make(map[float64]struct{}, 2)
	for i := 0; i < n; i++ {
		seen[y.At(i, 0)] = struct{}{}
	}
	return len(seen)
}

// Run loads the dataset at dataPath, trains on it and saves the artifacts to
// store. Nothing is written when loading or training fails.
func Run(dataPath string, store *ArtifactStore, opts Options, logger log.Logger) (*Result, error) {
	if logger == nil {
		logger = log.GetLoggerWithName("pipeline")
	}
	ds, err := dataset.Load(dataPath)
	if err != nil {
		return nil, err
	}
	logger.Info("Dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.SourceKey, dataPath,
		log.SamplesKey, ds.Len(),
	)

	res, err := Train(ds, opts, logger)
	if err != nil {
		return nil, err
	}
	if err := store.Save(res); err != nil {
		return nil, errors.Wrap(err, "save artifacts")
	}
	logger.Info("Artifacts saved",
		log.OperationKey, log.OperationSave,
		log.ArtifactKey, store.Dir,
	)
	return res, nil
}
