// Package linear_model provides the logistic regression classifier used by
// the training pipeline.
package linear_model

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/YuminosukeSato/bcpredict/core/model"
	"github.com/YuminosukeSato/bcpredict/pkg/errors"
)

const modelName = "LogisticRegression"

var (
	_ model.Classifier      = (*LogisticRegression)(nil)
	_ model.ParameterGetter = (*LogisticRegression)(nil)
	_ model.ParameterSetter = (*LogisticRegression)(nil)
	_ model.WeightExporter  = (*LogisticRegression)(nil)
)

// LogisticRegression implements logistic regression for classification
// Compatible with scikit-learn's LogisticRegression: the lbfgs solver
// minimises C * sum(log-loss) + ||w||^2 / 2, the intercept is not penalised.
type LogisticRegression struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	penalty      string  // Regularization: "l2" or "none"
	C            float64 // Inverse regularization strength (1/alpha)
	fitIntercept bool    // Whether to fit intercept
	randomState  int64   // Random seed for the gd initialisation
	solver       string  // Solver: "lbfgs" or "gd"
	maxIter      int     // Maximum iterations
	tol          float64 // Tolerance for stopping

	// Model parameters
	coef_      [][]float64 // Coefficients (1 x n_features for binary, n_classes x n_features for OVR)
	intercept_ []float64   // Intercept terms
	classes_   []int       // Unique class labels, ascending
	nClasses_  int         // Number of classes
	nFeatures_ int         // Number of features
	nIter_     []int       // Actual iterations per fitted problem

	// Internal state
	rand *rand.Rand
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      "l2",
		C:            1.0,
		fitIntercept: true,
		randomState:  -1,
		solver:       "lbfgs",
		maxIter:      100,
		tol:          1e-4,
	}

	for _, opt := range opts {
		opt(lr)
	}
	lr.seed()

	return lr
}

func (lr *LogisticRegression) seed() {
	s := uint64(lr.randomState)
	if lr.randomState < 0 {
		s = rand.Uint64()
	}
	lr.rand = rand.New(rand.NewPCG(s, s))
}

// Option functions

// WithLRPenalty sets the regularization type
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRSolver sets the optimization solver
func WithLRSolver(solver string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.solver = solver
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRRandomState sets the random seed
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
	}
}

func (lr *LogisticRegression) validateParams() error {
	if !(lr.C > 0) || math.IsInf(lr.C, 0) {
		return errors.NewValidationError("C", "must be positive and finite", lr.C)
	}
	if lr.maxIter <= 0 {
		return errors.NewValidationError("max_iter", "must be positive", lr.maxIter)
	}
	if !(lr.tol > 0) {
		return errors.NewValidationError("tol", "must be positive", lr.tol)
	}
	switch lr.penalty {
	case "l2", "none":
	default:
		return errors.NewValidationError("penalty", "must be \"l2\" or \"none\"", lr.penalty)
	}
	switch lr.solver {
	case "lbfgs", "gd":
	default:
		return errors.NewValidationError("solver", "must be \"lbfgs\" or \"gd\"", lr.solver)
	}
	return nil
}

// Fit trains the logistic regression model
func (lr *LogisticRegression) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LogisticRegression.Fit")

	if err := lr.validateParams(); err != nil {
		return err
	}

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LogisticRegression.Fit", 1, yCols, 1)
	}

	lr.state.Reset()
	lr.extractClasses(y)
	if lr.nClasses_ < 2 {
		return errors.NewDegenerateDataError("LogisticRegression.Fit", lr.nClasses_)
	}
	lr.nFeatures_ = nFeatures
	lr.initializeWeights(nFeatures)

	Xd := mat.DenseCopyOf(X)
	if lr.nClasses_ == 2 {
		err = lr.fitClass(Xd, lr.binaryTargets(y, lr.classes_[1]), 0)
	} else {
		// One-vs-rest
		for classIdx, class := range lr.classes_ {
			if err = lr.fitClass(Xd, lr.binaryTargets(y, class), classIdx); err != nil {
				err = errors.Wrapf(err, "failed to fit class %d", class)
				break
			}
		}
	}
	if err != nil {
		return err
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

// extractClasses identifies unique class labels
func (lr *LogisticRegression) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	classMap := make(map[int]bool)

	for i := 0; i < rows; i++ {
		classMap[int(y.At(i, 0))] = true
	}

	lr.classes_ = make([]int, 0, len(classMap))
	for class := range classMap {
		lr.classes_ = append(lr.classes_, class)
	}
	sort.Ints(lr.classes_)

	lr.nClasses_ = len(lr.classes_)
}

func (lr *LogisticRegression) binaryTargets(y mat.Matrix, positive int) []float64 {
	rows, _ := y.Dims()
	out := make([]float64, rows)
	for i := range out {
		if int(y.At(i, 0)) == positive {
			out[i] = 1
		}
	}
	return out
}

// initializeWeights allocates one weight row for binary problems and one
// per class for one-vs-rest.
func (lr *LogisticRegression) initializeWeights(nFeatures int) {
	rows := 1
	if lr.nClasses_ > 2 {
		rows = lr.nClasses_
	}
	lr.coef_ = make([][]float64, rows)
	for i := range lr.coef_ {
		lr.coef_[i] = make([]float64, nFeatures)
	}
	lr.intercept_ = make([]float64, rows)
	lr.nIter_ = make([]int, rows)

	// gd starts from small random values; lbfgs starts from zero like scikit-learn
	if lr.solver == "gd" {
		for i := range lr.coef_ {
			for j := range lr.coef_[i] {
				lr.coef_[i][j] = lr.rand.NormFloat64() * 0.01
			}
		}
	}
}

func (lr *LogisticRegression) fitClass(X *mat.Dense, y []float64, classIdx int) error {
	if lr.solver == "gd" {
		return lr.fitGD(X, y, classIdx)
	}
	return lr.fitLBFGS(X, y, classIdx)
}

// objective evaluates the regularised mean log-loss and its gradient at
// params = [w..., b]. Scaling by 1/n keeps the lbfgs tolerance independent of
// the sample count without changing the minimiser.
type objective struct {
	X            *mat.Dense
	y            []float64
	lambda       float64 // 1 / (C * n), zero without penalty
	fitIntercept bool

	z   *mat.VecDense
	res []float64
}

func newObjective(X *mat.Dense, y []float64, lr *LogisticRegression) *objective {
	n, _ := X.Dims()
	lambda := 0.0
	if lr.penalty == "l2" {
		lambda = 1.0 / (lr.C * float64(n))
	}
	return &objective{
		X:            X,
		y:            y,
		lambda:       lambda,
		fitIntercept: lr.fitIntercept,
		z:            mat.NewVecDense(n, nil),
		res:          make([]float64, n),
	}
}

func (o *objective) split(params []float64) (w []float64, b float64) {
	_, p := o.X.Dims()
	w = params[:p]
	if o.fitIntercept {
		b = params[p]
	}
	return w, b
}

func (o *objective) margins(params []float64) {
	w, b := o.split(params)
	o.z.MulVec(o.X, mat.NewVecDense(len(w), w))
	if b != 0 {
		for i := 0; i < o.z.Len(); i++ {
			o.z.SetVec(i, o.z.AtVec(i)+b)
		}
	}
}

func (o *objective) Func(params []float64) float64 {
	o.margins(params)
	n := float64(len(o.y))
	loss := 0.0
	for i, yi := range o.y {
		zi := o.z.AtVec(i)
		loss += softplus(zi) - yi*zi
	}
	w, _ := o.split(params)
	return loss/n + 0.5*o.lambda*floats.Dot(w, w)
}

func (o *objective) Grad(grad, params []float64) {
	o.margins(params)
	n := float64(len(o.y))
	for i, yi := range o.y {
		o.res[i] = (sigmoid(o.z.AtVec(i)) - yi) / n
	}

	_, p := o.X.Dims()
	gw := mat.NewVecDense(p, grad[:p])
	gw.MulVec(o.X.T(), mat.NewVecDense(len(o.res), o.res))

	w, _ := o.split(params)
	floats.AddScaled(grad[:p], o.lambda, w)
	if o.fitIntercept {
		grad[p] = floats.Sum(o.res)
	}
}

// fitLBFGS fits one binary problem with gonum's L-BFGS.
func (lr *LogisticRegression) fitLBFGS(X *mat.Dense, y []float64, classIdx int) error {
	obj := newObjective(X, y, lr)

	_, p := X.Dims()
	dim := p
	if lr.fitIntercept {
		dim++
	}
	init := make([]float64, dim)
	copy(init, lr.coef_[classIdx])
	if lr.fitIntercept {
		init[p] = lr.intercept_[classIdx]
	}

	problem := optimize.Problem{Func: obj.Func, Grad: obj.Grad}
	settings := &optimize.Settings{
		GradientThreshold: lr.tol,
		MajorIterations:   lr.maxIter,
	}

	var result *optimize.Result
	err := errors.SafeExecute("lbfgs", func() error {
		var err error
		result, err = optimize.Minimize(problem, init, settings, &optimize.LBFGS{})
		return err
	})
	if result == nil {
		return errors.NewModelError("LogisticRegression.Fit", "lbfgs failed", err)
	}

	iterations := result.Stats.MajorIterations
	if err := errors.CheckNumericalStability("lbfgs", result.X, iterations); err != nil {
		return err
	}
	if err != nil || result.Status == optimize.IterationLimit {
		reason := result.Status.String()
		if err != nil {
			reason = err.Error()
		}
		errors.Warn(errors.NewConvergenceWarning("lbfgs", iterations, reason))
	}

	copy(lr.coef_[classIdx], result.X[:p])
	if lr.fitIntercept {
		lr.intercept_[classIdx] = result.X[p]
	}
	lr.nIter_[classIdx] = iterations
	return nil
}

// fitGD fits one binary problem by gradient descent with a decaying
// learning rate. It minimises the same objective as fitLBFGS.
func (lr *LogisticRegression) fitGD(X *mat.Dense, y []float64, classIdx int) error {
	obj := newObjective(X, y, lr)

	_, p := X.Dims()
	dim := p
	if lr.fitIntercept {
		dim++
	}
	params := make([]float64, dim)
	copy(params, lr.coef_[classIdx])
	if lr.fitIntercept {
		params[p] = lr.intercept_[classIdx]
	}
	grad := make([]float64, dim)

	baseLearningRate := 1.0
	converged := false
	for iter := 0; iter < lr.maxIter; iter++ {
		obj.Grad(grad, params)

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))
		floats.AddScaled(params, -learningRate, grad)

		lr.nIter_[classIdx] = iter + 1
		if err := errors.CheckNumericalStability("gd", params, iter); err != nil {
			return err
		}

		// Check convergence on the infinity norm of the gradient
		if floats.Norm(grad, math.Inf(1)) < lr.tol {
			converged = true
			break
		}
	}
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("gd", lr.maxIter, ""))
	}

	copy(lr.coef_[classIdx], params[:p])
	if lr.fitIntercept {
		lr.intercept_[classIdx] = params[p]
	}
	return nil
}

func (lr *LogisticRegression) checkInput(X mat.Matrix, method string) error {
	if err := lr.state.RequireFitted(modelName, method); err != nil {
		return err
	}
	if _, c := X.Dims(); c != lr.nFeatures_ {
		return errors.NewDimensionError("LogisticRegression."+method, lr.nFeatures_, c, 1)
	}
	return nil
}

func (lr *LogisticRegression) score(X mat.Matrix, i, classIdx int) float64 {
	z := lr.intercept_[classIdx]
	for j := 0; j < lr.nFeatures_; j++ {
		z += X.At(i, j) * lr.coef_[classIdx][j]
	}
	return z
}

// DecisionFunction returns the signed distance to the hyperplane: one column
// for binary problems, one column per class otherwise.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.checkInput(X, "DecisionFunction"); err != nil {
		return nil, err
	}
	nSamples, _ := X.Dims()
	out := mat.NewDense(nSamples, len(lr.coef_), nil)
	for i := 0; i < nSamples; i++ {
		for k := range lr.coef_ {
			out.Set(i, k, lr.score(X, i, k))
		}
	}
	return out, nil
}

// Predict makes predictions for input data. For binary problems the positive
// class is predicted iff its probability is strictly greater than 0.5.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.checkInput(X, "Predict"); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)

	if lr.nClasses_ == 2 {
		for i := 0; i < nSamples; i++ {
			if sigmoid(lr.score(X, i, 0)) > 0.5 {
				predictions.Set(i, 0, float64(lr.classes_[1]))
			} else {
				predictions.Set(i, 0, float64(lr.classes_[0]))
			}
		}
		return predictions, nil
	}

	for i := 0; i < nSamples; i++ {
		maxScore := math.Inf(-1)
		bestClass := 0
		for classIdx := 0; classIdx < lr.nClasses_; classIdx++ {
			if s := lr.score(X, i, classIdx); s > maxScore {
				maxScore = s
				bestClass = classIdx
			}
		}
		predictions.Set(i, 0, float64(lr.classes_[bestClass]))
	}
	return predictions, nil
}

// PredictProba returns probability estimates for each class, in the order of
// Classes(). Each row sums to 1.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.checkInput(X, "PredictProba"); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	probas := mat.NewDense(nSamples, lr.nClasses_, nil)

	if lr.nClasses_ == 2 {
		for i := 0; i < nSamples; i++ {
			prob1 := sigmoid(lr.score(X, i, 0))
			probas.Set(i, 0, 1.0-prob1)
			probas.Set(i, 1, prob1)
		}
		return probas, nil
	}

	// One-vs-rest: normalise the per-class sigmoids
	row := make([]float64, lr.nClasses_)
	for i := 0; i < nSamples; i++ {
		for classIdx := range row {
			row[classIdx] = sigmoid(lr.score(X, i, classIdx))
		}
		floats.Scale(1/floats.Sum(row), row)
		probas.SetRow(i, row)
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}

	nSamples, _ := X.Dims()
	if yRows, _ := y.Dims(); yRows != nSamples {
		return 0, errors.NewDimensionError("LogisticRegression.Score", nSamples, yRows, 0)
	}

	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples), nil
}

// IsFitted reports whether Fit has completed successfully.
func (lr *LogisticRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// NFeatures returns the number of features seen during Fit.
func (lr *LogisticRegression) NFeatures() int {
	return lr.nFeatures_
}

// Classes returns the class labels in ascending order.
func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.classes_...)
}

// Coef returns a copy of the coefficients of the binary problem (the first
// row for one-vs-rest).
func (lr *LogisticRegression) Coef() []float64 {
	if len(lr.coef_) == 0 {
		return nil
	}
	return append([]float64(nil), lr.coef_[0]...)
}

// Intercept returns the intercept of the binary problem.
func (lr *LogisticRegression) Intercept() float64 {
	if len(lr.intercept_) == 0 {
		return 0
	}
	return lr.intercept_[0]
}

// NIter returns the number of solver iterations per fitted problem.
func (lr *LogisticRegression) NIter() []int {
	return append([]int(nil), lr.nIter_...)
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"random_state":  lr.randomState,
		"solver":        lr.solver,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
	}
}

// SetParams sets the model hyperparameters
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		ok := true
		switch key {
		case "penalty":
			lr.penalty, ok = value.(string)
		case "C":
			lr.C, ok = value.(float64)
		case "fit_intercept":
			lr.fitIntercept, ok = value.(bool)
		case "random_state":
			lr.randomState, ok = value.(int64)
			lr.seed()
		case "solver":
			lr.solver, ok = value.(string)
		case "max_iter":
			lr.maxIter, ok = value.(int)
		case "tol":
			lr.tol, ok = value.(float64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return nil
}

// ExportWeights exports the fitted binary model as ModelWeights.
func (lr *LogisticRegression) ExportWeights() (*model.ModelWeights, error) {
	if err := lr.state.RequireFitted(modelName, "ExportWeights"); err != nil {
		return nil, err
	}
	if lr.nClasses_ != 2 {
		return nil, errors.NewValueError("LogisticRegression.ExportWeights", "only binary models can be exported")
	}
	_, nSamples := lr.state.GetDimensions()
	return &model.ModelWeights{
		ModelType:       modelName,
		Version:         model.WeightsVersion,
		Coefficients:    lr.Coef(),
		Intercept:       lr.Intercept(),
		Classes:         lr.Classes(),
		Hyperparameters: lr.GetParams(),
		Metadata: map[string]interface{}{
			"n_iter":    lr.nIter_[0],
			"n_samples": nSamples,
		},
		IsFitted: true,
	}, nil
}

// ImportWeights restores a binary model from ModelWeights.
func (lr *LogisticRegression) ImportWeights(w *model.ModelWeights) error {
	if err := w.Validate(); err != nil {
		return errors.Wrap(err, "invalid weights")
	}
	if w.ModelType != modelName {
		return errors.NewValueError("LogisticRegression.ImportWeights", "unexpected model type "+w.ModelType)
	}
	if !w.IsFitted {
		return errors.NewNotFittedError(modelName, "ImportWeights")
	}
	classes := w.Classes
	if len(classes) == 0 {
		classes = []int{0, 1}
	}
	if len(classes) != 2 {
		return errors.NewValueError("LogisticRegression.ImportWeights", "only binary models can be imported")
	}

	lr.coef_ = [][]float64{append([]float64(nil), w.Coefficients...)}
	lr.intercept_ = []float64{w.Intercept}
	lr.classes_ = append([]int(nil), classes...)
	lr.nClasses_ = 2
	lr.nFeatures_ = len(w.Coefficients)
	lr.nIter_ = []int{0}
	lr.state.Reset()
	lr.state.SetDimensions(lr.nFeatures_, 0)
	lr.state.SetFitted()
	return nil
}

// logisticGob is the persisted form of a LogisticRegression.
type logisticGob struct {
	Penalty      string
	C            float64
	FitIntercept bool
	RandomState  int64
	Solver       string
	MaxIter      int
	Tol          float64

	Coef      [][]float64
	Intercept []float64
	Classes   []int
	NFeatures int
	NIter     []int
	State     model.ModelState
}

// GobEncode implements gob.GobEncoder.
func (lr *LogisticRegression) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(logisticGob{
		Penalty:      lr.penalty,
		C:            lr.C,
		FitIntercept: lr.fitIntercept,
		RandomState:  lr.randomState,
		Solver:       lr.solver,
		MaxIter:      lr.maxIter,
		Tol:          lr.tol,
		Coef:         lr.coef_,
		Intercept:    lr.intercept_,
		Classes:      lr.classes_,
		NFeatures:    lr.nFeatures_,
		NIter:        lr.nIter_,
		State:        lr.state.GetState(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode LogisticRegression")
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (lr *LogisticRegression) GobDecode(data []byte) error {
	var g logisticGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return errors.Wrap(err, "decode LogisticRegression")
	}

	lr.penalty = g.Penalty
	lr.C = g.C
	lr.fitIntercept = g.FitIntercept
	lr.randomState = g.RandomState
	lr.solver = g.Solver
	lr.maxIter = g.MaxIter
	lr.tol = g.Tol
	lr.coef_ = g.Coef
	lr.intercept_ = g.Intercept
	lr.classes_ = g.Classes
	lr.nClasses_ = len(g.Classes)
	lr.nFeatures_ = g.NFeatures
	lr.nIter_ = g.NIter
	if lr.state == nil {
		lr.state = model.NewStateManager()
	}
	lr.state.SetState(g.State)
	lr.seed()

	if lr.state.IsFitted() {
		if len(lr.coef_) == 0 || len(lr.intercept_) != len(lr.coef_) || lr.nClasses_ < 2 {
			return errors.NewValueError("LogisticRegression.GobDecode", "inconsistent fitted parameters")
		}
		for _, row := range lr.coef_ {
			if len(row) != lr.nFeatures_ {
				return errors.NewValueError("LogisticRegression.GobDecode", "coefficient length mismatch")
			}
		}
	}
	return nil
}

// sigmoid computes the logistic function without overflowing for large |z|.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1.0 + e)
}

// softplus computes log(1 + exp(z)) stably.
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
