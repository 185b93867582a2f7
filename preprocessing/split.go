package preprocessing

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/bcpredict/pkg/errors"
)

// Split は TrainTestSplit の結果
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest *mat.Dense

	// TrainIndices / TestIndices は元の行番号
	TrainIndices []int
	TestIndices  []int
}

// TrainTestSplit はデータを学習用と評価用に分割する
//
// seed で初期化した乱数で行を並べ替え、ceil(n*testSize) 行を評価用にする。
// stratify が true の場合はクラスごとに同じ割合を評価用に取り出す。
// 同じ入力と seed からは常に同じ分割が得られる。
//
// 使用例:
//
//	split, err := preprocessing.TrainTestSplit(X, y, 0.2, 42, false)
func TrainTestSplit(X, y mat.Matrix, testSize float64, seed int64, stratify bool) (*Split, error) {
	n, c := X.Dims()
	yRows, yCols := y.Dims()
	if n == 0 || c == 0 {
		return nil, errors.NewModelError("TrainTestSplit", "empty data", errors.ErrEmptyData)
	}
	if yRows != n {
		return nil, errors.NewDimensionError("TrainTestSplit", n, yRows, 0)
	}
	if yCols != 1 {
		return nil, errors.NewDimensionError("TrainTestSplit", 1, yCols, 1)
	}
	if !(testSize > 0 && testSize < 1) {
		return nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))

	var train, test []int
	if stratify {
		train, test = stratifiedIndices(y, testSize, rng)
	} else {
		perm := rng.Perm(n)
		nTest := int(math.Ceil(float64(n) * testSize))
		test, train = perm[:nTest], perm[nTest:]
	}
	if len(train) == 0 || len(test) == 0 {
		return nil, errors.NewValueError("TrainTestSplit",
			"test_size leaves one partition empty; provide more samples")
	}

	return &Split{
		XTrain:       takeRows(X, train),
		XTest:        takeRows(X, test),
		YTrain:       takeRows(y, train),
		YTest:        takeRows(y, test),
		TrainIndices: train,
		TestIndices:  test,
	}, nil
}

// stratifiedIndices はクラスごとに並べ替えて評価用を取り出す
// クラスはラベル値の昇順に処理するので結果は決定的になる。
func stratifiedIndices(y mat.Matrix, testSize float64, rng *rand.Rand) (train, test []int) {
	n, _ := y.Dims()
	classIndices := make(map[float64][]int)
	for i := 0; i < n; i++ {
		label := y.At(i, 0)
		classIndices[label] = append(classIndices[label], i)
	}

	labels := make([]float64, 0, len(classIndices))
	for label := range classIndices {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	for _, label := range labels {
		indices := classIndices[label]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		nTest := int(math.Ceil(float64(len(indices)) * testSize))
		if nTest >= len(indices) && len(indices) > 1 {
			nTest = len(indices) - 1
		}
		test = append(test, indices[:nTest]...)
		train = append(train, indices[nTest:]...)
	}
	return train, test
}

func takeRows(m mat.Matrix, rows []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for i, r := range rows {
		for j := 0; j < c; j++ {
			out.Set(i, j, m.At(r, j))
		}
	}
	return out
}
