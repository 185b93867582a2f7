package preprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func splitFixture(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i*i))
		if i%20 < 9 {
			y.Set(i, 0, 1)
		}
	}
	return X, y
}

func TestTrainTestSplit_Sizes(t *testing.T) {
	tests := []struct {
		n         int
		testSize  float64
		wantTest  int
		wantTrain int
	}{
		{569, 0.2, 114, 455},
		{100, 0.2, 20, 80},
		{10, 0.25, 3, 7},
	}
	for _, tt := range tests {
		X, y := splitFixture(tt.n)
		s, err := TrainTestSplit(X, y, tt.testSize, 42, false)
		require.NoError(t, err)
		assert.Len(t, s.TestIndices, tt.wantTest)
		assert.Len(t, s.TrainIndices, tt.wantTrain)
		r, _ := s.XTest.Dims()
		assert.Equal(t, tt.wantTest, r)
	}
}

func TestTrainTestSplit_Deterministic(t *testing.T) {
	X, y := splitFixture(200)
	a, err := TrainTestSplit(X, y, 0.2, 42, false)
	require.NoError(t, err)
	b, err := TrainTestSplit(X, y, 0.2, 42, false)
	require.NoError(t, err)
	assert.Equal(t, a.TestIndices, b.TestIndices)
	assert.True(t, mat.Equal(a.XTrain, b.XTrain))

	c, err := TrainTestSplit(X, y, 0.2, 7, false)
	require.NoError(t, err)
	assert.NotEqual(t, a.TestIndices, c.TestIndices)
}

func TestTrainTestSplit_PartitionIsExact(t *testing.T) {
	X, y := splitFixture(50)
	s, err := TrainTestSplit(X, y, 0.2, 42, true)
	require.NoError(t, err)

	seen := make(map[int]int)
	for _, i := range append(append([]int(nil), s.TrainIndices...), s.TestIndices...) {
		seen[i]++
	}
	assert.Len(t, seen, 50)
	for i, c := range seen {
		assert.Equal(t, 1, c, "row %d", i)
	}

	// 行の中身とラベルが揃っている
	for k, i := range s.TestIndices {
		assert.Equal(t, X.At(i, 0), s.XTest.At(k, 0))
		assert.Equal(t, y.At(i, 0), s.YTest.At(k, 0))
	}
}

func TestTrainTestSplit_Stratified(t *testing.T) {
	X, y := splitFixture(200) // 90 positive, 110 negative
	s, err := TrainTestSplit(X, y, 0.2, 42, true)
	require.NoError(t, err)

	pos := 0
	for k := range s.TestIndices {
		if s.YTest.At(k, 0) == 1 {
			pos++
		}
	}
	assert.Equal(t, 18, pos)
	assert.Len(t, s.TestIndices, 40)
}

func TestTrainTestSplit_Invalid(t *testing.T) {
	X, y := splitFixture(10)
	for _, ts := range []float64{0, 1, -0.1, 1.5} {
		_, err := TrainTestSplit(X, y, ts, 42, false)
		assert.Error(t, err, "test size %v", ts)
	}

	_, err := TrainTestSplit(X, mat.NewDense(9, 1, nil), 0.2, 42, false)
	assert.Error(t, err)

	one, oneY := splitFixture(1)
	_, err = TrainTestSplit(one, oneY, 0.2, 42, false)
	assert.Error(t, err)
}
