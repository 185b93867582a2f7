package chart

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/bcpredict/dataset"
	"github.com/YuminosukeSato/bcpredict/dataset/datasettest"
)

func normalizer(t *testing.T) (*Normalizer, *dataset.Dataset) {
	t.Helper()
	ds := datasettest.Synthetic(200, 1)
	n, err := NewNormalizer(ds)
	require.NoError(t, err)
	return n, ds
}

func TestNormalizer_DatasetMapsIntoUnitRange(t *testing.T) {
	n, ds := normalizer(t)
	stats := ds.ColumnStats()

	for _, s := range ds.Samples {
		norm, err := n.Normalize(s.Features)
		require.NoError(t, err)
		for _, v := range norm.Values() {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0+1e-12)
		}
	}

	var mins, maxs [dataset.NumFeatures]float64
	for j, st := range stats {
		mins[j], maxs[j] = st.Min, st.Max
	}
	lo, err := n.Normalize(dataset.RecordFromValues(mins))
	require.NoError(t, err)
	hi, err := n.Normalize(dataset.RecordFromValues(maxs))
	require.NoError(t, err)
	for j := 0; j < dataset.NumFeatures; j++ {
		assert.InDelta(t, 0, lo.Values()[j], 1e-12)
		assert.InDelta(t, 1, hi.Values()[j], 1e-12)
	}
}

func TestNormalizer_OutOfRangeIsNotClipped(t *testing.T) {
	n, ds := normalizer(t)
	stats := ds.ColumnStats()
	values := datasettest.Bases
	values[0] = stats[0].Max + (stats[0].Max - stats[0].Min)

	norm, err := n.Normalize(dataset.RecordFromValues(values))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, norm.RadiusMean, 1e-9)
}

func TestNormalizer_RejectsNonFinite(t *testing.T) {
	n, _ := normalizer(t)
	values := datasettest.Bases
	values[5] = math.NaN()
	_, err := n.Radar(dataset.RecordFromValues(values))
	assert.Error(t, err)
}

func TestRadar_Traces(t *testing.T) {
	n, ds := normalizer(t)
	rec := ds.Samples[3].Features

	chart, err := n.Radar(rec)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{0, 1}, chart.RadialRange)

	norm, err := n.Normalize(rec)
	require.NoError(t, err)
	wantNames := []string{"Mean", "Standard Error", "Worst Value"}
	for i, tr := range chart.Traces {
		assert.Equal(t, wantNames[i], tr.Name)
		assert.Equal(t, TraceColors[i], tr.Color)
		assert.Equal(t, dataset.Categories, tr.Theta)
		assert.Equal(t, norm.Trace(dataset.Variants[i]), tr.R)
	}
	assert.Equal(t, norm.RadiusMean, chart.Traces[0].R[0])
	assert.Equal(t, norm.FractalDimensionWorst, chart.Traces[2].R[9])
}

func TestRenderSVG(t *testing.T) {
	n, ds := normalizer(t)
	chart, err := n.Radar(ds.Samples[0].Features)
	require.NoError(t, err)

	svg, err := RenderSVG(chart, 6*vg.Inch, 6*vg.Inch)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(svg, []byte("<svg")))
	for _, label := range []string{"Radius", "Concave Points", "Standard Error", "Worst Value"} {
		assert.True(t, bytes.Contains(svg, []byte(label)), "missing %q", label)
	}
}

func TestTracePoints_StayOnOwnSpoke(t *testing.T) {
	n, ds := normalizer(t)
	stats := ds.ColumnStats()
	var above [dataset.NumFeatures]float64
	for j, st := range stats {
		above[j] = 2 * st.Max
	}

	tests := []struct {
		name string
		rec  dataset.FeatureRecord
	}{
		{"all zero", dataset.FeatureRecord{}},
		{"sample", ds.Samples[0].Features},
		{"above range", dataset.RecordFromValues(above)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chart, err := n.Radar(tt.rec)
			require.NoError(t, err)

			for _, tr := range chart.Traces {
				pts := tracePoints(tr, chart.RadialRange)
				for i, pt := range pts {
					spoke := polar(1, i)
					assert.GreaterOrEqual(t, pt.X*spoke.X+pt.Y*spoke.Y, -1e-12, "%s point %d crosses the centre", tr.Name, i)
					assert.InDelta(t, math.Max(tr.R[i], 0), math.Hypot(pt.X, pt.Y), 1e-12)
				}
			}

			_, err = RenderSVG(chart, 6*vg.Inch, 6*vg.Inch)
			require.NoError(t, err)
		})
	}
}

func TestRenderSVG_BelowRangeDrawnAtCentre(t *testing.T) {
	n, _ := normalizer(t)
	chart, err := n.Radar(dataset.FeatureRecord{})
	require.NoError(t, err)
	require.Less(t, chart.Traces[0].R[0], 0.0, "trace values are left unclipped")

	for _, tr := range chart.Traces {
		for i, pt := range tracePoints(tr, chart.RadialRange) {
			assert.LessOrEqual(t, math.Hypot(pt.X, pt.Y), 1e-12, "%s point %d", tr.Name, i)
		}
	}
	_, err = RenderSVG(chart, vg.Inch, vg.Inch)
	assert.NoError(t, err)
}

func TestRenderSVG_InvalidChart(t *testing.T) {
	_, err := RenderSVG(RadarChart{}, vg.Inch, vg.Inch)
	assert.Error(t, err, "empty radial range")

	n, ds := normalizer(t)
	chart, err := n.Radar(ds.Samples[0].Features)
	require.NoError(t, err)
	chart.Traces[1].Color = "chartreuse"
	_, err = RenderSVG(chart, vg.Inch, vg.Inch)
	assert.Error(t, err)
}

func TestCache(t *testing.T) {
	n, ds := normalizer(t)
	c, err := NewCache(2, 4*vg.Inch, 4*vg.Inch)
	require.NoError(t, err)

	a, err := n.Radar(ds.Samples[0].Features)
	require.NoError(t, err)
	b, err := n.Radar(ds.Samples[1].Features)
	require.NoError(t, err)

	first, err := c.SVG(a)
	require.NoError(t, err)
	again, err := c.SVG(a)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	_, err = c.SVG(b)
	require.NoError(t, err)
	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(2), misses)
	assert.Equal(t, 2, c.Len())
}

func TestCacheKey_Quantised(t *testing.T) {
	n, ds := normalizer(t)
	a, err := n.Radar(ds.Samples[0].Features)
	require.NoError(t, err)
	a.Traces[0].R[0] = 0.5
	b := a
	b.Traces[0].R[0] += keyPrecision / 10
	assert.Equal(t, cacheKey(a), cacheKey(b))

	b.Traces[0].R[0] += keyPrecision * 10
	assert.NotEqual(t, cacheKey(a), cacheKey(b))
}

func TestNewCache_InvalidSize(t *testing.T) {
	_, err := NewCache(0, vg.Inch, vg.Inch)
	assert.Error(t, err)
}
