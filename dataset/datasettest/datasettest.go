// Package datasettest generates deterministic WDBC-shaped data for tests.
package datasettest

import (
	"bytes"
	"encoding/csv"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/YuminosukeSato/bcpredict/dataset"
)

// Bases are typical column means of the diagnostic table.
var Bases = [dataset.NumFeatures]float64{
	14.13, 19.29, 91.97, 654.9, 0.0964, 0.1043, 0.0888, 0.0489, 0.1812, 0.0628,
	0.405, 1.217, 2.866, 40.34, 0.00704, 0.02548, 0.03189, 0.0118, 0.02054, 0.003795,
	16.27, 25.68, 107.26, 880.6, 0.1324, 0.2543, 0.2722, 0.1146, 0.2901, 0.08395,
}

// Shift is the per-feature offset of malignant samples, in units of the
// 10% relative noise.
const Shift = 0.3

// Synthetic returns n samples where sample i is malignant when i%20 < 9
// (base rate 0.45). Each measurement is base*(1 + 0.1*(z + Shift*y)).
func Synthetic(n int, seed int64) *dataset.Dataset {
	rng := rand.New(rand.NewSource(seed))
	samples := make([]dataset.Sample, n)
	for i := range samples {
		label := dataset.Benign
		if i%20 < 9 {
			label = dataset.Malignant
		}
		var values [dataset.NumFeatures]float64
		for j, base := range Bases {
			z := rng.NormFloat64()
			values[j] = base * (1 + 0.1*(z+Shift*float64(label)))
		}
		samples[i] = dataset.Sample{Features: dataset.RecordFromValues(values), Label: label}
	}
	return dataset.New(samples)
}

// CSV renders ds the way the published file is laid out: an id column,
// diagnosis, the 30 measurements and a trailing empty column.
func CSV(ds *dataset.Dataset) []byte {
	return CSVWithout(ds, "")
}

// CSVWithout renders ds as CSV with the named column omitted.
func CSVWithout(ds *dataset.Dataset, drop string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append([]string{"id", "diagnosis"}, dataset.FeatureKeys()...)
	header = append(header, "")
	keep := make([]bool, len(header))
	for i, h := range header {
		keep[i] = drop == "" || h != drop
	}
	_ = w.Write(filter(header, keep))

	for i, s := range ds.Samples {
		code := "B"
		if s.Label == dataset.Malignant {
			code = "M"
		}
		row := []string{strconv.Itoa(842302 + i), code}
		for _, v := range s.Features.Values() {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		row = append(row, "")
		_ = w.Write(filter(row, keep))
	}
	w.Flush()
	return buf.Bytes()
}

func filter(in []string, keep []bool) []string {
	out := make([]string, 0, len(in))
	for i, s := range in {
		if keep[i] {
			out = append(out, s)
		}
	}
	return out
}

// WriteFile writes data into a fresh temp directory and returns the path.
func WriteFile(t testing.TB, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}
