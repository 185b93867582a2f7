// Package dataset loads the Breast Cancer Wisconsin (Diagnostic) table and
// exposes it as labelled FeatureRecords and gonum matrices.
package dataset

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Sample is one labelled row of the dataset.
type Sample struct {
	Features FeatureRecord
	Label    Label
}

// Dataset is the loaded table. It is not modified after loading.
type Dataset struct {
	Samples []Sample
}

// ColumnStat summarises one measurement column.
type ColumnStat struct {
	Min  float64
	Max  float64
	Mean float64
	Std  float64 // population standard deviation
}

// New returns a Dataset over samples.
func New(samples []Sample) *Dataset {
	return &Dataset{Samples: samples}
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Samples)
}

// Matrix returns the n×30 feature matrix in canonical column order.
func (d *Dataset) Matrix() *mat.Dense {
	data := make([]float64, 0, len(d.Samples)*NumFeatures)
	for _, s := range d.Samples {
		v := s.Features.Values()
		data = append(data, v[:]...)
	}
	return mat.NewDense(len(d.Samples), NumFeatures, data)
}

// Targets returns the n×1 label column (1 = malignant).
func (d *Dataset) Targets() *mat.Dense {
	data := make([]float64, len(d.Samples))
	for i, s := range d.Samples {
		data[i] = float64(s.Label)
	}
	return mat.NewDense(len(d.Samples), 1, data)
}

// Labels returns the label of every sample in order.
func (d *Dataset) Labels() []Label {
	out := make([]Label, len(d.Samples))
	for i, s := range d.Samples {
		out[i] = s.Label
	}
	return out
}

// BaseRate returns the fraction of malignant samples.
func (d *Dataset) BaseRate() float64 {
	if len(d.Samples) == 0 {
		return 0
	}
	malignant := 0
	for _, s := range d.Samples {
		if s.Label == Malignant {
			malignant++
		}
	}
	return float64(malignant) / float64(len(d.Samples))
}

// Column returns the values of column j.
func (d *Dataset) Column(j int) []float64 {
	col := make([]float64, len(d.Samples))
	for i, s := range d.Samples {
		col[i] = s.Features.Values()[j]
	}
	return col
}

// ColumnStats returns min, max, mean and population std for every column.
func (d *Dataset) ColumnStats() [NumFeatures]ColumnStat {
	var out [NumFeatures]ColumnStat
	if len(d.Samples) == 0 {
		return out
	}
	m := d.Matrix()
	col := make([]float64, len(d.Samples))
	for j := 0; j < NumFeatures; j++ {
		mat.Col(col, j, m)
		mean, std := stat.PopMeanStdDev(col, nil)
		out[j] = ColumnStat{
			Min:  floats.Min(col),
			Max:  floats.Max(col),
			Mean: mean,
			Std:  std,
		}
	}
	return out
}

// MeanRecord returns the record whose measurements are the column means.
func (d *Dataset) MeanRecord() FeatureRecord {
	var means [NumFeatures]float64
	for j, cs := range d.ColumnStats() {
		means[j] = cs.Mean
	}
	return RecordFromValues(means)
}
