// Package chart builds the radar chart of a measurement vector.
//
// Values are min-max normalised against the full dataset so that the ten
// categories share one radial axis. The normalisation is for display only;
// predictions use the StandardScaler stored with the classifier.
package chart

import (
	"github.com/YuminosukeSato/bcpredict/dataset"
	"github.com/YuminosukeSato/bcpredict/pkg/errors"
	"github.com/YuminosukeSato/bcpredict/preprocessing"
)

// Trace is one closed polygon of the radar chart.
type Trace struct {
	Name  string                        `json:"name"`
	Color string                        `json:"color"`
	R     [dataset.NumCategories]float64 `json:"r"`
	Theta [dataset.NumCategories]string  `json:"theta"`
}

// RadarChart is the chart for one record: mean, standard error and worst
// value traces over the ten measurement categories.
type RadarChart struct {
	Traces      [3]Trace   `json:"traces"`
	RadialRange [2]float64 `json:"radial_range"`
}

// TraceColors are the fill colours of the mean, standard error and worst
// value traces.
var TraceColors = [3]string{"mediumpurple", "hotpink", "lightblue"}

// Normalizer maps raw measurements into [0, 1] using the column minimum and
// maximum of the dataset it was built from. Inputs outside the observed
// range map outside [0, 1]; they are not clipped.
type Normalizer struct {
	scaler *preprocessing.MinMaxScaler
}

// NewNormalizer fits the normaliser on the unscaled feature matrix of ds.
func NewNormalizer(ds *dataset.Dataset) (*Normalizer, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, errors.NewModelError("chart.NewNormalizer", "empty dataset", errors.ErrEmptyData)
	}
	scaler := preprocessing.NewMinMaxScalerDefault()
	if err := scaler.Fit(ds.Matrix()); err != nil {
		return nil, errors.Wrap(err, "fit normaliser")
	}
	return &Normalizer{scaler: scaler}, nil
}

// Normalize returns the normalised measurements of rec.
func (n *Normalizer) Normalize(rec dataset.FeatureRecord) (dataset.FeatureRecord, error) {
	if err := rec.Validate(); err != nil {
		return dataset.FeatureRecord{}, err
	}
	out, err := n.scaler.TransformVector(rec.Slice())
	if err != nil {
		return dataset.FeatureRecord{}, err
	}
	return dataset.RecordFromSlice(out)
}

// Radar builds the chart for rec.
func (n *Normalizer) Radar(rec dataset.FeatureRecord) (RadarChart, error) {
	norm, err := n.Normalize(rec)
	if err != nil {
		return RadarChart{}, err
	}

	chart := RadarChart{RadialRange: [2]float64{0, 1}}
	for i, v := range dataset.Variants {
		chart.Traces[i] = Trace{
			Name:  v.Title(),
			Color: TraceColors[i],
			R:     norm.Trace(v),
			Theta: dataset.Categories,
		}
	}
	return chart, nil
}
