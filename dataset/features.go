package dataset

import (
	"math"

	"github.com/cockroachdb/errors"

	bcErrors "github.com/YuminosukeSato/bcpredict/pkg/errors"
)

// NumFeatures is the number of measurements per sample.
const NumFeatures = 30

// NumCategories is the number of nucleus characteristics, each measured in
// three variants.
const NumCategories = 10

// Variant is one of the three statistics computed per characteristic.
type Variant int

const (
	VariantMean Variant = iota
	VariantSE
	VariantWorst
)

// Variants lists the three variants in column order.
var Variants = [3]Variant{VariantMean, VariantSE, VariantWorst}

// String returns the column suffix of the variant.
func (v Variant) String() string {
	switch v {
	case VariantMean:
		return "mean"
	case VariantSE:
		return "se"
	default:
		return "worst"
	}
}

// Title returns the legend name used by the radar chart.
func (v Variant) Title() string {
	switch v {
	case VariantMean:
		return "Mean"
	case VariantSE:
		return "Standard Error"
	default:
		return "Worst Value"
	}
}

// Categories are the ten characteristics in column order.
var Categories = [NumCategories]string{
	"Radius", "Texture", "Perimeter", "Area",
	"Smoothness", "Compactness",
	"Concavity", "Concave Points",
	"Symmetry", "Fractal Dimension",
}

// Feature describes one measurement column.
type Feature struct {
	Key      string // CSV column name, e.g. "concave points_mean"
	Label    string // slider label, e.g. "Concave points (mean)"
	Category int    // index into Categories
	Variant  Variant
}

// Features is the descriptor table in canonical column order: the ten mean
// columns, then the ten standard error columns, then the ten worst columns.
var Features = [NumFeatures]Feature{
	{"radius_mean", "Radius (mean)", 0, VariantMean},
	{"texture_mean", "Texture (mean)", 1, VariantMean},
	{"perimeter_mean", "Perimeter (mean)", 2, VariantMean},
	{"area_mean", "Area (mean)", 3, VariantMean},
	{"smoothness_mean", "Smoothness (mean)", 4, VariantMean},
	{"compactness_mean", "Compactness (mean)", 5, VariantMean},
	{"concavity_mean", "Concavity (mean)", 6, VariantMean},
	{"concave points_mean", "Concave points (mean)", 7, VariantMean},
	{"symmetry_mean", "Symmetry (mean)", 8, VariantMean},
	{"fractal_dimension_mean", "Fractal dimension (mean)", 9, VariantMean},
	{"radius_se", "Radius (se)", 0, VariantSE},
	{"texture_se", "Texture (se)", 1, VariantSE},
	{"perimeter_se", "Perimeter (se)", 2, VariantSE},
	{"area_se", "Area (se)", 3, VariantSE},
	{"smoothness_se", "Smoothness (se)", 4, VariantSE},
	{"compactness_se", "Compactness (se)", 5, VariantSE},
	{"concavity_se", "Concavity (se)", 6, VariantSE},
	{"concave points_se", "Concave points (se)", 7, VariantSE},
	{"symmetry_se", "Symmetry (se)", 8, VariantSE},
	{"fractal_dimension_se", "Fractal dimension (se)", 9, VariantSE},
	{"radius_worst", "Radius (worst)", 0, VariantWorst},
	{"texture_worst", "Texture (worst)", 1, VariantWorst},
	{"perimeter_worst", "Perimeter (worst)", 2, VariantWorst},
	{"area_worst", "Area (worst)", 3, VariantWorst},
	{"smoothness_worst", "Smoothness (worst)", 4, VariantWorst},
	{"compactness_worst", "Compactness (worst)", 5, VariantWorst},
	{"concavity_worst", "Concavity (worst)", 6, VariantWorst},
	{"concave points_worst", "Concave points (worst)", 7, VariantWorst},
	{"symmetry_worst", "Symmetry (worst)", 8, VariantWorst},
	{"fractal_dimension_worst", "Fractal dimension (worst)", 9, VariantWorst},
}

// FeatureIndex returns the column position of key, or -1.
func FeatureIndex(key string) int {
	for i, f := range Features {
		if f.Key == key {
			return i
		}
	}
	return -1
}

// FeatureKeys returns the CSV column names in canonical order.
func FeatureKeys() []string {
	keys := make([]string, NumFeatures)
	for i, f := range Features {
		keys[i] = f.Key
	}
	return keys
}

// FeatureRecord holds the 30 measurements of one cell nuclei sample.
type FeatureRecord struct {
	RadiusMean           float64 `json:"radius_mean"`
	TextureMean          float64 `json:"texture_mean"`
	PerimeterMean        float64 `json:"perimeter_mean"`
	AreaMean             float64 `json:"area_mean"`
	SmoothnessMean       float64 `json:"smoothness_mean"`
	CompactnessMean      float64 `json:"compactness_mean"`
	ConcavityMean        float64 `json:"concavity_mean"`
	ConcavePointsMean    float64 `json:"concave points_mean"`
	SymmetryMean         float64 `json:"symmetry_mean"`
	FractalDimensionMean float64 `json:"fractal_dimension_mean"`

	RadiusSE           float64 `json:"radius_se"`
	TextureSE          float64 `json:"texture_se"`
	PerimeterSE        float64 `json:"perimeter_se"`
	AreaSE             float64 `json:"area_se"`
	SmoothnessSE       float64 `json:"smoothness_se"`
	CompactnessSE      float64 `json:"compactness_se"`
	ConcavitySE        float64 `json:"concavity_se"`
	ConcavePointsSE    float64 `json:"concave points_se"`
	SymmetrySE         float64 `json:"symmetry_se"`
	FractalDimensionSE float64 `json:"fractal_dimension_se"`

	RadiusWorst           float64 `json:"radius_worst"`
	TextureWorst          float64 `json:"texture_worst"`
	PerimeterWorst        float64 `json:"perimeter_worst"`
	AreaWorst             float64 `json:"area_worst"`
	SmoothnessWorst       float64 `json:"smoothness_worst"`
	CompactnessWorst      float64 `json:"compactness_worst"`
	ConcavityWorst        float64 `json:"concavity_worst"`
	ConcavePointsWorst    float64 `json:"concave points_worst"`
	SymmetryWorst         float64 `json:"symmetry_worst"`
	FractalDimensionWorst float64 `json:"fractal_dimension_worst"`
}

// fields returns pointers to the measurements in canonical order.
func (r *FeatureRecord) fields() [NumFeatures]*float64 {
	return [NumFeatures]*float64{
		&r.RadiusMean, &r.TextureMean, &r.PerimeterMean, &r.AreaMean, &r.SmoothnessMean,
		&r.CompactnessMean, &r.ConcavityMean, &r.ConcavePointsMean, &r.SymmetryMean, &r.FractalDimensionMean,
		&r.RadiusSE, &r.TextureSE, &r.PerimeterSE, &r.AreaSE, &r.SmoothnessSE,
		&r.CompactnessSE, &r.ConcavitySE, &r.ConcavePointsSE, &r.SymmetrySE, &r.FractalDimensionSE,
		&r.RadiusWorst, &r.TextureWorst, &r.PerimeterWorst, &r.AreaWorst, &r.SmoothnessWorst,
		&r.CompactnessWorst, &r.ConcavityWorst, &r.ConcavePointsWorst, &r.SymmetryWorst, &r.FractalDimensionWorst,
	}
}

// Values returns the measurements as an ordered tuple.
func (r FeatureRecord) Values() [NumFeatures]float64 {
	var out [NumFeatures]float64
	for i, p := range r.fields() {
		out[i] = *p
	}
	return out
}

// Slice returns Values as a freshly allocated slice.
func (r FeatureRecord) Slice() []float64 {
	v := r.Values()
	return v[:]
}

// Get returns the measurement stored under a CSV column name.
func (r FeatureRecord) Get(key string) (float64, bool) {
	i := FeatureIndex(key)
	if i < 0 {
		return 0, false
	}
	return r.Values()[i], true
}

// RecordFromValues builds a record from an ordered tuple.
func RecordFromValues(values [NumFeatures]float64) FeatureRecord {
	var r FeatureRecord
	for i, p := range r.fields() {
		*p = values[i]
	}
	return r
}

// RecordFromSlice builds a record from exactly NumFeatures values.
func RecordFromSlice(values []float64) (FeatureRecord, error) {
	if len(values) != NumFeatures {
		return FeatureRecord{}, bcErrors.NewDimensionError("RecordFromSlice", NumFeatures, len(values), 1)
	}
	var arr [NumFeatures]float64
	copy(arr[:], values)
	return RecordFromValues(arr), nil
}

// RecordFromMap builds a record keyed by CSV column names. Every key must be
// present and no unknown key is accepted.
func RecordFromMap(m map[string]float64) (FeatureRecord, error) {
	var arr [NumFeatures]float64
	for key := range m {
		if FeatureIndex(key) < 0 {
			return FeatureRecord{}, bcErrors.NewValidationError("features", "unknown feature", key)
		}
	}
	for i, f := range Features {
		v, ok := m[f.Key]
		if !ok {
			return FeatureRecord{}, bcErrors.NewValidationError("features", "missing feature", f.Key)
		}
		arr[i] = v
	}
	return RecordFromValues(arr), nil
}

// Validate reports an error when any measurement is NaN or infinite.
func (r FeatureRecord) Validate() error {
	for i, v := range r.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.WithStack(&bcErrors.ValidationError{
				ParamName: Features[i].Key,
				Reason:    "measurement must be finite",
				Value:     v,
			})
		}
	}
	return nil
}

// Trace returns the ten measurements of one variant, in Categories order.
func (r FeatureRecord) Trace(v Variant) [NumCategories]float64 {
	values := r.Values()
	var out [NumCategories]float64
	copy(out[:], values[int(v)*NumCategories:(int(v)+1)*NumCategories])
	return out
}
