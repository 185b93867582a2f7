package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	bcErrors "github.com/YuminosukeSato/bcpredict/pkg/errors"
)

const (
	diagnosisColumn = "diagnosis"
	idColumn        = "id"
)

// Load reads the dataset CSV at path. Every failure is marked
// errors.ErrDataUnavailable.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, bcErrors.NewDataUnavailableError(path, 0, "open", err)
	}
	defer f.Close()
	return read(f, path)
}

// Read parses a dataset CSV from r.
func Read(r io.Reader) (*Dataset, error) {
	return read(r, "<reader>")
}

// isArtifactColumn reports whether a header cell is the trailing unnamed
// column produced by a trailing comma in the source file.
func isArtifactColumn(name string) bool {
	return name == "" || strings.HasPrefix(name, "Unnamed:")
}

func read(r io.Reader, source string) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, bcErrors.NewDataUnavailableError(source, 1, "empty file", nil)
	}
	if err != nil {
		return nil, bcErrors.NewDataUnavailableError(source, 1, "read header", err)
	}

	diagIdx, featIdx, err := mapHeader(header)
	if err != nil {
		return nil, bcErrors.NewDataUnavailableError(source, 1, err.Error(), nil)
	}

	var samples []Sample
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, bcErrors.NewDataUnavailableError(source, line, "malformed row", err)
		}
		line, _ := cr.FieldPos(0)

		label, err := ParseDiagnosis(row[diagIdx])
		if err != nil {
			return nil, bcErrors.NewDataUnavailableError(source, line, err.Error(), nil)
		}

		var values [NumFeatures]float64
		for j, idx := range featIdx {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
			if err != nil {
				return nil, bcErrors.NewDataUnavailableError(source, line,
					"non-numeric value in column "+strconv.Quote(Features[j].Key), err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, bcErrors.NewDataUnavailableError(source, line,
					"non-finite value in column "+strconv.Quote(Features[j].Key), nil)
			}
			values[j] = v
		}
		samples = append(samples, Sample{Features: RecordFromValues(values), Label: label})
	}

	if len(samples) == 0 {
		return nil, bcErrors.NewDataUnavailableError(source, 0, "no data rows", nil)
	}
	return New(samples), nil
}

// mapHeader locates the diagnosis and measurement columns by name.
func mapHeader(header []string) (int, [NumFeatures]int, error) {
	var featIdx [NumFeatures]int
	for i := range featIdx {
		featIdx[i] = -1
	}
	diagIdx := -1

	for i, raw := range header {
		name := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
		switch {
		case name == diagnosisColumn:
			if diagIdx >= 0 {
				return 0, featIdx, errors.Newf("duplicate column %q", name)
			}
			diagIdx = i
		case name == idColumn || isArtifactColumn(name):
		default:
			j := FeatureIndex(name)
			if j < 0 {
				return 0, featIdx, errors.Newf("unexpected column %q", name)
			}
			if featIdx[j] >= 0 {
				return 0, featIdx, errors.Newf("duplicate column %q", name)
			}
			featIdx[j] = i
		}
	}

	if diagIdx < 0 {
		return 0, featIdx, errors.Newf("missing column %q", diagnosisColumn)
	}
	for j, idx := range featIdx {
		if idx < 0 {
			return 0, featIdx, errors.Newf("missing column %q", Features[j].Key)
		}
	}
	return diagIdx, featIdx, nil
}
