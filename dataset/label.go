package dataset

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Label is the diagnosis class of a sample.
type Label int

const (
	Benign    Label = 0
	Malignant Label = 1
)

// String returns "benign" or "malignant".
func (l Label) String() string {
	switch l {
	case Benign:
		return "benign"
	case Malignant:
		return "malignant"
	default:
		return "unknown"
	}
}

// Display returns the badge text shown to users.
func (l Label) Display() string {
	if l == Malignant {
		return "Malicious"
	}
	return "Benign"
}

// ParseDiagnosis maps the dataset's diagnosis code ("M" or "B") to a Label.
func ParseDiagnosis(code string) (Label, error) {
	switch strings.TrimSpace(code) {
	case "M":
		return Malignant, nil
	case "B":
		return Benign, nil
	default:
		return 0, errors.Newf("unknown diagnosis code %q", code)
	}
}
