package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Fit",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "bcpredict: Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "bcpredict: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("StandardScaler.Transform", 30, 29, 1)

	want := "bcpredict: StandardScaler.Transform: dimension mismatch on axis 1 (features). Expected 30, got 29"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("LogisticRegression", "PredictProba")

	want := "bcpredict: LogisticRegression: this model is not fitted yet. Call Fit() before using PredictProba()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewConvergenceWarning(t *testing.T) {
	warn := NewConvergenceWarning("lbfgs", 1000, "line search failed")

	want := "lbfgs failed to converge after 1000 iterations: line search failed"
	if warn.Error() != want {
		t.Errorf("Error() = %v, want %v", warn.Error(), want)
	}
}

func TestDomainErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    error
		notKind []error
		wantMsg string
	}{
		{
			name:    "data unavailable with line",
			err:     NewDataUnavailableError("Data/data.csv", 12, "unknown diagnosis code \"X\"", nil),
			kind:    ErrDataUnavailable,
			notKind: []error{ErrModelLoad, ErrDegenerateTrainingData},
			wantMsg: "bcpredict: data unavailable: Data/data.csv:12: unknown diagnosis code \"X\"",
		},
		{
			name:    "data unavailable with cause",
			err:     NewDataUnavailableError("Data/data.csv", 0, "open", fmt.Errorf("no such file")),
			kind:    ErrDataUnavailable,
			notKind: []error{ErrModelLoad},
			wantMsg: "bcpredict: data unavailable: Data/data.csv: open: no such file",
		},
		{
			name:    "model load",
			err:     NewModelLoadError("scaler.gob", "decode", fmt.Errorf("unexpected EOF")),
			kind:    ErrModelLoad,
			notKind: []error{ErrDataUnavailable},
			wantMsg: "bcpredict: cannot load scaler.gob: decode: unexpected EOF",
		},
		{
			name:    "degenerate training data",
			err:     NewDegenerateDataError("LogisticRegression.Fit", 1),
			kind:    ErrDegenerateTrainingData,
			notKind: []error{ErrModelLoad, ErrDataUnavailable},
			wantMsg: "bcpredict: LogisticRegression.Fit: need samples of at least 2 classes, got 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", tt.err.Error(), tt.wantMsg)
			}
			if !Is(tt.err, tt.kind) {
				t.Errorf("expected error to be marked with %v", tt.kind)
			}
			// マークはラップ後も保持される
			if !Is(Wrap(tt.err, "outer"), tt.kind) {
				t.Errorf("expected wrapped error to keep mark %v", tt.kind)
			}
			for _, other := range tt.notKind {
				if Is(tt.err, other) {
					t.Errorf("error should not be marked with %v", other)
				}
			}
		})
	}
}

func TestDataUnavailableErrorAs(t *testing.T) {
	err := Wrap(NewDataUnavailableError("data.csv", 3, "missing column \"diagnosis\"", nil), "load dataset")

	var dataErr *DataUnavailableError
	if !As(err, &dataErr) {
		t.Fatal("Error should be castable to *DataUnavailableError")
	}
	if dataErr.Line != 3 || dataErr.Source != "data.csv" {
		t.Errorf("unexpected location %s:%d", dataErr.Source, dataErr.Line)
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Fit", 30, 0)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	expectedMsg := "in Fit: expected 30, got 0"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestWarnRouting(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewUndefinedMetricWarning("precision", "no predicted samples", 0))

	if len(got) != 1 {
		t.Fatalf("expected 1 routed warning, got %d", len(got))
	}
	var umw *UndefinedMetricWarning
	if !As(got[0], &umw) {
		t.Fatalf("expected *UndefinedMetricWarning, got %T", got[0])
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("lbfgs", []float64{1, 2, 3}, 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	nan := 0.0
	nan = nan / nan
	err := CheckNumericalStability("lbfgs", []float64{1, nan}, 7)
	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatalf("expected *NumericalInstabilityError, got %v", err)
	}
	if numErr.Iteration != 7 {
		t.Errorf("Iteration = %d, want 7", numErr.Iteration)
	}
}
