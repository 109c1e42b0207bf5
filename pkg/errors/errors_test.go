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
			op:       "Cap.Fit",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "riskprep: Cap.Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Scale.Apply",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "riskprep: Scale.Apply: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			// 基本的なエラーメッセージの確認
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

func TestNewMissingReferenceError(t *testing.T) {
	err := NewMissingReferenceError("Cap.Apply", "income", "Cap_Value")

	want := `riskprep: Cap.Apply: missing reference value Cap_Value of "income"`
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var refErr *MissingReferenceError
	if !As(err, &refErr) {
		t.Fatal("Error should be castable to *MissingReferenceError")
	}
	if refErr.Variable != "income" {
		t.Errorf("Variable = %q, want income", refErr.Variable)
	}
}

func TestNewDegenerateStatisticError(t *testing.T) {
	err := NewDegenerateStatisticError("Normalize.Apply", "age", "std == 0")

	want := `riskprep: Normalize.Apply: degenerate statistic for "age": std == 0`
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var degErr *DegenerateStatisticError
	if !As(err, &degErr) {
		t.Error("Error should be castable to *DegenerateStatisticError")
	}
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError(3)

	if !strings.Contains(err.Error(), "3 error(s)") {
		t.Errorf("Error() = %v, want error count", err.Error())
	}

	var cfgErr *ConfigError
	if !As(err, &cfgErr) || cfgErr.Count != 3 {
		t.Error("Error should be castable to *ConfigError with Count 3")
	}
}

func TestNewUnknownTypeError(t *testing.T) {
	err := NewUnknownTypeError("opened_at", "timestamp")

	var typeErr *UnknownTypeError
	if !As(err, &typeErr) {
		t.Fatal("Error should be castable to *UnknownTypeError")
	}
	if typeErr.Type != "timestamp" {
		t.Errorf("Type = %q, want timestamp", typeErr.Type)
	}
}

func TestWarn(t *testing.T) {
	var got error
	SetWarningHandler(func(w error) { got = w })
	defer SetWarningHandler(nil)

	Warn(NewMissingImputeWarning("income", 4))

	var w *MissingImputeWarning
	if !As(got, &w) {
		t.Fatalf("handler received %v, want *MissingImputeWarning", got)
	}
	if w.Error() != `"income" has 4 missing values but no impute value` {
		t.Errorf("Error() = %v", w.Error())
	}
}

func TestWrapfAndIs(t *testing.T) {
	wrapped := Wrapf(ErrMissingWoeReference, "in %s", "Woe.Apply")

	if !Is(wrapped, ErrMissingWoeReference) {
		t.Error("Expected Is(wrapped, ErrMissingWoeReference) to be true")
	}
	if !strings.Contains(wrapped.Error(), "in Woe.Apply") {
		t.Error("Expected wrapped error to contain wrapping message")
	}
}

func TestClipValue(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0.25, 0.25},
		{1.7, 1},
	}
	for _, tt := range tests {
		if got := ClipValue(tt.in, 0, 1); got != tt.want {
			t.Errorf("ClipValue(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
