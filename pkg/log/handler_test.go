package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"testing"

	adapterrors "github.com/YuminosukeSato/adaptgo/pkg/errors"
)

func TestErrFmtHandlerExpandsErrorAttr(t *testing.T) {
	var buf bytes.Buffer
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger := slog.New(handler)

	logger.Error("transform failed", ErrAttr(adapterrors.NewNotAdaptedError("Normalization", "Transform")))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v\noutput: %s", err, buf.String())
	}

	if entry[ErrorCodeKey] != ErrorNotAdapted {
		t.Errorf("%s = %v, want %s", ErrorCodeKey, entry[ErrorCodeKey], ErrorNotAdapted)
	}
	if _, ok := entry[StacktraceAttrKey]; !ok {
		t.Error("expected a stacktrace attribute for an error with a recorded stack")
	}
}

func TestErrFmtHandlerPassesPlainRecords(t *testing.T) {
	var buf bytes.Buffer
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger := slog.New(handler)

	logger.Info("adapt finished", SamplesKey, 500)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}
	if _, ok := entry[StacktraceAttrKey]; ok {
		t.Error("records without an error attribute must not gain a stacktrace")
	}
	if _, ok := entry[ErrorCodeKey]; ok {
		t.Error("records without an error attribute must not gain an error code")
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not adapted", adapterrors.NewNotAdaptedError("Hashing", "Transform"), ErrorNotAdapted},
		{"dimension", adapterrors.NewDimensionError("Normalization.Transform", 4, 3, 1), ErrorDimensionMismatch},
		{"input shape", adapterrors.NewInputShapeError("adapt", []int{100, 4}, []int{100, 3}), ErrorDimensionMismatch},
		{"batch kind", adapterrors.NewBatchKindError("Hashing.Transform", "strings", "floats"), ErrorBatchKindMismatch},
		{"numerical", adapterrors.NewNumericalInstabilityError("moments_update", []float64{math.NaN()}, 2), ErrorNumerical},
		{"validation", adapterrors.NewValidationError("num_bins", "must be positive", -1), ErrorInvalidInput},
		{"value", adapterrors.NewValueError("NewDiscretization", "num_buckets must be at least 2"), ErrorInvalidInput},
		{"empty data", adapterrors.Wrap(adapterrors.ErrEmptyData, "in Adapt"), ErrorEmptyData},
		{"empty sample", adapterrors.Wrap(adapterrors.ErrEmptySample, "in Finalize"), ErrorEmptyData},
		{"unclassified", adapterrors.New("disk full"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyError(tt.err); got != tt.want {
				t.Errorf("classifyError() = %q, want %q", got, tt.want)
			}
		})
	}
}
