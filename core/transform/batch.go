// Package transform provides the core contracts and data container for
// adaptable feature preprocessing.
package transform

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/adaptgo/pkg/errors"
)

// Kind identifies the value kind a Batch carries.
type Kind int

const (
	// KindFloats is a dense numeric matrix (n_samples x n_features).
	KindFloats Kind = iota
	// KindStrings is one string value per row.
	KindStrings
	// KindInts is one integer value per row.
	KindInts
	// KindIndexRows is a variable-length sequence of indices per row,
	// as produced by lookup and vectorization transforms.
	KindIndexRows
)

// String returns the snake_case name of the kind, as used in error
// messages and logs.
func (k Kind) String() string {
	switch k {
	case KindFloats:
		return "floats"
	case KindStrings:
		return "strings"
	case KindInts:
		return "ints"
	case KindIndexRows:
		return "index_rows"
	default:
		return "unknown"
	}
}

// Batch is the columnar data container passed between transforms.
// A batch carries exactly one value kind; transforms check the kind at
// the call site and fail with a BatchKindError on mismatch.
type Batch struct {
	kind      Kind
	floats    mat.Matrix
	strings   []string
	ints      []int64
	indexRows [][]int64
}

// NewFloats creates a batch carrying a dense numeric matrix.
func NewFloats(X mat.Matrix) *Batch {
	return &Batch{kind: KindFloats, floats: X}
}

// NewFloatsFromSlice creates a numeric batch from a row-major slice.
// Mostly a convenience for tests and examples.
func NewFloatsFromSlice(data []float64, rows, cols int) *Batch {
	return NewFloats(mat.NewDense(rows, cols, data))
}

// NewStrings creates a batch carrying one string per row.
func NewStrings(values []string) *Batch {
	return &Batch{kind: KindStrings, strings: values}
}

// NewInts creates a batch carrying one integer per row.
func NewInts(values []int64) *Batch {
	return &Batch{kind: KindInts, ints: values}
}

// NewIndexRows creates a batch carrying a variable-length index
// sequence per row.
func NewIndexRows(rows [][]int64) *Batch {
	return &Batch{kind: KindIndexRows, indexRows: rows}
}

// Kind returns the value kind of the batch.
func (b *Batch) Kind() Kind {
	return b.kind
}

// Len returns the number of rows (samples) in the batch.
func (b *Batch) Len() int {
	switch b.kind {
	case KindFloats:
		if b.floats == nil {
			return 0
		}
		r, _ := b.floats.Dims()
		return r
	case KindStrings:
		return len(b.strings)
	case KindInts:
		return len(b.ints)
	case KindIndexRows:
		return len(b.indexRows)
	default:
		return 0
	}
}

// Cols returns the number of feature columns. For strings and ints the
// batch is a single column; for index rows the width varies per row and
// Cols returns -1.
func (b *Batch) Cols() int {
	switch b.kind {
	case KindFloats:
		if b.floats == nil {
			return 0
		}
		_, c := b.floats.Dims()
		return c
	case KindStrings, KindInts:
		return 1
	case KindIndexRows:
		return -1
	default:
		return 0
	}
}

// IsEmpty reports whether the batch has no rows.
func (b *Batch) IsEmpty() bool {
	return b.Len() == 0
}

// Floats returns the numeric matrix, or a BatchKindError attributed to op.
func (b *Batch) Floats(op string) (mat.Matrix, error) {
	if b.kind != KindFloats {
		return nil, errors.NewBatchKindError(op, KindFloats.String(), b.kind.String())
	}
	return b.floats, nil
}

// Strings returns the per-row string values, or a BatchKindError attributed to op.
func (b *Batch) Strings(op string) ([]string, error) {
	if b.kind != KindStrings {
		return nil, errors.NewBatchKindError(op, KindStrings.String(), b.kind.String())
	}
	return b.strings, nil
}

// Ints returns the per-row integer values, or a BatchKindError attributed to op.
func (b *Batch) Ints(op string) ([]int64, error) {
	if b.kind != KindInts {
		return nil, errors.NewBatchKindError(op, KindInts.String(), b.kind.String())
	}
	return b.ints, nil
}

// IndexRows returns the per-row index sequences, or a BatchKindError attributed to op.
func (b *Batch) IndexRows(op string) ([][]int64, error) {
	if b.kind != KindIndexRows {
		return nil, errors.NewBatchKindError(op, KindIndexRows.String(), b.kind.String())
	}
	return b.indexRows, nil
}
