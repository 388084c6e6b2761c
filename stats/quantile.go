package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/adaptgo/pkg/errors"
)

// BoundariesState holds the per-column bucket boundaries published by a
// finished adapt pass. Boundaries are strictly increasing within each
// column. Immutable once published.
type BoundariesState struct {
	// Boundaries は特徴量列ごとのバケット境界（狭義単調増加）
	Boundaries [][]float64 `json:"boundaries"`
}

// NewBoundariesState creates a state from precomputed boundaries,
// bypassing the adapt phase. Each column needs at least one boundary and
// the boundaries must be strictly increasing.
func NewBoundariesState(boundaries [][]float64) (*BoundariesState, error) {
	if len(boundaries) == 0 {
		return nil, errors.NewValidationError("boundaries", "at least one feature column is required", boundaries)
	}
	for j, b := range boundaries {
		if len(b) == 0 {
			return nil, errors.NewValidationError("boundaries", "each column needs at least one boundary", j)
		}
		for i := 1; i < len(b); i++ {
			if b[i] <= b[i-1] {
				return nil, errors.NewValidationError("boundaries",
					"boundaries must be strictly increasing", b)
			}
		}
	}
	copied := make([][]float64, len(boundaries))
	for j, b := range boundaries {
		copied[j] = append([]float64(nil), b...)
	}
	return &BoundariesState{Boundaries: copied}, nil
}

// NFeatures returns the number of feature columns the state covers.
func (s *BoundariesState) NFeatures() int {
	return len(s.Boundaries)
}

// NumBuckets returns the effective bucket count of a column: one more
// than its boundary count. The first and last buckets are unbounded.
func (s *BoundariesState) NumBuckets(feature int) int {
	return len(s.Boundaries[feature]) + 1
}

// Bucket maps a value to its bucket index in column feature: the number
// of boundaries <= v, found by binary search. Monotonic in v. NaN maps to
// the dedicated invalid bucket index NumBuckets(feature), never to a real
// bucket and never silently.
func (s *BoundariesState) Bucket(feature int, v float64) int {
	b := s.Boundaries[feature]
	if math.IsNaN(v) {
		return len(b) + 1
	}
	idx := sort.SearchFloat64s(b, v)
	if idx < len(b) && b[idx] == v {
		idx++
	}
	return idx
}

// QuantileAccumulator retains every observed value per column and, at
// Finalize, sorts them and picks NumBuckets-1 boundaries at evenly spaced
// empirical quantiles. Exact (zero approximation error) at the cost of
// O(sample size) memory; Merge is concatenation.
//
// Not safe for concurrent Update; partition and Merge instead.
type QuantileAccumulator struct {
	numBuckets int
	values     [][]float64
	nFeatures  int
	chunks     int
	finalized  bool
}

// NewQuantileAccumulator creates an empty accumulator targeting the given
// bucket count. Fewer than 2 buckets cannot discretize anything.
func NewQuantileAccumulator(numBuckets int) (*QuantileAccumulator, error) {
	if numBuckets < 2 {
		return nil, errors.NewValidationError("num_buckets", "must be at least 2", numBuckets)
	}
	return &QuantileAccumulator{numBuckets: numBuckets}, nil
}

// Update retains one chunk of observations.
// Same input contract as MomentsAccumulator.Update: first chunk fixes the
// feature count, NaN or Inf in adapt input is an error.
func (a *QuantileAccumulator) Update(X mat.Matrix) error {
	if a.finalized {
		return errors.Wrap(errors.ErrStateFinalized, "QuantileAccumulator.Update")
	}

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewTransformError("QuantileAccumulator.Update", "empty data", errors.ErrEmptyData)
	}

	if a.nFeatures == 0 {
		a.nFeatures = c
		a.values = make([][]float64, c)
	} else if c != a.nFeatures {
		return errors.NewDimensionError("QuantileAccumulator.Update", a.nFeatures, c, 1)
	}

	if err := errors.CheckMatrix("QuantileAccumulator.Update", X, r, c, a.chunks); err != nil {
		return err
	}

	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			a.values[j] = append(a.values[j], X.At(i, j))
		}
	}

	a.chunks++
	return nil
}

// Merge concatenates another accumulator's retained values into this one.
// Both sides must target the same bucket count.
func (a *QuantileAccumulator) Merge(other *QuantileAccumulator) error {
	if a.finalized || other.finalized {
		return errors.Wrap(errors.ErrStateFinalized, "QuantileAccumulator.Merge")
	}
	if other.numBuckets != a.numBuckets {
		return errors.NewValidationError("num_buckets",
			"merge requires matching bucket counts", other.numBuckets)
	}
	if other.nFeatures == 0 {
		return nil
	}

	if a.nFeatures == 0 {
		a.nFeatures = other.nFeatures
		a.values = make([][]float64, other.nFeatures)
	} else if other.nFeatures != a.nFeatures {
		return errors.NewDimensionError("QuantileAccumulator.Merge", a.nFeatures, other.nFeatures, 1)
	}

	for j := 0; j < a.nFeatures; j++ {
		a.values[j] = append(a.values[j], other.values[j]...)
	}
	a.chunks += other.chunks
	return nil
}

// Finalize sorts the retained values and publishes per-column boundaries
// at quantiles i/NumBuckets for i in [1, NumBuckets). Duplicate quantile
// values (heavily repeated data) are collapsed to keep the boundaries
// strictly increasing; a BoundaryCollapseWarning is emitted when the
// effective bucket count shrinks below the requested one.
func (a *QuantileAccumulator) Finalize() (*BoundariesState, error) {
	if a.finalized {
		return nil, errors.Wrap(errors.ErrStateFinalized, "QuantileAccumulator.Finalize")
	}
	if a.nFeatures == 0 || len(a.values[0]) == 0 {
		return nil, errors.Wrap(errors.ErrEmptySample, "QuantileAccumulator.Finalize")
	}

	state := &BoundariesState{Boundaries: make([][]float64, a.nFeatures)}

	for j := 0; j < a.nFeatures; j++ {
		sorted := a.values[j]
		sort.Float64s(sorted)

		bounds := make([]float64, 0, a.numBuckets-1)
		for i := 1; i < a.numBuckets; i++ {
			p := float64(i) / float64(a.numBuckets)
			q := stat.Quantile(p, stat.Empirical, sorted, nil)
			// 重複した分位点は捨てて狭義単調増加を保つ
			if len(bounds) == 0 || q > bounds[len(bounds)-1] {
				bounds = append(bounds, q)
			}
		}

		if len(bounds) < a.numBuckets-1 {
			errors.Warn(errors.NewBoundaryCollapseWarning(
				"QuantileAccumulator", j, a.numBuckets, len(bounds)+1))
		}
		state.Boundaries[j] = bounds
	}

	a.finalized = true
	a.values = nil
	return state, nil
}

// NumBuckets returns the requested bucket count.
func (a *QuantileAccumulator) NumBuckets() int {
	return a.numBuckets
}

// NFeatures returns the feature count fixed by the first Update, or 0 if
// nothing has been accumulated yet.
func (a *QuantileAccumulator) NFeatures() int {
	return a.nFeatures
}
