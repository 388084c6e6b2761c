// Package stats provides the streaming accumulators behind the numeric
// preprocessing transforms: pairwise-merged moments for Normalization and
// sorted quantile boundaries for Discretization.
package stats

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/adaptgo/pkg/errors"
)

// MomentsState holds the per-column population moments published by a
// finished adapt pass. States are immutable once published; re-adapting
// builds a new one.
type MomentsState struct {
	// Mean は各特徴量列の平均値
	Mean []float64 `json:"mean"`

	// Variance は各特徴量列の母分散 (M2/n、常に >= 0)
	Variance []float64 `json:"variance"`

	// Count は適応に使われた観測数
	Count int64 `json:"count"`
}

// NFeatures returns the number of feature columns the state covers.
func (s *MomentsState) NFeatures() int {
	return len(s.Mean)
}

// MomentsAccumulator accumulates per-column (count, mean, M2) across
// chunks using the pairwise update of Chan et al., so the accumulated
// rounding error does not grow with the number of chunks.
//
// A single accumulator is not safe for concurrent Update; partition the
// data into per-worker accumulators and Merge them instead.
type MomentsAccumulator struct {
	count     float64
	mean      []float64
	m2        []float64
	nFeatures int
	chunks    int
	finalized bool
}

// NewMomentsAccumulator creates an empty accumulator. The number of
// feature columns is fixed by the first Update call.
func NewMomentsAccumulator() *MomentsAccumulator {
	return &MomentsAccumulator{}
}

// Update folds one chunk of observations into the running moments.
//
// The first chunk fixes the feature count; a later chunk with a different
// width fails with a DimensionError. NaN or Inf anywhere in the chunk is a
// numerical-instability error: moments over undefined values have no
// meaning, so the adapt phase refuses them outright.
func (a *MomentsAccumulator) Update(X mat.Matrix) error {
	if a.finalized {
		return errors.Wrap(errors.ErrStateFinalized, "MomentsAccumulator.Update")
	}

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewTransformError("MomentsAccumulator.Update", "empty data", errors.ErrEmptyData)
	}

	if a.nFeatures == 0 {
		a.nFeatures = c
		a.mean = make([]float64, c)
		a.m2 = make([]float64, c)
	} else if c != a.nFeatures {
		return errors.NewDimensionError("MomentsAccumulator.Update", a.nFeatures, c, 1)
	}

	if err := errors.CheckMatrix("MomentsAccumulator.Update", X, r, c, a.chunks); err != nil {
		return err
	}

	// チャンク内はWelford法で一括計算し、その結果をペアワイズで
	// 累積状態にマージする
	for j := 0; j < c; j++ {
		chunkMean := 0.0
		chunkM2 := 0.0
		for i := 0; i < r; i++ {
			v := X.At(i, j)
			delta := v - chunkMean
			chunkMean += delta / float64(i+1)
			chunkM2 += delta * (v - chunkMean)
		}
		a.mergeColumn(j, float64(r), chunkMean, chunkM2)
	}

	a.count += float64(r)
	a.chunks++
	return nil
}

// mergeColumn folds the partial moments (nb, meanB, m2B) into column j.
// a.count must still hold the pre-merge count when this runs.
func (a *MomentsAccumulator) mergeColumn(j int, nb, meanB, m2B float64) {
	na := a.count
	if na == 0 {
		a.mean[j] = meanB
		a.m2[j] = m2B
		return
	}
	n := na + nb
	delta := meanB - a.mean[j]
	a.mean[j] += delta * nb / n
	a.m2[j] += m2B + delta*delta*na*nb/n
}

// Merge folds another accumulator's partial state into this one.
// The operation is associative and commutative, so a partitioned adapt can
// fill disjoint accumulators concurrently and merge them in any order.
func (a *MomentsAccumulator) Merge(other *MomentsAccumulator) error {
	if a.finalized || other.finalized {
		return errors.Wrap(errors.ErrStateFinalized, "MomentsAccumulator.Merge")
	}
	if other.nFeatures == 0 {
		// 相手に累積がなければ何もしない
		return nil
	}

	if a.nFeatures == 0 {
		a.nFeatures = other.nFeatures
		a.mean = make([]float64, other.nFeatures)
		a.m2 = make([]float64, other.nFeatures)
	} else if other.nFeatures != a.nFeatures {
		return errors.NewDimensionError("MomentsAccumulator.Merge", a.nFeatures, other.nFeatures, 1)
	}

	for j := 0; j < a.nFeatures; j++ {
		a.mergeColumn(j, other.count, other.mean[j], other.m2[j])
	}
	a.count += other.count
	a.chunks += other.chunks
	return nil
}

// Finalize publishes the population moments (variance = M2/n) and seals
// the accumulator against further updates. Zero accumulated observations
// is an error: there is nothing to normalize against.
func (a *MomentsAccumulator) Finalize() (*MomentsState, error) {
	if a.finalized {
		return nil, errors.Wrap(errors.ErrStateFinalized, "MomentsAccumulator.Finalize")
	}
	if a.count == 0 {
		return nil, errors.Wrap(errors.ErrEmptySample, "MomentsAccumulator.Finalize")
	}

	state := &MomentsState{
		Mean:     make([]float64, a.nFeatures),
		Variance: make([]float64, a.nFeatures),
		Count:    int64(a.count),
	}
	copy(state.Mean, a.mean)
	for j, m2 := range a.m2 {
		v := m2 / a.count
		if v < 0 {
			// 浮動小数点の打ち消しでM2が微小な負になることがある
			v = 0
		}
		state.Variance[j] = v
	}

	a.finalized = true
	return state, nil
}

// Count returns the number of observations accumulated so far.
func (a *MomentsAccumulator) Count() int64 {
	return int64(a.count)
}

// NFeatures returns the feature count fixed by the first Update, or 0 if
// nothing has been accumulated yet.
func (a *MomentsAccumulator) NFeatures() int {
	return a.nFeatures
}
