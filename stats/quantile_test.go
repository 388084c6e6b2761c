package stats

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	adapterrors "github.com/YuminosukeSato/adaptgo/pkg/errors"
)

func TestNewQuantileAccumulator(t *testing.T) {
	tests := []struct {
		name       string
		numBuckets int
		wantErr    bool
	}{
		{name: "two buckets", numBuckets: 2, wantErr: false},
		{name: "many buckets", numBuckets: 100, wantErr: false},
		{name: "one bucket", numBuckets: 1, wantErr: true},
		{name: "zero buckets", numBuckets: 0, wantErr: true},
		{name: "negative buckets", numBuckets: -3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewQuantileAccumulator(tt.numBuckets)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewQuantileAccumulator(%d) error = %v, wantErr %v", tt.numBuckets, err, tt.wantErr)
			}
			if tt.wantErr {
				var valErr *adapterrors.ValidationError
				if !adapterrors.As(err, &valErr) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			}
		})
	}
}

func TestQuantileAccumulatorBoundaries(t *testing.T) {
	acc, err := NewQuantileAccumulator(4)
	if err != nil {
		t.Fatalf("NewQuantileAccumulator() error = %v", err)
	}

	if err := acc.Update(mat.NewDense(8, 1, []float64{1, 2, 3, 4, 5, 6, 7, 8})); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	state, err := acc.Finalize()
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	want := []float64{2, 4, 6}
	got := state.Boundaries[0]
	if len(got) != len(want) {
		t.Fatalf("boundaries = %v, want %v", got, want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("boundary[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// 境界は狭義単調増加
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Errorf("boundaries not strictly increasing: %v", got)
		}
	}
}

func TestQuantileAccumulatorMergeIsConcatenation(t *testing.T) {
	onePass, _ := NewQuantileAccumulator(4)
	if err := onePass.Update(mat.NewDense(8, 1, []float64{1, 2, 3, 4, 5, 6, 7, 8})); err != nil {
		t.Fatalf("one-pass Update() error = %v", err)
	}
	wantState, err := onePass.Finalize()
	if err != nil {
		t.Fatalf("one-pass Finalize() error = %v", err)
	}

	// 順序の異なる分割でも確定結果は同じ
	left, _ := NewQuantileAccumulator(4)
	right, _ := NewQuantileAccumulator(4)
	if err := left.Update(mat.NewDense(3, 1, []float64{8, 2, 5})); err != nil {
		t.Fatalf("left Update() error = %v", err)
	}
	if err := right.Update(mat.NewDense(5, 1, []float64{1, 7, 3, 6, 4})); err != nil {
		t.Fatalf("right Update() error = %v", err)
	}
	if err := left.Merge(right); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	gotState, err := left.Finalize()
	if err != nil {
		t.Fatalf("merged Finalize() error = %v", err)
	}

	for i := range wantState.Boundaries[0] {
		if gotState.Boundaries[0][i] != wantState.Boundaries[0][i] {
			t.Errorf("merged boundaries = %v, one-pass %v", gotState.Boundaries[0], wantState.Boundaries[0])
			break
		}
	}
}

func TestQuantileAccumulatorCollapse(t *testing.T) {
	var captured []error
	adapterrors.SetWarningHandler(func(w error) { captured = append(captured, w) })
	t.Cleanup(func() { adapterrors.SetWarningHandler(func(w error) {}) })

	acc, _ := NewQuantileAccumulator(4)
	// 全値が同一: すべての分位点が潰れて境界は1本だけ残る
	if err := acc.Update(mat.NewDense(6, 1, []float64{5, 5, 5, 5, 5, 5})); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	state, err := acc.Finalize()
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if len(state.Boundaries[0]) != 1 {
		t.Errorf("collapsed boundaries = %v, want exactly one", state.Boundaries[0])
	}
	if state.NumBuckets(0) != 2 {
		t.Errorf("NumBuckets(0) = %d, want 2", state.NumBuckets(0))
	}

	if len(captured) != 1 {
		t.Fatalf("captured %d warnings, want 1", len(captured))
	}
	var collapseWarn *adapterrors.BoundaryCollapseWarning
	if !adapterrors.As(captured[0], &collapseWarn) {
		t.Fatalf("expected BoundaryCollapseWarning, got %T", captured[0])
	}
	if collapseWarn.RequestedBuckets != 4 || collapseWarn.EffectiveBuckets != 2 {
		t.Errorf("warning buckets = (%d, %d), want (4, 2)",
			collapseWarn.RequestedBuckets, collapseWarn.EffectiveBuckets)
	}
}

func TestBoundariesStateBucket(t *testing.T) {
	state, err := NewBoundariesState([][]float64{{2, 4, 6}})
	if err != nil {
		t.Fatalf("NewBoundariesState() error = %v", err)
	}

	tests := []struct {
		value float64
		want  int
	}{
		{value: math.Inf(-1), want: 0},
		{value: 1.9, want: 0},
		{value: 2, want: 1}, // 境界値はひとつ上のバケットに入る
		{value: 3, want: 1},
		{value: 4, want: 2},
		{value: 5.9, want: 2},
		{value: 6, want: 3},
		{value: 100, want: 3},
		{value: math.Inf(1), want: 3},
	}

	for _, tt := range tests {
		if got := state.Bucket(0, tt.value); got != tt.want {
			t.Errorf("Bucket(0, %v) = %d, want %d", tt.value, got, tt.want)
		}
	}

	// NaNは専用の無効バケットに入る（決して通常バケットには入らない）
	if got := state.Bucket(0, math.NaN()); got != state.NumBuckets(0) {
		t.Errorf("Bucket(0, NaN) = %d, want invalid index %d", got, state.NumBuckets(0))
	}
}

func TestBoundariesStateBucketMonotonic(t *testing.T) {
	state, err := NewBoundariesState([][]float64{{-1.5, 0, 0.25, 3}})
	if err != nil {
		t.Fatalf("NewBoundariesState() error = %v", err)
	}

	prev := state.Bucket(0, -10)
	for v := -9.9; v < 10; v += 0.1 {
		cur := state.Bucket(0, v)
		if cur < prev {
			t.Fatalf("Bucket() not monotonic: Bucket(%v) = %d after %d", v, cur, prev)
		}
		prev = cur
	}
}

func TestNewBoundariesStateValidation(t *testing.T) {
	tests := []struct {
		name       string
		boundaries [][]float64
		wantErr    bool
	}{
		{name: "valid", boundaries: [][]float64{{1, 2, 3}}, wantErr: false},
		{name: "multiple columns", boundaries: [][]float64{{1, 2}, {0.5}}, wantErr: false},
		{name: "no columns", boundaries: [][]float64{}, wantErr: true},
		{name: "empty column", boundaries: [][]float64{{}}, wantErr: true},
		{name: "not increasing", boundaries: [][]float64{{3, 2, 1}}, wantErr: true},
		{name: "duplicate boundary", boundaries: [][]float64{{1, 1, 2}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBoundariesState(tt.boundaries)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewBoundariesState() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQuantileAccumulatorErrors(t *testing.T) {
	t.Run("NaN in adapt input", func(t *testing.T) {
		acc, _ := NewQuantileAccumulator(4)
		if err := acc.Update(mat.NewDense(1, 1, []float64{math.NaN()})); err == nil {
			t.Error("Update() with NaN: expected error, got nil")
		}
	})

	t.Run("finalize without observations", func(t *testing.T) {
		acc, _ := NewQuantileAccumulator(4)
		if _, err := acc.Finalize(); !adapterrors.Is(err, adapterrors.ErrEmptySample) {
			t.Errorf("expected ErrEmptySample, got %v", err)
		}
	})

	t.Run("merge with different bucket counts", func(t *testing.T) {
		a, _ := NewQuantileAccumulator(4)
		b, _ := NewQuantileAccumulator(8)
		if err := a.Merge(b); err == nil {
			t.Error("Merge() with mismatched bucket counts: expected error, got nil")
		}
	})

	t.Run("update after finalize", func(t *testing.T) {
		acc, _ := NewQuantileAccumulator(2)
		if err := acc.Update(mat.NewDense(2, 1, []float64{1, 2})); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if _, err := acc.Finalize(); err != nil {
			t.Fatalf("Finalize() error = %v", err)
		}
		err := acc.Update(mat.NewDense(1, 1, []float64{3}))
		if !adapterrors.Is(err, adapterrors.ErrStateFinalized) {
			t.Errorf("expected ErrStateFinalized, got %v", err)
		}
	})
}
