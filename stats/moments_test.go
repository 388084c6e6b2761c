package stats

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	adapterrors "github.com/YuminosukeSato/adaptgo/pkg/errors"
)

func TestMomentsAccumulator(t *testing.T) {
	tests := []struct {
		name         string
		chunks       []*mat.Dense
		wantMean     []float64
		wantVariance []float64
		wantCount    int64
		tolerance    float64
	}{
		{
			name: "single chunk single feature",
			chunks: []*mat.Dense{
				mat.NewDense(4, 1, []float64{1, 2, 3, 4}),
			},
			wantMean:     []float64{2.5},
			wantVariance: []float64{1.25}, // ((1.5)^2 + (0.5)^2 + (0.5)^2 + (1.5)^2) / 4
			wantCount:    4,
			tolerance:    1e-12,
		},
		{
			name: "two features",
			chunks: []*mat.Dense{
				mat.NewDense(3, 2, []float64{
					1, 10,
					2, 20,
					3, 30,
				}),
			},
			wantMean:     []float64{2, 20},
			wantVariance: []float64{2.0 / 3.0, 200.0 / 3.0},
			wantCount:    3,
			tolerance:    1e-12,
		},
		{
			name: "multiple chunks equal one pass",
			chunks: []*mat.Dense{
				mat.NewDense(2, 1, []float64{1, 2}),
				mat.NewDense(1, 1, []float64{3}),
				mat.NewDense(1, 1, []float64{4}),
			},
			wantMean:     []float64{2.5},
			wantVariance: []float64{1.25},
			wantCount:    4,
			tolerance:    1e-12,
		},
		{
			name: "constant feature has zero variance",
			chunks: []*mat.Dense{
				mat.NewDense(5, 1, []float64{7, 7, 7, 7, 7}),
			},
			wantMean:     []float64{7},
			wantVariance: []float64{0},
			wantCount:    5,
			tolerance:    1e-12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := NewMomentsAccumulator()
			for _, chunk := range tt.chunks {
				if err := acc.Update(chunk); err != nil {
					t.Fatalf("Update() error = %v", err)
				}
			}

			state, err := acc.Finalize()
			if err != nil {
				t.Fatalf("Finalize() error = %v", err)
			}

			if state.Count != tt.wantCount {
				t.Errorf("Count = %d, want %d", state.Count, tt.wantCount)
			}
			for j := range tt.wantMean {
				if math.Abs(state.Mean[j]-tt.wantMean[j]) > tt.tolerance {
					t.Errorf("Mean[%d] = %v, want %v", j, state.Mean[j], tt.wantMean[j])
				}
				if math.Abs(state.Variance[j]-tt.wantVariance[j]) > tt.tolerance {
					t.Errorf("Variance[%d] = %v, want %v", j, state.Variance[j], tt.wantVariance[j])
				}
			}
		})
	}
}

func TestMomentsAccumulatorMergeEqualsOnePass(t *testing.T) {
	// 分割してMergeした結果が一括処理と一致すること
	data := []float64{
		0.5, 100,
		1.5, 200,
		2.5, 300,
		3.5, 400,
		4.5, 500,
		5.5, 600,
	}

	onePass := NewMomentsAccumulator()
	if err := onePass.Update(mat.NewDense(6, 2, data)); err != nil {
		t.Fatalf("one-pass Update() error = %v", err)
	}
	wantState, err := onePass.Finalize()
	if err != nil {
		t.Fatalf("one-pass Finalize() error = %v", err)
	}

	left := NewMomentsAccumulator()
	right := NewMomentsAccumulator()
	if err := left.Update(mat.NewDense(2, 2, data[:4])); err != nil {
		t.Fatalf("left Update() error = %v", err)
	}
	if err := right.Update(mat.NewDense(4, 2, data[4:])); err != nil {
		t.Fatalf("right Update() error = %v", err)
	}
	if err := left.Merge(right); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	gotState, err := left.Finalize()
	if err != nil {
		t.Fatalf("merged Finalize() error = %v", err)
	}

	if gotState.Count != wantState.Count {
		t.Errorf("merged Count = %d, want %d", gotState.Count, wantState.Count)
	}
	for j := 0; j < 2; j++ {
		if math.Abs(gotState.Mean[j]-wantState.Mean[j]) > 1e-10 {
			t.Errorf("merged Mean[%d] = %v, one-pass %v", j, gotState.Mean[j], wantState.Mean[j])
		}
		if math.Abs(gotState.Variance[j]-wantState.Variance[j]) > 1e-10 {
			t.Errorf("merged Variance[%d] = %v, one-pass %v", j, gotState.Variance[j], wantState.Variance[j])
		}
	}
}

func TestMomentsAccumulatorMergeIntoEmpty(t *testing.T) {
	filled := NewMomentsAccumulator()
	if err := filled.Update(mat.NewDense(3, 1, []float64{1, 2, 3})); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	empty := NewMomentsAccumulator()
	if err := empty.Merge(filled); err != nil {
		t.Fatalf("Merge() into empty error = %v", err)
	}

	state, err := empty.Finalize()
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if math.Abs(state.Mean[0]-2.0) > 1e-12 {
		t.Errorf("Mean[0] = %v, want 2", state.Mean[0])
	}
}

func TestMomentsAccumulatorErrors(t *testing.T) {
	t.Run("NaN in adapt input", func(t *testing.T) {
		acc := NewMomentsAccumulator()
		err := acc.Update(mat.NewDense(2, 1, []float64{1, math.NaN()}))
		if err == nil {
			t.Fatal("Update() with NaN: expected error, got nil")
		}
		var instErr *adapterrors.NumericalInstabilityError
		if !adapterrors.As(err, &instErr) {
			t.Errorf("expected NumericalInstabilityError, got %T", err)
		}
	})

	t.Run("Inf in adapt input", func(t *testing.T) {
		acc := NewMomentsAccumulator()
		err := acc.Update(mat.NewDense(1, 1, []float64{math.Inf(1)}))
		if err == nil {
			t.Fatal("Update() with Inf: expected error, got nil")
		}
	})

	t.Run("feature count changes between chunks", func(t *testing.T) {
		acc := NewMomentsAccumulator()
		if err := acc.Update(mat.NewDense(1, 2, []float64{1, 2})); err != nil {
			t.Fatalf("first Update() error = %v", err)
		}
		err := acc.Update(mat.NewDense(1, 3, []float64{1, 2, 3}))
		if err == nil {
			t.Fatal("Update() with changed width: expected error, got nil")
		}
		var dimErr *adapterrors.DimensionError
		if !adapterrors.As(err, &dimErr) {
			t.Fatalf("expected DimensionError, got %T", err)
		}
		if dimErr.Expected != 2 || dimErr.Got != 3 {
			t.Errorf("DimensionError = (%d, %d), want (2, 3)", dimErr.Expected, dimErr.Got)
		}
	})

	t.Run("finalize without observations", func(t *testing.T) {
		acc := NewMomentsAccumulator()
		if _, err := acc.Finalize(); !adapterrors.Is(err, adapterrors.ErrEmptySample) {
			t.Errorf("expected ErrEmptySample, got %v", err)
		}
	})

	t.Run("update after finalize", func(t *testing.T) {
		acc := NewMomentsAccumulator()
		if err := acc.Update(mat.NewDense(1, 1, []float64{1})); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if _, err := acc.Finalize(); err != nil {
			t.Fatalf("Finalize() error = %v", err)
		}
		err := acc.Update(mat.NewDense(1, 1, []float64{2}))
		if !adapterrors.Is(err, adapterrors.ErrStateFinalized) {
			t.Errorf("expected ErrStateFinalized, got %v", err)
		}
	})
}
