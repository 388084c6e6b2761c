package vocab

import (
	"slices"
	"testing"

	adapterrors "github.com/YuminosukeSato/adaptgo/pkg/errors"
)

// 適応サンプル "a b c b c a" からの確定:
// 頻度は a=2, b=2, c=2 で同数なので初出順で並び、索引は {a:2, b:3, c:4}。
func TestAccumulatorFinalizeTieBreak(t *testing.T) {
	acc := NewAccumulator()
	if err := acc.Update([]string{"a", "b", "c", "b", "c", "a"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	state, err := acc.Finalize(0, 0)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if !slices.Equal(state.Tokens(), []string{"a", "b", "c"}) {
		t.Errorf("Tokens() = %v, want [a b c]", state.Tokens())
	}
	if got := state.Lookup("a"); got != 2 {
		t.Errorf("Lookup(a) = %d, want 2", got)
	}
	if got := state.Lookup("b"); got != 3 {
		t.Errorf("Lookup(b) = %d, want 3", got)
	}
	if got := state.Lookup("c"); got != 4 {
		t.Errorf("Lookup(c) = %d, want 4", got)
	}

	// 適応後の適用: ["a", "d"] は [2, 1]
	got := state.LookupAll([]string{"a", "d"})
	if !slices.Equal(got, []int64{2, 1}) {
		t.Errorf("LookupAll([a d]) = %v, want [2 1]", got)
	}
}

func TestAccumulatorFrequencyOrder(t *testing.T) {
	acc := NewAccumulator()
	if err := acc.Update([]string{"the", "quick", "the", "fox", "the", "fox"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	state, err := acc.Finalize(0, 0)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	// the=3, fox=2, quick=1 の頻度降順
	if !slices.Equal(state.Tokens(), []string{"the", "fox", "quick"}) {
		t.Errorf("Tokens() = %v, want [the fox quick]", state.Tokens())
	}
}

func TestAccumulatorMinFrequency(t *testing.T) {
	acc := NewAccumulator()
	if err := acc.Update([]string{"a", "a", "a", "b", "b", "c"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	state, err := acc.Finalize(0, 2)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	// 頻度2未満のcは落ちる
	if !slices.Equal(state.Tokens(), []string{"a", "b"}) {
		t.Errorf("Tokens() = %v, want [a b]", state.Tokens())
	}
	if got := state.Lookup("c"); got != OOVIndex {
		t.Errorf("Lookup(c) = %d, want OOV %d", got, OOVIndex)
	}
}

func TestAccumulatorTruncation(t *testing.T) {
	var captured []error
	adapterrors.SetWarningHandler(func(w error) { captured = append(captured, w) })
	t.Cleanup(func() { adapterrors.SetWarningHandler(func(w error) {}) })

	acc := NewAccumulator()
	if err := acc.Update([]string{"a", "a", "a", "b", "b", "c"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// maxSize=4 は予約スロット2つ + 実トークン2つ
	state, err := acc.Finalize(4, 0)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if state.Size() != 4 {
		t.Errorf("Size() = %d, want 4", state.Size())
	}
	if !slices.Equal(state.Tokens(), []string{"a", "b"}) {
		t.Errorf("Tokens() = %v, want [a b]", state.Tokens())
	}
	// 切り捨てられたトークンはOOVに写る
	if got := state.Lookup("c"); got != OOVIndex {
		t.Errorf("Lookup(c) = %d, want OOV %d", got, OOVIndex)
	}

	if len(captured) != 1 {
		t.Fatalf("captured %d warnings, want 1", len(captured))
	}
	var truncWarn *adapterrors.VocabularyTruncationWarning
	if !adapterrors.As(captured[0], &truncWarn) {
		t.Fatalf("expected VocabularyTruncationWarning, got %T", captured[0])
	}
	if truncWarn.Observed != 3 || truncWarn.Kept != 2 || truncWarn.MaxSize != 4 {
		t.Errorf("warning = (observed=%d, kept=%d, max=%d), want (3, 2, 4)",
			truncWarn.Observed, truncWarn.Kept, truncWarn.MaxSize)
	}
}

func TestAccumulatorMerge(t *testing.T) {
	left := NewAccumulator()
	right := NewAccumulator()
	if err := left.Update([]string{"b", "a"}); err != nil {
		t.Fatalf("left Update() error = %v", err)
	}
	if err := right.Update([]string{"c", "a"}); err != nil {
		t.Fatalf("right Update() error = %v", err)
	}

	if err := left.Merge(right); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	state, err := left.Finalize(0, 0)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	// a=2 が先頭、b と c は頻度1で順序空間の連結順 (b が左側なので先)
	if !slices.Equal(state.Tokens(), []string{"a", "b", "c"}) {
		t.Errorf("Tokens() = %v, want [a b c]", state.Tokens())
	}
}

func TestAccumulatorMergeDeterminism(t *testing.T) {
	run := func() []string {
		left := NewAccumulator()
		right := NewAccumulator()
		_ = left.Update([]string{"x", "y", "z"})
		_ = right.Update([]string{"w", "y", "v"})
		_ = left.Merge(right)
		state, err := left.Finalize(0, 0)
		if err != nil {
			t.Fatalf("Finalize() error = %v", err)
		}
		return state.Tokens()
	}

	first := run()
	for i := 0; i < 10; i++ {
		if got := run(); !slices.Equal(got, first) {
			t.Fatalf("merge not deterministic: %v vs %v", got, first)
		}
	}
}

func TestAccumulatorMaskNotCounted(t *testing.T) {
	acc := NewAccumulator()
	if err := acc.Update([]string{"", "a", "", "b"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	state, err := acc.Finalize(0, 0)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	// マスクトークンは実トークンにならない
	if !slices.Equal(state.Tokens(), []string{"a", "b"}) {
		t.Errorf("Tokens() = %v, want [a b]", state.Tokens())
	}
	if got := state.Lookup(""); got != MaskIndex {
		t.Errorf("Lookup(\"\") = %d, want %d", got, MaskIndex)
	}
}

func TestAccumulatorUpdateSeq(t *testing.T) {
	acc := NewAccumulator()
	seq := func(yield func(string) bool) {
		for _, token := range []string{"go", "go", "gopher"} {
			if !yield(token) {
				return
			}
		}
	}
	if err := acc.UpdateSeq(seq); err != nil {
		t.Fatalf("UpdateSeq() error = %v", err)
	}

	state, err := acc.Finalize(0, 0)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if !slices.Equal(state.Tokens(), []string{"go", "gopher"}) {
		t.Errorf("Tokens() = %v, want [go gopher]", state.Tokens())
	}
}

func TestAccumulatorFinalizeErrors(t *testing.T) {
	t.Run("max size of one", func(t *testing.T) {
		acc := NewAccumulator()
		_ = acc.Update([]string{"a"})
		if _, err := acc.Finalize(1, 0); err == nil {
			t.Error("Finalize(1, 0): expected error, got nil")
		}
	})

	t.Run("negative max size", func(t *testing.T) {
		acc := NewAccumulator()
		_ = acc.Update([]string{"a"})
		if _, err := acc.Finalize(-5, 0); err == nil {
			t.Error("Finalize(-5, 0): expected error, got nil")
		}
	})

	t.Run("nothing observed", func(t *testing.T) {
		acc := NewAccumulator()
		if _, err := acc.Finalize(0, 0); !adapterrors.Is(err, adapterrors.ErrEmptySample) {
			t.Errorf("expected ErrEmptySample, got %v", err)
		}
	})

	t.Run("update after finalize", func(t *testing.T) {
		acc := NewAccumulator()
		_ = acc.Update([]string{"a"})
		if _, err := acc.Finalize(0, 0); err != nil {
			t.Fatalf("Finalize() error = %v", err)
		}
		if err := acc.Update([]string{"b"}); !adapterrors.Is(err, adapterrors.ErrStateFinalized) {
			t.Errorf("expected ErrStateFinalized, got %v", err)
		}
	})
}
