package encode

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/adaptgo/core/transform"
	adapterrors "github.com/YuminosukeSato/adaptgo/pkg/errors"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{input: "int", want: ModeInt},
		{input: "count", want: ModeCount},
		{input: "multi_hot", want: ModeMultiHot},
		{input: "tf_idf", want: ModeTFIDF},
		{input: "binary", wantErr: true},
		{input: "", wantErr: true},
		{input: "COUNT", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNewEncoderValidation(t *testing.T) {
	if _, err := NewEncoder(ModeCount, 5); err != nil {
		t.Errorf("NewEncoder(count, 5) error = %v", err)
	}
	if _, err := NewEncoder(ModeTFIDF, 5); err == nil {
		t.Error("NewEncoder(tf_idf, ...): expected error, want NewTFIDFEncoder instead")
	}
	if _, err := NewEncoder(ModeCount, 1); err == nil {
		t.Error("NewEncoder with size 1: expected error, got nil")
	}
	if _, err := NewEncoder(Mode("bogus"), 5); err == nil {
		t.Error("NewEncoder with unknown mode: expected error, got nil")
	}
}

func TestEncodeIntPassesRowsThrough(t *testing.T) {
	enc, err := NewEncoder(ModeInt, 5)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}

	rows := [][]int64{{2, 1}, {4, 4, 0}}
	batch, err := enc.Encode(rows)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if batch.Kind() != transform.KindIndexRows {
		t.Fatalf("Kind() = %v, want index_rows", batch.Kind())
	}
	got, err := batch.IndexRows("test")
	if err != nil {
		t.Fatalf("IndexRows() error = %v", err)
	}
	if len(got) != 2 || got[0][0] != 2 || got[1][2] != 0 {
		t.Errorf("IndexRows() = %v, want %v", got, rows)
	}
}

func TestEncodeCount(t *testing.T) {
	enc, err := NewEncoder(ModeCount, 5)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}

	batch, err := enc.Encode([][]int64{
		{2, 3, 2},
		{4},
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	X, err := batch.Floats("test")
	if err != nil {
		t.Fatalf("Floats() error = %v", err)
	}
	r, c := X.Dims()
	if r != 2 || c != 5 {
		t.Fatalf("Dims() = (%d, %d), want (2, 5)", r, c)
	}

	// 1行目: 索引2が2回、索引3が1回
	want0 := []float64{0, 0, 2, 1, 0}
	for j, w := range want0 {
		if got := X.At(0, j); got != w {
			t.Errorf("At(0, %d) = %v, want %v", j, got, w)
		}
	}
	// 2行目: 索引4が1回
	want1 := []float64{0, 0, 0, 0, 1}
	for j, w := range want1 {
		if got := X.At(1, j); got != w {
			t.Errorf("At(1, %d) = %v, want %v", j, got, w)
		}
	}
}

func TestEncodeMultiHot(t *testing.T) {
	enc, err := NewEncoder(ModeMultiHot, 5)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}

	batch, err := enc.Encode([][]int64{{2, 2, 2, 3}})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	X, err := batch.Floats("test")
	if err != nil {
		t.Fatalf("Floats() error = %v", err)
	}

	// 重複出現しても1のまま
	want := []float64{0, 0, 1, 1, 0}
	for j, w := range want {
		if got := X.At(0, j); got != w {
			t.Errorf("At(0, %d) = %v, want %v", j, got, w)
		}
	}
}

func TestEncodeTFIDF(t *testing.T) {
	idf := &IdfState{Weights: []float64{0, 0.5, 1.0, 2.0}}
	enc, err := NewTFIDFEncoder(4, idf)
	if err != nil {
		t.Fatalf("NewTFIDFEncoder() error = %v", err)
	}

	batch, err := enc.Encode([][]int64{
		{2, 2, 3}, // count2 x weight1.0, count1 x weight2.0
		{1, 0},    // OOVとマスク
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	X, err := batch.Floats("test")
	if err != nil {
		t.Fatalf("Floats() error = %v", err)
	}

	if got := X.At(0, 2); math.Abs(got-2.0) > 1e-12 {
		t.Errorf("At(0, 2) = %v, want 2.0", got)
	}
	if got := X.At(0, 3); math.Abs(got-2.0) > 1e-12 {
		t.Errorf("At(0, 3) = %v, want 2.0", got)
	}
	if got := X.At(1, 1); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("At(1, 1) = %v, want 0.5", got)
	}
	// マスクスロットの重みは0なので出現しても出力は0
	if got := X.At(1, 0); got != 0 {
		t.Errorf("At(1, 0) = %v, want 0", got)
	}
}

func TestNewTFIDFEncoderValidation(t *testing.T) {
	if _, err := NewTFIDFEncoder(4, nil); err == nil {
		t.Error("NewTFIDFEncoder(nil idf): expected error, got nil")
	}
	if _, err := NewTFIDFEncoder(4, &IdfState{Weights: []float64{0, 1}}); err == nil {
		t.Error("NewTFIDFEncoder with mismatched weights length: expected error, got nil")
	}
}

func TestEncodeErrors(t *testing.T) {
	enc, err := NewEncoder(ModeCount, 4)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}

	t.Run("index out of range", func(t *testing.T) {
		if _, err := enc.Encode([][]int64{{4}}); err == nil {
			t.Error("Encode() with index == size: expected error, got nil")
		}
		if _, err := enc.Encode([][]int64{{-1}}); err == nil {
			t.Error("Encode() with negative index: expected error, got nil")
		}
	})

	t.Run("empty rows for dense mode", func(t *testing.T) {
		_, err := enc.Encode(nil)
		if !adapterrors.Is(err, adapterrors.ErrEmptyData) {
			t.Errorf("expected ErrEmptyData, got %v", err)
		}
	})

	t.Run("empty rows pass through in int mode", func(t *testing.T) {
		intEnc, err := NewEncoder(ModeInt, 4)
		if err != nil {
			t.Fatalf("NewEncoder() error = %v", err)
		}
		batch, err := intEnc.Encode(nil)
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		if batch.Len() != 0 {
			t.Errorf("Len() = %d, want 0", batch.Len())
		}
	})

	t.Run("empty record yields zero row", func(t *testing.T) {
		batch, err := enc.Encode([][]int64{{}})
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		X, err := batch.Floats("test")
		if err != nil {
			t.Fatalf("Floats() error = %v", err)
		}
		for j := 0; j < 4; j++ {
			if got := X.At(0, j); got != 0 {
				t.Errorf("At(0, %d) = %v, want 0", j, got)
			}
		}
	})
}

func TestEncodeCountLargeBatch(t *testing.T) {
	const size = 7
	enc, err := NewEncoder(ModeCount, size)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}

	// 並列経路に入るよう閾値1000を超えるバッチを使う
	rows := make([][]int64, 2500)
	for i := range rows {
		idx := int64(i % size)
		for r := 0; r < i%3+1; r++ {
			rows[i] = append(rows[i], idx)
		}
	}

	batch, err := enc.Encode(rows)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	X, err := batch.Floats("test")
	if err != nil {
		t.Fatalf("Floats() error = %v", err)
	}
	r, c := X.Dims()
	if r != len(rows) || c != size {
		t.Fatalf("Dims() = (%d, %d), want (%d, %d)", r, c, len(rows), size)
	}

	// 各行: 索引i%sizeがi%3+1回、他は0
	for i := range rows {
		for j := 0; j < size; j++ {
			want := 0.0
			if j == i%size {
				want = float64(i%3 + 1)
			}
			if got := X.At(i, j); got != want {
				t.Fatalf("At(%d, %d) = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestEncodeLargeBatchPropagatesRowError(t *testing.T) {
	enc, err := NewEncoder(ModeMultiHot, 4)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}

	rows := make([][]int64, 1800)
	for i := range rows {
		rows[i] = []int64{int64(i % 4)}
	}
	rows[1234] = []int64{99} // 範囲外

	_, err = enc.Encode(rows)
	if err == nil {
		t.Fatal("Encode() with out-of-range index in large batch: expected error, got nil")
	}
	var verr *adapterrors.ValueError
	if !adapterrors.As(err, &verr) {
		t.Errorf("Encode() error = %v, want ValueError", err)
	}
}
