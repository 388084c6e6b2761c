package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewTransformError(t *testing.T) {
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
			op:       "Adapt",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "adaptgo: Adapt: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Transform",
			kind:     "not adapted",
			err:      nil,
			wantMsg:  "adaptgo: Transform: not adapted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewTransformError(tt.op, tt.kind, tt.err)

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

			// TransformError型にキャスト可能か確認
			var transformErr *TransformError
			if !As(err, &transformErr) {
				t.Error("Error should be castable to *TransformError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Transform", 4, 3, 1)

	// 基本的なエラーメッセージの確認
	want := "adaptgo: Transform: dimension mismatch on axis 1 (features). Expected 4, got 3"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	// DimensionError型にキャスト可能か確認
	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewNotAdaptedError(t *testing.T) {
	err := NewNotAdaptedError("Normalization", "Transform")

	// 基本的なエラーメッセージの確認
	want := "adaptgo: Normalization: this transform is not adapted yet. Call Adapt() or load a saved state before using Transform()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	// NotAdaptedError型にキャスト可能か確認
	var notAdaptedErr *NotAdaptedError
	if !As(err, &notAdaptedErr) {
		t.Error("Error should be castable to *NotAdaptedError")
	}
}

func TestNewBatchKindError(t *testing.T) {
	err := NewBatchKindError("Normalization.Transform", "floats", "strings")

	want := "adaptgo: Normalization.Transform: batch kind mismatch. Expected floats, got strings"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	// BatchKindError型にキャスト可能か確認
	var kindErr *BatchKindError
	if !As(err, &kindErr) {
		t.Error("Error should be castable to *BatchKindError")
	}
}

func TestNewValueError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		param   string
		value   interface{}
		message string
		wantMsg string
	}{
		{
			name:    "with message",
			op:      "NewDiscretization",
			param:   "num_buckets",
			value:   0,
			message: "must be at least 2",
			wantMsg: "adaptgo: NewDiscretization: num_buckets: 0 (must be at least 2)",
		},
		{
			name:    "without message",
			op:      "NewHashing",
			param:   "num_bins",
			value:   -1,
			message: "",
			wantMsg: "adaptgo: NewHashing: num_bins: -1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.message != "" {
				err = NewValueError(tt.op, fmt.Sprintf("%s: %v (%s)", tt.param, tt.value, tt.message))
			} else {
				err = NewValueError(tt.op, fmt.Sprintf("%s: %v", tt.param, tt.value))
			}

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// ValueError型にキャスト可能か確認
			var valErr *ValueError
			if !As(err, &valErr) {
				t.Error("Error should be castable to *ValueError")
			}
		})
	}
}

func TestNewVocabularyTruncationWarning(t *testing.T) {
	warn := NewVocabularyTruncationWarning("StringLookup", 5000, 998, 1000)

	// 基本的なエラーメッセージの確認
	want := "StringLookup: vocabulary truncated from 5000 to 998 tokens (max_size=1000). Dropped tokens will map to the OOV index."
	if warn.Error() != want {
		t.Errorf("Error() = %v, want %v", warn.Error(), want)
	}

	// VocabularyTruncationWarning型へのキャストのみ確認
	var truncWarn *VocabularyTruncationWarning
	if !As(warn, &truncWarn) {
		t.Error("Warning should be castable to *VocabularyTruncationWarning")
	}
}

func TestWrapAndIs(t *testing.T) {
	// 元のエラー
	baseErr := ErrEmptySample

	// ラップ
	wrapped := Wrap(baseErr, "in MomentsAccumulator.Finalize")

	// Is関数でチェック
	if !Is(wrapped, ErrEmptySample) {
		t.Error("Expected Is(wrapped, ErrEmptySample) to be true")
	}

	// エラーメッセージの確認
	if !strings.Contains(wrapped.Error(), "in MomentsAccumulator.Finalize") {
		t.Error("Expected wrapped error to contain wrapping message")
	}
}

func TestWrapf(t *testing.T) {
	// 元のエラー
	baseErr := ErrEmptyData

	// フォーマット付きラップ
	wrapped := Wrapf(baseErr, "in %s: expected %d, got %d", "Transform", 10, 0)

	// Is関数でチェック
	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	// エラーメッセージの確認
	expectedMsg := "in Transform: expected 10, got 0"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestErrorChaining(t *testing.T) {
	// エラーチェーンの作成
	err1 := fmt.Errorf("base error")
	err2 := Wrap(err1, "wrapped once")
	err3 := NewTransformError("Adapt", "failed", err2)

	// チェーン全体を確認
	if !strings.Contains(err3.Error(), "base error") {
		t.Error("Expected error chain to contain base error")
	}

	// スタックトレースの確認（詳細表示）
	formatted := fmt.Sprintf("%+v", err3)
	if !strings.Contains(formatted, "errors_test.go") {
		t.Error("Expected detailed error to contain stack trace")
	}
}
