// Package encode は索引行から変換出力への符号化を提供する。
// ルックアップ系変換とTextVectorizerの最終段で、語彙索引の列を
// int / count / multi_hot / tf_idf のいずれかの形式に変換する。
package encode

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/adaptgo/core/parallel"
	"github.com/YuminosukeSato/adaptgo/core/transform"
	"github.com/YuminosukeSato/adaptgo/pkg/errors"
)

// Mode は出力の符号化形式
type Mode string

const (
	// ModeInt は索引行をそのまま出力する（可変長のまま）
	ModeInt Mode = "int"

	// ModeCount は語彙サイズ幅の密な出現回数ベクトルを出力する
	ModeCount Mode = "count"

	// ModeMultiHot は出現の有無だけを0/1で出力する
	ModeMultiHot Mode = "multi_hot"

	// ModeTFIDF は出現回数にIDF重みを掛けた値を出力する
	ModeTFIDF Mode = "tf_idf"
)

// ParseMode は設定文字列を検証済みのModeに変換する。
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeInt, ModeCount, ModeMultiHot, ModeTFIDF:
		return Mode(s), nil
	}
	return "", errors.NewValidationError("output_mode", "unknown output mode", s)
}

// Encoder は確定済みの語彙サイズに対する索引行の符号化器。
// tf_idf モードのときだけIDF重みを持つ。
type Encoder struct {
	mode Mode
	size int
	idf  *IdfState
}

// NewEncoder は int / count / multi_hot の符号化器を作る。
// tf_idf は重みが必要なので NewTFIDFEncoder を使うこと。
func NewEncoder(mode Mode, size int) (*Encoder, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if mode == ModeTFIDF {
		return nil, errors.NewValidationError("output_mode",
			"tf_idf needs idf weights; use NewTFIDFEncoder", string(mode))
	}
	if size < 2 {
		return nil, errors.NewValidationError("vocabulary_size",
			"must cover the two reserved slots (>= 2)", size)
	}
	return &Encoder{mode: mode, size: size}, nil
}

// NewTFIDFEncoder はIDF重み付きの符号化器を作る。重みの長さは語彙サイズと
// 一致しなければならない。
func NewTFIDFEncoder(size int, idf *IdfState) (*Encoder, error) {
	if size < 2 {
		return nil, errors.NewValidationError("vocabulary_size",
			"must cover the two reserved slots (>= 2)", size)
	}
	if idf == nil {
		return nil, errors.NewValidationError("idf", "idf weights are required for tf_idf", nil)
	}
	if len(idf.Weights) != size {
		return nil, errors.NewDimensionError("encode.NewTFIDFEncoder", size, len(idf.Weights), 1)
	}
	return &Encoder{mode: ModeTFIDF, size: size, idf: idf}, nil
}

// Mode は符号化形式を返す。
func (e *Encoder) Mode() Mode {
	return e.mode
}

// Size は符号化器が前提とする語彙サイズを返す。
func (e *Encoder) Size() int {
	return e.size
}

// OutputDim は1レコードあたりの出力次元を返す。intモードは可変長なので -1。
func (e *Encoder) OutputDim() int {
	if e.mode == ModeInt {
		return -1
	}
	return e.size
}

// Encode は索引行をモードに応じたバッチへ符号化する。
//
// intモードは行をそのまま索引行バッチとして返す。それ以外は
// レコード数 × 語彙サイズ の密行列になる。マスクスロット(0)も列として
// 数えるが、tf_idf ではマスクの重みが常に0なので出力には現れない。
// 語彙サイズ外の索引は状態の不整合なのでエラーになる。
//
// 行同士は独立なので、大きなバッチは行単位で並列に符号化する。
func (e *Encoder) Encode(rows [][]int64) (*transform.Batch, error) {
	if e.mode == ModeInt {
		return transform.NewIndexRows(rows), nil
	}

	if len(rows) == 0 {
		return nil, errors.NewTransformError("encode.Encode", "empty data", errors.ErrEmptyData)
	}

	const parallelThreshold = 1000
	dense := mat.NewDense(len(rows), e.size, nil)
	err := parallel.ParallelizeWithErrorThreshold(len(rows), parallelThreshold, func(start, end int) error {
		for i := start; i < end; i++ {
			if err := e.encodeRow(dense, i, rows[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return transform.NewFloats(dense), nil
}

// encodeRow は1行分の索引列を dense の i 行目へ書き込む。
func (e *Encoder) encodeRow(dense *mat.Dense, i int, row []int64) error {
	for _, idx := range row {
		if idx < 0 || idx >= int64(e.size) {
			return errors.NewValueError("encode.Encode",
				fmt.Sprintf("index %d out of range for vocabulary size %d", idx, e.size))
		}
		j := int(idx)
		switch e.mode {
		case ModeMultiHot:
			dense.Set(i, j, 1)
		default:
			dense.Set(i, j, dense.At(i, j)+1)
		}
	}

	if e.mode == ModeTFIDF {
		for j := 0; j < e.size; j++ {
			if c := dense.At(i, j); c != 0 {
				dense.Set(i, j, c*e.idf.Weights[j])
			}
		}
	}
	return nil
}
