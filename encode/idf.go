package encode

import (
	"math"

	"github.com/YuminosukeSato/adaptgo/pkg/errors"
)

// IdfState は語彙索引ごとの確定済みIDF重み。重みは非負で、マスク
// スロット(0)は常に0、OOVスロット(1)は実トークン重みの平均になる。
// 公開後は不変。
type IdfState struct {
	Weights []float64 `json:"weights"`
}

// Size は重み表が覆う語彙サイズを返す。
func (s *IdfState) Size() int {
	return len(s.Weights)
}

// NewIdfState は文書頻度の集計からIDF重みを確定する。
//
//	idf[i] = log((1 + totalRecords) / (1 + docFreq[i]))
//
// マスクスロットの重みは0、OOVスロットは実トークン重みの平均
// （実トークンがなければ0）。
func NewIdfState(docFreq []int64, totalRecords int64) (*IdfState, error) {
	if len(docFreq) < 2 {
		return nil, errors.NewValidationError("vocabulary_size",
			"must cover the two reserved slots (>= 2)", len(docFreq))
	}
	if totalRecords <= 0 {
		return nil, errors.Wrap(errors.ErrEmptySample, "encode.NewIdfState")
	}

	size := len(docFreq)
	weights := make([]float64, size)
	n := float64(totalRecords)

	sum := 0.0
	for i := 2; i < size; i++ {
		w := math.Log((1 + n) / (1 + float64(docFreq[i])))
		weights[i] = w
		sum += w
	}

	if size > 2 {
		weights[1] = sum / float64(size-2)
	}
	// weights[0] はマスクスロットで常に0のまま

	if err := errors.CheckNumericalStability("idf_finalize", weights, 0); err != nil {
		return nil, err
	}
	return &IdfState{Weights: weights}, nil
}

// NewIdfStateFromTokenWeights は外部で計算済みの実トークン重みから
// IDF状態を作る。重みの並びは語彙の実トークン順（索引2以降）に対応し、
// 予約スロットの重みはここで補完される: マスクは0、OOVは実トークン
// 重みの平均。負の重みやNaN/Infはエラー。
func NewIdfStateFromTokenWeights(tokenWeights []float64) (*IdfState, error) {
	if len(tokenWeights) == 0 {
		return nil, errors.NewValidationError("idf_weights",
			"must hold one weight per vocabulary token", len(tokenWeights))
	}
	if err := errors.CheckNumericalStability("idf_token_weights", tokenWeights, 0); err != nil {
		return nil, err
	}

	weights := make([]float64, len(tokenWeights)+2)
	sum := 0.0
	for i, w := range tokenWeights {
		if w < 0 {
			return nil, errors.NewValidationError("idf_weights", "weights must be non-negative", w)
		}
		weights[i+2] = w
		sum += w
	}
	weights[1] = sum / float64(len(tokenWeights))
	return &IdfState{Weights: weights}, nil
}

// IdfAccumulator は適応中にレコードごとのトークン出現（presence）を
// 集計する。同じレコード内の重複出現は1回と数える。
//
// ひとつのアキュムレータへの並行Updateは直列化すること。並列適応は
// パーティションごとに集計してMergeする。
type IdfAccumulator struct {
	size         int
	docFreq      []int64
	totalRecords int64
	finalized    bool

	// Update間で使い回す出現マーク（レコードごとにリセットされる）
	seen    []bool
	touched []int64
}

// NewIdfAccumulator は語彙サイズを固定してアキュムレータを作る。
func NewIdfAccumulator(size int) (*IdfAccumulator, error) {
	if size < 2 {
		return nil, errors.NewValidationError("vocabulary_size",
			"must cover the two reserved slots (>= 2)", size)
	}
	return &IdfAccumulator{
		size:    size,
		docFreq: make([]int64, size),
		seen:    make([]bool, size),
	}, nil
}

// Update は1レコード分の索引行を取り込む。空のレコードもレコード数には
// 数える。語彙サイズ外の索引はエラー。
func (a *IdfAccumulator) Update(row []int64) error {
	if a.finalized {
		return errors.Wrap(errors.ErrStateFinalized, "IdfAccumulator.Update")
	}
	for _, idx := range row {
		if idx < 0 || idx >= int64(a.size) {
			return errors.NewDimensionError("IdfAccumulator.Update", a.size, int(idx), 1)
		}
	}

	for _, idx := range row {
		if !a.seen[idx] {
			a.seen[idx] = true
			a.touched = append(a.touched, idx)
		}
	}
	for _, idx := range a.touched {
		a.docFreq[idx]++
		a.seen[idx] = false
	}
	a.touched = a.touched[:0]
	a.totalRecords++
	return nil
}

// Merge は別のアキュムレータの部分集計を取り込む。文書頻度とレコード数を
// 加算するだけなので結合的かつ可換。
func (a *IdfAccumulator) Merge(other *IdfAccumulator) error {
	if a.finalized || other.finalized {
		return errors.Wrap(errors.ErrStateFinalized, "IdfAccumulator.Merge")
	}
	if other.size != a.size {
		return errors.NewDimensionError("IdfAccumulator.Merge", a.size, other.size, 1)
	}
	for i, df := range other.docFreq {
		a.docFreq[i] += df
	}
	a.totalRecords += other.totalRecords
	return nil
}

// TotalRecords は取り込んだレコード数を返す。
func (a *IdfAccumulator) TotalRecords() int64 {
	return a.totalRecords
}

// Finalize はIDF重みを確定する。
//
//	idf[i] = log((1 + N) / (1 + df[i]))
//
// マスクスロットの重みは0、OOVスロットは実トークン重みの平均
// （実トークンがなければ0）。レコードを1件も見ていない場合はエラー。
func (a *IdfAccumulator) Finalize() (*IdfState, error) {
	if a.finalized {
		return nil, errors.Wrap(errors.ErrStateFinalized, "IdfAccumulator.Finalize")
	}
	if a.totalRecords == 0 {
		return nil, errors.Wrap(errors.ErrEmptySample, "IdfAccumulator.Finalize")
	}

	state, err := NewIdfState(a.docFreq, a.totalRecords)
	if err != nil {
		return nil, err
	}

	a.finalized = true
	return state, nil
}
