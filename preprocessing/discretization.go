package preprocessing

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/adaptgo/core/parallel"
	"github.com/YuminosukeSato/adaptgo/core/transform"
	"github.com/YuminosukeSato/adaptgo/pkg/errors"
	"github.com/YuminosukeSato/adaptgo/stats"
)

// DefaultNumBuckets は既定のバケット数（十分位）
const DefaultNumBuckets = 10

// Discretization はKeras互換の分位点離散化変換
// 適応フェーズで列ごとの分位点境界を学習し、
// 変換フェーズで各値をバケット番号（境界以下の個数）に写像する
//
// 出力は入力と同形状の行列で、各要素はバケット番号。
// 適用時のNaNは実バケットに混ざらず、専用の無効バケット番号
// NumBuckets(feature) に写像される。
type Discretization struct {
	transform.BaseTransform

	// NumBuckets は要求されたバケット数
	// 境界を直接指定して構築した場合は0（再適応は不可）
	NumBuckets int

	// Boundaries は学習済みの分位点境界（列ごとに狭義単調増加）
	Boundaries *stats.BoundariesState

	acc *stats.QuantileAccumulator
}

// NewDiscretization は新しいDiscretizationを作成する
//
// パラメータ:
//   - numBuckets: バケット数（2以上）
//
// 戻り値:
//   - *Discretization: 新しいDiscretizationインスタンス
//   - error: numBucketsが2未満の場合のエラー
//
// 使用例:
//
//	disc, err := preprocessing.NewDiscretization(4)
//	err = disc.Adapt(batch)
//	buckets, err := disc.Transform(batch)
func NewDiscretization(numBuckets int) (*Discretization, error) {
	if numBuckets < 2 {
		return nil, errors.NewValidationError("num_buckets", "must be at least 2", numBuckets)
	}
	return &Discretization{NumBuckets: numBuckets}, nil
}

// NewDiscretizationDefault はデフォルト設定（十分位）でDiscretizationを作成する
func NewDiscretizationDefault() *Discretization {
	return &Discretization{NumBuckets: DefaultNumBuckets}
}

// NewDiscretizationFromBoundaries は既知の境界からDiscretizationを作成する
// 適応フェーズを経ずに変換のみ行う。このインスタンスでAdaptは呼べない
func NewDiscretizationFromBoundaries(boundaries [][]float64) (*Discretization, error) {
	state, err := stats.NewBoundariesState(boundaries)
	if err != nil {
		return nil, err
	}
	d := &Discretization{Boundaries: state}
	d.SetAdapted()
	return d, nil
}

// Name は変換の名前を返す
func (d *Discretization) Name() string {
	return "Discretization"
}

// ResetState は蓄積された値と適応済み状態を破棄する
func (d *Discretization) ResetState() {
	d.acc = nil
	d.Boundaries = nil
	d.Reset()
}

// UpdateState は1チャンク分のデータを蓄積する
func (d *Discretization) UpdateState(b *transform.Batch) error {
	if d.acc == nil {
		if d.NumBuckets < 2 {
			return errors.NewValidationError("num_buckets",
				"adapt requires a bucket count; this transform was built from precomputed boundaries", d.NumBuckets)
		}
		acc, err := stats.NewQuantileAccumulator(d.NumBuckets)
		if err != nil {
			return err
		}
		d.acc = acc
	}
	X, err := b.Floats("Discretization.UpdateState")
	if err != nil {
		return err
	}
	return d.acc.Update(X)
}

// FinalizeState は蓄積された値から分位点境界を確定する
func (d *Discretization) FinalizeState() error {
	if d.acc == nil {
		return errors.Wrap(errors.ErrEmptySample, "Discretization.FinalizeState")
	}
	state, err := d.acc.Finalize()
	if err != nil {
		return err
	}
	d.Boundaries = state
	d.acc = nil
	d.SetAdapted()
	return nil
}

// Adapt はデータから分位点境界を学習する
// 再度呼び出すと以前の状態は破棄され、新しいデータのみから再計算される
// 境界を直接指定して構築したインスタンスでは状態を壊さずにエラーを返す
//
// パラメータ:
//   - b: 数値行列バッチ (n_samples × n_features)
//
// 戻り値:
//   - error: エラーが発生した場合
func (d *Discretization) Adapt(b *transform.Batch) error {
	if d.NumBuckets < 2 {
		return errors.NewValidationError("num_buckets",
			"adapt requires a bucket count; this transform was built from precomputed boundaries", d.NumBuckets)
	}
	d.ResetState()
	if err := d.UpdateState(b); err != nil {
		return err
	}
	return d.FinalizeState()
}

// Transform は学習済みの境界で各値をバケット番号に写像する
//
// パラメータ:
//   - b: 数値行列バッチ
//
// 戻り値:
//   - *transform.Batch: バケット番号の行列バッチ
//   - error: エラーが発生した場合
func (d *Discretization) Transform(b *transform.Batch) (*transform.Batch, error) {
	X, err := b.Floats("Discretization.Transform")
	if err != nil {
		return nil, err
	}
	result, err := d.TransformMatrix(X)
	if err != nil {
		return nil, err
	}
	return transform.NewFloats(result), nil
}

// AdaptTransform はAdaptとTransformを同時に実行する
func (d *Discretization) AdaptTransform(b *transform.Batch) (*transform.Batch, error) {
	if err := d.Adapt(b); err != nil {
		return nil, err
	}
	return d.Transform(b)
}

// AdaptMatrix は行列データから状態を学習する
func (d *Discretization) AdaptMatrix(X mat.Matrix) error {
	return d.Adapt(transform.NewFloats(X))
}

// TransformMatrix は行列データをバケット番号に写像する
func (d *Discretization) TransformMatrix(X mat.Matrix) (mat.Matrix, error) {
	if !d.IsAdapted() {
		return nil, errors.NewNotAdaptedError("Discretization", "Transform")
	}

	r, c := X.Dims()
	if c != d.Boundaries.NFeatures() {
		return nil, errors.NewDimensionError("Discretization.Transform", d.Boundaries.NFeatures(), c, 1)
	}

	result := mat.NewDense(r, c, nil)

	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				result.Set(i, j, float64(d.Boundaries.Bucket(j, X.At(i, j))))
			}
		}
	})

	return result, nil
}

// AdaptTransformMatrix は適応と変換を同時に実行する
func (d *Discretization) AdaptTransformMatrix(X mat.Matrix) (mat.Matrix, error) {
	if err := d.AdaptMatrix(X); err != nil {
		return nil, err
	}
	return d.TransformMatrix(X)
}

// OutputDim は出力の特徴量数を返す（入力と同じ）
func (d *Discretization) OutputDim() int {
	if d.Boundaries == nil {
		return 0
	}
	return d.Boundaries.NFeatures()
}

// GetParams は変換のパラメータを取得する
func (d *Discretization) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"num_buckets": d.NumBuckets,
	}
}

// String は変換の文字列表現を返す
func (d *Discretization) String() string {
	if !d.IsAdapted() {
		return fmt.Sprintf("Discretization(num_buckets=%d)", d.NumBuckets)
	}
	return fmt.Sprintf("Discretization(num_buckets=%d, n_features=%d)", d.NumBuckets, d.Boundaries.NFeatures())
}

// ExportState は学習済み状態をエンベロープに書き出す
func (d *Discretization) ExportState() (*transform.StateEnvelope, error) {
	env := &transform.StateEnvelope{
		TransformType: "discretization",
		Version:       "1",
		Config:        map[string]interface{}{"num_buckets": d.NumBuckets},
		IsAdapted:     d.IsAdapted(),
	}
	if d.IsAdapted() {
		if err := env.SetState(d.Boundaries); err != nil {
			return nil, errors.Wrap(err, "Discretization.ExportState")
		}
	}
	return env, nil
}

// ImportState はエンベロープから学習済み状態を復元する
func (d *Discretization) ImportState(env *transform.StateEnvelope) error {
	if err := env.Validate(); err != nil {
		return errors.Wrap(err, "Discretization.ImportState")
	}
	if env.TransformType != "discretization" {
		return errors.NewValidationError("transform_type", "envelope does not hold discretization state", env.TransformType)
	}
	if nb, ok := env.Config["num_buckets"].(float64); ok {
		d.NumBuckets = int(nb)
	}
	if !env.IsAdapted {
		d.ResetState()
		return nil
	}
	var raw stats.BoundariesState
	if err := env.DecodeState(&raw); err != nil {
		return errors.Wrap(err, "Discretization.ImportState")
	}
	// 境界の不変条件（狭義単調増加）を検証しながら復元する
	state, err := stats.NewBoundariesState(raw.Boundaries)
	if err != nil {
		return errors.Wrap(err, "Discretization.ImportState")
	}
	d.Boundaries = state
	d.acc = nil
	d.SetAdapted()
	return nil
}

type discretizationGob struct {
	NumBuckets int
	Boundaries [][]float64
	Adapted    bool
}

// GobEncode は適応済み状態を含めてシリアライズする
func (d *Discretization) GobEncode() ([]byte, error) {
	g := discretizationGob{NumBuckets: d.NumBuckets, Adapted: d.IsAdapted()}
	if d.Boundaries != nil {
		g.Boundaries = d.Boundaries.Boundaries
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode はシリアライズされた状態を復元する
func (d *Discretization) GobDecode(data []byte) error {
	var g discretizationGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return errors.Wrap(err, "Discretization.GobDecode")
	}
	d.NumBuckets = g.NumBuckets
	d.acc = nil
	if !g.Adapted {
		d.Boundaries = nil
		d.Reset()
		return nil
	}
	state, err := stats.NewBoundariesState(g.Boundaries)
	if err != nil {
		return errors.Wrap(err, "Discretization.GobDecode")
	}
	d.Boundaries = state
	d.SetAdapted()
	return nil
}
