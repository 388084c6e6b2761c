package preprocessing

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/adaptgo/core/parallel"
	"github.com/YuminosukeSato/adaptgo/core/transform"
	"github.com/YuminosukeSato/adaptgo/pkg/errors"
	"github.com/YuminosukeSato/adaptgo/stats"
)

// DefaultEpsilon は分散に加算する既定の微小値（ゼロ割り防止）
const DefaultEpsilon = 1e-7

// Normalization はKeras互換の特徴量正規化変換
// 適応フェーズで列ごとの平均と母分散を学習し、
// 変換フェーズで (x - mean) / sqrt(variance + epsilon) を適用する
type Normalization struct {
	transform.BaseTransform

	// Epsilon は分散に加算する微小値
	Epsilon float64

	// Mean は各特徴量の平均値
	Mean []float64

	// Variance は各特徴量の母分散
	Variance []float64

	// NFeatures は特徴量の数
	NFeatures int

	// NSamples は適応に使われた観測数
	NSamples int64

	acc *stats.MomentsAccumulator
}

// NewNormalization は新しいNormalizationを作成する
//
// パラメータ:
//   - epsilon: 分散に加算する微小値（正の値）
//
// 戻り値:
//   - *Normalization: 新しいNormalizationインスタンス
//   - error: epsilonが正でない場合のエラー
//
// 使用例:
//
//	norm, err := preprocessing.NewNormalization(1e-7)
//	err = norm.Adapt(batch)
//	scaled, err := norm.Transform(batch)
func NewNormalization(epsilon float64) (*Normalization, error) {
	if epsilon <= 0 || math.IsNaN(epsilon) {
		return nil, errors.NewValidationError("epsilon", "must be positive", epsilon)
	}
	return &Normalization{Epsilon: epsilon}, nil
}

// NewNormalizationDefault はデフォルト設定でNormalizationを作成する
func NewNormalizationDefault() *Normalization {
	return &Normalization{Epsilon: DefaultEpsilon}
}

// NewNormalizationFromMoments は学習済みの統計量からNormalizationを作成する
// 適応フェーズを経ずに、既知の平均・分散で変換のみ行う場合に使用する
func NewNormalizationFromMoments(state *stats.MomentsState, epsilon float64) (*Normalization, error) {
	if epsilon <= 0 || math.IsNaN(epsilon) {
		return nil, errors.NewValidationError("epsilon", "must be positive", epsilon)
	}
	if state == nil || state.NFeatures() == 0 {
		return nil, errors.NewValidationError("moments", "must hold at least one feature", state)
	}
	if len(state.Mean) != len(state.Variance) {
		return nil, errors.NewDimensionError("NewNormalizationFromMoments", len(state.Mean), len(state.Variance), 1)
	}
	n := &Normalization{
		Epsilon:   epsilon,
		Mean:      append([]float64(nil), state.Mean...),
		Variance:  append([]float64(nil), state.Variance...),
		NFeatures: state.NFeatures(),
		NSamples:  state.Count,
	}
	n.SetAdapted()
	return n, nil
}

// Name は変換の名前を返す
func (n *Normalization) Name() string {
	return "Normalization"
}

// ResetState は蓄積された統計と適応済み状態を破棄する
func (n *Normalization) ResetState() {
	n.acc = stats.NewMomentsAccumulator()
	n.Mean = nil
	n.Variance = nil
	n.NFeatures = 0
	n.NSamples = 0
	n.Reset()
}

// UpdateState は1チャンク分のデータを統計に取り込む
func (n *Normalization) UpdateState(b *transform.Batch) error {
	if n.acc == nil {
		n.acc = stats.NewMomentsAccumulator()
	}
	X, err := b.Floats("Normalization.UpdateState")
	if err != nil {
		return err
	}
	return n.acc.Update(X)
}

// FinalizeState は蓄積された統計から平均・分散を確定する
func (n *Normalization) FinalizeState() error {
	if n.acc == nil {
		return errors.Wrap(errors.ErrEmptySample, "Normalization.FinalizeState")
	}
	state, err := n.acc.Finalize()
	if err != nil {
		return err
	}
	n.Mean = state.Mean
	n.Variance = state.Variance
	n.NFeatures = state.NFeatures()
	n.NSamples = state.Count
	n.acc = nil

	for j, v := range n.Variance {
		if v == 0 {
			errors.Warn(errors.NewConstantFeatureWarning("Normalization", j, n.Mean[j]))
		}
	}

	n.SetAdapted()
	return nil
}

// Adapt はデータから平均と分散を学習する
// 再度呼び出すと以前の状態は破棄され、新しいデータのみから再計算される
//
// パラメータ:
//   - b: 数値行列バッチ (n_samples × n_features)
//
// 戻り値:
//   - error: エラーが発生した場合
func (n *Normalization) Adapt(b *transform.Batch) error {
	n.ResetState()
	if err := n.UpdateState(b); err != nil {
		return err
	}
	return n.FinalizeState()
}

// Transform は学習済みの統計量を使ってデータを正規化する
//
// パラメータ:
//   - b: 数値行列バッチ
//
// 戻り値:
//   - *transform.Batch: 正規化されたバッチ
//   - error: エラーが発生した場合
func (n *Normalization) Transform(b *transform.Batch) (*transform.Batch, error) {
	X, err := b.Floats("Normalization.Transform")
	if err != nil {
		return nil, err
	}
	result, err := n.TransformMatrix(X)
	if err != nil {
		return nil, err
	}
	return transform.NewFloats(result), nil
}

// AdaptTransform はAdaptとTransformを同時に実行する
func (n *Normalization) AdaptTransform(b *transform.Batch) (*transform.Batch, error) {
	if err := n.Adapt(b); err != nil {
		return nil, err
	}
	return n.Transform(b)
}

// InverseTransform は正規化されたデータを元のスケールに戻す
func (n *Normalization) InverseTransform(b *transform.Batch) (*transform.Batch, error) {
	X, err := b.Floats("Normalization.InverseTransform")
	if err != nil {
		return nil, err
	}
	result, err := n.InverseTransformMatrix(X)
	if err != nil {
		return nil, err
	}
	return transform.NewFloats(result), nil
}

// AdaptMatrix は行列データから状態を学習する
func (n *Normalization) AdaptMatrix(X mat.Matrix) error {
	return n.Adapt(transform.NewFloats(X))
}

// TransformMatrix は行列データを正規化する
func (n *Normalization) TransformMatrix(X mat.Matrix) (mat.Matrix, error) {
	if !n.IsAdapted() {
		return nil, errors.NewNotAdaptedError("Normalization", "Transform")
	}

	r, c := X.Dims()
	if c != n.NFeatures {
		return nil, errors.NewDimensionError("Normalization.Transform", n.NFeatures, c, 1)
	}

	invStd := make([]float64, c)
	for j := 0; j < c; j++ {
		invStd[j] = 1.0 / math.Sqrt(n.Variance[j]+n.Epsilon)
	}

	result := mat.NewDense(r, c, nil)

	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				result.Set(i, j, (X.At(i, j)-n.Mean[j])*invStd[j])
			}
		}
	})

	return result, nil
}

// AdaptTransformMatrix は適応と変換を同時に実行する
func (n *Normalization) AdaptTransformMatrix(X mat.Matrix) (mat.Matrix, error) {
	if err := n.AdaptMatrix(X); err != nil {
		return nil, err
	}
	return n.TransformMatrix(X)
}

// InverseTransformMatrix は正規化されたデータを元のスケールに戻す
func (n *Normalization) InverseTransformMatrix(X mat.Matrix) (mat.Matrix, error) {
	if !n.IsAdapted() {
		return nil, errors.NewNotAdaptedError("Normalization", "InverseTransform")
	}

	r, c := X.Dims()
	if c != n.NFeatures {
		return nil, errors.NewDimensionError("Normalization.InverseTransform", n.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)

	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				std := math.Sqrt(n.Variance[j] + n.Epsilon)
				result.Set(i, j, X.At(i, j)*std+n.Mean[j])
			}
		}
	})

	return result, nil
}

// OutputDim は出力の特徴量数を返す（入力と同じ）
func (n *Normalization) OutputDim() int {
	return n.NFeatures
}

// GetParams は変換のパラメータを取得する
func (n *Normalization) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"epsilon": n.Epsilon,
	}
}

// String は変換の文字列表現を返す
func (n *Normalization) String() string {
	if !n.IsAdapted() {
		return fmt.Sprintf("Normalization(epsilon=%g)", n.Epsilon)
	}
	return fmt.Sprintf("Normalization(epsilon=%g, n_features=%d)", n.Epsilon, n.NFeatures)
}

// ExportState は学習済み状態をエンベロープに書き出す
func (n *Normalization) ExportState() (*transform.StateEnvelope, error) {
	env := &transform.StateEnvelope{
		TransformType: "normalization",
		Version:       "1",
		Config:        map[string]interface{}{"epsilon": n.Epsilon},
		IsAdapted:     n.IsAdapted(),
	}
	if n.IsAdapted() {
		state := stats.MomentsState{Mean: n.Mean, Variance: n.Variance, Count: n.NSamples}
		if err := env.SetState(state); err != nil {
			return nil, errors.Wrap(err, "Normalization.ExportState")
		}
	}
	return env, nil
}

// ImportState はエンベロープから学習済み状態を復元する
func (n *Normalization) ImportState(env *transform.StateEnvelope) error {
	if err := env.Validate(); err != nil {
		return errors.Wrap(err, "Normalization.ImportState")
	}
	if env.TransformType != "normalization" {
		return errors.NewValidationError("transform_type", "envelope does not hold normalization state", env.TransformType)
	}
	if eps, ok := env.Config["epsilon"].(float64); ok {
		n.Epsilon = eps
	}
	if !env.IsAdapted {
		n.ResetState()
		n.acc = nil
		return nil
	}
	var state stats.MomentsState
	if err := env.DecodeState(&state); err != nil {
		return errors.Wrap(err, "Normalization.ImportState")
	}
	if len(state.Mean) != len(state.Variance) {
		return errors.NewDimensionError("Normalization.ImportState", len(state.Mean), len(state.Variance), 1)
	}
	n.Mean = state.Mean
	n.Variance = state.Variance
	n.NFeatures = state.NFeatures()
	n.NSamples = state.Count
	n.acc = nil
	n.SetAdapted()
	return nil
}

type normalizationGob struct {
	Epsilon   float64
	Mean      []float64
	Variance  []float64
	NFeatures int
	NSamples  int64
	Adapted   bool
}

// GobEncode は適応済み状態を含めてシリアライズする
func (n *Normalization) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(normalizationGob{
		Epsilon:   n.Epsilon,
		Mean:      n.Mean,
		Variance:  n.Variance,
		NFeatures: n.NFeatures,
		NSamples:  n.NSamples,
		Adapted:   n.IsAdapted(),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode はシリアライズされた状態を復元する
func (n *Normalization) GobDecode(data []byte) error {
	var g normalizationGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return errors.Wrap(err, "Normalization.GobDecode")
	}
	n.Epsilon = g.Epsilon
	n.Mean = g.Mean
	n.Variance = g.Variance
	n.NFeatures = g.NFeatures
	n.NSamples = g.NSamples
	n.acc = nil
	if g.Adapted {
		n.SetAdapted()
	} else {
		n.Reset()
	}
	return nil
}
