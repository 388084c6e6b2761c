package preprocessing

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"iter"
	"strings"

	"github.com/YuminosukeSato/adaptgo/core/transform"
	"github.com/YuminosukeSato/adaptgo/pkg/errors"
)

// Pipeline は複数の変換を直列に連結した合成変換
// 各メンバーは前段のTransform出力を入力として受け取る
// 適応済みのメンバー（事前計算状態から構築したものを含む）はAdaptで
// スキップされるため、固定語彙のLookupと学習するNormalizationの混在ができる
type Pipeline struct {
	steps []transform.AdaptableTransform
}

// NewPipeline は変換を順に連結したPipelineを作成する
//
// パラメータ:
//   - steps: 適用順に並べた変換（1つ以上）
//
// 戻り値:
//   - *Pipeline: 新しいPipelineインスタンス
//   - error: stepsが空またはnilを含む場合のエラー
//
// 使用例:
//
//	lookup, _ := preprocessing.NewStringLookupFromTokens([]string{"a", "b"})
//	norm := preprocessing.NewNormalizationDefault()
//	pipe, err := preprocessing.NewPipeline(lookup, norm)
//	err = pipe.Adapt(batch)      // lookupは適応済みなのでnormだけが学習する
//	out, err := pipe.Transform(batch)
func NewPipeline(steps ...transform.AdaptableTransform) (*Pipeline, error) {
	if len(steps) == 0 {
		return nil, errors.NewValidationError("steps", "pipeline requires at least one transform", len(steps))
	}
	for i, step := range steps {
		if step == nil {
			return nil, errors.NewValidationError("steps", fmt.Sprintf("step %d is nil", i), nil)
		}
	}
	return &Pipeline{steps: append([]transform.AdaptableTransform(nil), steps...)}, nil
}

// Name は変換の名前を返す
func (p *Pipeline) Name() string {
	return "Pipeline"
}

// Len はメンバー数を返す
func (p *Pipeline) Len() int {
	return len(p.steps)
}

// Steps はメンバーのコピーを適用順で返す
func (p *Pipeline) Steps() []transform.AdaptableTransform {
	return append([]transform.AdaptableTransform(nil), p.steps...)
}

// IsAdapted は全メンバーが適応済みかどうかを返す
func (p *Pipeline) IsAdapted() bool {
	for _, step := range p.steps {
		if !step.IsAdapted() {
			return false
		}
	}
	return true
}

// Adapt は未適応のメンバーを順に学習させる
// 各メンバーは前段までの変換を適用した出力で学習し、学習後に自身の
// Transformで次段の入力を生成する。適応済みのメンバーは学習をスキップして
// 適用のみ行うため、事前計算状態の変換と混在させられる
//
// パラメータ:
//   - b: 先頭の変換に与えるサンプルバッチ
//
// 戻り値:
//   - error: いずれかのメンバーの学習または適用が失敗した場合
func (p *Pipeline) Adapt(b *transform.Batch) error {
	running := b
	for i, step := range p.steps {
		if !step.IsAdapted() {
			if err := step.Adapt(running); err != nil {
				return errors.Wrapf(err, "Pipeline.Adapt: step %d (%s)", i, step.Name())
			}
		}
		out, err := step.Transform(running)
		if err != nil {
			return errors.Wrapf(err, "Pipeline.Adapt: step %d (%s)", i, step.Name())
		}
		running = out
	}
	return nil
}

// AdaptSeq はチャンク列から未適応のメンバーを順に学習させる
// シーケンスはメンバーごとに最初から再生され、適応済みの前段を通した
// チャンクがそのメンバーのUpdateStateに渡される。range-over-funcの
// シーケンスは複数回イテレートできる必要がある
//
// パラメータ:
//   - sample: 再生可能なチャンク列
//
// 戻り値:
//   - error: ストリーミング適応に対応しないメンバーがある場合、
//     チャンクが1つもない場合、学習が失敗した場合
func (p *Pipeline) AdaptSeq(sample iter.Seq[*transform.Batch]) error {
	for i, step := range p.steps {
		if step.IsAdapted() {
			continue
		}
		streamer, ok := step.(transform.StreamingAdapter)
		if !ok {
			return errors.NewValidationError("steps",
				fmt.Sprintf("step %d (%s) does not support chunked adapt", i, step.Name()), step.Name())
		}
		streamer.ResetState()
		chunks := 0
		var loopErr error
		for b := range sample {
			out, err := p.applyPrefix(b, i)
			if err != nil {
				loopErr = err
				break
			}
			if err := streamer.UpdateState(out); err != nil {
				loopErr = errors.Wrapf(err, "Pipeline.AdaptSeq: step %d (%s)", i, step.Name())
				break
			}
			chunks++
		}
		if loopErr != nil {
			return loopErr
		}
		if chunks == 0 {
			return errors.Wrapf(errors.ErrEmptySample, "Pipeline.AdaptSeq: step %d (%s)", i, step.Name())
		}
		if err := streamer.FinalizeState(); err != nil {
			return errors.Wrapf(err, "Pipeline.AdaptSeq: step %d (%s)", i, step.Name())
		}
	}
	return nil
}

// applyPrefix は先頭からn個のメンバーを順に適用する
func (p *Pipeline) applyPrefix(b *transform.Batch, n int) (*transform.Batch, error) {
	running := b
	for j := 0; j < n; j++ {
		out, err := p.steps[j].Transform(running)
		if err != nil {
			return nil, errors.Wrapf(err, "Pipeline: step %d (%s)", j, p.steps[j].Name())
		}
		running = out
	}
	return running, nil
}

// Transform は全メンバーを順に適用する
// 未適応のメンバーが1つでもあれば適用前に NotAdaptedError を返す
//
// パラメータ:
//   - b: 先頭の変換に与えるバッチ
//
// 戻り値:
//   - *transform.Batch: 最終段の出力バッチ
//   - error: エラーが発生した場合
func (p *Pipeline) Transform(b *transform.Batch) (*transform.Batch, error) {
	for i, step := range p.steps {
		if !step.IsAdapted() {
			return nil, errors.Wrapf(errors.NewNotAdaptedError(step.Name(), "Transform"),
				"Pipeline.Transform: step %d", i)
		}
	}
	return p.applyPrefix(b, len(p.steps))
}

// AdaptTransform はAdaptとTransformを同時に実行する
func (p *Pipeline) AdaptTransform(b *transform.Batch) (*transform.Batch, error) {
	if err := p.Adapt(b); err != nil {
		return nil, err
	}
	return p.Transform(b)
}

// InverseTransform は全メンバーの逆変換を逆順に適用する
// 逆変換に対応しないメンバーが含まれる場合はエラーを返す
func (p *Pipeline) InverseTransform(b *transform.Batch) (*transform.Batch, error) {
	running := b
	for i := len(p.steps) - 1; i >= 0; i-- {
		inv, ok := p.steps[i].(transform.Invertible)
		if !ok {
			return nil, errors.NewValidationError("steps",
				fmt.Sprintf("step %d (%s) is not invertible", i, p.steps[i].Name()), p.steps[i].Name())
		}
		out, err := inv.InverseTransform(running)
		if err != nil {
			return nil, errors.Wrapf(err, "Pipeline.InverseTransform: step %d (%s)", i, p.steps[i].Name())
		}
		running = out
	}
	return running, nil
}

// GetParams は変換のパラメータを取得する
func (p *Pipeline) GetParams() map[string]interface{} {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return map[string]interface{}{
		"steps": names,
	}
}

// String は変換の文字列表現を返す
func (p *Pipeline) String() string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return fmt.Sprintf("Pipeline(%s)", strings.Join(names, " -> "))
}

// ExportState は全メンバーの状態をエンベロープに書き出す
// ペイロードはメンバーのエンベロープを適用順に並べた配列になる
// 未適応のメンバーがある場合はエラーを返す
func (p *Pipeline) ExportState() (*transform.StateEnvelope, error) {
	if !p.IsAdapted() {
		return nil, errors.NewNotAdaptedError("Pipeline", "ExportState")
	}
	members := make([]*transform.StateEnvelope, len(p.steps))
	kinds := make([]string, len(p.steps))
	for i, step := range p.steps {
		exporter, ok := step.(transform.StateExporter)
		if !ok {
			return nil, errors.NewValidationError("steps",
				fmt.Sprintf("step %d (%s) does not support state export", i, step.Name()), step.Name())
		}
		env, err := exporter.ExportState()
		if err != nil {
			return nil, errors.Wrapf(err, "Pipeline.ExportState: step %d (%s)", i, step.Name())
		}
		members[i] = env
		kinds[i] = env.TransformType
	}
	env := &transform.StateEnvelope{
		TransformType: "pipeline",
		Version:       "1",
		Config: map[string]interface{}{
			"steps": kinds,
		},
	}
	if err := env.SetState(members); err != nil {
		return nil, errors.Wrap(err, "Pipeline.ExportState")
	}
	return env, nil
}

// ImportState はエンベロープから全メンバーの状態を復元する
// メンバーが既に設定されている場合は各メンバーへ順に配り、空のPipelineに
// 対して呼ばれた場合はエンベロープの種類からメンバーを再構築する
func (p *Pipeline) ImportState(env *transform.StateEnvelope) error {
	if err := env.Validate(); err != nil {
		return errors.Wrap(err, "Pipeline.ImportState")
	}
	if env.TransformType != "pipeline" {
		return errors.NewValidationError("transform_type", "envelope does not hold pipeline state", env.TransformType)
	}
	var members []*transform.StateEnvelope
	if err := env.DecodeState(&members); err != nil {
		return errors.Wrap(err, "Pipeline.ImportState")
	}
	if len(p.steps) == 0 {
		steps := make([]transform.AdaptableTransform, len(members))
		for i, m := range members {
			step, err := NewTransformFromEnvelope(m)
			if err != nil {
				return errors.Wrapf(err, "Pipeline.ImportState: step %d", i)
			}
			steps[i] = step
		}
		if len(steps) == 0 {
			return errors.NewValidationError("steps", "pipeline envelope holds no members", 0)
		}
		p.steps = steps
		return nil
	}
	if len(members) != len(p.steps) {
		return errors.NewDimensionError("Pipeline.ImportState", len(p.steps), len(members), 0)
	}
	for i, m := range members {
		exporter, ok := p.steps[i].(transform.StateExporter)
		if !ok {
			return errors.NewValidationError("steps",
				fmt.Sprintf("step %d (%s) does not support state import", i, p.steps[i].Name()), p.steps[i].Name())
		}
		if err := exporter.ImportState(m); err != nil {
			return errors.Wrapf(err, "Pipeline.ImportState: step %d (%s)", i, p.steps[i].Name())
		}
	}
	return nil
}

type pipelineGob struct {
	Kinds []string
	Blobs [][]byte
}

// GobEncode は全メンバーを種類タグ付きでシリアライズする
func (p *Pipeline) GobEncode() ([]byte, error) {
	g := pipelineGob{
		Kinds: make([]string, len(p.steps)),
		Blobs: make([][]byte, len(p.steps)),
	}
	for i, step := range p.steps {
		kind, ok := kindOf(step)
		if !ok {
			return nil, errors.NewValidationError("steps",
				fmt.Sprintf("step %d (%s) has no registered kind", i, step.Name()), step.Name())
		}
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(step); err != nil {
			return nil, errors.Wrapf(err, "Pipeline.GobEncode: step %d (%s)", i, step.Name())
		}
		g.Kinds[i] = kind
		g.Blobs[i] = buf.Bytes()
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode は種類タグからメンバーを再構築して状態を復元する
func (p *Pipeline) GobDecode(data []byte) error {
	var g pipelineGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return errors.Wrap(err, "Pipeline.GobDecode")
	}
	if len(g.Kinds) != len(g.Blobs) {
		return errors.NewDimensionError("Pipeline.GobDecode", len(g.Kinds), len(g.Blobs), 0)
	}
	steps := make([]transform.AdaptableTransform, len(g.Kinds))
	for i, kind := range g.Kinds {
		step, err := NewTransformByKind(kind)
		if err != nil {
			return errors.Wrapf(err, "Pipeline.GobDecode: step %d", i)
		}
		if err := gob.NewDecoder(bytes.NewReader(g.Blobs[i])).Decode(step); err != nil {
			return errors.Wrapf(err, "Pipeline.GobDecode: step %d (%s)", i, kind)
		}
		steps[i] = step
	}
	p.steps = steps
	return nil
}
