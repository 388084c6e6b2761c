package preprocessing

import (
	"github.com/YuminosukeSato/adaptgo/core/transform"
	"github.com/YuminosukeSato/adaptgo/pkg/errors"
)

// kindOf は変換インスタンスの種類タグを返す
// タグはStateEnvelope.TransformTypeと同じ語彙を使う
func kindOf(t transform.AdaptableTransform) (string, bool) {
	switch t.(type) {
	case *Normalization:
		return "normalization", true
	case *Discretization:
		return "discretization", true
	case *StringLookup:
		return "string_lookup", true
	case *IntegerLookup:
		return "integer_lookup", true
	case *Hashing:
		return "hashing", true
	case *TextVectorizer:
		return "text_vectorizer", true
	case *Pipeline:
		return "pipeline", true
	}
	return "", false
}

// NewTransformByKind は種類タグから未構成の変換インスタンスを作成する
// 返されたインスタンスはImportStateまたはgobデコードで状態を受け取る前提で、
// そのままでは使用できない
func NewTransformByKind(kind string) (transform.AdaptableTransform, error) {
	switch kind {
	case "normalization":
		return NewNormalizationDefault(), nil
	case "discretization":
		return NewDiscretizationDefault(), nil
	case "string_lookup":
		return NewStringLookupDefault(), nil
	case "integer_lookup":
		return NewIntegerLookupDefault(), nil
	case "hashing":
		return &Hashing{}, nil
	case "text_vectorizer":
		return &TextVectorizer{}, nil
	case "pipeline":
		return &Pipeline{}, nil
	}
	return nil, errors.NewValidationError("transform_type", "unknown transform kind", kind)
}

// NewTransformFromEnvelope はエンベロープから変換を再構築する
// ストアやJSONファイルに保存した状態を、元の具象型を知らずに復元する
//
// パラメータ:
//   - env: ExportStateで書き出したエンベロープ
//
// 戻り値:
//   - transform.AdaptableTransform: 状態を復元した変換
//   - error: 種類が未知、または状態の復元に失敗した場合
//
// 使用例:
//
//	env, err := norm.ExportState()
//	restored, err := preprocessing.NewTransformFromEnvelope(env)
func NewTransformFromEnvelope(env *transform.StateEnvelope) (transform.AdaptableTransform, error) {
	if env == nil {
		return nil, errors.NewValidationError("envelope", "must not be nil", nil)
	}
	t, err := NewTransformByKind(env.TransformType)
	if err != nil {
		return nil, err
	}
	exporter, ok := t.(transform.StateExporter)
	if !ok {
		return nil, errors.NewValidationError("transform_type",
			"kind does not support state import", env.TransformType)
	}
	if err := exporter.ImportState(env); err != nil {
		return nil, err
	}
	return t, nil
}
