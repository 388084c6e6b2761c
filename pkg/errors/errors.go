// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// Kerasの前処理レイヤーの警告・例外システムにインスパイアされており、構造化されたエラー情報を提供します。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("AdaptGo-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はAdaptGoライブラリ全体の警告ハンドラを設定します。
// これにより、VocabularyTruncationWarningなどのカスタム警告の処理方法を制御できます。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが利用可能な場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	// zerologが設定されている場合は優先的に使用
	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	// フォールバック: 従来のハンドラ
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	前処理特有の警告型
//
// ===========================================================================

// VocabularyTruncationWarning は語彙の確定時に最大サイズ制限でトークンが
// 切り捨てられた場合に発生する警告です。切り捨てられたトークンはOOVスロットに
// マッピングされます。
type VocabularyTruncationWarning struct {
	TransformName string
	Observed      int
	Kept          int
	MaxSize       int
}

func (w *VocabularyTruncationWarning) Error() string {
	return fmt.Sprintf("%s: vocabulary truncated from %d to %d tokens (max_size=%d). Dropped tokens will map to the OOV index.",
		w.TransformName, w.Observed, w.Kept, w.MaxSize)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *VocabularyTruncationWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("transform", w.TransformName).
		Int("observed_tokens", w.Observed).
		Int("kept_tokens", w.Kept).
		Int("max_size", w.MaxSize).
		Str("type", "VocabularyTruncationWarning")
}

// NewVocabularyTruncationWarning は新しいVocabularyTruncationWarningを作成します。
func NewVocabularyTruncationWarning(name string, observed, kept, maxSize int) *VocabularyTruncationWarning {
	return &VocabularyTruncationWarning{TransformName: name, Observed: observed, Kept: kept, MaxSize: maxSize}
}

// ConstantFeatureWarning は分散が0の特徴量（列）を検出した場合に発生する警告です。
// 正規化ではゼロ除算を避けるため、該当列の出力は常に0になります。
type ConstantFeatureWarning struct {
	TransformName string
	Feature       int
	Value         float64
}

func (w *ConstantFeatureWarning) Error() string {
	return fmt.Sprintf("%s: feature %d is constant (value=%g). Normalized output for this column will be 0.",
		w.TransformName, w.Feature, w.Value)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ConstantFeatureWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("transform", w.TransformName).
		Int("feature", w.Feature).
		Float64("value", w.Value).
		Str("type", "ConstantFeatureWarning")
}

// NewConstantFeatureWarning は新しいConstantFeatureWarningを作成します。
func NewConstantFeatureWarning(name string, feature int, value float64) *ConstantFeatureWarning {
	return &ConstantFeatureWarning{TransformName: name, Feature: feature, Value: value}
}

// BoundaryCollapseWarning は分位点境界の重複を除去した結果、要求より少ない
// バケット数になった場合に発生する警告です。歪んだ分布でよく起こります。
type BoundaryCollapseWarning struct {
	TransformName    string
	Feature          int
	RequestedBuckets int
	EffectiveBuckets int
}

func (w *BoundaryCollapseWarning) Error() string {
	return fmt.Sprintf("%s: feature %d produced %d effective buckets (requested %d) after removing duplicate quantile boundaries",
		w.TransformName, w.Feature, w.EffectiveBuckets, w.RequestedBuckets)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *BoundaryCollapseWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("transform", w.TransformName).
		Int("feature", w.Feature).
		Int("requested_buckets", w.RequestedBuckets).
		Int("effective_buckets", w.EffectiveBuckets).
		Str("type", "BoundaryCollapseWarning")
}

// NewBoundaryCollapseWarning は新しいBoundaryCollapseWarningを作成します。
func NewBoundaryCollapseWarning(name string, feature, requested, effective int) *BoundaryCollapseWarning {
	return &BoundaryCollapseWarning{TransformName: name, Feature: feature, RequestedBuckets: requested, EffectiveBuckets: effective}
}

// DataConversionWarning はデータの型が暗黙的に変換された場合に発生する警告です。
type DataConversionWarning struct {
	FromType string
	ToType   string
	Reason   string
}

func (w *DataConversionWarning) Error() string {
	return fmt.Sprintf("data converted from %s to %s. Reason: %s", w.FromType, w.ToType, w.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *DataConversionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("from_type", w.FromType).
		Str("to_type", w.ToType).
		Str("reason", w.Reason).
		Str("type", "DataConversionWarning")
}

// NewDataConversionWarning は新しいDataConversionWarningを作成します。
func NewDataConversionWarning(from, to, reason string) *DataConversionWarning {
	return &DataConversionWarning{FromType: from, ToType: to, Reason: reason}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotAdaptedError は変換が未適応の状態で `Transform` などを呼び出した場合のエラーです。
// 適応（学習済み統計・語彙の確定）が完了するまで、変換は適用できません。
type NotAdaptedError struct {
	TransformName string
	Method        string
}

func (e *NotAdaptedError) Error() string {
	return fmt.Sprintf("adaptgo: %s: this transform is not adapted yet. Call Adapt() or load a saved state before using %s()", e.TransformName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotAdaptedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("transform_name", e.TransformName).
		Str("method", e.Method).
		Str("type", "NotAdaptedError")
}

// NewNotAdaptedError は新しいNotAdaptedErrorを作成し、スタックトレースを付与します。
func NewNotAdaptedError(transformName, method string) error {
	err := &NotAdaptedError{TransformName: transformName, Method: method}
	return errors.WithStack(err)
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
// バッチの特徴量数が適応時と一致しない場合などに返されます。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("adaptgo: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// BatchKindError はバッチの値種別（数値行列・文字列・整数・インデックス列）が
// 変換の期待と異なる場合のエラーです。DimensionErrorのdtype版にあたります。
type BatchKindError struct {
	Op       string
	Expected string
	Got      string
}

func (e *BatchKindError) Error() string {
	return fmt.Sprintf("adaptgo: %s: batch kind mismatch. Expected %s, got %s", e.Op, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *BatchKindError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("expected", e.Expected).
		Str("got", e.Got).
		Str("type", "BatchKindError")
}

// NewBatchKindError は新しいBatchKindErrorを作成し、スタックトレースを付与します。
func NewBatchKindError(op, expected, got string) error {
	err := &BatchKindError{Op: op, Expected: expected, Got: got}
	return errors.WithStack(err)
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
// `ValueError`よりも具体的なバリデーションロジックの失敗を示します。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("adaptgo: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
// 例えば、適応対象のデータにNaNが含まれる場合など。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("adaptgo: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// TransformError は前処理変換に関する一般的なエラーです。
type TransformError struct {
	Op   string
	Kind string
	Err  error
}

func (e *TransformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("adaptgo: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("adaptgo: %s: %s", e.Op, e.Kind)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// NewTransformError は新しいTransformErrorを作成し、スタックトレースを付与します。
func NewTransformError(op, kind string, err error) error {
	transformErr := &TransformError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(transformErr)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	ストリーミング適応特有のエラー型
//
// ===========================================================================

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
// NaN、Inf、オーバーフロー、アンダーフローなどを検出します。
type NumericalInstabilityError struct {
	Operation string                 // 発生した操作（例: "moments_update", "idf_finalize"）
	Values    []float64              // 問題のある値
	Context   map[string]interface{} // デバッグ用の追加コンテキスト情報
	Chunk     int                    // 発生したチャンク番号
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("adaptgo: numerical instability detected in %s at chunk %d. Values: [%s]",
		e.Operation, e.Chunk, valStr)
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, chunk int) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Chunk:     chunk,
		Context:   make(map[string]interface{}),
	}
	return errors.WithStack(err)
}

// InputShapeError は入力データの形状が期待と異なる場合のエラーです。
// DimensionErrorより詳細で、適応時と変換時の不整合を検出します。
type InputShapeError struct {
	Phase    string // "adapt", "transform"
	Expected []int  // 期待される形状
	Got      []int  // 実際の形状
	Feature  string // 問題のある特徴量名（オプション）
}

func (e *InputShapeError) Error() string {
	expectedStr := fmt.Sprintf("%v", e.Expected)
	gotStr := fmt.Sprintf("%v", e.Got)
	if e.Feature != "" {
		return fmt.Sprintf("adaptgo: input shape mismatch in %s phase for feature '%s'. Expected shape %s, got %s",
			e.Phase, e.Feature, expectedStr, gotStr)
	}
	return fmt.Sprintf("adaptgo: input shape mismatch in %s phase. Expected shape %s, got %s",
		e.Phase, expectedStr, gotStr)
}

// NewInputShapeError は新しいInputShapeErrorを作成します。
func NewInputShapeError(phase string, expected, got []int) error {
	err := &InputShapeError{
		Phase:    phase,
		Expected: expected,
		Got:      got,
	}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrEmptySample は一度も観測データを受け取らずに確定しようとした場合のエラーです。
	ErrEmptySample = New("empty sample: no observations accumulated")

	// ErrStateFinalized は確定済みのアキュムレータを再度更新しようとした場合のエラーです。
	ErrStateFinalized = New("accumulator already finalized")
)
