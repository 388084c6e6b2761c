package preprocessing

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"strconv"

	"github.com/YuminosukeSato/adaptgo/core/transform"
	"github.com/YuminosukeSato/adaptgo/pkg/errors"
	"github.com/YuminosukeSato/adaptgo/vocab"
)

// StringLookup はKeras互換の文字列→索引変換
// 適応フェーズで頻度順の語彙を学習し、変換フェーズで各トークンを
// 語彙の索引に写像する。マスク値は0、語彙外は1に写像される
type StringLookup struct {
	transform.BaseTransform

	// MaxSize は語彙の最大サイズ（予約スロット2個を含む、0は無制限）
	MaxSize int

	// MinFrequency は語彙に採用する最小出現回数
	MinFrequency int64

	// MaskToken はスロット0に写像されるマスク値（Adapt前に設定する）
	MaskToken string

	// Vocabulary は学習済みの語彙
	Vocabulary *vocab.State

	acc *vocab.Accumulator
}

// NewStringLookup は新しいStringLookupを作成する
//
// パラメータ:
//   - maxSize: 語彙の最大サイズ（0は無制限、2以上で予約スロットを含む）
//   - minFrequency: 語彙に採用する最小出現回数
//
// 戻り値:
//   - *StringLookup: 新しいStringLookupインスタンス
//   - error: maxSizeが負または1の場合のエラー
//
// 使用例:
//
//	lookup, err := preprocessing.NewStringLookup(1000, 2)
//	err = lookup.Adapt(batch)
//	indices, err := lookup.Transform(batch)
func NewStringLookup(maxSize int, minFrequency int64) (*StringLookup, error) {
	if maxSize < 0 || maxSize == 1 {
		return nil, errors.NewValidationError("max_size",
			"must be 0 (unbounded) or at least 2 to cover the reserved slots", maxSize)
	}
	return &StringLookup{MaxSize: maxSize, MinFrequency: minFrequency}, nil
}

// NewStringLookupDefault はデフォルト設定（無制限、最小出現回数1）でStringLookupを作成する
func NewStringLookupDefault() *StringLookup {
	return &StringLookup{MaxSize: 0, MinFrequency: 1}
}

// NewStringLookupFromTokens は既知の語彙リストからStringLookupを作成する
// トークンは索引2から登場順に割り当てられる
func NewStringLookupFromTokens(ordered []string) (*StringLookup, error) {
	state, err := vocab.NewStateFromTokens(ordered)
	if err != nil {
		return nil, err
	}
	sl := &StringLookup{MinFrequency: 1, Vocabulary: state}
	sl.SetAdapted()
	return sl, nil
}

// NewStringLookupFromFile は語彙ファイル（1行1トークン）からStringLookupを作成する
func NewStringLookupFromFile(path string) (*StringLookup, error) {
	state, err := vocab.LoadTokenFile(path)
	if err != nil {
		return nil, err
	}
	sl := &StringLookup{MinFrequency: 1, Vocabulary: state}
	sl.SetAdapted()
	return sl, nil
}

// Name は変換の名前を返す
func (sl *StringLookup) Name() string {
	return "StringLookup"
}

// ResetState は蓄積された頻度と適応済み状態を破棄する
func (sl *StringLookup) ResetState() {
	sl.acc = vocab.NewAccumulator()
	sl.Vocabulary = nil
	sl.Reset()
}

// UpdateState は1チャンク分のトークンを頻度に取り込む
func (sl *StringLookup) UpdateState(b *transform.Batch) error {
	if sl.acc == nil {
		sl.acc = vocab.NewAccumulator()
	}
	tokens, err := b.Strings("StringLookup.UpdateState")
	if err != nil {
		return err
	}
	return sl.acc.Update(tokens)
}

// FinalizeState は蓄積された頻度から語彙を確定する
func (sl *StringLookup) FinalizeState() error {
	if sl.acc == nil {
		return errors.Wrap(errors.ErrEmptySample, "StringLookup.FinalizeState")
	}
	state, err := sl.acc.FinalizeWithMask(sl.MaxSize, sl.MinFrequency, sl.MaskToken)
	if err != nil {
		return err
	}
	sl.Vocabulary = state
	sl.acc = nil
	sl.SetAdapted()
	return nil
}

// Adapt はトークンのバッチから語彙を学習する
// 再度呼び出すと以前の語彙は破棄され、新しいデータのみから再構築される
//
// パラメータ:
//   - b: 文字列バッチ（1レコード1トークン）
//
// 戻り値:
//   - error: エラーが発生した場合
func (sl *StringLookup) Adapt(b *transform.Batch) error {
	sl.ResetState()
	if err := sl.UpdateState(b); err != nil {
		return err
	}
	return sl.FinalizeState()
}

// Transform は各トークンを語彙の索引に写像する
// 語彙外のトークンはエラーにならず索引1になる
//
// パラメータ:
//   - b: 文字列バッチ
//
// 戻り値:
//   - *transform.Batch: 索引の整数バッチ
//   - error: エラーが発生した場合
func (sl *StringLookup) Transform(b *transform.Batch) (*transform.Batch, error) {
	if !sl.IsAdapted() {
		return nil, errors.NewNotAdaptedError("StringLookup", "Transform")
	}
	tokens, err := b.Strings("StringLookup.Transform")
	if err != nil {
		return nil, err
	}
	return transform.NewInts(sl.Vocabulary.LookupAll(tokens)), nil
}

// AdaptTransform はAdaptとTransformを同時に実行する
func (sl *StringLookup) AdaptTransform(b *transform.Batch) (*transform.Batch, error) {
	if err := sl.Adapt(b); err != nil {
		return nil, err
	}
	return sl.Transform(b)
}

// Lookup は単一のトークンを索引に写像する
func (sl *StringLookup) Lookup(token string) (int64, error) {
	if !sl.IsAdapted() {
		return 0, errors.NewNotAdaptedError("StringLookup", "Lookup")
	}
	return sl.Vocabulary.Lookup(token), nil
}

// TokenOf は索引から元のトークンを逆引きする
// マスク以外の予約スロットと範囲外の索引は ok=false
func (sl *StringLookup) TokenOf(index int64) (string, bool) {
	if !sl.IsAdapted() {
		return "", false
	}
	return sl.Vocabulary.TokenOf(index)
}

// VocabularySize は予約スロットを含む語彙サイズを返す
func (sl *StringLookup) VocabularySize() int {
	if sl.Vocabulary == nil {
		return 0
	}
	return sl.Vocabulary.Size()
}

// GetParams は変換のパラメータを取得する
func (sl *StringLookup) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_size":      sl.MaxSize,
		"min_frequency": sl.MinFrequency,
		"mask_token":    sl.MaskToken,
	}
}

// String は変換の文字列表現を返す
func (sl *StringLookup) String() string {
	if !sl.IsAdapted() {
		return fmt.Sprintf("StringLookup(max_size=%d, min_frequency=%d)", sl.MaxSize, sl.MinFrequency)
	}
	return fmt.Sprintf("StringLookup(max_size=%d, min_frequency=%d, vocabulary_size=%d)",
		sl.MaxSize, sl.MinFrequency, sl.VocabularySize())
}

// ExportState は学習済み状態をエンベロープに書き出す
func (sl *StringLookup) ExportState() (*transform.StateEnvelope, error) {
	env := &transform.StateEnvelope{
		TransformType: "string_lookup",
		Version:       "1",
		Config: map[string]interface{}{
			"max_size":      sl.MaxSize,
			"min_frequency": sl.MinFrequency,
			"mask_token":    sl.MaskToken,
		},
		IsAdapted: sl.IsAdapted(),
	}
	if sl.IsAdapted() {
		if err := env.SetState(sl.Vocabulary); err != nil {
			return nil, errors.Wrap(err, "StringLookup.ExportState")
		}
	}
	return env, nil
}

// ImportState はエンベロープから学習済み状態を復元する
func (sl *StringLookup) ImportState(env *transform.StateEnvelope) error {
	if err := env.Validate(); err != nil {
		return errors.Wrap(err, "StringLookup.ImportState")
	}
	if env.TransformType != "string_lookup" {
		return errors.NewValidationError("transform_type", "envelope does not hold string_lookup state", env.TransformType)
	}
	if ms, ok := env.Config["max_size"].(float64); ok {
		sl.MaxSize = int(ms)
	}
	if mf, ok := env.Config["min_frequency"].(float64); ok {
		sl.MinFrequency = int64(mf)
	}
	if mt, ok := env.Config["mask_token"].(string); ok {
		sl.MaskToken = mt
	}
	if !env.IsAdapted {
		sl.ResetState()
		return nil
	}
	state := &vocab.State{}
	if err := env.DecodeState(state); err != nil {
		return errors.Wrap(err, "StringLookup.ImportState")
	}
	sl.Vocabulary = state
	sl.acc = nil
	sl.SetAdapted()
	return nil
}

type stringLookupGob struct {
	MaxSize      int
	MinFrequency int64
	MaskToken    string
	Tokens       []string
	Adapted      bool
}

// GobEncode は適応済み状態を含めてシリアライズする
func (sl *StringLookup) GobEncode() ([]byte, error) {
	g := stringLookupGob{
		MaxSize:      sl.MaxSize,
		MinFrequency: sl.MinFrequency,
		MaskToken:    sl.MaskToken,
		Adapted:      sl.IsAdapted(),
	}
	if sl.Vocabulary != nil {
		g.Tokens = sl.Vocabulary.Tokens()
		g.MaskToken = sl.Vocabulary.MaskToken()
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode はシリアライズされた状態から語彙を再構築する
func (sl *StringLookup) GobDecode(data []byte) error {
	var g stringLookupGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return errors.Wrap(err, "StringLookup.GobDecode")
	}
	sl.MaxSize = g.MaxSize
	sl.MinFrequency = g.MinFrequency
	sl.MaskToken = g.MaskToken
	sl.acc = nil
	if !g.Adapted {
		sl.Vocabulary = nil
		sl.Reset()
		return nil
	}
	state, err := vocab.NewStateFromTokensWithMask(g.Tokens, g.MaskToken)
	if err != nil {
		return errors.Wrap(err, "StringLookup.GobDecode")
	}
	sl.Vocabulary = state
	sl.SetAdapted()
	return nil
}

// IntegerLookup はKeras互換の整数→索引変換
// 整数値を10進表記のトークンとして同じ語彙エンジンで扱う
// 10進表記が空文字列になることはないため、既定のマスク値に一致する整数は存在しない
type IntegerLookup struct {
	transform.BaseTransform

	// MaxSize は語彙の最大サイズ（予約スロット2個を含む、0は無制限）
	MaxSize int

	// MinFrequency は語彙に採用する最小出現回数
	MinFrequency int64

	// Vocabulary は学習済みの語彙（10進表記のトークン）
	Vocabulary *vocab.State

	acc *vocab.Accumulator
}

// NewIntegerLookup は新しいIntegerLookupを作成する
//
// パラメータ:
//   - maxSize: 語彙の最大サイズ（0は無制限、2以上で予約スロットを含む）
//   - minFrequency: 語彙に採用する最小出現回数
//
// 戻り値:
//   - *IntegerLookup: 新しいIntegerLookupインスタンス
//   - error: maxSizeが負または1の場合のエラー
func NewIntegerLookup(maxSize int, minFrequency int64) (*IntegerLookup, error) {
	if maxSize < 0 || maxSize == 1 {
		return nil, errors.NewValidationError("max_size",
			"must be 0 (unbounded) or at least 2 to cover the reserved slots", maxSize)
	}
	return &IntegerLookup{MaxSize: maxSize, MinFrequency: minFrequency}, nil
}

// NewIntegerLookupDefault はデフォルト設定（無制限、最小出現回数1）でIntegerLookupを作成する
func NewIntegerLookupDefault() *IntegerLookup {
	return &IntegerLookup{MaxSize: 0, MinFrequency: 1}
}

// NewIntegerLookupFromValues は既知の値リストからIntegerLookupを作成する
func NewIntegerLookupFromValues(ordered []int64) (*IntegerLookup, error) {
	tokens := make([]string, len(ordered))
	for i, v := range ordered {
		tokens[i] = strconv.FormatInt(v, 10)
	}
	state, err := vocab.NewStateFromTokens(tokens)
	if err != nil {
		return nil, err
	}
	il := &IntegerLookup{MinFrequency: 1, Vocabulary: state}
	il.SetAdapted()
	return il, nil
}

// Name は変換の名前を返す
func (il *IntegerLookup) Name() string {
	return "IntegerLookup"
}

// ResetState は蓄積された頻度と適応済み状態を破棄する
func (il *IntegerLookup) ResetState() {
	il.acc = vocab.NewAccumulator()
	il.Vocabulary = nil
	il.Reset()
}

// UpdateState は1チャンク分の整数を頻度に取り込む
func (il *IntegerLookup) UpdateState(b *transform.Batch) error {
	if il.acc == nil {
		il.acc = vocab.NewAccumulator()
	}
	values, err := b.Ints("IntegerLookup.UpdateState")
	if err != nil {
		return err
	}
	tokens := make([]string, len(values))
	for i, v := range values {
		tokens[i] = strconv.FormatInt(v, 10)
	}
	return il.acc.Update(tokens)
}

// FinalizeState は蓄積された頻度から語彙を確定する
func (il *IntegerLookup) FinalizeState() error {
	if il.acc == nil {
		return errors.Wrap(errors.ErrEmptySample, "IntegerLookup.FinalizeState")
	}
	state, err := il.acc.Finalize(il.MaxSize, il.MinFrequency)
	if err != nil {
		return err
	}
	il.Vocabulary = state
	il.acc = nil
	il.SetAdapted()
	return nil
}

// Adapt は整数のバッチから語彙を学習する
// 再度呼び出すと以前の語彙は破棄され、新しいデータのみから再構築される
func (il *IntegerLookup) Adapt(b *transform.Batch) error {
	il.ResetState()
	if err := il.UpdateState(b); err != nil {
		return err
	}
	return il.FinalizeState()
}

// Transform は各整数を語彙の索引に写像する
// 語彙外の値はエラーにならず索引1になる
func (il *IntegerLookup) Transform(b *transform.Batch) (*transform.Batch, error) {
	if !il.IsAdapted() {
		return nil, errors.NewNotAdaptedError("IntegerLookup", "Transform")
	}
	values, err := b.Ints("IntegerLookup.Transform")
	if err != nil {
		return nil, err
	}
	indices := make([]int64, len(values))
	for i, v := range values {
		indices[i] = il.Vocabulary.Lookup(strconv.FormatInt(v, 10))
	}
	return transform.NewInts(indices), nil
}

// AdaptTransform はAdaptとTransformを同時に実行する
func (il *IntegerLookup) AdaptTransform(b *transform.Batch) (*transform.Batch, error) {
	if err := il.Adapt(b); err != nil {
		return nil, err
	}
	return il.Transform(b)
}

// Lookup は単一の整数を索引に写像する
func (il *IntegerLookup) Lookup(value int64) (int64, error) {
	if !il.IsAdapted() {
		return 0, errors.NewNotAdaptedError("IntegerLookup", "Lookup")
	}
	return il.Vocabulary.Lookup(strconv.FormatInt(value, 10)), nil
}

// ValueOf は索引から元の整数を逆引きする
func (il *IntegerLookup) ValueOf(index int64) (int64, bool) {
	if !il.IsAdapted() {
		return 0, false
	}
	token, ok := il.Vocabulary.TokenOf(index)
	if !ok || token == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// VocabularySize は予約スロットを含む語彙サイズを返す
func (il *IntegerLookup) VocabularySize() int {
	if il.Vocabulary == nil {
		return 0
	}
	return il.Vocabulary.Size()
}

// GetParams は変換のパラメータを取得する
func (il *IntegerLookup) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_size":      il.MaxSize,
		"min_frequency": il.MinFrequency,
	}
}

// String は変換の文字列表現を返す
func (il *IntegerLookup) String() string {
	if !il.IsAdapted() {
		return fmt.Sprintf("IntegerLookup(max_size=%d, min_frequency=%d)", il.MaxSize, il.MinFrequency)
	}
	return fmt.Sprintf("IntegerLookup(max_size=%d, min_frequency=%d, vocabulary_size=%d)",
		il.MaxSize, il.MinFrequency, il.VocabularySize())
}

// ExportState は学習済み状態をエンベロープに書き出す
func (il *IntegerLookup) ExportState() (*transform.StateEnvelope, error) {
	env := &transform.StateEnvelope{
		TransformType: "integer_lookup",
		Version:       "1",
		Config: map[string]interface{}{
			"max_size":      il.MaxSize,
			"min_frequency": il.MinFrequency,
		},
		IsAdapted: il.IsAdapted(),
	}
	if il.IsAdapted() {
		if err := env.SetState(il.Vocabulary); err != nil {
			return nil, errors.Wrap(err, "IntegerLookup.ExportState")
		}
	}
	return env, nil
}

// ImportState はエンベロープから学習済み状態を復元する
func (il *IntegerLookup) ImportState(env *transform.StateEnvelope) error {
	if err := env.Validate(); err != nil {
		return errors.Wrap(err, "IntegerLookup.ImportState")
	}
	if env.TransformType != "integer_lookup" {
		return errors.NewValidationError("transform_type", "envelope does not hold integer_lookup state", env.TransformType)
	}
	if ms, ok := env.Config["max_size"].(float64); ok {
		il.MaxSize = int(ms)
	}
	if mf, ok := env.Config["min_frequency"].(float64); ok {
		il.MinFrequency = int64(mf)
	}
	if !env.IsAdapted {
		il.ResetState()
		return nil
	}
	state := &vocab.State{}
	if err := env.DecodeState(state); err != nil {
		return errors.Wrap(err, "IntegerLookup.ImportState")
	}
	il.Vocabulary = state
	il.acc = nil
	il.SetAdapted()
	return nil
}

type integerLookupGob struct {
	MaxSize      int
	MinFrequency int64
	Tokens       []string
	Adapted      bool
}

// GobEncode は適応済み状態を含めてシリアライズする
func (il *IntegerLookup) GobEncode() ([]byte, error) {
	g := integerLookupGob{
		MaxSize:      il.MaxSize,
		MinFrequency: il.MinFrequency,
		Adapted:      il.IsAdapted(),
	}
	if il.Vocabulary != nil {
		g.Tokens = il.Vocabulary.Tokens()
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode はシリアライズされた状態から語彙を再構築する
func (il *IntegerLookup) GobDecode(data []byte) error {
	var g integerLookupGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return errors.Wrap(err, "IntegerLookup.GobDecode")
	}
	il.MaxSize = g.MaxSize
	il.MinFrequency = g.MinFrequency
	il.acc = nil
	if !g.Adapted {
		il.Vocabulary = nil
		il.Reset()
		return nil
	}
	state, err := vocab.NewStateFromTokens(g.Tokens)
	if err != nil {
		return errors.Wrap(err, "IntegerLookup.GobDecode")
	}
	il.Vocabulary = state
	il.SetAdapted()
	return nil
}
