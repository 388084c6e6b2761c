package preprocessing

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/YuminosukeSato/adaptgo/core/transform"
	"github.com/YuminosukeSato/adaptgo/encode"
	"github.com/YuminosukeSato/adaptgo/pkg/errors"
	"github.com/YuminosukeSato/adaptgo/text"
	"github.com/YuminosukeSato/adaptgo/vocab"
)

// TextVectorizer はKeras互換のテキストベクトル化変換
// トークン化 → n-gram展開 → 語彙索引 → 符号化を一段で行う
//
// 適応フェーズでは各レコードをトークン化・展開して語彙を学習し、
// tf_idfモードではレコードごとのトークン出現からIDF重みも同時に学習する。
// 変換フェーズでは学習済みの語彙と重みだけを使う
//
// 出力形式:
//   - int: レコードごとの索引列（可変長、OutputSequenceLengthで固定長化可能）
//   - count / multi_hot / tf_idf: レコード数 × 語彙サイズ の密行列
type TextVectorizer struct {
	transform.BaseTransform

	// MaxTokens は語彙の最大サイズ（予約スロット2個を含む、0は無制限）
	MaxTokens int

	// MinFrequency は語彙に採用する最小出現回数
	MinFrequency int64

	// Standardize はトークン化前のテキスト正規化方法
	Standardize text.Standardize

	// Ngrams は展開するn-gramの次数（1はユニグラムのみ）
	Ngrams int

	// NgramMode は出力するn-gramの次数の選び方
	NgramMode text.NgramMode

	// OutputMode は出力の符号化形式
	OutputMode encode.Mode

	// OutputSequenceLength はintモードの固定出力長（0は可変長）
	OutputSequenceLength int

	// Vocabulary は学習済みの語彙
	Vocabulary *vocab.State

	// Idf はtf_idfモードの学習済みIDF重み
	Idf *encode.IdfState

	tokenizer *text.Tokenizer
	expander  *text.NgramExpander
	enc       *encode.Encoder

	// 適応フェーズの集計器
	acc      *vocab.Accumulator
	docFreq  map[string]int64
	nRecords int64
	idfAcc   *encode.IdfAccumulator

	// 語彙・IDF重みが構築時に与えられたかどうか（再学習は不可）
	fixedVocabulary bool
	idfFixed        bool

	// WithIdfWeightsで渡された実トークン重み（構築時にのみ使用）
	idfWeights []float64
}

// NewTextVectorizer は新しいTextVectorizerを作成する
//
// パラメータ:
//   - opts: 変換を構成するオプション（省略時はユニグラム・intモード）
//
// 戻り値:
//   - *TextVectorizer: 新しいTextVectorizerインスタンス
//   - error: 構成が不正な場合のエラー
//
// 使用例:
//
//	tv, err := preprocessing.NewTextVectorizer(
//		preprocessing.WithNgrams(2),
//		preprocessing.WithOutputMode(encode.ModeCount),
//	)
//	err = tv.Adapt(batch)
//	counts, err := tv.Transform(batch)
func NewTextVectorizer(opts ...VectorizerOption) (*TextVectorizer, error) {
	tv := newDefaultVectorizer()
	for _, opt := range opts {
		opt(tv)
	}
	if tv.idfWeights != nil {
		return nil, errors.NewValidationError("idf_weights",
			"idf weights require a precomputed vocabulary; use NewTextVectorizerFromVocabulary", len(tv.idfWeights))
	}
	if err := tv.init(); err != nil {
		return nil, err
	}
	return tv, nil
}

// NewTextVectorizerFromVocabulary は既知の語彙リストからTextVectorizerを作成する
// 語彙の再学習は行えない。tf_idfモードではWithIdfWeightsで重みを与えるか、
// 重みを省略して固定語彙のままAdaptでIDFだけを学習する
func NewTextVectorizerFromVocabulary(tokens []string, opts ...VectorizerOption) (*TextVectorizer, error) {
	tv := newDefaultVectorizer()
	tv.fixedVocabulary = true
	for _, opt := range opts {
		opt(tv)
	}
	if err := tv.init(); err != nil {
		return nil, err
	}

	state, err := vocab.NewStateFromTokens(tokens)
	if err != nil {
		return nil, err
	}
	tv.Vocabulary = state

	switch {
	case tv.OutputMode != encode.ModeTFIDF:
		if tv.idfWeights != nil {
			return nil, errors.NewValidationError("idf_weights",
				"idf weights are only valid for tf_idf output mode", string(tv.OutputMode))
		}
		if err := tv.buildEncoder(); err != nil {
			return nil, err
		}
		tv.SetAdapted()
	case tv.idfWeights != nil:
		if len(tv.idfWeights) != state.NumTokens() {
			return nil, errors.NewDimensionError("NewTextVectorizerFromVocabulary",
				state.NumTokens(), len(tv.idfWeights), 1)
		}
		idf, err := encode.NewIdfStateFromTokenWeights(tv.idfWeights)
		if err != nil {
			return nil, err
		}
		tv.Idf = idf
		tv.idfFixed = true
		tv.idfWeights = nil
		if err := tv.buildEncoder(); err != nil {
			return nil, err
		}
		tv.SetAdapted()
	default:
		// 固定語彙 + tf_idf で重み未指定: AdaptでIDFだけを学習する
	}
	return tv, nil
}

func newDefaultVectorizer() *TextVectorizer {
	return &TextVectorizer{
		MinFrequency: 1,
		Standardize:  text.StandardizeLowerStripPunct,
		Ngrams:       1,
		NgramMode:    text.NgramModeAll,
		OutputMode:   encode.ModeInt,
	}
}

// init は構成を検証し、トークナイザとn-gram展開器を組み立てる
func (tv *TextVectorizer) init() error {
	if tv.MaxTokens < 0 || tv.MaxTokens == 1 {
		return errors.NewValidationError("max_tokens",
			"must be 0 (unbounded) or at least 2 to cover the reserved slots", tv.MaxTokens)
	}
	if _, err := encode.ParseMode(string(tv.OutputMode)); err != nil {
		return err
	}
	if tv.OutputSequenceLength < 0 {
		return errors.NewValidationError("output_sequence_length",
			"must not be negative", tv.OutputSequenceLength)
	}
	if tv.OutputSequenceLength > 0 && tv.OutputMode != encode.ModeInt {
		return errors.NewValidationError("output_sequence_length",
			"fixed sequence length is only valid for int output mode", string(tv.OutputMode))
	}
	expander, err := text.NewNgramExpander(tv.Ngrams, tv.NgramMode)
	if err != nil {
		return err
	}
	tv.tokenizer = text.NewTokenizer(tv.Standardize)
	tv.expander = expander
	return nil
}

// Name は変換の名前を返す
func (tv *TextVectorizer) Name() string {
	return "TextVectorizer"
}

// precomputed は全ての状態が構築時に与えられていて再学習できないかどうか
func (tv *TextVectorizer) precomputed() bool {
	return tv.fixedVocabulary && (tv.OutputMode != encode.ModeTFIDF || tv.idfFixed)
}

// ResetState は蓄積された集計と学習済み状態を破棄する
// 構築時に与えられた固定語彙・固定IDF重みは構成の一部なので保持される
func (tv *TextVectorizer) ResetState() {
	tv.acc = nil
	tv.docFreq = nil
	tv.nRecords = 0
	tv.idfAcc = nil
	if tv.precomputed() {
		return
	}
	if tv.fixedVocabulary {
		// 固定語彙+tf_idf: IDFだけが学習状態
		tv.Idf = nil
		tv.enc = nil
		tv.Reset()
		return
	}
	tv.Vocabulary = nil
	tv.Idf = nil
	tv.enc = nil
	tv.Reset()
}

// UpdateState は1チャンク分のテキストレコードを集計に取り込む
func (tv *TextVectorizer) UpdateState(b *transform.Batch) error {
	if tv.precomputed() {
		return errors.NewValidationError("vocabulary",
			"adapt is not available; this transform was built from a precomputed vocabulary", nil)
	}
	records, err := b.Strings("TextVectorizer.UpdateState")
	if err != nil {
		return err
	}

	if tv.fixedVocabulary {
		// 語彙は固定済みなので、索引行を直接IDF集計に流せる
		if tv.idfAcc == nil {
			acc, err := encode.NewIdfAccumulator(tv.Vocabulary.Size())
			if err != nil {
				return err
			}
			tv.idfAcc = acc
		}
		for _, record := range records {
			row := tv.Vocabulary.LookupAll(tv.expander.Expand(tv.tokenizer.Tokenize(record)))
			if err := tv.idfAcc.Update(row); err != nil {
				return err
			}
		}
		return nil
	}

	if tv.acc == nil {
		tv.acc = vocab.NewAccumulator()
	}
	needIdf := tv.OutputMode == encode.ModeTFIDF
	if needIdf && tv.docFreq == nil {
		tv.docFreq = make(map[string]int64)
	}

	for _, record := range records {
		switch {
		case needIdf:
			tokens := tv.expander.Expand(tv.tokenizer.Tokenize(record))
			if err := tv.acc.Update(tokens); err != nil {
				return err
			}
			tv.countRecord(tokens)
		case tv.Ngrams == 1:
			// n-gram展開が不要なら、トークン列を実体化せずに流し込む
			if err := tv.acc.UpdateSeq(tv.tokenizer.Stream(record)); err != nil {
				return err
			}
		default:
			if err := tv.acc.Update(tv.expander.Expand(tv.tokenizer.Tokenize(record))); err != nil {
				return err
			}
		}
	}
	return nil
}

// countRecord はレコード内の相異なるトークンの文書頻度を加算する
func (tv *TextVectorizer) countRecord(tokens []string) {
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		tv.docFreq[token]++
	}
	tv.nRecords++
}

// FinalizeState は蓄積された集計から語彙（とIDF重み）を確定する
func (tv *TextVectorizer) FinalizeState() error {
	if tv.fixedVocabulary {
		if tv.idfAcc == nil {
			return errors.Wrap(errors.ErrEmptySample, "TextVectorizer.FinalizeState")
		}
		idf, err := tv.idfAcc.Finalize()
		if err != nil {
			return err
		}
		tv.Idf = idf
		tv.idfAcc = nil
		if err := tv.buildEncoder(); err != nil {
			return err
		}
		tv.SetAdapted()
		return nil
	}

	if tv.acc == nil {
		return errors.Wrap(errors.ErrEmptySample, "TextVectorizer.FinalizeState")
	}
	state, err := tv.acc.Finalize(tv.MaxTokens, tv.MinFrequency)
	if err != nil {
		return err
	}
	tv.Vocabulary = state

	if tv.OutputMode == encode.ModeTFIDF {
		// 語彙に残ったトークンだけが文書頻度を持つ。落ちたトークンは
		// 変換時にOOVスロットへ写るが、OOVの重みは平均で与えられる
		df := make([]int64, state.Size())
		for token, c := range tv.docFreq {
			if idx := state.Lookup(token); idx >= vocab.FirstTokenIndex {
				df[idx] = c
			}
		}
		idf, err := encode.NewIdfState(df, tv.nRecords)
		if err != nil {
			return err
		}
		tv.Idf = idf
	}

	tv.acc = nil
	tv.docFreq = nil
	tv.nRecords = 0
	if err := tv.buildEncoder(); err != nil {
		return err
	}
	tv.SetAdapted()
	return nil
}

// buildEncoder は確定済みの語彙サイズに合わせて符号化器を組み立てる
// intモードは符号化器を使わないので何もしない
func (tv *TextVectorizer) buildEncoder() error {
	switch tv.OutputMode {
	case encode.ModeInt:
		tv.enc = nil
		return nil
	case encode.ModeTFIDF:
		enc, err := encode.NewTFIDFEncoder(tv.Vocabulary.Size(), tv.Idf)
		if err != nil {
			return err
		}
		tv.enc = enc
		return nil
	default:
		enc, err := encode.NewEncoder(tv.OutputMode, tv.Vocabulary.Size())
		if err != nil {
			return err
		}
		tv.enc = enc
		return nil
	}
}

// Adapt はテキストのバッチから語彙（とIDF重み）を学習する
// 再度呼び出すと以前の状態は破棄され、新しいデータのみから再構築される
//
// パラメータ:
//   - b: 文字列バッチ（1レコード1テキスト）
//
// 戻り値:
//   - error: エラーが発生した場合
func (tv *TextVectorizer) Adapt(b *transform.Batch) error {
	if tv.precomputed() {
		return errors.NewValidationError("vocabulary",
			"adapt is not available; this transform was built from a precomputed vocabulary", nil)
	}
	tv.ResetState()
	if err := tv.UpdateState(b); err != nil {
		return err
	}
	return tv.FinalizeState()
}

// Transform は各レコードをトークン化・展開し、語彙索引を経て
// 出力形式に符号化する。語彙外のトークンはエラーにならず索引1になる
//
// パラメータ:
//   - b: 文字列バッチ
//
// 戻り値:
//   - *transform.Batch: intモードは索引行バッチ、それ以外は密行列バッチ
//   - error: エラーが発生した場合
func (tv *TextVectorizer) Transform(b *transform.Batch) (*transform.Batch, error) {
	if !tv.IsAdapted() {
		return nil, errors.NewNotAdaptedError("TextVectorizer", "Transform")
	}
	records, err := b.Strings("TextVectorizer.Transform")
	if err != nil {
		return nil, err
	}

	rows := make([][]int64, len(records))
	for i, record := range records {
		rows[i] = tv.Vocabulary.LookupAll(tv.expander.Expand(tv.tokenizer.Tokenize(record)))
	}

	if tv.OutputMode == encode.ModeInt {
		if tv.OutputSequenceLength > 0 {
			for i, row := range rows {
				rows[i] = fitSequence(row, tv.OutputSequenceLength)
			}
		}
		return transform.NewIndexRows(rows), nil
	}
	return tv.enc.Encode(rows)
}

// AdaptTransform はAdaptとTransformを同時に実行する
func (tv *TextVectorizer) AdaptTransform(b *transform.Batch) (*transform.Batch, error) {
	if err := tv.Adapt(b); err != nil {
		return nil, err
	}
	return tv.Transform(b)
}

// fitSequence は索引列を固定長に合わせる
// 長い列は末尾を切り捨て、短い列はマスク索引(0)で埋める
func fitSequence(row []int64, length int) []int64 {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]int64, length)
	copy(padded, row)
	return padded
}

// TokenizeRecord は1レコードをトークン化・n-gram展開した結果を返す
// 変換の前段だけを確認したいときに使う（適応は不要）
func (tv *TextVectorizer) TokenizeRecord(record string) []string {
	return tv.expander.Expand(tv.tokenizer.Tokenize(record))
}

// VocabularySize は予約スロットを含む語彙サイズを返す
func (tv *TextVectorizer) VocabularySize() int {
	if tv.Vocabulary == nil {
		return 0
	}
	return tv.Vocabulary.Size()
}

// OutputDim は1レコードあたりの出力次元を返す
// intモードは固定長が設定されていればその値、可変長なら-1
func (tv *TextVectorizer) OutputDim() int {
	if !tv.IsAdapted() {
		return 0
	}
	if tv.OutputMode == encode.ModeInt {
		if tv.OutputSequenceLength > 0 {
			return tv.OutputSequenceLength
		}
		return -1
	}
	return tv.Vocabulary.Size()
}

// GetParams は変換のパラメータを取得する
func (tv *TextVectorizer) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_tokens":             tv.MaxTokens,
		"min_frequency":          tv.MinFrequency,
		"standardize":            tv.Standardize.String(),
		"ngrams":                 tv.Ngrams,
		"ngram_mode":             tv.NgramMode.String(),
		"output_mode":            string(tv.OutputMode),
		"output_sequence_length": tv.OutputSequenceLength,
	}
}

// String は変換の文字列表現を返す
func (tv *TextVectorizer) String() string {
	if !tv.IsAdapted() {
		return fmt.Sprintf("TextVectorizer(output_mode=%s, ngrams=%d)", tv.OutputMode, tv.Ngrams)
	}
	return fmt.Sprintf("TextVectorizer(output_mode=%s, ngrams=%d, vocabulary_size=%d)",
		tv.OutputMode, tv.Ngrams, tv.VocabularySize())
}

// textVectorizerState は学習済み状態のエンベロープ内レイアウト
type textVectorizerState struct {
	Vocabulary *vocab.State     `json:"vocabulary"`
	Idf        *encode.IdfState `json:"idf,omitempty"`
}

// ExportState は学習済み状態をエンベロープに書き出す
func (tv *TextVectorizer) ExportState() (*transform.StateEnvelope, error) {
	env := &transform.StateEnvelope{
		TransformType: "text_vectorizer",
		Version:       "1",
		Config: map[string]interface{}{
			"max_tokens":             tv.MaxTokens,
			"min_frequency":          tv.MinFrequency,
			"standardize":            tv.Standardize.String(),
			"ngrams":                 tv.Ngrams,
			"ngram_mode":             tv.NgramMode.String(),
			"output_mode":            string(tv.OutputMode),
			"output_sequence_length": tv.OutputSequenceLength,
			"fixed_vocabulary":       tv.fixedVocabulary,
		},
		IsAdapted: tv.IsAdapted(),
	}
	if tv.IsAdapted() {
		state := textVectorizerState{Vocabulary: tv.Vocabulary, Idf: tv.Idf}
		if err := env.SetState(state); err != nil {
			return nil, errors.Wrap(err, "TextVectorizer.ExportState")
		}
	}
	return env, nil
}

// ImportState はエンベロープから学習済み状態を復元する
func (tv *TextVectorizer) ImportState(env *transform.StateEnvelope) error {
	if err := env.Validate(); err != nil {
		return errors.Wrap(err, "TextVectorizer.ImportState")
	}
	if env.TransformType != "text_vectorizer" {
		return errors.NewValidationError("transform_type", "envelope does not hold text_vectorizer state", env.TransformType)
	}
	if mt, ok := env.Config["max_tokens"].(float64); ok {
		tv.MaxTokens = int(mt)
	}
	if mf, ok := env.Config["min_frequency"].(float64); ok {
		tv.MinFrequency = int64(mf)
	}
	if s, ok := env.Config["standardize"].(string); ok {
		std, err := text.ParseStandardize(s)
		if err != nil {
			return err
		}
		tv.Standardize = std
	}
	if n, ok := env.Config["ngrams"].(float64); ok {
		tv.Ngrams = int(n)
	}
	if m, ok := env.Config["ngram_mode"].(string); ok {
		mode, err := text.ParseNgramMode(m)
		if err != nil {
			return err
		}
		tv.NgramMode = mode
	}
	if om, ok := env.Config["output_mode"].(string); ok {
		mode, err := encode.ParseMode(om)
		if err != nil {
			return err
		}
		tv.OutputMode = mode
	}
	if sl, ok := env.Config["output_sequence_length"].(float64); ok {
		tv.OutputSequenceLength = int(sl)
	}
	if fv, ok := env.Config["fixed_vocabulary"].(bool); ok {
		tv.fixedVocabulary = fv
	}
	if err := tv.init(); err != nil {
		return err
	}

	if !env.IsAdapted {
		if tv.fixedVocabulary {
			// 未適応の固定語彙インスタンスはエンベロープに語彙を持たないため復元できない
			return errors.NewValidationError("state",
				"cannot restore an unadapted precomputed-vocabulary transform; adapt it before exporting", nil)
		}
		tv.idfFixed = false
		tv.ResetState()
		return nil
	}

	var state textVectorizerState
	if err := env.DecodeState(&state); err != nil {
		return errors.Wrap(err, "TextVectorizer.ImportState")
	}
	if state.Vocabulary == nil {
		return errors.NewValidationError("state", "envelope state is missing the vocabulary", nil)
	}
	if tv.OutputMode == encode.ModeTFIDF {
		if state.Idf == nil {
			return errors.NewValidationError("state", "tf_idf state requires idf weights", nil)
		}
		if state.Idf.Size() != state.Vocabulary.Size() {
			return errors.NewDimensionError("TextVectorizer.ImportState",
				state.Vocabulary.Size(), state.Idf.Size(), 1)
		}
		tv.idfFixed = tv.fixedVocabulary
	}
	tv.Vocabulary = state.Vocabulary
	tv.Idf = state.Idf
	tv.acc = nil
	tv.docFreq = nil
	tv.nRecords = 0
	tv.idfAcc = nil
	if err := tv.buildEncoder(); err != nil {
		return err
	}
	tv.SetAdapted()
	return nil
}

type textVectorizerGob struct {
	MaxTokens            int
	MinFrequency         int64
	Standardize          int
	Ngrams               int
	NgramMode            int
	OutputMode           string
	OutputSequenceLength int
	Tokens               []string
	IdfWeights           []float64
	FixedVocabulary      bool
	IdfFixed             bool
	Adapted              bool
}

// GobEncode は適応済み状態を含めてシリアライズする
func (tv *TextVectorizer) GobEncode() ([]byte, error) {
	g := textVectorizerGob{
		MaxTokens:            tv.MaxTokens,
		MinFrequency:         tv.MinFrequency,
		Standardize:          int(tv.Standardize),
		Ngrams:               tv.Ngrams,
		NgramMode:            int(tv.NgramMode),
		OutputMode:           string(tv.OutputMode),
		OutputSequenceLength: tv.OutputSequenceLength,
		FixedVocabulary:      tv.fixedVocabulary,
		IdfFixed:             tv.idfFixed,
		Adapted:              tv.IsAdapted(),
	}
	if tv.Vocabulary != nil {
		g.Tokens = tv.Vocabulary.Tokens()
	}
	if tv.Idf != nil {
		g.IdfWeights = tv.Idf.Weights
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode はシリアライズされた状態から語彙と符号化器を再構築する
func (tv *TextVectorizer) GobDecode(data []byte) error {
	var g textVectorizerGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return errors.Wrap(err, "TextVectorizer.GobDecode")
	}
	tv.MaxTokens = g.MaxTokens
	tv.MinFrequency = g.MinFrequency
	tv.Standardize = text.Standardize(g.Standardize)
	tv.Ngrams = g.Ngrams
	tv.NgramMode = text.NgramMode(g.NgramMode)
	tv.OutputMode = encode.Mode(g.OutputMode)
	tv.OutputSequenceLength = g.OutputSequenceLength
	tv.fixedVocabulary = g.FixedVocabulary
	tv.idfFixed = g.IdfFixed
	if err := tv.init(); err != nil {
		return err
	}
	tv.acc = nil
	tv.docFreq = nil
	tv.nRecords = 0
	tv.idfAcc = nil
	if !g.Adapted {
		tv.Idf = nil
		tv.enc = nil
		tv.Vocabulary = nil
		if g.FixedVocabulary && g.Tokens != nil {
			// 固定語彙でIDFが未学習のままのインスタンス: 語彙だけ復元する
			state, err := vocab.NewStateFromTokens(g.Tokens)
			if err != nil {
				return errors.Wrap(err, "TextVectorizer.GobDecode")
			}
			tv.Vocabulary = state
		}
		tv.Reset()
		return nil
	}
	state, err := vocab.NewStateFromTokens(g.Tokens)
	if err != nil {
		return errors.Wrap(err, "TextVectorizer.GobDecode")
	}
	tv.Vocabulary = state
	if g.IdfWeights != nil {
		tv.Idf = &encode.IdfState{Weights: g.IdfWeights}
	} else {
		tv.Idf = nil
	}
	if err := tv.buildEncoder(); err != nil {
		return err
	}
	tv.SetAdapted()
	return nil
}
