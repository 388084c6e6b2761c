package preprocessing

import (
	"github.com/YuminosukeSato/adaptgo/encode"
	"github.com/YuminosukeSato/adaptgo/text"
)

// VectorizerOption はTextVectorizerを構成する関数
type VectorizerOption func(*TextVectorizer)

// WithStandardize はトークン化前のテキスト正規化方法を設定する
func WithStandardize(s text.Standardize) VectorizerOption {
	return func(tv *TextVectorizer) {
		tv.Standardize = s
	}
}

// WithNgrams は展開するn-gramの次数を設定する（1からnまでの全次数を出力）
func WithNgrams(n int) VectorizerOption {
	return func(tv *TextVectorizer) {
		tv.Ngrams = n
		tv.NgramMode = text.NgramModeAll
	}
}

// WithNgramsOnly は次数nのn-gramだけを出力するよう設定する
func WithNgramsOnly(n int) VectorizerOption {
	return func(tv *TextVectorizer) {
		tv.Ngrams = n
		tv.NgramMode = text.NgramModeOnly
	}
}

// WithOutputMode は出力の符号化形式を設定する
func WithOutputMode(mode encode.Mode) VectorizerOption {
	return func(tv *TextVectorizer) {
		tv.OutputMode = mode
	}
}

// WithOutputSequenceLength はintモードの固定出力長を設定する
// 長い索引列は末尾が切り捨てられ、短い索引列はマスク索引(0)で埋められる
func WithOutputSequenceLength(n int) VectorizerOption {
	return func(tv *TextVectorizer) {
		tv.OutputSequenceLength = n
	}
}

// WithMaxTokens は語彙の最大サイズを設定する（予約スロット2個を含む、0は無制限）
func WithMaxTokens(n int) VectorizerOption {
	return func(tv *TextVectorizer) {
		tv.MaxTokens = n
	}
}

// WithMinFrequency は語彙に採用する最小出現回数を設定する
func WithMinFrequency(f int64) VectorizerOption {
	return func(tv *TextVectorizer) {
		tv.MinFrequency = f
	}
}

// WithIdfWeights は実トークンごとのIDF重みを設定する
// NewTextVectorizerFromVocabularyと組み合わせて使い、重みの並びは
// 語彙リストと同じでなければならない。tf_idfモード以外では無効
func WithIdfWeights(weights []float64) VectorizerOption {
	return func(tv *TextVectorizer) {
		tv.idfWeights = weights
	}
}
