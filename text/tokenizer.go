// Package text はTextVectorizerの前段にあたるトークン化とn-gram展開を
// 提供する。学習状態は持たない。
package text

import (
	"iter"
	"strings"
	"unicode"

	"github.com/YuminosukeSato/adaptgo/pkg/errors"
)

// Standardize はトークン化前のテキスト正規化方法
type Standardize int

const (
	// StandardizeLowerStripPunct は小文字化して句読点・記号を取り除く（デフォルト）
	StandardizeLowerStripPunct Standardize = iota

	// StandardizeLower は小文字化だけを行う
	StandardizeLower

	// StandardizeStripPunct は句読点・記号の除去だけを行う
	StandardizeStripPunct

	// StandardizeNone は正規化を行わない
	StandardizeNone
)

// Tokenizer はテキストを正規化して空白で分割する。
// Tokenize（先行評価）と Stream（遅延評価）は必ず同じトークン列を生む。
type Tokenizer struct {
	standardize Standardize
}

// NewTokenizer は正規化方法を指定してトークナイザを作る。
func NewTokenizer(standardize Standardize) *Tokenizer {
	return &Tokenizer{standardize: standardize}
}

// NewTokenizerDefault はデフォルト設定（小文字化+句読点除去）で作る。
func NewTokenizerDefault() *Tokenizer {
	return NewTokenizer(StandardizeLowerStripPunct)
}

// Tokenize はテキストを正規化し、空白区切りのトークン列を返す。
func (t *Tokenizer) Tokenize(text string) []string {
	return strings.Fields(t.standardizeText(text))
}

// Stream はテキスト上の遅延トークン列を返す。列は有限で、トークン数は
// 入力長を超えない。再度rangeすれば先頭からもう一度トークン化される
// （再開可能）。
func (t *Tokenizer) Stream(text string) iter.Seq[string] {
	standardized := t.standardizeText(text)
	return func(yield func(string) bool) {
		start := -1
		for i, r := range standardized {
			if unicode.IsSpace(r) {
				if start >= 0 {
					if !yield(standardized[start:i]) {
						return
					}
					start = -1
				}
				continue
			}
			if start < 0 {
				start = i
			}
		}
		if start >= 0 {
			yield(standardized[start:])
		}
	}
}

func (t *Tokenizer) standardizeText(text string) string {
	switch t.standardize {
	case StandardizeLowerStripPunct:
		return stripPunct(strings.ToLower(text))
	case StandardizeLower:
		return strings.ToLower(text)
	case StandardizeStripPunct:
		return stripPunct(text)
	default:
		return text
	}
}

// stripPunct は句読点と記号のルーンを取り除く。区切り文字は挿入しない
// ので "don't" は "dont" になる。
func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, s)
}

// GetParams はトークナイザの構成を返す。
func (t *Tokenizer) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"standardize": t.standardize.String(),
	}
}

// String はStandardizeの設定名を返す。
func (s Standardize) String() string {
	switch s {
	case StandardizeLowerStripPunct:
		return "lower_and_strip_punctuation"
	case StandardizeLower:
		return "lower"
	case StandardizeStripPunct:
		return "strip_punctuation"
	case StandardizeNone:
		return "none"
	default:
		return "unknown"
	}
}

// ParseStandardize は設定文字列を検証済みのStandardizeに変換する。
func ParseStandardize(s string) (Standardize, error) {
	switch s {
	case "lower_and_strip_punctuation", "":
		return StandardizeLowerStripPunct, nil
	case "lower":
		return StandardizeLower, nil
	case "strip_punctuation":
		return StandardizeStripPunct, nil
	case "none":
		return StandardizeNone, nil
	}
	return 0, errors.NewValidationError("standardize", "unknown standardize mode", s)
}
