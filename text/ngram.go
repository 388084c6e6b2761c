package text

import (
	"strings"

	"github.com/YuminosukeSato/adaptgo/pkg/errors"
)

// NgramMode は出力するn-gramの次数の選び方
type NgramMode int

const (
	// NgramModeAll は1からNまでの全ての次数を出力する。ユニグラムの後に
	// 高次のn-gramが次数ごとに続く（Kerasの ngrams=N と同じ並び）。
	NgramModeAll NgramMode = iota

	// NgramModeOnly は次数Nのn-gramだけを出力する。
	NgramModeOnly
)

// String はモードの設定名を返す。
func (m NgramMode) String() string {
	switch m {
	case NgramModeAll:
		return "all_orders"
	case NgramModeOnly:
		return "ngrams_only"
	default:
		return "unknown"
	}
}

// ParseNgramMode は設定文字列を検証済みのNgramModeに変換する。
func ParseNgramMode(s string) (NgramMode, error) {
	switch s {
	case "all_orders", "":
		return NgramModeAll, nil
	case "ngrams_only":
		return NgramModeOnly, nil
	}
	return 0, errors.NewValidationError("ngram_mode", "unknown ngram mode", s)
}

// NgramExpander はトークン列を連続n-gramへ展開する。n-gramは空白ひとつで
// 結合され、窓は左から右へ進む。
type NgramExpander struct {
	n    int
	mode NgramMode
}

// NewNgramExpander は次数とモードを指定して展開器を作る。
// 次数1はトークン列をそのまま通す恒等展開になる。
func NewNgramExpander(n int, mode NgramMode) (*NgramExpander, error) {
	if n < 1 {
		return nil, errors.NewValidationError("ngrams", "order must be at least 1", n)
	}
	return &NgramExpander{n: n, mode: mode}, nil
}

// Expand はトークン列をn-gram列へ展開する。次数1のときは入力をそのまま
// 返す。窓が取れない次数（トークン数 < k）は単に出力されない。
func (e *NgramExpander) Expand(tokens []string) []string {
	if e.n == 1 {
		return tokens
	}

	if e.mode == NgramModeOnly {
		return appendWindows(nil, tokens, e.n)
	}

	out := make([]string, 0, expandedLen(len(tokens), e.n))
	for k := 1; k <= e.n; k++ {
		out = appendWindows(out, tokens, k)
	}
	return out
}

// N は展開の次数を返す。
func (e *NgramExpander) N() int {
	return e.n
}

// Mode は展開モードを返す。
func (e *NgramExpander) Mode() NgramMode {
	return e.mode
}

// appendWindows は幅kの連続窓を左から右へ out に追加する。
func appendWindows(out []string, tokens []string, k int) []string {
	if k == 1 {
		return append(out, tokens...)
	}
	for i := 0; i+k <= len(tokens); i++ {
		out = append(out, strings.Join(tokens[i:i+k], " "))
	}
	return out
}

func expandedLen(m, n int) int {
	total := 0
	for k := 1; k <= n; k++ {
		if m >= k {
			total += m - k + 1
		}
	}
	return total
}
