package vocab

import (
	"iter"
	"sort"

	"github.com/YuminosukeSato/adaptgo/pkg/errors"
)

// Accumulator は適応中のトークン頻度と初出順を集計する。
//
// ひとつのAccumulatorへの並行Updateは呼び出し側で直列化すること。
// 並列に適応する場合はパーティションごとに別のAccumulatorへ集計し、
// Mergeで合流させる。
type Accumulator struct {
	counts    map[string]int64
	firstSeen map[string]int64
	next      int64
	finalized bool
}

// NewAccumulator は空のアキュムレータを作る。
func NewAccumulator() *Accumulator {
	return &Accumulator{
		counts:    make(map[string]int64),
		firstSeen: make(map[string]int64),
	}
}

// Update は1レコード分のトークン列を集計する。
func (a *Accumulator) Update(tokens []string) error {
	if a.finalized {
		return errors.Wrap(errors.ErrStateFinalized, "vocab.Accumulator.Update")
	}
	for _, token := range tokens {
		a.observe(token)
	}
	return nil
}

// UpdateSeq はトークンストリームを集計する。text.Tokenizer の遅延経路
// からトークン列を実体化せずに流し込める。
func (a *Accumulator) UpdateSeq(tokens iter.Seq[string]) error {
	if a.finalized {
		return errors.Wrap(errors.ErrStateFinalized, "vocab.Accumulator.UpdateSeq")
	}
	for token := range tokens {
		a.observe(token)
	}
	return nil
}

func (a *Accumulator) observe(token string) {
	if _, seen := a.counts[token]; !seen {
		a.firstSeen[token] = a.next
		a.next++
	}
	a.counts[token]++
}

// Merge は別のアキュムレータの部分集計を取り込む。頻度は加算され、
// 初出順は相手の順序空間をこちらの後ろに連結する。結合的だが、順序
// 空間の連結なので可換ではない（同順のマージは同じ結果を与える）。
func (a *Accumulator) Merge(other *Accumulator) error {
	if a.finalized || other.finalized {
		return errors.Wrap(errors.ErrStateFinalized, "vocab.Accumulator.Merge")
	}
	for token, c := range other.counts {
		if _, seen := a.counts[token]; !seen {
			a.firstSeen[token] = a.next + other.firstSeen[token]
		}
		a.counts[token] += c
	}
	a.next += other.next
	return nil
}

// NumObserved は観測された相異なるトークン数を返す。
func (a *Accumulator) NumObserved() int {
	return len(a.counts)
}

// Finalize は既定のマスクトークンで語彙を確定する。FinalizeWithMask を参照。
func (a *Accumulator) Finalize(maxSize int, minFrequency int64) (*State, error) {
	return a.FinalizeWithMask(maxSize, minFrequency, DefaultMaskToken)
}

// FinalizeWithMask は蓄積した頻度から語彙状態を確定し、アキュムレータを
// 封印する。
//
// トークンは頻度の降順、同数なら初出順に並ぶ。minFrequency 未満の
// トークンは捨てられる。maxSize は予約スロット2つを含む語彙サイズの
// 上限で、0 は無制限。上限を超えた分は切り捨てられ、
// VocabularyTruncationWarning が発行される。切り捨てられたトークンは
// 変換時にOOVスロットへ写る。マスクトークンの出現は実トークンとして
// 数えない。
func (a *Accumulator) FinalizeWithMask(maxSize int, minFrequency int64, maskToken string) (*State, error) {
	if a.finalized {
		return nil, errors.Wrap(errors.ErrStateFinalized, "vocab.Accumulator.Finalize")
	}
	if maxSize < 0 || maxSize == 1 {
		return nil, errors.NewValidationError("max_size",
			"must be 0 (unbounded) or at least 2 to cover the reserved slots", maxSize)
	}
	if len(a.counts) == 0 {
		return nil, errors.Wrap(errors.ErrEmptySample, "vocab.Accumulator.Finalize")
	}

	type entry struct {
		token string
		count int64
		order int64
	}
	candidates := make([]entry, 0, len(a.counts))
	for token, count := range a.counts {
		if token == maskToken {
			continue
		}
		if count < minFrequency {
			continue
		}
		candidates = append(candidates, entry{token: token, count: count, order: a.firstSeen[token]})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		return candidates[i].order < candidates[j].order
	})

	observed := len(candidates)
	if maxSize > 0 && observed > maxSize-2 {
		candidates = candidates[:maxSize-2]
		errors.Warn(errors.NewVocabularyTruncationWarning(
			"vocab.Accumulator", observed, len(candidates), maxSize))
	}

	tokens := make([]string, len(candidates))
	for i, e := range candidates {
		tokens[i] = e.token
	}

	state, err := NewStateFromTokensWithMask(tokens, maskToken)
	if err != nil {
		return nil, err
	}
	a.finalized = true
	return state, nil
}
