// Package vocab は語彙索引のエンジンを提供する。
// StringLookup / IntegerLookup / TextVectorizer の適応フェーズで
// 頻度と初出順を集計し、確定後は不変の索引表として参照される。
//
// 索引のレイアウトは固定:
//
//	スロット0 = マスク値（デフォルトは空文字列）
//	スロット1 = 語彙外（OOV）
//	スロット2以降 = 実トークン（頻度の降順、同数なら初出順）
package vocab

import (
	"bytes"
	"encoding/gob"
	"encoding/json"

	"github.com/YuminosukeSato/adaptgo/pkg/errors"
)

const (
	// MaskIndex はマスク値に割り当てられる索引
	MaskIndex int64 = 0

	// OOVIndex は語彙外トークンに割り当てられる索引
	OOVIndex int64 = 1

	// FirstTokenIndex は実トークンに割り当てられる最初の索引
	FirstTokenIndex int64 = 2
)

// DefaultMaskToken は既定のマスクトークン
const DefaultMaskToken = ""

// State は確定済みの語彙索引。実トークンは [FirstTokenIndex, Size()) に
// 隙間なく並び、トークンから索引への対応は単射になる。
// 公開後は不変なので、複数のゴルーチンから同期なしで参照できる。
type State struct {
	maskToken string
	tokens    []string
	index     map[string]int64
}

// NewStateFromTokens は適応を介さず、順序付きトークン列から直接
// 語彙状態を作る。重複するトークンや予約スロットと衝突するトークンは
// ValidationError になる。
func NewStateFromTokens(ordered []string) (*State, error) {
	return NewStateFromTokensWithMask(ordered, DefaultMaskToken)
}

// NewStateFromTokensWithMask はマスクトークンを指定して語彙状態を作る。
func NewStateFromTokensWithMask(ordered []string, maskToken string) (*State, error) {
	index := make(map[string]int64, len(ordered))
	for i, token := range ordered {
		if token == maskToken {
			return nil, errors.NewValidationError("vocabulary",
				"token collides with the reserved mask slot", token)
		}
		if _, dup := index[token]; dup {
			return nil, errors.NewValidationError("vocabulary", "duplicate token", token)
		}
		index[token] = FirstTokenIndex + int64(i)
	}
	return &State{
		maskToken: maskToken,
		tokens:    append([]string(nil), ordered...),
		index:     index,
	}, nil
}

// Lookup はトークンを索引に写す。マスク値は0、既知のトークンはその索引、
// 未知のトークンは1になる。未知トークンはエラーではない。
func (s *State) Lookup(token string) int64 {
	if token == s.maskToken {
		return MaskIndex
	}
	if idx, ok := s.index[token]; ok {
		return idx
	}
	return OOVIndex
}

// LookupAll は各トークンを索引に写す。
func (s *State) LookupAll(tokens []string) []int64 {
	indices := make([]int64, len(tokens))
	for i, token := range tokens {
		indices[i] = s.Lookup(token)
	}
	return indices
}

// TokenOf は索引からトークンへの逆引き。索引0はマスクトークンを返す。
// OOVスロット(1)にはトークン表現がないため ok=false、範囲外も ok=false。
func (s *State) TokenOf(index int64) (string, bool) {
	switch {
	case index == MaskIndex:
		return s.maskToken, true
	case index >= FirstTokenIndex && index < int64(s.Size()):
		return s.tokens[index-FirstTokenIndex], true
	default:
		return "", false
	}
}

// Size は予約スロット2つを含む語彙サイズ。索引は [0, Size) で連続する。
func (s *State) Size() int {
	return len(s.tokens) + int(FirstTokenIndex)
}

// NumTokens は実トークンの数
func (s *State) NumTokens() int {
	return len(s.tokens)
}

// Tokens は実トークンを索引順に複製して返す（先頭が索引2のトークン）。
func (s *State) Tokens() []string {
	return append([]string(nil), s.tokens...)
}

// MaskToken は索引0に割り当てられたマスクトークンを返す。
func (s *State) MaskToken() string {
	return s.maskToken
}

// stateData はStateの永続化形式。順序付きトークン列とマスクトークン
// だけを持ち、索引は復元時に再構築される。
type stateData struct {
	MaskToken string   `json:"mask_token"`
	Tokens    []string `json:"tokens"`
}

// MarshalJSON は語彙を決定的なJSONに直列化する。同じ内容の語彙は
// 常にバイト単位で同一の出力になる。
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateData{MaskToken: s.maskToken, Tokens: s.tokens})
}

// UnmarshalJSON はJSONから語彙を復元し、索引を再構築する。
func (s *State) UnmarshalJSON(data []byte) error {
	var raw stateData
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	restored, err := NewStateFromTokensWithMask(raw.Tokens, raw.MaskToken)
	if err != nil {
		return err
	}
	*s = *restored
	return nil
}

// GobEncode はgob永続化のためにJSONと同じ最小形式を使う。
func (s *State) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(stateData{MaskToken: s.maskToken, Tokens: s.tokens}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode はgobから語彙を復元し、索引を再構築する。
func (s *State) GobDecode(data []byte) error {
	var raw stateData
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		return err
	}
	restored, err := NewStateFromTokensWithMask(raw.Tokens, raw.MaskToken)
	if err != nil {
		return err
	}
	*s = *restored
	return nil
}
