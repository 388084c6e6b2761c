// Package hashing は塩付きハッシュバケット化のエンジンを提供する。
// Hashing変換の裏側で使われ、語彙を持たずにトークンを固定数のバケットへ
// 決定的に写す。学習状態がないため適応は不要で、同じ構成と入力からは
// プロセスを再起動しても常に同じバケットが得られる。
package hashing

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/YuminosukeSato/adaptgo/pkg/errors"
)

// Config はハッシュバケット化の構成。
type Config struct {
	// NumBins はバケット数（正の整数）
	NumBins int `json:"num_bins"`

	// Salt はハッシュ入力の先頭に混ぜる塩。異なる塩はほぼ独立な
	// バケット割当を生み、特徴量ごとの衝突の相関を断てる。
	Salt int64 `json:"salt"`
}

// Validate は構成の妥当性を検証する。
func (c Config) Validate() error {
	if c.NumBins <= 0 {
		return errors.NewValidationError("num_bins", "must be positive", c.NumBins)
	}
	return nil
}

// Bucket は salt‖value をFNV-1a(64bit)でハッシュし、NumBinsの剰余で
// [0, NumBins) のバケットに写す。塩は8バイトのビッグエンディアンで
// 前置される。純粋な関数で、同じ入力は常に同じバケットになる。
func Bucket(value []byte, cfg Config) (int, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	var salt [8]byte
	binary.BigEndian.PutUint64(salt[:], uint64(cfg.Salt))

	h := fnv.New64a()
	_, _ = h.Write(salt[:]) // hash.Hash のWriteはエラーを返さない
	_, _ = h.Write(value)
	return int(h.Sum64() % uint64(cfg.NumBins)), nil
}

// BucketString は文字列トークンをUTF-8バイト列としてバケットに写す。
func BucketString(token string, cfg Config) (int, error) {
	return Bucket([]byte(token), cfg)
}

// BucketInt64 は整数トークンを8バイトのビッグエンディアン表現で
// バケットに写す。エンジンは表現をまたいだ正規化はしない: 同じ数でも
// 文字列 "42" とint64の42は別のバケットに写り得る。
func BucketInt64(value int64, cfg Config) (int, error) {
	var encoded [8]byte
	binary.BigEndian.PutUint64(encoded[:], uint64(value))
	return Bucket(encoded[:], cfg)
}
