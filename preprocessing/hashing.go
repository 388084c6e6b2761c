package preprocessing

import (
	"fmt"

	"github.com/YuminosukeSato/adaptgo/core/transform"
	"github.com/YuminosukeSato/adaptgo/hashing"
	"github.com/YuminosukeSato/adaptgo/pkg/errors"
)

// Hashing はKeras互換のハッシュ・バケット変換
// 語彙を構築せずに、ソルト付きの決定的ハッシュで値を固定数のビンへ写像する
// 状態を持たないため適応は不要で、Adaptは何もしない
type Hashing struct {
	// Config はハッシュ設定（ビン数とソルト）
	Config hashing.Config
}

// NewHashing は新しいHashingを作成する
//
// パラメータ:
//   - numBins: バケット数（正の値）
//   - salt: ハッシュのソルト（0も有効な値）
//
// 戻り値:
//   - *Hashing: 新しいHashingインスタンス
//   - error: numBinsが正でない場合のエラー
//
// 使用例:
//
//	h, err := preprocessing.NewHashing(64, 1337)
//	buckets, err := h.Transform(batch)
func NewHashing(numBins int, salt int64) (*Hashing, error) {
	cfg := hashing.Config{NumBins: numBins, Salt: salt}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Hashing{Config: cfg}, nil
}

// Name は変換の名前を返す
func (h *Hashing) Name() string {
	return "Hashing"
}

// IsAdapted は常にtrueを返す（状態を持たない変換）
func (h *Hashing) IsAdapted() bool {
	return true
}

// Adapt は何もしない（状態を持たない変換）
func (h *Hashing) Adapt(b *transform.Batch) error {
	return nil
}

// Transform は各値をハッシュしてバケット番号に写像する
// 文字列バッチはUTF-8バイト列、整数バッチは8バイトビッグエンディアンで
// ハッシュされる。両者の間で表現の正規化は行わない
//
// パラメータ:
//   - b: 文字列または整数バッチ
//
// 戻り値:
//   - *transform.Batch: バケット番号の整数バッチ
//   - error: エラーが発生した場合
func (h *Hashing) Transform(b *transform.Batch) (*transform.Batch, error) {
	switch b.Kind() {
	case transform.KindStrings:
		tokens, err := b.Strings("Hashing.Transform")
		if err != nil {
			return nil, err
		}
		buckets := make([]int64, len(tokens))
		for i, token := range tokens {
			bucket, err := hashing.BucketString(token, h.Config)
			if err != nil {
				return nil, err
			}
			buckets[i] = int64(bucket)
		}
		return transform.NewInts(buckets), nil
	case transform.KindInts:
		values, err := b.Ints("Hashing.Transform")
		if err != nil {
			return nil, err
		}
		buckets := make([]int64, len(values))
		for i, v := range values {
			bucket, err := hashing.BucketInt64(v, h.Config)
			if err != nil {
				return nil, err
			}
			buckets[i] = int64(bucket)
		}
		return transform.NewInts(buckets), nil
	default:
		return nil, errors.NewBatchKindError("Hashing.Transform", "strings or ints", b.Kind().String())
	}
}

// AdaptTransform はTransformと同じ（適応は不要）
func (h *Hashing) AdaptTransform(b *transform.Batch) (*transform.Batch, error) {
	return h.Transform(b)
}

// BucketString は単一の文字列トークンをバケット番号に写像する
func (h *Hashing) BucketString(token string) (int, error) {
	return hashing.BucketString(token, h.Config)
}

// BucketInt64 は単一の整数をバケット番号に写像する
func (h *Hashing) BucketInt64(value int64) (int, error) {
	return hashing.BucketInt64(value, h.Config)
}

// NumBins はバケット数を返す
func (h *Hashing) NumBins() int {
	return h.Config.NumBins
}

// GetParams は変換のパラメータを取得する
func (h *Hashing) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"num_bins": h.Config.NumBins,
		"salt":     h.Config.Salt,
	}
}

// String は変換の文字列表現を返す
func (h *Hashing) String() string {
	return fmt.Sprintf("Hashing(num_bins=%d, salt=%d)", h.Config.NumBins, h.Config.Salt)
}

// ExportState は構成をエンベロープに書き出す
// 学習状態を持たないため、ペイロードは構成そのもの（ビン数とソルト）になる
func (h *Hashing) ExportState() (*transform.StateEnvelope, error) {
	env := &transform.StateEnvelope{
		TransformType: "hashing",
		Version:       "1",
		Config: map[string]interface{}{
			"num_bins": h.Config.NumBins,
			"salt":     h.Config.Salt,
		},
	}
	if err := env.SetState(h.Config); err != nil {
		return nil, errors.Wrap(err, "Hashing.ExportState")
	}
	return env, nil
}

// ImportState はエンベロープから構成を復元する
func (h *Hashing) ImportState(env *transform.StateEnvelope) error {
	if err := env.Validate(); err != nil {
		return errors.Wrap(err, "Hashing.ImportState")
	}
	if env.TransformType != "hashing" {
		return errors.NewValidationError("transform_type", "envelope does not hold hashing state", env.TransformType)
	}
	var cfg hashing.Config
	if err := env.DecodeState(&cfg); err != nil {
		return errors.Wrap(err, "Hashing.ImportState")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "Hashing.ImportState")
	}
	h.Config = cfg
	return nil
}
