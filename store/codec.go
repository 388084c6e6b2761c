package store

import (
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/YuminosukeSato/adaptgo/core/transform"
	"github.com/YuminosukeSato/adaptgo/pkg/errors"
)

// zstdのエンコーダ/デコーダはプールして使い回す
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// EncodeEnvelope はエンベロープをJSON化してzstdで圧縮する
// 語彙やIDF重みを含む状態は反復が多く、圧縮がよく効く
func EncodeEnvelope(env *transform.StateEnvelope) ([]byte, error) {
	if env == nil {
		return nil, errors.NewValidationError("envelope", "must not be nil", nil)
	}
	raw, err := env.ToJSON()
	if err != nil {
		return nil, errors.Wrap(err, "store.EncodeEnvelope")
	}
	enc := getZstdEncoder()
	defer putZstdEncoder(enc)
	return enc.EncodeAll(raw, nil), nil
}

// DecodeEnvelope は圧縮ペイロードからエンベロープを復元する
func DecodeEnvelope(payload []byte) (*transform.StateEnvelope, error) {
	dec := getZstdDecoder()
	defer putZstdDecoder(dec)
	raw, err := dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, errors.Wrap(err, "store.DecodeEnvelope")
	}
	env := &transform.StateEnvelope{}
	if err := env.FromJSON(raw); err != nil {
		return nil, errors.Wrap(err, "store.DecodeEnvelope")
	}
	return env, nil
}
