package hashing

import (
	"encoding/binary"
	"fmt"
	"testing"

	adapterrors "github.com/YuminosukeSato/adaptgo/pkg/errors"
)

func TestBucketRangeAndPurity(t *testing.T) {
	cfg := Config{NumBins: 64, Salt: 1337}

	for i := 0; i < 1000; i++ {
		token := fmt.Sprintf("token-%d", i)

		first, err := BucketString(token, cfg)
		if err != nil {
			t.Fatalf("BucketString() error = %v", err)
		}
		if first < 0 || first >= cfg.NumBins {
			t.Fatalf("BucketString(%q) = %d, out of [0, %d)", token, first, cfg.NumBins)
		}

		// 純粋: 同じ入力は何度でも同じバケット
		second, err := BucketString(token, cfg)
		if err != nil {
			t.Fatalf("BucketString() error = %v", err)
		}
		if first != second {
			t.Fatalf("BucketString(%q) not pure: %d then %d", token, first, second)
		}
	}
}

func TestBucketSaltChangesAssignment(t *testing.T) {
	base := Config{NumBins: 64, Salt: 1337}
	other := Config{NumBins: 64, Salt: 7331}

	moved := 0
	for i := 0; i < 200; i++ {
		token := fmt.Sprintf("feature=%d", i)
		a, err := BucketString(token, base)
		if err != nil {
			t.Fatalf("BucketString() error = %v", err)
		}
		b, err := BucketString(token, other)
		if err != nil {
			t.Fatalf("BucketString() error = %v", err)
		}
		if a != b {
			moved++
		}
	}

	// 塩が違えば大半のトークンは別のバケットへ動く
	if moved < 100 {
		t.Errorf("only %d/200 tokens moved between salts, expected most to move", moved)
	}
}

func TestBucketStringMatchesBytes(t *testing.T) {
	cfg := Config{NumBins: 32, Salt: 42}

	a, err := BucketString("hello", cfg)
	if err != nil {
		t.Fatalf("BucketString() error = %v", err)
	}
	b, err := Bucket([]byte("hello"), cfg)
	if err != nil {
		t.Fatalf("Bucket() error = %v", err)
	}
	if a != b {
		t.Errorf("BucketString = %d, Bucket over raw bytes = %d", a, b)
	}
}

func TestBucketInt64Encoding(t *testing.T) {
	cfg := Config{NumBins: 32, Salt: 42}

	values := []int64{0, 1, -1, 42, -9000, 1 << 40}
	for _, v := range values {
		got, err := BucketInt64(v, cfg)
		if err != nil {
			t.Fatalf("BucketInt64(%d) error = %v", v, err)
		}

		// エンコーディングは8バイトのビッグエンディアンと文書化されている
		var encoded [8]byte
		binary.BigEndian.PutUint64(encoded[:], uint64(v))
		want, err := Bucket(encoded[:], cfg)
		if err != nil {
			t.Fatalf("Bucket() error = %v", err)
		}
		if got != want {
			t.Errorf("BucketInt64(%d) = %d, want %d (big-endian bytes)", v, got, want)
		}
	}
}

func TestBucketNoCrossEncodingNormalization(t *testing.T) {
	// 同じ数でも文字列表現とint64表現は別の入力として扱われる
	cfg := Config{NumBins: 1 << 20, Salt: 7}

	s, err := BucketString("42", cfg)
	if err != nil {
		t.Fatalf("BucketString() error = %v", err)
	}
	i, err := BucketInt64(42, cfg)
	if err != nil {
		t.Fatalf("BucketInt64() error = %v", err)
	}
	if s == i {
		t.Errorf("string and int64 encodings of 42 collided in %d bins; expected distinct buckets", cfg.NumBins)
	}
}

// 固定値での回帰テスト。バケット割当は保存した状態と一緒に永続化される
// 前提なので、アルゴリズムの変更はここで検出されなければならない。
func TestBucketGoldenValues(t *testing.T) {
	tests := []struct {
		token string
		cfg   Config
		want  int
	}{
		{token: "token-0", cfg: Config{NumBins: 64, Salt: 1337}, want: 5},
		{token: "hello", cfg: Config{NumBins: 32, Salt: 42}, want: 13},
	}

	for _, tt := range tests {
		got, err := BucketString(tt.token, tt.cfg)
		if err != nil {
			t.Fatalf("BucketString(%q) error = %v", tt.token, err)
		}
		if got != tt.want {
			t.Errorf("BucketString(%q, %+v) = %d, want %d", tt.token, tt.cfg, got, tt.want)
		}
	}

	got, err := BucketInt64(0, Config{NumBins: 32, Salt: 42})
	if err != nil {
		t.Fatalf("BucketInt64(0) error = %v", err)
	}
	if got != 23 {
		t.Errorf("BucketInt64(0) = %d, want 23", got)
	}
}

func TestBucketConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Config{NumBins: 8, Salt: 0}, wantErr: false},
		{name: "single bin", cfg: Config{NumBins: 1, Salt: 5}, wantErr: false},
		{name: "zero bins", cfg: Config{NumBins: 0, Salt: 5}, wantErr: true},
		{name: "negative bins", cfg: Config{NumBins: -4, Salt: 5}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BucketString("x", tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("BucketString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var valErr *adapterrors.ValidationError
				if !adapterrors.As(err, &valErr) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			}
		})
	}
}
