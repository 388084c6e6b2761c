// Package store は学習済み状態の永続化インターフェースを提供する。
// 適応済み変換のStateEnvelopeを名前付きスナップショットとして保存し、
// 後続のプロセスが適応をやり直さずに状態を復元できるようにする。
// スナップショットIDはULIDで、辞書順がそのまま作成順になる。
package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/YuminosukeSato/adaptgo/core/transform"
	"github.com/YuminosukeSato/adaptgo/pkg/errors"
)

// ErrNotFound は対象のスナップショットが存在しない場合に返される
var ErrNotFound = errors.New("store: snapshot not found")

// Snapshot は保存された1つの学習済み状態
type Snapshot struct {
	// ID はULID形式のスナップショットID（作成時刻順にソート可能）
	ID string

	// Name は利用側が付けた変換の名前
	Name string

	// Kind はエンベロープの変換種類（normalization, pipeline等）
	Kind string

	// CreatedAt は保存時刻
	CreatedAt time.Time

	// Envelope は学習済み状態
	Envelope *transform.StateEnvelope
}

// Store は学習済み状態のスナップショットを永続化するインターフェース
// Putは同じ名前に対して新しい版を積み、Getは最新版を返す
type Store interface {
	Close() error

	// Put は状態エンベロープを新しいスナップショットとして保存する
	Put(ctx context.Context, name string, env *transform.StateEnvelope) (Snapshot, error)

	// Get は名前に対する最新のスナップショットを返す
	// 見つからない場合は ErrNotFound を返す
	Get(ctx context.Context, name string) (Snapshot, error)

	// GetVersion はスナップショットIDで特定の版を返す
	GetVersion(ctx context.Context, name, id string) (Snapshot, error)

	// List はスナップショットの一覧を新しい順に返す
	// kindが空でない場合はその変換種類だけに絞り込む
	List(ctx context.Context, kind string) ([]Snapshot, error)

	// Delete は名前に対する全スナップショットを削除する
	// 1つも存在しない場合は ErrNotFound を返す
	Delete(ctx context.Context, name string) error
}

var idGen = struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}{
	entropy: ulid.Monotonic(rand.Reader, 0),
}

// NewSnapshotID は時刻順にソート可能なULIDを生成する
func NewSnapshotID() string {
	idGen.mu.Lock()
	defer idGen.mu.Unlock()
	return ulid.MustNew(ulid.Now(), idGen.entropy).String()
}

// ValidatePut はPutに渡されたエンベロープを検証する（バックエンド共通）
func ValidatePut(name string, env *transform.StateEnvelope) error {
	if name == "" {
		return errors.NewValidationError("name", "snapshot name must not be empty", name)
	}
	if env == nil {
		return errors.NewValidationError("envelope", "must not be nil", nil)
	}
	if err := env.Validate(); err != nil {
		return errors.Wrap(err, "store: invalid envelope")
	}
	return nil
}
