// Package memstore は学習済み状態ストアのインメモリ実装を提供する。
// テストや短命なプロセスでの利用を想定し、プロセス終了とともに消える。
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/YuminosukeSato/adaptgo/core/transform"
	"github.com/YuminosukeSato/adaptgo/pkg/errors"
	"github.com/YuminosukeSato/adaptgo/store"
)

// Store は store.Store のインメモリ実装
type Store struct {
	mu        sync.RWMutex
	snapshots map[string][]store.Snapshot // 名前 → 版（古い順）
}

// New は空のインメモリストアを作成する
func New() *Store {
	return &Store{
		snapshots: make(map[string][]store.Snapshot),
	}
}

// Close は何もしない
func (s *Store) Close() error { return nil }

// Put は状態エンベロープを新しいスナップショットとして保存する
func (s *Store) Put(ctx context.Context, name string, env *transform.StateEnvelope) (store.Snapshot, error) {
	if err := store.ValidatePut(name, env); err != nil {
		return store.Snapshot{}, err
	}

	snap := store.Snapshot{
		ID:        store.NewSnapshotID(),
		Name:      name,
		Kind:      env.TransformType,
		CreatedAt: time.Now().UTC(),
		Envelope:  env.Clone(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[name] = append(s.snapshots[name], snap)
	return snap, nil
}

// Get は名前に対する最新のスナップショットを返す
func (s *Store) Get(ctx context.Context, name string) (store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.snapshots[name]
	if len(versions) == 0 {
		return store.Snapshot{}, errors.Wrapf(store.ErrNotFound, "memstore: %s", name)
	}
	return cloneSnapshot(versions[len(versions)-1]), nil
}

// GetVersion はスナップショットIDで特定の版を返す
func (s *Store) GetVersion(ctx context.Context, name, id string) (store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, snap := range s.snapshots[name] {
		if snap.ID == id {
			return cloneSnapshot(snap), nil
		}
	}
	return store.Snapshot{}, errors.Wrapf(store.ErrNotFound, "memstore: %s@%s", name, id)
}

// List はスナップショットの一覧を新しい順に返す
func (s *Store) List(ctx context.Context, kind string) ([]store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snaps []store.Snapshot
	for _, versions := range s.snapshots {
		for _, snap := range versions {
			if kind != "" && snap.Kind != kind {
				continue
			}
			snaps = append(snaps, cloneSnapshot(snap))
		}
	}
	// ULIDの辞書順は作成順なので、逆順ソートで新しい順になる
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ID > snaps[j].ID })
	return snaps, nil
}

// Delete は名前に対する全スナップショットを削除する
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.snapshots[name]) == 0 {
		return errors.Wrapf(store.ErrNotFound, "memstore: %s", name)
	}
	delete(s.snapshots, name)
	return nil
}

func cloneSnapshot(snap store.Snapshot) store.Snapshot {
	out := snap
	if snap.Envelope != nil {
		out.Envelope = snap.Envelope.Clone()
	}
	return out
}
