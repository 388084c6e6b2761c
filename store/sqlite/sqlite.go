// Package sqlite は学習済み状態ストアのSQLite実装を提供する。
// 単一ファイルのデータベースにスナップショットを積み、WALモードで
// 読み取りと書き込みの並行性を確保する。
package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/YuminosukeSato/adaptgo/core/transform"
	"github.com/YuminosukeSato/adaptgo/pkg/errors"
	"github.com/YuminosukeSato/adaptgo/store"
)

type sqliteStore struct {
	db *sql.DB
}

// Open はSQLiteファイルを学習済み状態ストアとして開く
// ファイルが存在しない場合は作成し、スキーマを初期化する
//
// パラメータ:
//   - ctx: コンテキスト
//   - path: データベースファイルへのパス
//
// 戻り値:
//   - store.Store: スナップショットストア
//   - error: オープンまたは初期化に失敗した場合
//
// 使用例:
//
//	st, err := sqlite.Open(ctx, "states.db")
//	defer st.Close()
//	snap, err := st.Put(ctx, "customer-normalizer", env)
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite.Open")
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "sqlite.Open: enable WAL")
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "sqlite.Open: init schema")
	}

	return &sqliteStore{db: db}, nil
}

// Close はデータベース接続を閉じる
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS snapshots (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	created_at TEXT NOT NULL,
	payload BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_name ON snapshots(name, id);
CREATE INDEX IF NOT EXISTS idx_snapshots_kind ON snapshots(kind, id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Put は状態エンベロープを新しいスナップショットとして保存する
func (s *sqliteStore) Put(ctx context.Context, name string, env *transform.StateEnvelope) (store.Snapshot, error) {
	if err := store.ValidatePut(name, env); err != nil {
		return store.Snapshot{}, err
	}

	payload, err := store.EncodeEnvelope(env)
	if err != nil {
		return store.Snapshot{}, err
	}

	snap := store.Snapshot{
		ID:        store.NewSnapshotID(),
		Name:      name,
		Kind:      env.TransformType,
		CreatedAt: time.Now().UTC(),
		Envelope:  env.Clone(),
	}

	const stmt = `INSERT INTO snapshots (id, name, kind, created_at, payload) VALUES (?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, stmt,
		snap.ID, snap.Name, snap.Kind, snap.CreatedAt.Format(time.RFC3339Nano), payload)
	if err != nil {
		return store.Snapshot{}, errors.Wrapf(err, "sqlite.Put: %s", name)
	}
	return snap, nil
}

// Get は名前に対する最新のスナップショットを返す
func (s *sqliteStore) Get(ctx context.Context, name string) (store.Snapshot, error) {
	const stmt = `SELECT id, name, kind, created_at, payload FROM snapshots
WHERE name = ? ORDER BY id DESC LIMIT 1`
	return s.scanOne(s.db.QueryRowContext(ctx, stmt, name), name)
}

// GetVersion はスナップショットIDで特定の版を返す
func (s *sqliteStore) GetVersion(ctx context.Context, name, id string) (store.Snapshot, error) {
	const stmt = `SELECT id, name, kind, created_at, payload FROM snapshots
WHERE name = ? AND id = ?`
	return s.scanOne(s.db.QueryRowContext(ctx, stmt, name, id), name)
}

func (s *sqliteStore) scanOne(row *sql.Row, name string) (store.Snapshot, error) {
	var snap store.Snapshot
	var createdAt string
	var payload []byte
	err := row.Scan(&snap.ID, &snap.Name, &snap.Kind, &createdAt, &payload)
	if err == sql.ErrNoRows {
		return store.Snapshot{}, errors.Wrapf(store.ErrNotFound, "sqlite: %s", name)
	}
	if err != nil {
		return store.Snapshot{}, errors.Wrapf(err, "sqlite: %s", name)
	}

	snap.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return store.Snapshot{}, errors.Wrapf(err, "sqlite: %s: bad created_at", name)
	}
	snap.Envelope, err = store.DecodeEnvelope(payload)
	if err != nil {
		return store.Snapshot{}, errors.Wrapf(err, "sqlite: %s", name)
	}
	return snap, nil
}

// List はスナップショットの一覧を新しい順に返す
func (s *sqliteStore) List(ctx context.Context, kind string) ([]store.Snapshot, error) {
	stmt := `SELECT id, name, kind, created_at, payload FROM snapshots ORDER BY id DESC`
	args := []interface{}{}
	if kind != "" {
		stmt = `SELECT id, name, kind, created_at, payload FROM snapshots
WHERE kind = ? ORDER BY id DESC`
		args = append(args, kind)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite.List")
	}
	defer rows.Close()

	var snaps []store.Snapshot
	for rows.Next() {
		var snap store.Snapshot
		var createdAt string
		var payload []byte
		if err := rows.Scan(&snap.ID, &snap.Name, &snap.Kind, &createdAt, &payload); err != nil {
			return nil, errors.Wrap(err, "sqlite.List")
		}
		snap.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, errors.Wrap(err, "sqlite.List: bad created_at")
		}
		snap.Envelope, err = store.DecodeEnvelope(payload)
		if err != nil {
			return nil, errors.Wrap(err, "sqlite.List")
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "sqlite.List")
	}
	return snaps, nil
}

// Delete は名前に対する全スナップショットを削除する
func (s *sqliteStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name)
	if err != nil {
		return errors.Wrapf(err, "sqlite.Delete: %s", name)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "sqlite.Delete: %s", name)
	}
	if affected == 0 {
		return errors.Wrapf(store.ErrNotFound, "sqlite: %s", name)
	}
	return nil
}
