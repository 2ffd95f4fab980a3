package sqlxdb

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
)

const (
	selectQuery = `SELECT value FROM kv_entries WHERE key = $1`
	upsertQuery = `INSERT INTO kv_entries (key, value, updated_at) VALUES (:key, :value, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	deleteQuery = `DELETE FROM kv_entries WHERE key = $1`
)

type entry struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// DB keeps the documents in the kv_entries table (see the migrations).
type DB struct {
	db *sqlx.DB
}

var _ core.KVStore = (*DB)(nil)

func New(db *sql.DB) *DB {
	return &DB{db: sqlx.NewDb(db, "postgres")}
}

func (kv *DB) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	if err := kv.db.GetContext(ctx, &value, selectQuery, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrKeyNotFound
		}
		return nil, err
	}
	return value, nil
}

func (kv *DB) Put(ctx context.Context, key string, value []byte) error {
	_, err := kv.db.NamedExecContext(ctx, upsertQuery, entry{Key: key, Value: string(value)})
	return err
}

func (kv *DB) Delete(ctx context.Context, key string) error {
	_, err := kv.db.ExecContext(ctx, deleteQuery, key)
	return err
}

func (kv *DB) Close() error { return kv.db.Close() }
