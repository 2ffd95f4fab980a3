package inmemdb

import (
	"context"
	"sync"

	"github.com/trezcool/ecole/core"
)

type (
	DB struct {
		kv *kvTable
	}

	kvTable struct {
		sync.RWMutex
		table map[string][]byte
	}
)

var _ core.KVStore = (*DB)(nil)

func Open() *DB {
	return &DB{kv: &kvTable{table: make(map[string][]byte)}}
}

func (db *DB) Get(_ context.Context, key string) ([]byte, error) {
	db.kv.RLock()
	defer db.kv.RUnlock()
	val, ok := db.kv.table[key]
	if !ok {
		return nil, core.ErrKeyNotFound
	}
	return append([]byte(nil), val...), nil
}

func (db *DB) Put(_ context.Context, key string, value []byte) error {
	db.kv.Lock()
	defer db.kv.Unlock()
	db.kv.table[key] = append([]byte(nil), value...)
	return nil
}

func (db *DB) Delete(_ context.Context, key string) error {
	db.kv.Lock()
	defer db.kv.Unlock()
	delete(db.kv.table, key)
	return nil
}

// Keys returns the stored keys, in no particular order.
func (db *DB) Keys() []string {
	db.kv.RLock()
	defer db.kv.RUnlock()
	keys := make([]string, 0, len(db.kv.table))
	for k := range db.kv.table {
		keys = append(keys, k)
	}
	return keys
}

func (db *DB) Close() error { return nil }
