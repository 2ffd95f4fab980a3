// Package filedb stores every key as a JSON document of its own under a data directory.
package filedb

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
)

var keyRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type DB struct {
	mu  sync.Mutex
	dir string
}

var _ core.KVStore = (*DB)(nil)

// Open creates `dir` if needed.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating data dir")
	}
	return &DB{dir: dir}, nil
}

func (db *DB) path(key string) (string, error) {
	if !keyRegex.MatchString(key) {
		return "", errors.Errorf("invalid key %q", key)
	}
	return filepath.Join(db.dir, key+".json"), nil
}

func (db *DB) Get(_ context.Context, key string) ([]byte, error) {
	p, err := db.path(key)
	if err != nil {
		return nil, err
	}
	data, err := ioutil.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, core.ErrKeyNotFound
	}
	return data, err
}

// Put replaces the document atomically: a crash mid-write leaves the previous one in place.
func (db *DB) Put(_ context.Context, key string, value []byte) error {
	p, err := db.path(key)
	if err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	tmp, err := ioutil.TempFile(db.dir, "."+key+"-*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

func (db *DB) Delete(_ context.Context, key string) error {
	p, err := db.path(key)
	if err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (db *DB) Close() error { return nil }
