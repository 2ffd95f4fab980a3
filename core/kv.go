package core

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/pkg/errors"
)

var ErrKeyNotFound = errors.New("key not found")

// KVStore is the local key-value storage every store persists its documents to.
type KVStore interface {
	// Get returns ErrKeyNotFound if nothing was ever stored under `key`.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LoadJSON decodes the document stored under `key` into `v`.
// found is false (and err nil) when the key has never been written.
func LoadJSON(ctx context.Context, kv KVStore, key string, v interface{}) (found bool, err error) {
	data, err := kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return false, nil
		}
		return false, errors.Wrapf(err, "reading %q", key)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, &DecodeError{Key: key, Err: err}
	}
	return true, nil
}

// SaveJSON encodes `v` and stores it under `key`.
func SaveJSON(ctx context.Context, kv KVStore, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %q", key)
	}
	return errors.Wrapf(kv.Put(ctx, key, data), "writing %q", key)
}

// DecodeError means the stored document exists but is not readable.
type DecodeError struct {
	Key string
	Err error
}

func (err *DecodeError) Error() string { return "decoding " + err.Key + ": " + err.Err.Error() }
func (err *DecodeError) Unwrap() error { return err.Err }

// LoadOrReset loads `key` into `v` (a pointer); unreadable data is logged, `v` is zeroed
// and reported as absent.
func LoadOrReset(ctx context.Context, kv KVStore, logger Logger, key string, v interface{}) (bool, error) {
	found, err := LoadJSON(ctx, kv, key, v)
	if err != nil {
		var decErr *DecodeError
		if errors.As(err, &decErr) {
			logger.Error("discarding unreadable stored data", err)
			if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && !rv.IsNil() {
				rv.Elem().Set(reflect.Zero(rv.Elem().Type()))
			}
			return false, nil
		}
		return false, err
	}
	return found, nil
}
