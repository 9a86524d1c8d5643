// Package boltengine implements the alternate storage engine: the same
// set/get/remove contract as internal/kvs, delegated instead to an
// embedded ordered-KV library (go.etcd.io/bbolt) rather than a
// hand-rolled log-structured layout.
package boltengine

import (
	"path/filepath"
	"unicode/utf8"

	"github.com/ignite-kv/ignite/pkg/errors"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var bucketName = []byte("ignite")

// Engine wraps a bbolt database file under a single bucket.
type Engine struct {
	db  *bbolt.DB
	log *zap.SugaredLogger
}

// Config encapsulates the parameters required to open an Engine.
type Config struct {
	DataDir string
	Logger  *zap.SugaredLogger
}

// Open opens (creating if necessary) the bolt-backed engine at
// config.DataDir/bolt.db.
func Open(config *Config) (*Engine, error) {
	path := filepath.Join(config.DataDir, "bolt.db")

	db, err := bbolt.Open(path, 0644, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.Sled, "failed to open bolt engine").WithDetail("path", path)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.Sled, "failed to initialize bolt bucket")
	}

	config.Logger.Infow("opened alternate engine", "backend", "bolt", "path", path)
	return &Engine{db: db, log: config.Logger}, nil
}

// Set upserts key to value, flushing the transaction before returning.
func (e *Engine) Set(key, value string) error {
	err := e.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return errors.Wrap(err, errors.Sled, "bolt set failed").WithDetail("key", key)
	}
	return nil
}

// Get looks up the live value for key. A missing key reports ok=false
// with no error. A stored value that is not valid UTF-8 is a Utf8 error.
func (e *Engine) Get(key string) (value string, ok bool, err error) {
	var raw []byte
	err = e.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v != nil {
			raw = append(raw, v...)
		}
		return nil
	})
	if err != nil {
		return "", false, errors.Wrap(err, errors.Sled, "bolt get failed").WithDetail("key", key)
	}
	if raw == nil {
		return "", false, nil
	}

	if !utf8.Valid(raw) {
		return "", false, errors.New(errors.Utf8, "stored value is not valid UTF-8").WithDetail("key", key)
	}
	return string(raw), true, nil
}

// Remove deletes key, flushing the transaction before returning. Removing
// an absent key is a KeyNotFound error.
func (e *Engine) Remove(key string) error {
	existed := false
	err := e.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b.Get([]byte(key)) == nil {
			return nil
		}
		existed = true
		return b.Delete([]byte(key))
	})
	if err != nil {
		return errors.Wrap(err, errors.Sled, "bolt remove failed").WithDetail("key", key)
	}
	if !existed {
		return errors.New(errors.KeyNotFound, "key not found").WithDetail("key", key)
	}
	return nil
}

// Close releases the underlying bolt database file.
func (e *Engine) Close() error {
	if err := e.db.Close(); err != nil {
		return errors.Wrap(err, errors.Sled, "failed to close bolt engine")
	}
	return nil
}
