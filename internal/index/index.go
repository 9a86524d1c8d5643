// Package index implements the in-memory key directory that maps every
// live key to the location of its most recent record on disk.
//
// The directory is a persistent (copy-on-write) sorted map published
// through an atomic.Value: a single writer mutates it by computing a new
// map from the old one and swapping the pointer, while any number of
// readers load a consistent snapshot without ever taking a lock. This is
// the same shape used by HashiCorp's raft-wal for its in-memory segment
// table, adapted here from a uint64 log-index key to a string record key.
//
// Callers are responsible for serializing writers: Index itself does not
// arbitrate between concurrent Set/Delete calls, because the storage
// engine already does so by holding its own writer mutex for the whole of
// a mutating operation.
package index

import (
	"sync/atomic"

	"github.com/benbjohnson/immutable"
	"go.uber.org/zap"
)

// Index is the concurrent, lock-free-for-readers key directory.
type Index struct {
	log *zap.SugaredLogger
	m   atomic.Value // *immutable.SortedMap[string, RecordPointer]
}

// New constructs an empty Index.
func New(config *Config) *Index {
	idx := &Index{log: config.Logger}
	idx.m.Store(immutable.NewSortedMap[string, RecordPointer](nil))
	return idx
}

// snapshot returns the current published map.
func (idx *Index) snapshot() *immutable.SortedMap[string, RecordPointer] {
	return idx.m.Load().(*immutable.SortedMap[string, RecordPointer])
}

// Get returns the RecordPointer for key, and whether it was present.
func (idx *Index) Get(key string) (RecordPointer, bool) {
	return idx.snapshot().Get(key)
}

// Set publishes a new directory with key mapped to ptr. Must only be
// called by the single writer.
func (idx *Index) Set(key string, ptr RecordPointer) {
	next := idx.snapshot().Set(key, ptr)
	idx.m.Store(next)
}

// Delete publishes a new directory with key removed, reporting whether
// key was present beforehand. Must only be called by the single writer.
func (idx *Index) Delete(key string) bool {
	cur := idx.snapshot()
	if _, ok := cur.Get(key); !ok {
		return false
	}
	idx.m.Store(cur.Delete(key))
	return true
}

// Len returns the number of live keys.
func (idx *Index) Len() int {
	return idx.snapshot().Len()
}

// Range calls fn for every (key, RecordPointer) pair in ascending key
// order, stopping early if fn returns false. It operates over a single
// consistent snapshot even if writers publish concurrently.
func (idx *Index) Range(fn func(key string, ptr RecordPointer) bool) {
	snap := idx.snapshot()
	it := snap.Iterator()
	for !it.Done() {
		key, ptr, ok := it.Next()
		if !ok {
			break
		}
		if !fn(key, ptr) {
			return
		}
	}
}
