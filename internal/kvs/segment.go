package kvs

import (
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/ignite-kv/ignite/pkg/errors"
	"github.com/ignite-kv/ignite/pkg/seginfo"
)

func segmentPath(dataDir string, id uint64) string {
	return filepath.Join(dataDir, seginfo.GenerateName(id))
}

// openActiveSegment opens (creating if necessary) the segment file for id
// in append mode and reports its current size, so the writer can resume
// its byte-accurate cursor exactly where a previous process left off.
func openActiveSegment(dataDir string, id uint64) (*os.File, int64, error) {
	path := segmentPath(dataDir, id)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, 0, errors.ClassifyFileError(err, path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, errors.ClassifyFileError(err, path)
	}
	return f, info.Size(), nil
}

// readerCache is a per-Store-handle cache of open read-only segment file
// handles, avoiding shared-seek contention between concurrent readers.
// It is never shared between clones: each clone of a Store gets its own,
// empty, cache.
type readerCache struct {
	dataDir  string
	handles  map[uint64]*os.File
	barrier  *uint64 // shared reclamation barrier, acquire-loaded
	evicted  uint64  // highest barrier value already evicted from this cache
}

func newReaderCache(dataDir string, barrier *uint64) *readerCache {
	return &readerCache{dataDir: dataDir, handles: make(map[uint64]*os.File), barrier: barrier}
}

// get returns a read-only handle for segment id, opening and caching it on
// first use. Before opening, it lazily evicts any cached handles made
// stale by a compaction that has since advanced the reclamation barrier.
func (rc *readerCache) get(id uint64) (*os.File, error) {
	rc.evictStale()

	if f, ok := rc.handles[id]; ok {
		return f, nil
	}

	path := segmentPath(rc.dataDir, id)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.ClassifyFileError(err, path)
	}
	rc.handles[id] = f
	return f, nil
}

// evictStale closes and forgets cached handles for segments at or below
// the current reclamation barrier. It uses an acquire load so it observes
// a barrier published by compaction under release-store semantics.
func (rc *readerCache) evictStale() {
	barrier := atomic.LoadUint64(rc.barrier)
	if barrier <= rc.evicted {
		return
	}
	for id, f := range rc.handles {
		if id <= barrier {
			f.Close()
			delete(rc.handles, id)
		}
	}
	rc.evicted = barrier
}

func (rc *readerCache) close() {
	for id, f := range rc.handles {
		f.Close()
		delete(rc.handles, id)
	}
}

// readAt reads exactly length bytes at offset from segment id and decodes
// them as a command.
func (rc *readerCache) readAt(id uint64, offset, length int64) (command, error) {
	f, err := rc.get(id)
	if err != nil {
		return command{}, err
	}

	buf := make([]byte, length)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return command{}, errors.Wrap(err, errors.Io, "failed to read record").
			WithDetail("fileId", id).WithDetail("offset", offset).WithDetail("len", length)
	}

	var cmd command
	if err := decodeCommand(buf, &cmd); err != nil {
		return command{}, err
	}
	return cmd, nil
}
