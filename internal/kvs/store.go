// Package kvs implements the log-structured, Bitcask-style storage
// engine: append-only segment files, an in-memory key directory, and
// inline compaction.
//
// A Store is a cheap, clonable handle. Every clone shares the same
// in-memory index, the same writer mutex and active segment, and the
// same reclamation barrier, but owns a private cache of read-only
// segment file handles so concurrent readers never contend on a shared
// file cursor. Writes are serialized behind the shared writer mutex;
// reads never take it.
package kvs

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ignite-kv/ignite/internal/index"
	"github.com/ignite-kv/ignite/pkg/errors"
	"github.com/ignite-kv/ignite/pkg/filesys"
	"github.com/ignite-kv/ignite/pkg/options"
	"github.com/ignite-kv/ignite/pkg/seginfo"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// writerState is the mutable state owned exclusively by whichever clone
// currently holds writeMu. It is shared by pointer across every clone of
// a Store so that only one segment is ever active at a time (I3).
type writerState struct {
	activeFile *os.File
	activeID   uint64
	size       int64
	staleBytes int64
}

// Config encapsulates the parameters required to open a Store.
type Config struct {
	Options    *options.Options
	Logger     *zap.SugaredLogger
	Registerer prometheus.Registerer
}

// Store is a handle onto the log-structured engine.
type Store struct {
	dataDir             string
	segmentSize         int64
	staleBytesThreshold int64

	log     *zap.SugaredLogger
	metrics *storeMetrics

	idx *index.Index

	writeMu *sync.Mutex
	writer  *writerState

	fileIDBar *uint64

	readers *readerCache
	owner   bool
}

// New opens a Store rooted at config.Options.DataDir, replaying every
// existing segment to rebuild the in-memory index before accepting
// writes.
func New(ctx context.Context, config *Config) (*Store, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, errors.New(errors.Other, "invalid store configuration")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dataDir := config.Options.DataDir
	log := config.Logger

	log.Infow("opening log-structured store",
		"dataDir", dataDir,
		"segmentSize", config.Options.SegmentSize,
		"staleBytesThreshold", config.Options.StaleBytesThreshold,
	)

	if err := filesys.CreateDir(dataDir, 0755, true); err != nil {
		return nil, errors.ClassifyFileError(err, dataDir)
	}

	idx := index.New(&index.Config{Logger: log})
	staleBytes, lastID, err := recoverIndex(dataDir, idx)
	if err != nil {
		return nil, err
	}

	activeID := lastID + 1
	activeFile, size, err := openActiveSegment(dataDir, activeID)
	if err != nil {
		return nil, err
	}

	log.Infow("store recovered",
		"liveKeys", idx.Len(),
		"staleBytes", staleBytes,
		"activeSegment", activeID,
	)

	registerer := config.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	barrier := new(uint64)
	store := &Store{
		dataDir:             dataDir,
		segmentSize:         config.Options.SegmentSize,
		staleBytesThreshold: config.Options.StaleBytesThreshold,
		log:                 log,
		metrics:             newStoreMetrics(registerer),
		idx:                 idx,
		writeMu:             &sync.Mutex{},
		writer: &writerState{
			activeFile: activeFile,
			activeID:   activeID,
			size:       size,
			staleBytes: staleBytes,
		},
		fileIDBar: barrier,
		readers:   newReaderCache(dataDir, barrier),
		owner:     true,
	}
	store.metrics.staleBytes.Set(float64(staleBytes))
	return store, nil
}

// Clone returns a new handle sharing this Store's index, writer and
// reclamation barrier, but with its own empty reader cache. Clones are
// cheap and safe to hand to independently-scheduled callers (one per
// accepted connection, for example).
func (s *Store) Clone() *Store {
	return &Store{
		dataDir:             s.dataDir,
		segmentSize:         s.segmentSize,
		staleBytesThreshold: s.staleBytesThreshold,
		log:                 s.log,
		metrics:             s.metrics,
		idx:                 s.idx,
		writeMu:             s.writeMu,
		writer:              s.writer,
		fileIDBar:           s.fileIDBar,
		readers:             newReaderCache(s.dataDir, s.fileIDBar),
		owner:               false,
	}
}

// Set upserts key to value. Any prior value for key becomes stale.
func (s *Store) Set(key, value string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ptr, err := s.append(setCommand(key, value))
	if err != nil {
		return err
	}

	if old, ok := s.idx.Get(key); ok {
		s.writer.staleBytes += old.Len
	}
	s.idx.Set(key, ptr)
	s.metrics.staleBytes.Set(float64(s.writer.staleBytes))

	return s.maybeRollAndCompact()
}

// Get looks up the live value for key. A missing key reports ok=false
// with no error.
//
// A reader that loads a pointer just before compaction relocates it can
// find the segment it names gone by the time it opens it: relocation
// publishes the new pointer to the index before the old segment is
// unlinked, so re-reading the index once and retrying resolves the race
// instead of surfacing a spurious not-found.
func (s *Store) Get(key string) (value string, ok bool, err error) {
	ptr, present := s.idx.Get(key)
	if !present {
		return "", false, nil
	}

	cmd, err := s.readers.readAt(ptr.FileID, ptr.Offset, ptr.Len)
	if err != nil && stderrors.Is(err, fs.ErrNotExist) {
		if retryPtr, stillPresent := s.idx.Get(key); stillPresent && retryPtr != ptr {
			ptr = retryPtr
			cmd, err = s.readers.readAt(ptr.FileID, ptr.Offset, ptr.Len)
		} else if !stillPresent {
			return "", false, nil
		}
	}
	if err != nil {
		return "", false, err
	}
	if cmd.Type != commandSet {
		return "", false, errors.New(errors.BrokenCommand, "index entry did not resolve to a set record").
			WithDetail("key", key).WithDetail("fileId", ptr.FileID).WithDetail("offset", ptr.Offset)
	}

	s.metrics.entriesRead.Inc()
	return cmd.Value, true, nil
}

// Remove deletes key. Removing an absent key is a KeyNotFound error, not
// a silent success.
func (s *Store) Remove(key string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	old, present := s.idx.Get(key)
	if !present {
		return errors.New(errors.KeyNotFound, "key not found").WithDetail("key", key)
	}

	if _, err := s.append(removeCommand(key)); err != nil {
		return err
	}

	s.writer.staleBytes += old.Len
	s.idx.Delete(key)
	s.metrics.staleBytes.Set(float64(s.writer.staleBytes))

	return s.maybeRollAndCompact()
}

// append serializes cmd, appends it to the active segment, and flushes it
// to the OS before returning the pointer describing where it landed.
// Must be called while holding writeMu.
func (s *Store) append(cmd command) (index.RecordPointer, error) {
	data, err := encodeCommand(cmd)
	if err != nil {
		return index.RecordPointer{}, errors.Wrap(err, errors.Serde, "failed to encode command")
	}

	offset := s.writer.size
	path := segmentPath(s.dataDir, s.writer.activeID)

	if _, err := s.writer.activeFile.Write(data); err != nil {
		return index.RecordPointer{}, errors.ClassifyFileError(err, path)
	}
	if err := s.writer.activeFile.Sync(); err != nil {
		return index.RecordPointer{}, errors.ClassifyFileError(err, path)
	}

	length := int64(len(data))
	s.writer.size += length

	s.metrics.bytesWritten.Add(float64(length))
	s.metrics.entriesWritten.Inc()

	return index.RecordPointer{FileID: s.writer.activeID, Offset: offset, Len: length}, nil
}

// maybeRollAndCompact rolls the active segment if it has crossed
// segmentSize, then triggers inline compaction if stale bytes have
// crossed staleBytesThreshold. Must be called while holding writeMu.
func (s *Store) maybeRollAndCompact() error {
	if s.writer.size >= s.segmentSize {
		if err := s.roll(); err != nil {
			return err
		}
	}
	if s.writer.staleBytes >= s.staleBytesThreshold {
		if err := s.compact(); err != nil {
			return err
		}
	}
	return nil
}

// roll closes the active segment and opens a fresh one at the next id.
// Must be called while holding writeMu.
func (s *Store) roll() error {
	next := s.writer.activeID + 1
	f, _, err := openActiveSegment(s.dataDir, next)
	if err != nil {
		return err
	}

	old := s.writer.activeFile
	s.writer.activeFile = f
	s.writer.activeID = next
	s.writer.size = 0

	if err := old.Close(); err != nil {
		s.log.Warnw("failed to close rolled segment", "error", err)
	}

	s.metrics.segmentRotations.Inc()
	s.log.Infow("rolled to new active segment", "segmentId", next)
	return nil
}

// Close releases this handle's own resources. The underlying active
// segment and writer state are only closed when the owning handle (the
// one returned by New, as opposed to one produced by Clone) is closed.
func (s *Store) Close() error {
	s.readers.close()
	if !s.owner {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.writer.activeFile.Close(); err != nil {
		return errors.ClassifyFileError(err, segmentPath(s.dataDir, s.writer.activeID))
	}
	return nil
}

// recoverIndex replays every existing segment in id order, rebuilding idx
// and the stale-byte counter, and returns the highest segment id found (0
// if none).
func recoverIndex(dataDir string, idx *index.Index) (staleBytes int64, lastID uint64, err error) {
	ids, err := seginfo.ListSegmentIDs(dataDir)
	if err != nil {
		return 0, 0, err
	}

	for _, id := range ids {
		stale, err := replaySegment(dataDir, id, idx)
		if err != nil {
			return 0, 0, err
		}
		staleBytes += stale
		lastID = id
	}
	return staleBytes, lastID, nil
}

func replaySegment(dataDir string, id uint64, idx *index.Index) (int64, error) {
	path := segmentPath(dataDir, id)
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.ClassifyFileError(err, path)
	}
	defer f.Close()

	dec := newStreamDecoder(f)

	var staleBytes int64
	var offset int64
	for {
		cmd, next, err := dec.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, errors.Wrap(err, errors.Serde, "failed to replay segment").
				WithDetail("fileId", id).WithDetail("offset", offset)
		}
		length := next - offset

		switch cmd.Type {
		case commandSet:
			if old, ok := idx.Get(cmd.Key); ok {
				staleBytes += old.Len
			}
			idx.Set(cmd.Key, index.RecordPointer{FileID: id, Offset: offset, Len: length})
		case commandRemove:
			if old, ok := idx.Get(cmd.Key); ok {
				staleBytes += old.Len
				idx.Delete(cmd.Key)
			}
		default:
			return 0, errors.New(errors.BrokenCommand, fmt.Sprintf("unrecognized command type %q during replay", cmd.Type)).
				WithDetail("fileId", id).WithDetail("offset", offset)
		}

		offset = next
	}

	return staleBytes, nil
}
