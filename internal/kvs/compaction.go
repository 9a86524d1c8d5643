package kvs

import (
	"os"
	"sync/atomic"

	"github.com/ignite-kv/ignite/internal/index"
	"github.com/ignite-kv/ignite/pkg/errors"
	"github.com/ignite-kv/ignite/pkg/filesys"
	"github.com/ignite-kv/ignite/pkg/seginfo"
)

// relocation is a pending index update produced by compaction: key now
// lives at ptr in a freshly written segment, replacing wherever it used
// to live.
type relocation struct {
	key string
	ptr index.RecordPointer
}

// compact reclaims stale bytes by copying every live record into fresh
// segments and retiring every segment at or below the pre-compaction
// active id. It must be called while holding writeMu, and it never makes
// a key invisible or changes its value: relocated index entries are only
// published after the bytes they point to are durably flushed, and the
// legacy segments are only removed after those entries and the
// reclamation barrier have been published. A reader that captured a
// pre-compaction pointer can still find its segment already removed;
// Store.Get handles that by re-reading the index once.
func (s *Store) compact() error {
	barrier := s.writer.activeID

	compactID := barrier + 1
	compactFile, compactSize, err := openActiveSegment(s.dataDir, compactID)
	if err != nil {
		return err
	}

	relocations, err := s.copyLiveRecords(&compactFile, &compactID, &compactSize)
	if err != nil {
		compactFile.Close()
		s.cleanupRange(barrier+1, compactID)
		return err
	}

	if err := compactFile.Sync(); err != nil {
		compactFile.Close()
		s.cleanupRange(barrier+1, compactID)
		return errors.ClassifyFileError(err, segmentPath(s.dataDir, compactID))
	}
	if err := compactFile.Close(); err != nil {
		s.log.Warnw("failed to close compaction segment", "error", err)
	}

	newActiveID := compactID + 1
	newActive, _, err := openActiveSegment(s.dataDir, newActiveID)
	if err != nil {
		s.cleanupRange(barrier+1, compactID)
		return err
	}

	// Publish relocated entries only now that their bytes are durable.
	for _, r := range relocations {
		s.idx.Set(r.key, r.ptr)
	}

	oldActive := s.writer.activeFile
	s.writer.activeFile = newActive
	s.writer.activeID = newActiveID
	s.writer.size = 0
	if err := oldActive.Close(); err != nil {
		s.log.Warnw("failed to close pre-compaction active segment", "error", err)
	}

	// Release-store the barrier: readers that acquire-load it will evict
	// cached handles at or below it lazily, never mid-read.
	atomic.StoreUint64(s.fileIDBar, barrier)

	s.cleanupRange(0, barrier)

	s.writer.staleBytes = 0
	s.metrics.staleBytes.Set(0)
	s.metrics.compactions.Inc()
	s.log.Infow("compaction complete", "barrier", barrier, "activeSegment", newActiveID, "liveKeys", len(relocations))

	return nil
}

// copyLiveRecords iterates every index entry and copies its live record
// into the compaction segment chain, rolling to a new compaction segment
// id whenever the current one would exceed segmentSize.
func (s *Store) copyLiveRecords(compactFile **os.File, compactID *uint64, compactSize *int64) ([]relocation, error) {
	relocations := make([]relocation, 0)
	var iterErr error

	s.idx.Range(func(key string, ptr index.RecordPointer) bool {
		cmd, err := s.readers.readAt(ptr.FileID, ptr.Offset, ptr.Len)
		if err != nil {
			iterErr = err
			return false
		}
		if cmd.Type != commandSet {
			iterErr = errors.New(errors.BrokenCommand, "index entry did not resolve to a set record during compaction").
				WithDetail("key", key)
			return false
		}

		data, err := encodeCommand(cmd)
		if err != nil {
			iterErr = errors.Wrap(err, errors.Serde, "failed to re-encode record during compaction")
			return false
		}

		if *compactSize+int64(len(data)) > s.segmentSize {
			if err := (*compactFile).Close(); err != nil {
				s.log.Warnw("failed to close compaction segment before roll", "error", err)
			}
			*compactID++
			f, _, err := openActiveSegment(s.dataDir, *compactID)
			if err != nil {
				iterErr = err
				return false
			}
			*compactFile = f
			*compactSize = 0
		}

		offset := *compactSize
		if _, err := (*compactFile).Write(data); err != nil {
			iterErr = errors.ClassifyFileError(err, segmentPath(s.dataDir, *compactID))
			return false
		}
		length := int64(len(data))
		*compactSize += length

		relocations = append(relocations, relocation{
			key: key,
			ptr: index.RecordPointer{FileID: *compactID, Offset: offset, Len: length},
		})
		return true
	})

	if iterErr != nil {
		return nil, iterErr
	}
	return relocations, nil
}

// cleanupRange best-effort removes segment files with ids in [lo, hi]. It
// is used both to retire legacy segments after a successful compaction
// and to discard partially-written compaction segments after a failed
// one; failures are logged, not returned, since the store must remain
// usable either way.
func (s *Store) cleanupRange(lo, hi uint64) {
	ids, err := seginfo.ListSegmentIDs(s.dataDir)
	if err != nil {
		s.log.Warnw("failed to list segments for cleanup", "error", err)
		return
	}
	for _, id := range ids {
		if id < lo || id > hi {
			continue
		}
		if err := filesys.DeleteFile(segmentPath(s.dataDir, id)); err != nil {
			s.log.Warnw("failed to remove segment during cleanup", "segmentId", id, "error", err)
		}
	}
}
