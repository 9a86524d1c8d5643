// Package seginfo provides utilities for naming and discovering segment
// files in the log-structured storage engine.
//
// Filename format: <id>.log
//
// Where id is a monotonically increasing unsigned 64-bit segment
// identifier rendered in decimal, zero-padded to 20 digits so that
// lexicographic and numeric ordering of segment filenames agree.
//
// Example filenames:
//
//	00000000000000000001.log
//	00000000000000000002.log
package seginfo

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/ignite-kv/ignite/pkg/filesys"
)

const extension = ".log"

// GenerateName returns the on-disk filename for segment id.
func GenerateName(id uint64) string {
	return fmt.Sprintf("%020d%s", id, extension)
}

// ParseSegmentID extracts the segment id from a segment file path.
func ParseSegmentID(fullPath string) (uint64, error) {
	_, filename := filepath.Split(fullPath)
	if !strings.HasSuffix(filename, extension) {
		return 0, fmt.Errorf("filename %s does not have expected extension %s", filename, extension)
	}
	idStr := strings.TrimSuffix(filename, extension)
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse segment ID from %s: %w", filename, err)
	}
	return id, nil
}

// ListSegmentIDs returns every segment id found directly under dataDir,
// sorted ascending. Entries matching the *.log glob whose name before the
// extension is not a decimal number (engine.log, for instance) are skipped
// rather than treated as a corrupt segment.
func ListSegmentIDs(dataDir string) ([]uint64, error) {
	pattern := filepath.Join(dataDir, "*"+extension)
	matches, err := filesys.ReadDir(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to read segment directory %s: %w", dataDir, err)
	}

	ids := make([]uint64, 0, len(matches))
	for _, match := range matches {
		id, err := ParseSegmentID(match)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// GetLatestSegmentInfo discovers the highest segment id present under
// dataDir and whether any segment exists at all.
//
// Returns:
//   - uint64: the id of the latest segment (0 if none exist).
//   - bool: whether any segment file was found.
//   - error: if the directory could not be read. Filenames that fail to
//     parse are skipped, not reported.
func GetLatestSegmentInfo(dataDir string) (uint64, bool, error) {
	ids, err := ListSegmentIDs(dataDir)
	if err != nil {
		return 0, false, err
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[len(ids)-1], true, nil
}
