package kvs

import (
	"context"
	"testing"

	"github.com/ignite-kv/ignite/pkg/options"
	"github.com/ignite-kv/ignite/pkg/seginfo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCompactionRemovesLegacySegments(t *testing.T) {
	dataDir := t.TempDir()
	o := options.New(
		options.WithDataDir(dataDir),
		options.WithSegmentSize(options.MinSegmentSize),
		options.WithStaleBytesThreshold(2048),
	)

	s, err := New(context.Background(), &Config{Options: &o, Logger: zap.NewNop().Sugar(), Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)
	defer s.Close()

	idsBeforeCompaction, err := seginfo.ListSegmentIDs(dataDir)
	require.NoError(t, err)
	require.Len(t, idsBeforeCompaction, 1)

	for i := 0; i < 1000; i++ {
		require.NoError(t, s.Set("key", "overwritten-many-times-to-accumulate-stale-bytes"))
	}

	value, ok, err := s.Get("key")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "overwritten-many-times-to-accumulate-stale-bytes", value)

	idsAfterCompaction, err := seginfo.ListSegmentIDs(dataDir)
	require.NoError(t, err)
	require.NotEmpty(t, idsAfterCompaction)

	// Compaction must have retired at least the original segment the
	// writer started on; the store must still resolve every live key.
	require.NotContains(t, idsAfterCompaction, idsBeforeCompaction[0])
	require.Less(t, idsBeforeCompaction[0], idsAfterCompaction[len(idsAfterCompaction)-1])
}

func TestCompactionPreservesMultipleKeys(t *testing.T) {
	dataDir := t.TempDir()
	o := options.New(
		options.WithDataDir(dataDir),
		options.WithSegmentSize(options.MinSegmentSize),
		options.WithStaleBytesThreshold(1024),
	)

	s, err := New(context.Background(), &Config{Options: &o, Logger: zap.NewNop().Sugar(), Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 200; i++ {
		require.NoError(t, s.Set("a", "a-value"))
		require.NoError(t, s.Set("b", "b-value"))
		require.NoError(t, s.Set("c", "c-value"))
	}
	require.NoError(t, s.Remove("b"))

	va, ok, err := s.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a-value", va)

	_, ok, err = s.Get("b")
	require.NoError(t, err)
	require.False(t, ok)

	vc, ok, err := s.Get("c")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "c-value", vc)
}
