package kvs

import (
	"context"
	"testing"

	"github.com/ignite-kv/ignite/pkg/errors"
	"github.com/ignite-kv/ignite/pkg/options"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T, opts ...options.OptionFunc) *Store {
	t.Helper()

	o := options.New(append([]options.OptionFunc{options.WithDataDir(t.TempDir())}, opts...)...)
	s, err := New(context.Background(), &Config{Options: &o, Logger: zap.NewNop().Sugar(), Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreSetGetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("key1", "value1"))

	value, ok, err := s.Get("key1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "value1", value)
}

func TestStoreOverwriteSurvivesReopen(t *testing.T) {
	dataDir := t.TempDir()
	o := options.New(options.WithDataDir(dataDir))

	s1, err := New(context.Background(), &Config{Options: &o, Logger: zap.NewNop().Sugar(), Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)
	require.NoError(t, s1.Set("key1", "value1"))
	require.NoError(t, s1.Set("key1", "value2"))
	require.NoError(t, s1.Close())

	s2, err := New(context.Background(), &Config{Options: &o, Logger: zap.NewNop().Sugar(), Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)
	defer s2.Close()

	value, ok, err := s2.Get("key1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "value2", value)
}

func TestStoreGetAbsentKey(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreRemoveMissingKeyErrors(t *testing.T) {
	s := newTestStore(t)

	err := s.Remove("key1")
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.KeyNotFound))
}

func TestStoreRemoveThenGetIsAbsent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("key1", "value1"))
	require.NoError(t, s.Remove("key1"))

	_, ok, err := s.Get("key1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreCompactionPreservesLiveValues(t *testing.T) {
	s := newTestStore(t,
		options.WithSegmentSize(options.MinSegmentSize),
		options.WithStaleBytesThreshold(1024),
	)

	for i := 0; i < 500; i++ {
		require.NoError(t, s.Set("key", "value-before-compaction"))
	}
	require.NoError(t, s.Set("key", "final-value"))

	value, ok, err := s.Get("key")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "final-value", value)
}

func TestStoreCloneSharesIndexAndWriter(t *testing.T) {
	s := newTestStore(t)
	clone := s.Clone()
	defer clone.Close()

	require.NoError(t, s.Set("key1", "value1"))

	value, ok, err := clone.Get("key1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "value1", value)
}

func TestStoreConcurrentSetGet(t *testing.T) {
	s := newTestStore(t)

	done := make(chan error, 2)
	go func() {
		for i := 0; i < 100; i++ {
			if err := s.Set("concurrent-key", "v"); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	go func() {
		clone := s.Clone()
		defer clone.Close()
		for i := 0; i < 100; i++ {
			if _, _, err := clone.Get("concurrent-key"); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	require.NoError(t, <-done)
	require.NoError(t, <-done)
}
