package boltengine

import (
	"testing"

	"github.com/ignite-kv/ignite/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := Open(&Config{DataDir: t.TempDir(), Logger: zap.NewNop().Sugar()})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestEngineSetGet(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Set("key1", "value1"))

	value, ok, err := e.Get("key1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "value1", value)
}

func TestEngineGetAbsentKey(t *testing.T) {
	e := newTestEngine(t)

	_, ok, err := e.Get("missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEngineRemove(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Set("key1", "value1"))
	require.NoError(t, e.Remove("key1"))

	_, ok, err := e.Get("key1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEngineRemoveAbsentKeyErrors(t *testing.T) {
	e := newTestEngine(t)

	err := e.Remove("missing")
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.KeyNotFound))
}

func TestEngineOverwrite(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Set("key1", "value1"))
	require.NoError(t, e.Set("key1", "value2"))

	value, ok, err := e.Get("key1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "value2", value)
}
