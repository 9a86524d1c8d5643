package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/ignite-kv/ignite/internal/client"
	"github.com/ignite-kv/ignite/internal/kvs"
	"github.com/ignite-kv/ignite/pkg/errors"
	"github.com/ignite-kv/ignite/pkg/options"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	o := options.New(options.WithDataDir(t.TempDir()))
	store, err := kvs.New(context.Background(), &kvs.Config{Options: &o, Logger: zap.NewNop().Sugar(), Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv, err := New(&Config{Engine: store, Logger: zap.NewNop().Sugar(), Address: "127.0.0.1:0"})
	require.NoError(t, err)
	return srv
}

func TestServerRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()
	defer func() {
		srv.Shutdown()
		require.NoError(t, <-done)
	}()

	c, err := client.Dial(srv.Addr().String())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set("key1", "value1"))

	value, ok, err := c.Get("key1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "value1", value)

	_, ok, err = c.Get("missing")
	require.NoError(t, err)
	require.False(t, ok)

	err = c.Remove("missing")
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.KeyNotFound))

	require.NoError(t, c.Remove("key1"))
}

func TestServerMultipleConnectionsShareState(t *testing.T) {
	srv := newTestServer(t)

	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()
	defer func() {
		srv.Shutdown()
		require.NoError(t, <-done)
	}()

	writer, err := client.Dial(srv.Addr().String())
	require.NoError(t, err)
	defer writer.Close()
	require.NoError(t, writer.Set("shared", "value"))

	reader, err := client.Dial(srv.Addr().String())
	require.NoError(t, err)
	defer reader.Close()

	value, ok, err := reader.Get("shared")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "value", value)
}

func TestServerShutdownUnblocksAcceptAndRefusesNewConnections(t *testing.T) {
	srv := newTestServer(t)

	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	addr := srv.Addr().String()
	srv.Shutdown()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}

	_, err := net.DialTimeout("tcp", addr, time.Second)
	require.Error(t, err)
}
