// Command kvs-server binds a TCP listener and serves SET/GET/RM requests
// against a configurable storage engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ignite-kv/ignite/internal/engine"
	"github.com/ignite-kv/ignite/internal/server"
	"github.com/ignite-kv/ignite/pkg/options"
	"go.uber.org/zap"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", options.DefaultNetworkAddress, "address to bind, HOST:PORT")
	dataDir := flag.String("data-dir", options.DefaultDataDir, "directory for segment and engine.log files")
	engineKind := flag.String("engine", "", "storage engine: kvs or bolt (default kvs; must match the engine the data directory was first opened with)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	opts := options.New(
		options.WithNetworkAddress(*addr),
		options.WithDataDir(*dataDir),
		options.WithEngine(*engineKind),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	eng, err := engine.Open(ctx, &engine.Config{Options: &opts, Logger: log})
	if err != nil {
		return fmt.Errorf("failed to open storage engine: %w", err)
	}
	defer eng.Close()

	srv, err := server.New(&server.Config{Engine: eng, Logger: log, Address: opts.NetworkAddress})
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.Infow("kvs-server starting", "version", version, "engine", opts.Engine, "address", srv.Addr().String())

	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		srv.Shutdown()
		return <-done
	case err := <-done:
		return err
	}
}
