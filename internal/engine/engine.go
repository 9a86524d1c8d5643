// Package engine defines the storage engine contract every backend
// satisfies, and resolves which concrete backend a store directory uses,
// persisting that choice so later runs cannot silently switch formats out
// from under existing data.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/ignite-kv/ignite/internal/boltengine"
	"github.com/ignite-kv/ignite/internal/kvs"
	"github.com/ignite-kv/ignite/pkg/errors"
	"github.com/ignite-kv/ignite/pkg/filesys"
	"github.com/ignite-kv/ignite/pkg/options"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	// KVS selects the log-structured engine (internal/kvs).
	KVS = "kvs"
	// Bolt selects the alternate, bbolt-backed engine (internal/boltengine).
	Bolt = "bolt"
)

// Engine is the capability contract every storage backend satisfies:
// owned-string set/get/remove, safe to share across goroutines.
type Engine interface {
	Set(key, value string) error
	Get(key string) (value string, ok bool, err error)
	Remove(key string) error
	Close() error
}

// Config encapsulates the parameters required to open an Engine.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
	// Registerer receives the kvs engine's metrics. Defaults to
	// prometheus.DefaultRegisterer when nil; pass a dedicated
	// prometheus.NewRegistry() when opening more than one engine in the
	// same process (tests, for instance) to avoid duplicate registration.
	Registerer prometheus.Registerer
}

// Open resolves and opens the configured engine, refusing to start if the
// requested kind conflicts with a previously persisted selection for this
// data directory.
func Open(ctx context.Context, config *Config) (Engine, error) {
	kind, err := resolveKind(config.Options.DataDir, config.Options.Engine)
	if err != nil {
		return nil, err
	}

	config.Logger.Infow("selected storage engine", "engine", kind, "dataDir", config.Options.DataDir)

	switch kind {
	case KVS:
		return kvs.New(ctx, &kvs.Config{Options: config.Options, Logger: config.Logger, Registerer: config.Registerer})
	case Bolt:
		return boltengine.Open(&boltengine.Config{DataDir: config.Options.DataDir, Logger: config.Logger})
	default:
		return nil, errors.New(errors.Other, fmt.Sprintf("unrecognized engine kind %q", kind))
	}
}

// engineLogPath is the path of the file recording which engine kind a
// data directory was first opened with.
func engineLogPath(dataDir string) string {
	return filepath.Join(dataDir, "engine.log")
}

// resolveKind reads any persisted engine selection for dataDir and
// reconciles it with requested. If no selection is persisted yet,
// requested (or KVS if empty) is persisted and returned. If a selection
// is already persisted, requested must either be empty or match it.
func resolveKind(dataDir, requested string) (string, error) {
	path := engineLogPath(dataDir)

	exists, err := filesys.Exists(path)
	if err != nil {
		return "", errors.ClassifyFileError(err, path)
	}

	if !exists {
		kind := requested
		if kind == "" {
			kind = KVS
		}
		if err := persistKind(dataDir, kind); err != nil {
			return "", err
		}
		return kind, nil
	}

	raw, err := filesys.ReadFile(path)
	if err != nil {
		return "", errors.ClassifyFileError(err, path)
	}

	var persisted string
	if err := json.Unmarshal(raw, &persisted); err != nil {
		return "", errors.Wrap(err, errors.Serde, "failed to decode engine.log").WithDetail("path", path)
	}

	if requested != "" && requested != persisted {
		return "", errors.New(errors.Other, fmt.Sprintf(
			"data directory %s was previously opened with engine %q; refusing to reopen with %q",
			dataDir, persisted, requested,
		))
	}

	return persisted, nil
}

func persistKind(dataDir, kind string) error {
	path := engineLogPath(dataDir)

	if err := filesys.CreateDir(dataDir, 0755, true); err != nil {
		return errors.ClassifyFileError(err, dataDir)
	}

	raw, err := json.Marshal(kind)
	if err != nil {
		return errors.Wrap(err, errors.Serde, "failed to encode engine selection")
	}

	if err := filesys.WriteFile(path, 0644, raw); err != nil {
		return errors.ClassifyFileError(err, path)
	}
	return nil
}
