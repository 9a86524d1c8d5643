// Package options provides data structures and functions for configuring
// Ignite. It defines the parameters that control storage behavior,
// compaction, network binding and engine selection.
package options

import (
	"strings"
)

// Options defines the configuration for an Ignite instance.
type Options struct {
	// DataDir is the base path under which segment files and engine.log
	// are stored.
	//
	// Default: "/var/lib/ignitedb"
	DataDir string `json:"dataDir"`

	// SegmentSize is the target size in bytes a segment can grow to
	// before the active segment is rolled and a new one created.
	//
	// Default: 2MiB
	SegmentSize int64 `json:"segmentSize"`

	// StaleBytesThreshold is the number of superseded-or-removed bytes
	// accumulated by the writer that triggers an inline compaction pass.
	//
	// Default: 2MiB
	StaleBytesThreshold int64 `json:"staleBytesThreshold"`

	// NetworkAddress is the address kvs-server binds to.
	//
	// Default: "127.0.0.1:4000"
	NetworkAddress string `json:"networkAddress"`

	// Engine selects the storage engine: "kvs" (log-structured, default)
	// or "bolt" (embedded ordered-KV alternate engine).
	Engine string `json:"engine"`
}

// OptionFunc modifies an Options value.
type OptionFunc func(*Options)

// New builds an Options value by applying WithDefaultOptions followed by
// every opt in order, so callers only need to override what they care
// about.
func New(opts ...OptionFunc) Options {
	o := NewDefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithDefaultOptions applies the full default configuration.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// WithDataDir sets the base data directory.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// WithStaleBytesThreshold sets the accumulated stale-byte count that
// triggers an inline compaction pass.
func WithStaleBytesThreshold(threshold int64) OptionFunc {
	return func(o *Options) {
		if threshold > 0 {
			o.StaleBytesThreshold = threshold
		}
	}
}

// WithSegmentSize sets the target size of an active segment file.
func WithSegmentSize(size int64) OptionFunc {
	return func(o *Options) {
		if size >= MinSegmentSize && size <= MaxSegmentSize {
			o.SegmentSize = size
		}
	}
}

// WithNetworkAddress sets the address kvs-server binds to.
func WithNetworkAddress(addr string) OptionFunc {
	return func(o *Options) {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			o.NetworkAddress = addr
		}
	}
}

// WithEngine selects the storage engine kind.
func WithEngine(engine string) OptionFunc {
	return func(o *Options) {
		engine = strings.TrimSpace(engine)
		if engine != "" {
			o.Engine = engine
		}
	}
}
