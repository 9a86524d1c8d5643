package options

const (
	// DefaultDataDir is the base directory IgniteDB stores segments and
	// engine metadata in when no directory is specified.
	DefaultDataDir = "/var/lib/ignitedb"

	// DefaultSegmentSize is the target size of an active segment before a
	// new one is rolled.
	DefaultSegmentSize int64 = 2 * 1024 * 1024

	// MinSegmentSize and MaxSegmentSize bound WithSegmentSize.
	MinSegmentSize int64 = 64 * 1024
	MaxSegmentSize int64 = 1024 * 1024 * 1024

	// DefaultStaleBytesThreshold is the accumulated stale-byte count that
	// triggers an inline compaction pass.
	DefaultStaleBytesThreshold int64 = 2 * 1024 * 1024

	// DefaultNetworkAddress is the address kvs-server binds by default.
	DefaultNetworkAddress = "127.0.0.1:4000"

	// DefaultEngine is the storage engine selected when none is given on
	// the command line and no prior selection is recorded in engine.log.
	DefaultEngine = "kvs"
)

var defaultOptions = Options{
	DataDir:             DefaultDataDir,
	SegmentSize:         DefaultSegmentSize,
	StaleBytesThreshold: DefaultStaleBytesThreshold,
	NetworkAddress:      DefaultNetworkAddress,
	Engine:              DefaultEngine,
}

// NewDefaultOptions returns the default configuration.
func NewDefaultOptions() Options {
	return defaultOptions
}
