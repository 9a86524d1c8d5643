package index

import "go.uber.org/zap"

// RecordPointer contains the minimum metadata required to locate and
// retrieve a value from disk: which segment holds it, where in that
// segment its record starts, and how many bytes the record occupies.
type RecordPointer struct {
	FileID uint64
	Offset int64
	Len    int64
}

// Config encapsulates the parameters required to construct an Index.
type Config struct {
	Logger *zap.SugaredLogger
}
