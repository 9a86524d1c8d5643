package kvs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// storeMetrics instruments the log-structured engine. One set is created
// per store root and shared across every clone, the same way a single
// walMetrics instance is shared across a WAL's handles.
type storeMetrics struct {
	bytesWritten     prometheus.Counter
	entriesWritten   prometheus.Counter
	entriesRead      prometheus.Counter
	segmentRotations prometheus.Counter
	compactions      prometheus.Counter
	staleBytes       prometheus.Gauge
}

func newStoreMetrics(reg prometheus.Registerer) *storeMetrics {
	return &storeMetrics{
		bytesWritten: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "ignite_kvs_bytes_written_total",
			Help: "Total bytes of command records appended to segment files.",
		}),
		entriesWritten: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "ignite_kvs_entries_written_total",
			Help: "Total number of Set/Remove commands appended.",
		}),
		entriesRead: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "ignite_kvs_entries_read_total",
			Help: "Total number of records read back from segment files.",
		}),
		segmentRotations: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "ignite_kvs_segment_rotations_total",
			Help: "Total number of times the active segment was rolled.",
		}),
		compactions: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "ignite_kvs_compactions_total",
			Help: "Total number of compaction passes run.",
		}),
		staleBytes: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "ignite_kvs_stale_bytes",
			Help: "Bytes on disk superseded by later writes or removals, not yet reclaimed.",
		}),
	}
}
