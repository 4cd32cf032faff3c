package logger

import (
	"context"
	"sync"
	"time"
)

// opStats accumulates outcomes for one operation name.
type opStats struct {
	total   int64
	failed  int64
	elapsed time.Duration
}

var (
	statsMu sync.Mutex
	stats   = make(map[string]*opStats)
)

// OperationStats is a point-in-time view of one operation's counters.
type OperationStats struct {
	Total      int64
	Failed     int64
	AvgLatency time.Duration
}

// RecordOperation counts one completed operation. Safe for concurrent use.
func RecordOperation(operation string, err error, duration time.Duration) {
	statsMu.Lock()
	defer statsMu.Unlock()

	s, ok := stats[operation]
	if !ok {
		s = &opStats{}
		stats[operation] = s
	}
	s.total++
	s.elapsed += duration
	if err != nil {
		s.failed++
	}
}

// Snapshot returns the counters recorded so far, keyed by operation name.
func Snapshot() map[string]OperationStats {
	statsMu.Lock()
	defer statsMu.Unlock()

	out := make(map[string]OperationStats, len(stats))
	for op, s := range stats {
		view := OperationStats{Total: s.total, Failed: s.failed}
		if s.total > 0 {
			view.AvgLatency = s.elapsed / time.Duration(s.total)
		}
		out[op] = view
	}
	return out
}

// ResetStats clears all counters. Tests use it to isolate runs.
func ResetStats() {
	statsMu.Lock()
	defer statsMu.Unlock()
	stats = make(map[string]*opStats)
}

// TimedOperation runs fn, logs its outcome and records its duration
// under the given operation name.
func TimedOperation(ctx context.Context, operation string, fn func() error) error {
	start := time.Now()
	log := FromContext(ctx).With("operation", operation)
	log.Debug("starting operation")

	err := fn()
	duration := time.Since(start)

	RecordOperation(operation, err, duration)

	if err != nil {
		log.Error("operation failed", "error", err, "duration", duration)
	} else {
		log.Debug("operation completed", "duration", duration)
	}
	return err
}
