package build

import (
	"sync"
	"time"

	"github.com/conneroisu/bundler/internal/interfaces"
)

var _ interfaces.BuildMetrics = (*Metrics)(nil)

// Metrics tracks worker-farm throughput, reduced from the teacher's much
// larger BuildMetrics to exactly the counters interfaces.BuildMetrics
// names.
type Metrics struct {
	mu            sync.Mutex
	builds        int64
	successes     int64
	failures      int64
	totalDuration time.Duration
	cacheHits     int64
	cacheTotal    int64
}

// NewMetrics returns a zeroed Metrics.
func NewMetrics() *Metrics { return &Metrics{} }

// RecordJob records one worker-farm job's outcome and duration.
func (m *Metrics) RecordJob(d time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.builds++
	m.totalDuration += d
	if success {
		m.successes++
	} else {
		m.failures++
	}
}

// RecordCacheLookup records a cache read outcome, used by the cache
// hit-rate counter.
func (m *Metrics) RecordCacheLookup(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheTotal++
	if hit {
		m.cacheHits++
	}
}

// GetBuildCount implements interfaces.BuildMetrics.
func (m *Metrics) GetBuildCount() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.builds
}

// GetSuccessCount implements interfaces.BuildMetrics.
func (m *Metrics) GetSuccessCount() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.successes
}

// GetFailureCount implements interfaces.BuildMetrics.
func (m *Metrics) GetFailureCount() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures
}

// GetAverageDuration implements interfaces.BuildMetrics.
func (m *Metrics) GetAverageDuration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.builds == 0 {
		return 0
	}
	return m.totalDuration / time.Duration(m.builds)
}

// GetCacheHitRate implements interfaces.BuildMetrics.
func (m *Metrics) GetCacheHitRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cacheTotal == 0 {
		return 0
	}
	return float64(m.cacheHits) / float64(m.cacheTotal)
}

// Reset implements interfaces.BuildMetrics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	*m = Metrics{}
}
