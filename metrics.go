package fhirprofiler

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks snapshot build performance using lock-free atomic
// operations. All methods are safe for concurrent use, so a single
// instance can be shared across batch workers.
type Metrics struct {
	// Build counts
	buildsTotal atomic.Uint64
	nodesTotal  atomic.Uint64

	// Timing (stored as nanoseconds)
	buildTimeTotal atomic.Uint64
	buildTimeMin   atomic.Uint64
	buildTimeMax   atomic.Uint64

	// Per-base-type stats (map access via sync.Map)
	baseTypes sync.Map // map[string]*baseTypeMetrics
}

// baseTypeMetrics tracks builds against a single base resource type.
type baseTypeMetrics struct {
	builds    atomic.Uint64
	totalTime atomic.Uint64 // nanoseconds
	nodes     atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so first value becomes the minimum
	m.buildTimeMin.Store(^uint64(0))
	return m
}

// RecordBuild records one completed snapshot build.
func (m *Metrics) RecordBuild(baseType string, duration time.Duration, nodes int) {
	m.buildsTotal.Add(1)
	m.nodesTotal.Add(uint64(nodes)) //nolint:gosec // Safe: node counts are small positive integers

	ns := uint64(duration.Nanoseconds()) //nolint:gosec // Safe: nanoseconds are always positive for valid durations
	m.buildTimeTotal.Add(ns)

	// Update min (CAS loop)
	for {
		old := m.buildTimeMin.Load()
		if ns >= old {
			break
		}
		if m.buildTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}

	// Update max (CAS loop)
	for {
		old := m.buildTimeMax.Load()
		if ns <= old {
			break
		}
		if m.buildTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}

	bm := m.getOrCreateBaseTypeMetrics(baseType)
	bm.builds.Add(1)
	bm.totalTime.Add(ns)
	bm.nodes.Add(uint64(nodes)) //nolint:gosec // Safe: node counts are small positive integers
}

func (m *Metrics) getOrCreateBaseTypeMetrics(name string) *baseTypeMetrics {
	if v, ok := m.baseTypes.Load(name); ok {
		return v.(*baseTypeMetrics)
	}
	bm := &baseTypeMetrics{}
	actual, _ := m.baseTypes.LoadOrStore(name, bm)
	return actual.(*baseTypeMetrics)
}

// BuildsTotal returns the total number of snapshot builds recorded.
func (m *Metrics) BuildsTotal() uint64 {
	return m.buildsTotal.Load()
}

// NodesTotal returns the total number of element nodes produced.
func (m *Metrics) NodesTotal() uint64 {
	return m.nodesTotal.Load()
}

// AverageBuildTime returns the average build duration.
func (m *Metrics) AverageBuildTime() time.Duration {
	total := m.buildsTotal.Load()
	if total == 0 {
		return 0
	}
	avgNs := m.buildTimeTotal.Load() / total
	return time.Duration(avgNs) //nolint:gosec // Safe: avgNs represents nanoseconds within int64 range
}

// MinBuildTime returns the minimum build duration.
func (m *Metrics) MinBuildTime() time.Duration {
	minVal := m.buildTimeMin.Load()
	if minVal == ^uint64(0) {
		return 0
	}
	return time.Duration(minVal) //nolint:gosec // Safe: minVal represents nanoseconds within int64 range
}

// MaxBuildTime returns the maximum build duration.
func (m *Metrics) MaxBuildTime() time.Duration {
	return time.Duration(m.buildTimeMax.Load()) //nolint:gosec // Safe: nanoseconds within int64 range
}

// BaseTypeStats returns build statistics for one base resource type.
type BaseTypeStats struct {
	Name    string
	Builds  uint64
	AvgTime time.Duration
	Nodes   uint64
}

// BaseTypeStats returns statistics for builds against one base type.
func (m *Metrics) BaseTypeStats(name string) (BaseTypeStats, bool) {
	v, ok := m.baseTypes.Load(name)
	if !ok {
		return BaseTypeStats{Name: name}, false
	}
	bm := v.(*baseTypeMetrics)
	builds := bm.builds.Load()

	var avgTime time.Duration
	if builds > 0 {
		avgTime = time.Duration(bm.totalTime.Load() / builds) //nolint:gosec // Safe: nanoseconds within int64 range
	}

	return BaseTypeStats{
		Name:    name,
		Builds:  builds,
		AvgTime: avgTime,
		Nodes:   bm.nodes.Load(),
	}, true
}

// AllBaseTypeStats returns statistics for all recorded base types.
func (m *Metrics) AllBaseTypeStats() []BaseTypeStats {
	var stats []BaseTypeStats
	m.baseTypes.Range(func(key, value any) bool {
		bm := value.(*baseTypeMetrics)
		builds := bm.builds.Load()

		var avgTime time.Duration
		if builds > 0 {
			avgTime = time.Duration(bm.totalTime.Load() / builds) //nolint:gosec // Safe: nanoseconds within int64 range
		}

		stats = append(stats, BaseTypeStats{
			Name:    key.(string),
			Builds:  builds,
			AvgTime: avgTime,
			Nodes:   bm.nodes.Load(),
		})
		return true
	})
	return stats
}

// MetricsSnapshot is a point-in-time view of all build metrics.
type MetricsSnapshot struct {
	Timestamp time.Time `json:"timestamp"`

	BuildsTotal uint64 `json:"builds_total"`
	NodesTotal  uint64 `json:"nodes_total"`

	// Timing metrics (in nanoseconds for precision)
	AvgBuildTimeNs uint64 `json:"avg_build_time_ns"`
	MinBuildTimeNs uint64 `json:"min_build_time_ns"`
	MaxBuildTimeNs uint64 `json:"max_build_time_ns"`

	BaseTypes []BaseTypeStats `json:"base_types,omitempty"`
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	total := m.buildsTotal.Load()

	var avgNs uint64
	if total > 0 {
		avgNs = m.buildTimeTotal.Load() / total
	}

	minTime := m.buildTimeMin.Load()
	if minTime == ^uint64(0) {
		minTime = 0
	}

	return MetricsSnapshot{
		Timestamp:      time.Now(),
		BuildsTotal:    total,
		NodesTotal:     m.nodesTotal.Load(),
		AvgBuildTimeNs: avgNs,
		MinBuildTimeNs: minTime,
		MaxBuildTimeNs: m.buildTimeMax.Load(),
		BaseTypes:      m.AllBaseTypeStats(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.buildsTotal.Store(0)
	m.nodesTotal.Store(0)
	m.buildTimeTotal.Store(0)
	m.buildTimeMin.Store(^uint64(0))
	m.buildTimeMax.Store(0)

	m.baseTypes.Range(func(key, _ any) bool {
		m.baseTypes.Delete(key)
		return true
	})
}
