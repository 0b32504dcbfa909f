package fhirprofiler

import (
	"sync"
	"testing"
	"time"
)

func TestMetrics_Basic(t *testing.T) {
	m := NewMetrics()

	if m.BuildsTotal() != 0 {
		t.Errorf("BuildsTotal() = %d; want 0", m.BuildsTotal())
	}

	m.RecordBuild("Patient", 100*time.Millisecond, 42)

	if m.BuildsTotal() != 1 {
		t.Errorf("BuildsTotal() = %d; want 1", m.BuildsTotal())
	}
	if m.NodesTotal() != 42 {
		t.Errorf("NodesTotal() = %d; want 42", m.NodesTotal())
	}
}

func TestMetrics_BuildTime(t *testing.T) {
	m := NewMetrics()

	// No builds yet
	if avg := m.AverageBuildTime(); avg != 0 {
		t.Errorf("AverageBuildTime() = %v; want 0", avg)
	}
	if min := m.MinBuildTime(); min != 0 {
		t.Errorf("MinBuildTime() = %v; want 0", min)
	}
	if max := m.MaxBuildTime(); max != 0 {
		t.Errorf("MaxBuildTime() = %v; want 0", max)
	}

	m.RecordBuild("Patient", 100*time.Millisecond, 10)
	m.RecordBuild("Patient", 200*time.Millisecond, 10)
	m.RecordBuild("Patient", 300*time.Millisecond, 10)

	avg := m.AverageBuildTime()
	expectedAvg := 200 * time.Millisecond
	if avg < expectedAvg-time.Millisecond || avg > expectedAvg+time.Millisecond {
		t.Errorf("AverageBuildTime() = %v; want ~%v", avg, expectedAvg)
	}

	if min := m.MinBuildTime(); min != 100*time.Millisecond {
		t.Errorf("MinBuildTime() = %v; want %v", min, 100*time.Millisecond)
	}

	if max := m.MaxBuildTime(); max != 300*time.Millisecond {
		t.Errorf("MaxBuildTime() = %v; want %v", max, 300*time.Millisecond)
	}
}

func TestMetrics_BaseTypeStats(t *testing.T) {
	m := NewMetrics()

	m.RecordBuild("Patient", 100*time.Millisecond, 20)
	m.RecordBuild("Patient", 300*time.Millisecond, 30)
	m.RecordBuild("Observation", 50*time.Millisecond, 15)

	stats, ok := m.BaseTypeStats("Patient")
	if !ok {
		t.Fatal("BaseTypeStats(Patient) not found")
	}
	if stats.Builds != 2 || stats.Nodes != 50 {
		t.Errorf("Patient stats = %+v; want 2 builds, 50 nodes", stats)
	}
	if stats.AvgTime != 200*time.Millisecond {
		t.Errorf("Patient AvgTime = %v; want 200ms", stats.AvgTime)
	}

	if _, ok := m.BaseTypeStats("Bundle"); ok {
		t.Error("BaseTypeStats(Bundle) should not be found")
	}

	if got := len(m.AllBaseTypeStats()); got != 2 {
		t.Errorf("AllBaseTypeStats() = %d entries; want 2", got)
	}
}

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics()

	m.RecordBuild("Patient", 100*time.Millisecond, 10)
	m.RecordBuild("Observation", 200*time.Millisecond, 20)

	s := m.Snapshot()
	if s.BuildsTotal != 2 || s.NodesTotal != 30 {
		t.Errorf("snapshot = %+v; want 2 builds, 30 nodes", s)
	}
	if s.MinBuildTimeNs != uint64(100*time.Millisecond) {
		t.Errorf("MinBuildTimeNs = %d", s.MinBuildTimeNs)
	}
	if s.MaxBuildTimeNs != uint64(200*time.Millisecond) {
		t.Errorf("MaxBuildTimeNs = %d", s.MaxBuildTimeNs)
	}
	if len(s.BaseTypes) != 2 {
		t.Errorf("BaseTypes = %d; want 2", len(s.BaseTypes))
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := NewMetrics()

	m.RecordBuild("Patient", 100*time.Millisecond, 10)
	m.Reset()

	if m.BuildsTotal() != 0 || m.NodesTotal() != 0 {
		t.Error("Reset should clear counters")
	}
	if m.MinBuildTime() != 0 {
		t.Errorf("MinBuildTime after reset = %v; want 0", m.MinBuildTime())
	}
	if len(m.AllBaseTypeStats()) != 0 {
		t.Error("Reset should clear base type stats")
	}
}

func TestMetrics_Concurrent(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				m.RecordBuild("Patient", time.Millisecond, 5)
			}
		}()
	}
	wg.Wait()

	if m.BuildsTotal() != 800 {
		t.Errorf("BuildsTotal() = %d; want 800", m.BuildsTotal())
	}
	if m.NodesTotal() != 4000 {
		t.Errorf("NodesTotal() = %d; want 4000", m.NodesTotal())
	}
}
