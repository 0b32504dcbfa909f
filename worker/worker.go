// Package worker builds snapshots for many profiles in parallel.
//
// Snapshot building is CPU-bound and per-profile independent, so a project
// with hundreds of profiles rebuilds across runtime.NumCPU() workers:
//
//	bb := worker.NewBatchBuilder(builder, 0)
//	batch := bb.BuildBatch(ctx, service.Profiles())
package worker

import (
	"context"
	"runtime"
	"sync"
	"time"

	fhirprofiler "github.com/gofhir/profiler"
	"github.com/gofhir/profiler/loader"
	"github.com/gofhir/profiler/pkg/snapshot"
)

// JobResult is the outcome of one profile build.
type JobResult struct {
	// Profile is the profile this result belongs to.
	Profile *loader.Profile

	// Tree is the resolved element tree; nil when the build was skipped
	// by cancellation.
	Tree *snapshot.ElementNode
}

// BatchResult aggregates the results of a batch build, in submission
// order.
type BatchResult struct {
	Results   []*JobResult
	TotalJobs int
	Completed int
}

// BatchBuilder runs snapshot builds across a fixed set of workers.
type BatchBuilder struct {
	builder *snapshot.Builder
	workers int
	metrics *fhirprofiler.Metrics
}

// NewBatchBuilder creates a batch builder. Non-positive worker counts
// default to runtime.NumCPU().
func NewBatchBuilder(builder *snapshot.Builder, workers int) *BatchBuilder {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &BatchBuilder{
		builder: builder,
		workers: workers,
	}
}

// SetMetrics attaches a metrics collector; per-build timings and node
// counts are recorded on it. Nil disables recording.
func (bb *BatchBuilder) SetMetrics(m *fhirprofiler.Metrics) {
	bb.metrics = m
}

func (bb *BatchBuilder) build(p *loader.Profile) *snapshot.ElementNode {
	start := time.Now()
	tree := bb.builder.Build(p.Type, p.Differential)
	if bb.metrics != nil && tree != nil {
		bb.metrics.RecordBuild(p.Type, time.Since(start), tree.Count())
	}
	return tree
}

// BuildBatch builds snapshots for all profiles. Results come back in
// profile order; cancellation stops scheduling but already-started builds
// run to completion.
func (bb *BatchBuilder) BuildBatch(ctx context.Context, profiles []*loader.Profile) *BatchResult {
	if len(profiles) == 0 {
		return &BatchResult{Results: make([]*JobResult, 0)}
	}

	// Small batches aren't worth the goroutine overhead.
	if len(profiles) <= 2 {
		return bb.buildSequential(ctx, profiles)
	}
	return bb.buildParallel(ctx, profiles)
}

func (bb *BatchBuilder) buildSequential(ctx context.Context, profiles []*loader.Profile) *BatchResult {
	results := make([]*JobResult, 0, len(profiles))
	for _, p := range profiles {
		select {
		case <-ctx.Done():
			return &BatchResult{
				Results:   results,
				TotalJobs: len(profiles),
				Completed: len(results),
			}
		default:
		}
		results = append(results, &JobResult{
			Profile: p,
			Tree:    bb.build(p),
		})
	}
	return &BatchResult{
		Results:   results,
		TotalJobs: len(profiles),
		Completed: len(results),
	}
}

func (bb *BatchBuilder) buildParallel(ctx context.Context, profiles []*loader.Profile) *BatchResult {
	workers := bb.workers
	if workers > len(profiles) {
		workers = len(profiles)
	}

	jobs := make(chan int, len(profiles))
	done := make(chan int, len(profiles))
	results := make([]*JobResult, len(profiles))

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				p := profiles[i]
				results[i] = &JobResult{
					Profile: p,
					Tree:    bb.build(p),
				}
				done <- i
			}
		}()
	}

	for i := range profiles {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for range done {
		completed++
	}

	// Cancelled slots stay nil in results; report them as skipped.
	out := make([]*JobResult, 0, len(profiles))
	for i, r := range results {
		if r == nil {
			r = &JobResult{Profile: profiles[i]}
		}
		out = append(out, r)
	}
	return &BatchResult{
		Results:   out,
		TotalJobs: len(profiles),
		Completed: completed,
	}
}
