package fhirprofiler

import "runtime"

// Option configures the profiler engines.
type Option func(*Options)

// Options holds configuration shared by the snapshot builder, the loader
// and the worker pool.
type Options struct {
	// CheckDiscriminators enables FHIRPath well-formedness checks on
	// slicing discriminator paths while building snapshots.
	CheckDiscriminators bool

	// WorkerCount is the number of goroutines used for batch snapshot
	// builds. Zero means runtime.NumCPU().
	WorkerCount int

	// Cache sizes
	DefinitionCacheSize int
	ExpressionCacheSize int
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		CheckDiscriminators: true,
		WorkerCount:         runtime.NumCPU(),
		DefinitionCacheSize: 512,
		ExpressionCacheSize: 256,
	}
}

// WithDiscriminatorChecks enables or disables discriminator checking.
func WithDiscriminatorChecks(enabled bool) Option {
	return func(o *Options) {
		o.CheckDiscriminators = enabled
	}
}

// WithWorkerCount sets the worker count for batch builds.
func WithWorkerCount(n int) Option {
	return func(o *Options) {
		o.WorkerCount = n
	}
}

// WithDefinitionCacheSize sets the converted-definition cache capacity.
func WithDefinitionCacheSize(n int) Option {
	return func(o *Options) {
		o.DefinitionCacheSize = n
	}
}

// WithExpressionCacheSize sets the compiled-expression cache capacity.
func WithExpressionCacheSize(n int) Option {
	return func(o *Options) {
		o.ExpressionCacheSize = n
	}
}

// NewOptions builds Options from defaults plus the given options.
func NewOptions(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}
