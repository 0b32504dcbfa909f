// Package discriminator checks slicing discriminator paths for
// well-formedness.
//
// Discriminator paths are FHIRPath expressions relative to the sliced
// element. The profiler never evaluates them against instance data; it
// only compiles them so a profile author gets early feedback on a typo
// instead of a silently dead slice.
package discriminator

import (
	"fmt"
	"strings"

	"github.com/gofhir/fhirpath"

	"github.com/gofhir/profiler/pkg/cache"
)

// $this selects the sliced element itself and is always well formed.
const pathThis = "$this"

// compileResult caches a compile outcome; err is nil for valid paths.
type compileResult struct {
	expr *fhirpath.Expression
	err  error
}

// Checker compiles discriminator paths, caching compiled expressions.
type Checker struct {
	cache *cache.Cache[string, compileResult]
}

// NewChecker creates a Checker with the given expression cache capacity.
func NewChecker(cacheSize int) *Checker {
	return &Checker{
		cache: cache.New[string, compileResult](cacheSize),
	}
}

// Check reports whether the discriminator path is a well-formed FHIRPath
// expression. Empty paths and $this are always valid.
func (c *Checker) Check(path string) error {
	path = strings.TrimSpace(path)
	if path == "" || path == pathThis {
		return nil
	}

	result := c.cache.GetOrSet(path, func() compileResult {
		expr, err := fhirpath.Compile(path)
		if err != nil {
			return compileResult{err: fmt.Errorf("compile discriminator path %q: %w", path, err)}
		}
		return compileResult{expr: expr}
	})
	return result.err
}

// CacheStats returns the expression cache statistics.
func (c *Checker) CacheStats() cache.Stats {
	return c.cache.Stats()
}
