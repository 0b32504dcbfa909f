package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/profiler/pkg/cache"
	"github.com/gofhir/profiler/pkg/catalog"
)

const canonicalBase = "http://hl7.org/fhir/StructureDefinition/"

// Profile is a constraint StructureDefinition in authoring shape.
type Profile struct {
	URL            string
	Name           string
	Type           string
	BaseDefinition string

	// Differential is the sparse override tree, ready for the builder.
	Differential *catalog.Element
}

// CatalogService aggregates base StructureDefinitions into an authoring
// catalog and keeps profile differentials alongside. Conversion is lazy and
// cached: definitions convert on first catalog access.
type CatalogService struct {
	mu        sync.RWMutex
	bases     map[string]*r4.StructureDefinition // type name -> base SD
	profiles  map[string]*Profile                // canonical URL -> profile
	converter *R4Converter
	converted *cache.Cache[string, []*catalog.Element]
}

// NewCatalogService creates an empty service with the given converted-
// definition cache capacity.
func NewCatalogService(cacheSize int) *CatalogService {
	return &CatalogService{
		bases:     make(map[string]*r4.StructureDefinition),
		profiles:  make(map[string]*Profile),
		converter: NewR4Converter(),
		converted: cache.New[string, []*catalog.Element](cacheSize),
	}
}

// LoadStructureDefinition loads one R4 StructureDefinition. Base
// definitions (resources and complex types) feed the catalog; constraint
// definitions are kept as profiles.
func (s *CatalogService) LoadStructureDefinition(sd *r4.StructureDefinition) error {
	if sd == nil {
		return fmt.Errorf("structure definition is nil")
	}

	typeName := derefString(sd.Type)
	url := derefString(sd.Url)

	s.mu.Lock()
	defer s.mu.Unlock()

	if derivation(sd) == "constraint" {
		if url == "" {
			return fmt.Errorf("profile %q has no canonical URL", derefString(sd.Name))
		}
		s.profiles[url] = &Profile{
			URL:            url,
			Name:           derefString(sd.Name),
			Type:           typeName,
			BaseDefinition: derefString(sd.BaseDefinition),
			Differential:   s.converter.ConvertDifferential(sd),
		}
		return nil
	}

	// Only THE base definition for a type feeds the catalog; primitives
	// stay out so they expand as leaves.
	switch kind(sd) {
	case "resource", "complex-type":
		if typeName != "" && isBaseTypeDefinition(url, typeName) {
			s.bases[typeName] = sd
		}
	}
	return nil
}

// Catalog assembles the authoring catalog from the loaded base
// definitions. Snapshot conversion runs once per definition and is cached.
func (s *CatalogService) Catalog() catalog.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cat := make(catalog.Catalog, len(s.bases))
	for typeName, sd := range s.bases {
		sd := sd
		cat[typeName] = s.converted.GetOrSet(typeName, func() []*catalog.Element {
			return s.converter.ConvertSnapshot(sd)
		})
	}
	return cat
}

// Profile returns a loaded profile by canonical URL, or nil.
func (s *CatalogService) Profile(url string) *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profiles[url]
}

// Profiles returns all loaded profiles.
func (s *CatalogService) Profiles() []*Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	return out
}

// BaseCount returns the number of loaded base definitions.
func (s *CatalogService) BaseCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bases)
}

// CacheStats returns the converted-definition cache statistics.
func (s *CatalogService) CacheStats() cache.Stats {
	return s.converted.Stats()
}

// LoadFromJSON loads StructureDefinitions from JSON data, auto-detecting
// Bundle vs single StructureDefinition format.
func (s *CatalogService) LoadFromJSON(data []byte) (int, error) {
	var probe struct {
		ResourceType string `json:"resourceType"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("invalid JSON: %w", err)
	}

	switch probe.ResourceType {
	case "Bundle":
		return s.loadFromBundle(data)
	case "StructureDefinition":
		var sd r4.StructureDefinition
		if err := json.Unmarshal(data, &sd); err != nil {
			return 0, fmt.Errorf("failed to parse StructureDefinition: %w", err)
		}
		if err := s.LoadStructureDefinition(&sd); err != nil {
			return 0, err
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("unsupported resourceType: %s", probe.ResourceType)
	}
}

// LoadFromFile loads StructureDefinitions from a JSON file.
func (s *CatalogService) LoadFromFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return s.LoadFromJSON(data)
}

// loadFromBundle loads all StructureDefinitions from a FHIR Bundle,
// skipping entries that fail to parse.
func (s *CatalogService) loadFromBundle(data []byte) (int, error) {
	var bundle struct {
		ResourceType string `json:"resourceType"`
		Entry        []struct {
			Resource json.RawMessage `json:"resource"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(data, &bundle); err != nil {
		return 0, fmt.Errorf("failed to parse Bundle: %w", err)
	}
	if bundle.ResourceType != "Bundle" {
		return 0, fmt.Errorf("expected Bundle, got %s", bundle.ResourceType)
	}

	count := 0
	for _, entry := range bundle.Entry {
		if entry.Resource == nil {
			continue
		}
		var probe struct {
			ResourceType string `json:"resourceType"`
		}
		if err := json.Unmarshal(entry.Resource, &probe); err != nil {
			continue
		}
		if probe.ResourceType != "StructureDefinition" {
			continue
		}
		var sd r4.StructureDefinition
		if err := json.Unmarshal(entry.Resource, &sd); err != nil {
			continue
		}
		if err := s.LoadStructureDefinition(&sd); err != nil {
			continue
		}
		count++
	}
	return count, nil
}

// LoadFromDirectory loads all JSON files from a directory recursively,
// skipping files that fail to load.
func (s *CatalogService) LoadFromDirectory(dir string) (int, error) {
	total := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		count, err := s.LoadFromFile(path)
		if err != nil {
			return nil
		}
		total += count
		return nil
	})
	return total, err
}

// isBaseTypeDefinition checks if a URL is THE base definition for its
// type, rather than a profile on it.
func isBaseTypeDefinition(url, typeName string) bool {
	if typeName == "" {
		return false
	}
	return url == canonicalBase+typeName
}

func kind(sd *r4.StructureDefinition) string {
	if sd.Kind == nil {
		return ""
	}
	return string(*sd.Kind)
}

func derivation(sd *r4.StructureDefinition) string {
	if sd.Derivation == nil {
		return ""
	}
	return string(*sd.Derivation)
}
