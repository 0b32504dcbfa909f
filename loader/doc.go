// Package loader builds authoring catalogs from FHIR R4 StructureDefinitions.
//
// The snapshot builder consumes nested, name-keyed element definitions,
// while StructureDefinitions carry flat, path-keyed element lists. The
// converter nests them: dotted ID segments become the element hierarchy,
// "[x]" segments become choice lists, ":slice" segments fold into the
// parent's slicing declaration, and required children populate the parent's
// required-name list.
//
// The CatalogService aggregates converted base definitions (resources and
// complex types) into one catalog and keeps profile differentials alongside,
// loading from single files, Bundles, or directories. Malformed or foreign
// resources are skipped, never fatal; the profiler is built for incomplete
// specification data.
package loader
