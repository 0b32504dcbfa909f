// Package fhirprofiler provides the core engines for FHIR profile authoring.
//
// Two independent pipelines make up the core. The snapshot pipeline merges a
// base type catalog with a sparse profile differential into a fully resolved,
// navigable element tree:
//
//	builder := snapshot.NewBuilder(cat, discriminator.NewChecker(256))
//	tree := builder.Build("Patient", differential)
//
// The browser pipeline maintains a project artifact tree with incremental
// inserts, text-search filtering, and a flattened row view for virtualized
// rendering:
//
//	store := browser.NewStore()
//	store.Load("project", nodes)
//	rows := browser.Project(store.State()).Rows
//
// Both engines are synchronous and in-memory. They never fetch: base
// catalogs and project trees are loaded by collaborators (see the loader
// package) and handed in fully formed.
//
// # Leniency
//
// Incomplete specification data is the norm, not the exception. An unknown
// type reference expands to a childless leaf, a malformed mutation is a
// silent no-op, and a non-matching query yields an empty projection. None of
// these are errors.
package fhirprofiler
