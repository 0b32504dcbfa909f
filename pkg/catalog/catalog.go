// Package catalog defines the authoring-shape element definition model and
// the type catalog consumed by the snapshot builder.
//
// The model is deliberately lenient: every field except Name is optional,
// and the same Element struct serves both as a fully specified base
// definition and as a sparse differential override. Merge applies a
// differential onto a base field by field, so the builder never enumerates
// fields at runtime.
package catalog

// Element is one element definition in authoring shape. In a base catalog
// most fields are populated; in a differential only the constrained fields
// are set.
type Element struct {
	// Name is the field name within its parent (e.g. "status", "extension").
	Name string

	// Type is the element's type code (e.g. "HumanName", "string"). Empty
	// for inline backbone elements and choice fields.
	Type string

	// Array hints that the element repeats.
	Array bool

	// Min and Max are explicit cardinality overrides. When nil, defaults
	// apply: min 1 if the name is in the parent's Required list else 0,
	// max "*" if Array else "1".
	Min *int
	Max *string

	// Flags. Pointers so a differential can override in either direction.
	IsSummary   *bool
	IsModifier  *bool
	MustSupport *bool

	// Descriptive text. Resolution order: Short, Definition, Comment,
	// Requirements; first non-empty wins.
	Short        string
	Definition   string
	Comment      string
	Requirements string

	// Elements are the ordered nested field definitions. For base
	// definitions this is the declared order; differential-only fields are
	// appended on merge.
	Elements []*Element

	// Choices lists the allowed type codes for a choice ([x]) field.
	Choices []string

	// Slicing declares named slices for a repeating element.
	Slicing *Slicing

	// Required lists the names of child fields with implicit min 1.
	Required []string
}

// Slicing declares how a repeating element is split into named slices.
type Slicing struct {
	Discriminators []Discriminator
	Rules          string // open | closed | openAtEnd
	Slices         []*Slice
}

// Discriminator defines how instances are matched to slices.
type Discriminator struct {
	Type string // value | exists | pattern | type | profile
	Path string // FHIRPath relative to the sliced element
}

// Slice is one named slice with its constraining schema.
type Slice struct {
	Name   string
	Schema *Element
}

// Catalog maps a complex or backbone type name to its ordered element
// definitions. It is static input to the snapshot builder, supplied fully
// formed by a loader.
type Catalog map[string][]*Element

// Elements returns the element list for a type name. Unknown types yield
// nil; the builder treats that as a childless leaf.
func (c Catalog) Elements(typeName string) []*Element {
	if c == nil {
		return nil
	}
	return c[typeName]
}

// Find returns the element named name from elems, or nil.
func Find(elems []*Element, name string) *Element {
	for _, e := range elems {
		if e.Name == name {
			return e
		}
	}
	return nil
}
