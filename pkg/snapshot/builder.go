package snapshot

import (
	"strings"

	"github.com/gofhir/profiler/pkg/catalog"
	"github.com/gofhir/profiler/pkg/logger"
)

// Extension slot field names. Declared slices on these fields replace the
// field itself rather than producing slice variants.
const (
	fieldExtension         = "extension"
	fieldModifierExtension = "modifierExtension"
)

// typeUnion is the type label for unresolved choice fields.
const typeUnion = "union"

// DiscriminatorChecker reports whether a slicing discriminator path is a
// well-formed expression. Implemented by the discriminator package; nil
// disables checking.
type DiscriminatorChecker interface {
	Check(path string) error
}

// Builder resolves differential snapshots against a base type catalog.
type Builder struct {
	catalog catalog.Catalog
	checker DiscriminatorChecker
	log     *logger.Logger
}

// NewBuilder creates a Builder over the given catalog. The checker may be
// nil.
func NewBuilder(cat catalog.Catalog, checker DiscriminatorChecker) *Builder {
	return &Builder{
		catalog: cat,
		checker: checker,
		log:     logger.Default(),
	}
}

// SetLogger replaces the builder's logger.
func (b *Builder) SetLogger(l *logger.Logger) {
	if l != nil {
		b.log = l
	}
}

// Build merges the differential onto the named base type and returns the
// resolved element tree. The differential may be nil. Identical inputs
// produce deep-equal trees on repeated calls.
func (b *Builder) Build(baseType string, diff *catalog.Element) *ElementNode {
	root := &ElementNode{
		ID:   baseType,
		Name: baseType,
		Type: baseType,
		Min:  1,
		Max:  "1",
	}

	var diffElems []*catalog.Element
	var required []string
	if diff != nil {
		diffElems = diff.Elements
		required = diff.Required
		root.Description = describe(diff)
	}

	base := b.catalog.Elements(baseType)
	stack := []string{baseType}
	root.Children = b.buildChildren(baseType, base, diffElems, required, stack)
	return root
}

// buildChildren walks base-declared field order first, then appends
// differential-only fields, resolving each into zero or more nodes.
// required lists the parent's required child names; stack is the ancestor
// type-stack for the cycle guard.
func (b *Builder) buildChildren(parentID string, base, diff []*catalog.Element, required []string, stack []string) []*ElementNode {
	names := fieldOrder(base, diff)
	if len(names) == 0 {
		return nil
	}

	nodes := make([]*ElementNode, 0, len(names))
	aliases := make(map[string]bool)

	for _, name := range names {
		// Skip aliases of an already-expanded choice field
		// (value + Quantity shadows a later valueQuantity).
		if aliases[name] {
			continue
		}

		merged := catalog.Merge(catalog.Find(base, name), catalog.Find(diff, name))
		if merged == nil {
			continue
		}

		b.checkDiscriminators(parentID, merged)

		if isExtensionSlot(merged) {
			nodes = append(nodes, b.buildExtensionSlices(parentID, merged, stack)...)
			continue
		}

		node := b.buildField(parentID, merged, required, stack)
		nodes = append(nodes, node)

		for _, choice := range merged.Choices {
			aliases[merged.Name+upperFirst(choice)] = true
		}
	}
	return nodes
}

// buildField resolves one ordinary (possibly choice or sliceable) field
// into a node.
func (b *Builder) buildField(parentID string, merged *catalog.Element, required []string, stack []string) *ElementNode {
	node := &ElementNode{
		ID:          parentID + "/" + merged.Name,
		Name:        merged.Name,
		Type:        resolveType(merged),
		Min:         resolveMin(merged, required),
		Max:         resolveMax(merged),
		IsSummary:   deref(merged.IsSummary),
		IsModifier:  deref(merged.IsModifier),
		MustSupport: deref(merged.MustSupport),
		Description: describe(merged),
	}

	node.Children = b.childrenOf(node.ID, merged, stack)

	// Choice fields additionally expand one synthetic child per declared
	// type, resolved against the root catalog rather than the field's
	// merged metadata.
	for _, choice := range merged.Choices {
		variant := &catalog.Element{
			Name: merged.Name + upperFirst(choice),
			Type: choice,
		}
		node.Children = append(node.Children, b.buildField(node.ID, variant, nil, stack))
	}

	if sliced := sliceable(merged); sliced != nil {
		node.SliceVariants = b.buildSliceVariants(node.ID, merged, sliced, stack)
	}
	return node
}

// childrenOf expands the merged element's children: the type's catalog as
// base with the element's nested fields as overrides. A type already on
// the ancestor stack makes the field a childless leaf; an unknown type
// degrades to the nested fields alone.
func (b *Builder) childrenOf(id string, merged *catalog.Element, stack []string) []*ElementNode {
	typeName := merged.Type
	if typeName == "" {
		// Inline backbone element: nested fields are already fully merged.
		return b.buildChildren(id, merged.Elements, nil, merged.Required, stack)
	}
	if onStack(stack, typeName) {
		// Cycle guard: second occurrence along this branch is a leaf.
		return nil
	}

	base := b.catalog.Elements(typeName)
	// Each branch gets its own copy of the ancestor stack, so sibling
	// branches never observe each other's entries.
	branch := make([]string, len(stack)+1)
	copy(branch, stack)
	branch[len(stack)] = typeName
	return b.buildChildren(id, base, merged.Elements, merged.Required, branch)
}

// checkDiscriminators reports malformed discriminator paths at debug
// level. Authoring feedback only; building always continues.
func (b *Builder) checkDiscriminators(parentID string, merged *catalog.Element) {
	if b.checker == nil || merged.Slicing == nil {
		return
	}
	for _, d := range merged.Slicing.Discriminators {
		if err := b.checker.Check(d.Path); err != nil {
			b.log.Debug("invalid discriminator %q on %s/%s: %v", d.Path, parentID, merged.Name, err)
		}
	}
}

// fieldOrder returns base-declared names first, then differential-only
// names in differential order.
func fieldOrder(base, diff []*catalog.Element) []string {
	names := make([]string, 0, len(base)+len(diff))
	for _, e := range base {
		names = append(names, e.Name)
	}
	for _, e := range diff {
		if catalog.Find(base, e.Name) == nil {
			names = append(names, e.Name)
		}
	}
	return names
}

// resolveType returns the concrete type code, or "union" when a choice
// list is declared.
func resolveType(e *catalog.Element) string {
	if len(e.Choices) > 0 {
		return typeUnion
	}
	return e.Type
}

// resolveMin resolves minimum cardinality: explicit override, else 1 when
// the field is required by its parent, else 0.
func resolveMin(e *catalog.Element, required []string) int {
	if e.Min != nil {
		return *e.Min
	}
	for _, name := range required {
		if name == e.Name {
			return 1
		}
	}
	return 0
}

// resolveMax resolves maximum cardinality: explicit override, else "*" for
// repeating elements, else "1".
func resolveMax(e *catalog.Element) string {
	if e.Max != nil {
		return *e.Max
	}
	if e.Array {
		return "*"
	}
	return "1"
}

// describe resolves the display description: short, definition, comment,
// requirements; first non-empty wins.
func describe(e *catalog.Element) string {
	for _, s := range []string{e.Short, e.Definition, e.Comment, e.Requirements} {
		if s != "" {
			return s
		}
	}
	return ""
}

func onStack(stack []string, typeName string) bool {
	for _, t := range stack {
		if t == typeName {
			return true
		}
	}
	return false
}

func deref(b *bool) bool {
	return b != nil && *b
}

// upperFirst capitalizes the first character, mapping primitive type codes
// to their choice suffix form ("string" -> "String").
func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
