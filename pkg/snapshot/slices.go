package snapshot

import "github.com/gofhir/profiler/pkg/catalog"

// typeExtension is the default type for extension slot slices.
const typeExtension = "Extension"

// isExtensionSlot reports whether the merged element is an extension slot
// with declared slices. Such a slot is replaced by one node per slice and
// no unsliced sibling is emitted.
func isExtensionSlot(e *catalog.Element) bool {
	if e.Name != fieldExtension && e.Name != fieldModifierExtension {
		return false
	}
	return e.Slicing != nil && len(e.Slicing.Slices) > 0
}

// sliceable returns the slicing declaration for a non-extension sliceable
// field with named slices, or nil.
func sliceable(e *catalog.Element) *catalog.Slicing {
	if e.Name == fieldExtension || e.Name == fieldModifierExtension {
		return nil
	}
	if e.Slicing == nil || len(e.Slicing.Slices) == 0 {
		return nil
	}
	return e.Slicing
}

// buildExtensionSlices emits one node per declared slice of an extension
// slot. Each slice's schema is merged onto the slot's merged metadata, so
// slice-level cardinality overrides the field's, and the slice recurses
// with the slot's own type catalog as base.
func (b *Builder) buildExtensionSlices(parentID string, merged *catalog.Element, stack []string) []*ElementNode {
	slices := merged.Slicing.Slices
	nodes := make([]*ElementNode, 0, len(slices))

	for _, s := range slices {
		sliceMerged := catalog.Merge(merged, s.Schema)
		sliceMerged.Slicing = nil
		if sliceMerged.Type == "" {
			sliceMerged.Type = typeExtension
		}

		node := &ElementNode{
			ID:          parentID + "/" + s.Name,
			Name:        s.Name,
			Type:        sliceMerged.Type,
			Min:         resolveMin(sliceMerged, nil),
			Max:         resolveMax(sliceMerged),
			IsSummary:   deref(sliceMerged.IsSummary),
			IsModifier:  deref(sliceMerged.IsModifier),
			MustSupport: deref(sliceMerged.MustSupport),
			Description: describe(sliceMerged),
		}
		node.Children = b.childrenOf(node.ID, sliceMerged, stack)
		nodes = append(nodes, node)
	}
	return nodes
}

// buildSliceVariants computes the parallel alternate child subtrees for a
// non-extension sliceable field. The default children are left untouched;
// each variant rebuilds them seeded from that slice's schema override.
func (b *Builder) buildSliceVariants(id string, merged *catalog.Element, slicing *catalog.Slicing, stack []string) []SliceVariant {
	variants := make([]SliceVariant, 0, len(slicing.Slices))

	for _, s := range slicing.Slices {
		variantMerged := catalog.Merge(merged, s.Schema)
		variantMerged.Slicing = nil
		variants = append(variants, SliceVariant{
			Name:     s.Name,
			Children: b.childrenOf(id, variantMerged, stack),
		})
	}
	return variants
}
