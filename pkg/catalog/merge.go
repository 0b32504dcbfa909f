package catalog

// Merge applies a sparse differential onto a base element definition and
// returns a new Element. Neither input is mutated.
//
// Differential values win wherever they are set. Nested element lists are
// unioned, not replaced: base fields keep their declared order and are
// merged recursively where the differential constrains them; fields that
// appear only in the differential are appended in differential order.
func Merge(base, diff *Element) *Element {
	if base == nil && diff == nil {
		return nil
	}
	if base == nil {
		return cloneShallow(diff)
	}
	if diff == nil {
		return cloneShallow(base)
	}

	out := cloneShallow(base)
	if diff.Type != "" {
		out.Type = diff.Type
	}
	if diff.Array {
		out.Array = true
	}
	if diff.Min != nil {
		out.Min = diff.Min
	}
	if diff.Max != nil {
		out.Max = diff.Max
	}
	if diff.IsSummary != nil {
		out.IsSummary = diff.IsSummary
	}
	if diff.IsModifier != nil {
		out.IsModifier = diff.IsModifier
	}
	if diff.MustSupport != nil {
		out.MustSupport = diff.MustSupport
	}
	if diff.Short != "" {
		out.Short = diff.Short
	}
	if diff.Definition != "" {
		out.Definition = diff.Definition
	}
	if diff.Comment != "" {
		out.Comment = diff.Comment
	}
	if diff.Requirements != "" {
		out.Requirements = diff.Requirements
	}
	if len(diff.Choices) > 0 {
		out.Choices = diff.Choices
	}
	if diff.Slicing != nil {
		out.Slicing = diff.Slicing
	}
	if len(diff.Required) > 0 {
		out.Required = diff.Required
	}
	out.Elements = MergeElements(base.Elements, diff.Elements)
	return out
}

// MergeElements unions two ordered element lists. Base order first, merged
// recursively where both sides declare a field; differential-only fields
// are appended.
func MergeElements(base, diff []*Element) []*Element {
	if len(base) == 0 && len(diff) == 0 {
		return nil
	}

	out := make([]*Element, 0, len(base)+len(diff))
	for _, b := range base {
		if d := Find(diff, b.Name); d != nil {
			out = append(out, Merge(b, d))
		} else {
			out = append(out, b)
		}
	}
	for _, d := range diff {
		if Find(base, d.Name) == nil {
			out = append(out, d)
		}
	}
	return out
}

// cloneShallow copies the element itself. Nested elements, slices and
// slicing rules are shared; Merge rebuilds the nested list and callers
// treat definitions as immutable.
func cloneShallow(e *Element) *Element {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}
