package snapshot

import (
	"reflect"
	"strings"
	"testing"

	"github.com/gofhir/profiler/pkg/catalog"
)

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// testCatalog resembles a tiny slice of the R4 base specification.
func testCatalog() catalog.Catalog {
	return catalog.Catalog{
		"Patient": {
			{Name: "id", Type: "string", Short: "Logical id"},
			{Name: "active", Type: "boolean"},
			{Name: "name", Type: "HumanName", Array: true, Short: "A name for the patient"},
			{Name: "extension", Type: "Extension", Array: true},
		},
		"HumanName": {
			{Name: "use", Type: "code"},
			{Name: "family", Type: "string"},
			{Name: "given", Type: "string", Array: true},
			{Name: "period", Type: "Period"},
		},
		"Period": {
			{Name: "start", Type: "dateTime"},
			{Name: "end", Type: "dateTime"},
		},
		"Extension": {
			{Name: "url", Type: "uri", Min: intPtr(1)},
			{Name: "value", Choices: []string{"string", "Quantity"}},
		},
		"Quantity": {
			{Name: "value", Type: "decimal"},
			{Name: "unit", Type: "string"},
		},
		// Identifier references itself through assigner, like R4
		// Reference/Identifier do.
		"Identifier": {
			{Name: "system", Type: "uri"},
			{Name: "assigner", Type: "Identifier"},
		},
	}
}

func findChild(n *ElementNode, name string) *ElementNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestBuildIDsUniqueAndParentDerived(t *testing.T) {
	b := NewBuilder(testCatalog(), nil)
	tree := b.Build("Patient", nil)

	seen := make(map[string]bool)
	var check func(parent *ElementNode)
	check = func(parent *ElementNode) {
		for _, c := range parent.Children {
			if seen[c.ID] {
				t.Errorf("duplicate node id %q", c.ID)
			}
			seen[c.ID] = true
			if want := parent.ID + "/" + c.Name; c.ID != want {
				t.Errorf("node id = %q; want %q", c.ID, want)
			}
			check(c)
		}
	}
	check(tree)

	if len(seen) == 0 {
		t.Fatal("expected a non-empty tree")
	}
}

func TestBuildExpandsComplexTypes(t *testing.T) {
	b := NewBuilder(testCatalog(), nil)
	tree := b.Build("Patient", nil)

	name := findChild(tree, "name")
	if name == nil {
		t.Fatal("Patient/name missing")
	}
	if name.Type != "HumanName" {
		t.Errorf("name.Type = %q; want HumanName", name.Type)
	}
	family := findChild(name, "family")
	if family == nil {
		t.Fatal("Patient/name/family missing")
	}
	period := findChild(name, "period")
	if period == nil || findChild(period, "start") == nil {
		t.Error("nested Period expansion missing")
	}
}

func TestBuildCycleGuardTerminates(t *testing.T) {
	b := NewBuilder(testCatalog(), nil)
	tree := b.Build("Identifier", nil)

	assigner := findChild(tree, "assigner")
	if assigner == nil {
		t.Fatal("Identifier/assigner missing")
	}
	// Second occurrence of Identifier along the branch is a leaf.
	if len(assigner.Children) != 0 {
		t.Errorf("assigner has %d children; want leaf on recursive type", len(assigner.Children))
	}
}

func TestBuildCycleGuardScopedPerBranch(t *testing.T) {
	cat := catalog.Catalog{
		"Root": {
			{Name: "left", Type: "Node"},
			{Name: "right", Type: "Node"},
		},
		"Node": {
			{Name: "value", Type: "string"},
			{Name: "next", Type: "Node"},
		},
	}
	b := NewBuilder(cat, nil)
	tree := b.Build("Root", nil)

	// Both siblings expand; the guard pops on return.
	for _, name := range []string{"left", "right"} {
		n := findChild(tree, name)
		if n == nil || findChild(n, "value") == nil {
			t.Errorf("%s should expand Node once", name)
			continue
		}
		next := findChild(n, "next")
		if next == nil {
			t.Errorf("%s/next missing", name)
			continue
		}
		if len(next.Children) != 0 {
			t.Errorf("%s/next should be a leaf, has %d children", name, len(next.Children))
		}
	}
}

func TestBuildCycleGuardBranchIsolation(t *testing.T) {
	// The left branch pushes Wrapper then Inner onto its ancestor stack;
	// the right branch then expands Inner directly and must not see any
	// entry left over from the deeper sibling.
	cat := catalog.Catalog{
		"Root": {
			{Name: "left", Type: "Wrapper"},
			{Name: "right", Type: "Inner"},
		},
		"Wrapper": {
			{Name: "inner", Type: "Inner"},
		},
		"Inner": {
			{Name: "value", Type: "string"},
		},
	}
	b := NewBuilder(cat, nil)
	tree := b.Build("Root", nil)

	left := findChild(tree, "left")
	if left == nil || findChild(left, "inner") == nil {
		t.Fatal("left branch should expand Wrapper")
	}
	if inner := findChild(left, "inner"); findChild(inner, "value") == nil {
		t.Error("left/inner should expand Inner")
	}

	right := findChild(tree, "right")
	if right == nil {
		t.Fatal("Root/right missing")
	}
	if findChild(right, "value") == nil {
		t.Error("right should expand Inner despite the left branch's deeper stack")
	}
}

func TestBuildUnknownTypeDegradesToLeaf(t *testing.T) {
	cat := catalog.Catalog{
		"Thing": {
			{Name: "mystery", Type: "NotLoaded"},
		},
	}
	b := NewBuilder(cat, nil)
	tree := b.Build("Thing", nil)

	mystery := findChild(tree, "mystery")
	if mystery == nil {
		t.Fatal("mystery field missing")
	}
	if len(mystery.Children) != 0 {
		t.Errorf("unknown type should be a childless leaf, got %d children", len(mystery.Children))
	}
	if mystery.Type != "NotLoaded" {
		t.Errorf("Type = %q; the declared code is kept", mystery.Type)
	}
}

func TestBuildChoiceField(t *testing.T) {
	b := NewBuilder(testCatalog(), nil)
	tree := b.Build("Extension", nil)

	value := findChild(tree, "value")
	if value == nil {
		t.Fatal("Extension/value missing")
	}
	if value.Type != "union" {
		t.Errorf("value.Type = %q; want union", value.Type)
	}
	if len(value.Children) != 2 {
		t.Fatalf("choice with 2 types should yield 2 synthetic children, got %d", len(value.Children))
	}

	vs := findChild(value, "valueString")
	if vs == nil || vs.Type != "string" {
		t.Errorf("valueString = %+v; want string variant", vs)
	}
	vq := findChild(value, "valueQuantity")
	if vq == nil || vq.Type != "Quantity" {
		t.Fatalf("valueQuantity = %+v; want Quantity variant", vq)
	}
	// Synthetic children resolve against the root catalog.
	if findChild(vq, "unit") == nil {
		t.Error("valueQuantity should expand Quantity from the root catalog")
	}
}

func TestBuildSkipsChoiceAliases(t *testing.T) {
	cat := catalog.Catalog{
		"Observation": {
			{Name: "value", Choices: []string{"string", "Quantity"}},
			// Alias of the expanded choice; must not appear twice.
			{Name: "valueString", Type: "string"},
		},
		"Quantity": {
			{Name: "unit", Type: "string"},
		},
	}
	b := NewBuilder(cat, nil)
	tree := b.Build("Observation", nil)

	if len(tree.Children) != 1 {
		t.Fatalf("got %d children; alias field should be skipped", len(tree.Children))
	}
	count := 0
	tree.Walk(func(n *ElementNode) {
		if n.Name == "valueString" {
			count++
		}
	})
	if count != 1 {
		t.Errorf("valueString appears %d times; want once", count)
	}
}

func TestBuildDifferentialOverrides(t *testing.T) {
	diff := &catalog.Element{
		Name: "Patient",
		Elements: []*catalog.Element{
			{
				Name:  "name",
				Min:   intPtr(1),
				Max:   strPtr("1"),
				Short: "Constrained to exactly one name",
			},
			{Name: "customField", Type: "string"},
		},
	}
	b := NewBuilder(testCatalog(), nil)
	tree := b.Build("Patient", diff)

	name := findChild(tree, "name")
	if name.Min != 1 || name.Max != "1" {
		t.Errorf("name cardinality = %d..%s; want 1..1", name.Min, name.Max)
	}
	if name.Description != "Constrained to exactly one name" {
		t.Errorf("Description = %q; differential short should win", name.Description)
	}
	// Differential-only fields append after base-declared fields.
	last := tree.Children[len(tree.Children)-1]
	if last.Name != "customField" {
		t.Errorf("last child = %q; want customField appended", last.Name)
	}
}

func TestBuildCardinalityDefaults(t *testing.T) {
	cat := catalog.Catalog{
		"Sample": {
			{Name: "needed", Type: "string"},
			{Name: "optional", Type: "string"},
			{Name: "many", Type: "string", Array: true},
			{Name: "pinned", Type: "string", Min: intPtr(2), Max: strPtr("5")},
		},
	}
	diff := &catalog.Element{Name: "Sample", Required: []string{"needed"}}
	b := NewBuilder(cat, nil)
	tree := b.Build("Sample", diff)

	tests := []struct {
		name string
		min  int
		max  string
	}{
		{"needed", 1, "1"},
		{"optional", 0, "1"},
		{"many", 0, "*"},
		{"pinned", 2, "5"},
	}
	for _, tt := range tests {
		n := findChild(tree, tt.name)
		if n == nil {
			t.Errorf("%s missing", tt.name)
			continue
		}
		if n.Min != tt.min || n.Max != tt.max {
			t.Errorf("%s = %d..%s; want %d..%s", tt.name, n.Min, n.Max, tt.min, tt.max)
		}
	}
}

func TestBuildDescriptionPriority(t *testing.T) {
	tests := []struct {
		name string
		elem catalog.Element
		want string
	}{
		{"short wins", catalog.Element{Short: "s", Definition: "d", Comment: "c"}, "s"},
		{"definition next", catalog.Element{Definition: "d", Comment: "c"}, "d"},
		{"comment next", catalog.Element{Comment: "c", Requirements: "r"}, "c"},
		{"requirements last", catalog.Element{Requirements: "r"}, "r"},
		{"all empty", catalog.Element{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describe(&tt.elem); got != tt.want {
				t.Errorf("describe() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestBuildIdempotent(t *testing.T) {
	diff := &catalog.Element{
		Name: "Patient",
		Elements: []*catalog.Element{
			{Name: "active", MustSupport: boolPtr(true)},
		},
	}
	b := NewBuilder(testCatalog(), nil)

	first := b.Build("Patient", diff)
	second := b.Build("Patient", diff)

	if !reflect.DeepEqual(first, second) {
		t.Error("repeated builds with identical inputs should be deep-equal")
	}
	if first == second {
		t.Error("each build should produce a fresh tree")
	}
}

func TestBuildUnknownBaseType(t *testing.T) {
	b := NewBuilder(testCatalog(), nil)
	tree := b.Build("Nonexistent", nil)

	if tree == nil {
		t.Fatal("unknown base type should still produce a root")
	}
	if len(tree.Children) != 0 {
		t.Errorf("unknown base type should have no children, got %d", len(tree.Children))
	}
}

func TestBuildFlagsResolved(t *testing.T) {
	cat := catalog.Catalog{
		"Sample": {
			{Name: "flagged", Type: "string", IsModifier: boolPtr(true), IsSummary: boolPtr(true), MustSupport: boolPtr(true)},
			{Name: "plain", Type: "string"},
		},
	}
	b := NewBuilder(cat, nil)
	tree := b.Build("Sample", nil)

	flagged := findChild(tree, "flagged")
	if !flagged.IsModifier || !flagged.IsSummary || !flagged.MustSupport {
		t.Errorf("flags not resolved: %+v", flagged)
	}
	plain := findChild(tree, "plain")
	if plain.IsModifier || plain.IsSummary || plain.MustSupport {
		t.Errorf("absent flags should default to false: %+v", plain)
	}
}

func TestElementNodeWalkAndCount(t *testing.T) {
	b := NewBuilder(testCatalog(), nil)
	tree := b.Build("Period", nil)

	var ids []string
	tree.Walk(func(n *ElementNode) { ids = append(ids, n.ID) })

	want := []string{"Period", "Period/start", "Period/end"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("Walk order = %v; want %v", ids, want)
	}
	if tree.Count() != 3 {
		t.Errorf("Count() = %d; want 3", tree.Count())
	}
	if !strings.HasPrefix(ids[1], ids[0]+"/") {
		t.Error("child ids must extend the parent id")
	}
}
