package loader

import (
	"strings"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/profiler/pkg/catalog"
)

// Inline structural type codes. Elements typed as these carry their own
// nested definitions, so the converter leaves Type empty and lets the
// builder expand them inline instead of through the catalog.
var inlineTypes = map[string]bool{
	"BackboneElement": true,
	"Element":         true,
}

// systemTypeMapping maps FHIRPath system type URLs to FHIR primitive type
// codes. StructureDefinitions use these for primitive value elements.
var systemTypeMapping = map[string]string{
	"http://hl7.org/fhirpath/System.String":   "string",
	"http://hl7.org/fhirpath/System.Boolean":  "boolean",
	"http://hl7.org/fhirpath/System.Integer":  "integer",
	"http://hl7.org/fhirpath/System.Decimal":  "decimal",
	"http://hl7.org/fhirpath/System.DateTime": "dateTime",
	"http://hl7.org/fhirpath/System.Time":     "time",
	"http://hl7.org/fhirpath/System.Date":     "date",
}

// R4Converter nests flat R4 element lists into the authoring shape.
type R4Converter struct{}

// NewR4Converter creates a new R4 converter.
func NewR4Converter() *R4Converter {
	return &R4Converter{}
}

// ConvertSnapshot converts a base StructureDefinition's snapshot into the
// ordered element list for its type. Returns nil when there is no snapshot.
func (c *R4Converter) ConvertSnapshot(sd *r4.StructureDefinition) []*catalog.Element {
	if sd == nil || sd.Snapshot == nil {
		return nil
	}
	elems := c.nest(sd.Snapshot.Element)
	populateRequired(elems)
	return elems
}

// ConvertDifferential converts a profile StructureDefinition's differential
// into a sparse element tree rooted at the profile's type. Returns nil when
// there is no differential.
func (c *R4Converter) ConvertDifferential(sd *r4.StructureDefinition) *catalog.Element {
	if sd == nil || sd.Differential == nil {
		return nil
	}
	root := &catalog.Element{Name: derefString(sd.Type)}
	root.Elements = c.nest(sd.Differential.Element)
	return root
}

// nest folds a flat, ID-ordered element list into nested fields. IDs use
// "." for hierarchy, "[x]" for choice fields and ":" for slice names; the
// path is the fallback when an element has no ID.
func (c *R4Converter) nest(elements []r4.ElementDefinition) []*catalog.Element {
	var root []*catalog.Element
	for i := range elements {
		ed := &elements[i]
		id := derefString(ed.Id)
		if id == "" {
			id = derefString(ed.Path)
		}
		segments := strings.Split(id, ".")
		if len(segments) < 2 {
			// Root element; it describes the type itself, not a field.
			continue
		}
		c.insert(&root, segments[1:], ed)
	}
	return root
}

// insert walks/creates the field chain for one element definition.
func (c *R4Converter) insert(fields *[]*catalog.Element, segments []string, ed *r4.ElementDefinition) {
	name, sliceName, isChoice := parseSegment(segments[0])
	if name == "" {
		return
	}

	field := catalog.Find(*fields, name)
	if field == nil {
		field = &catalog.Element{Name: name}
		*fields = append(*fields, field)
	}

	if sliceName != "" {
		if field.Slicing == nil {
			field.Slicing = &catalog.Slicing{}
		}
		slice := findSlice(field.Slicing, sliceName)
		if slice == nil {
			slice = &catalog.Slice{Name: sliceName, Schema: &catalog.Element{Name: name}}
			field.Slicing.Slices = append(field.Slicing.Slices, slice)
		}
		if len(segments) == 1 {
			c.apply(slice.Schema, ed, isChoice)
			return
		}
		c.insert(&slice.Schema.Elements, segments[1:], ed)
		return
	}

	if len(segments) == 1 {
		c.apply(field, ed, isChoice)
		return
	}
	c.insert(&field.Elements, segments[1:], ed)
}

// apply copies one R4 element definition onto the target field. Absent
// source fields leave the target untouched, so differentials stay sparse.
func (c *R4Converter) apply(target *catalog.Element, ed *r4.ElementDefinition, isChoice bool) {
	if isChoice {
		target.Choices = typeCodes(ed.Type)
	} else if code := typeCode(ed.Type); code != "" && !inlineTypes[code] {
		target.Type = code
	}

	if ed.Min != nil {
		minVal := int(*ed.Min)
		target.Min = &minVal
	}
	if ed.Max != nil {
		maxVal := *ed.Max
		target.Max = &maxVal
		if maxVal == "*" {
			target.Array = true
		}
	}
	if ed.IsSummary != nil {
		target.IsSummary = ed.IsSummary
	}
	if ed.IsModifier != nil {
		target.IsModifier = ed.IsModifier
	}
	if ed.MustSupport != nil {
		target.MustSupport = ed.MustSupport
	}

	if s := derefString(ed.Short); s != "" {
		target.Short = s
	}
	if s := derefString(ed.Definition); s != "" {
		target.Definition = s
	}
	if s := derefString(ed.Comment); s != "" {
		target.Comment = s
	}
	if s := derefString(ed.Requirements); s != "" {
		target.Requirements = s
	}

	if ed.Slicing != nil {
		if target.Slicing == nil {
			target.Slicing = &catalog.Slicing{}
		}
		target.Slicing.Discriminators = convertDiscriminators(ed.Slicing.Discriminator)
		if ed.Slicing.Rules != nil {
			target.Slicing.Rules = string(*ed.Slicing.Rules)
		}
	}
}

// parseSegment splits an ID segment into field name, slice name and the
// choice marker: "value[x]" -> ("value", "", true),
// "extension:race" -> ("extension", "race", false).
func parseSegment(segment string) (name, sliceName string, isChoice bool) {
	if idx := strings.IndexByte(segment, ':'); idx >= 0 {
		sliceName = segment[idx+1:]
		segment = segment[:idx]
	}
	if strings.HasSuffix(segment, "[x]") {
		isChoice = true
		segment = strings.TrimSuffix(segment, "[x]")
	}
	return segment, sliceName, isChoice
}

func findSlice(s *catalog.Slicing, name string) *catalog.Slice {
	for _, slice := range s.Slices {
		if slice.Name == name {
			return slice
		}
	}
	return nil
}

// typeCode returns the first type code, mapped through the system type
// table.
func typeCode(types []r4.ElementDefinitionType) string {
	codes := typeCodes(types)
	if len(codes) == 0 {
		return ""
	}
	return codes[0]
}

// typeCodes returns all type codes, mapped through the system type table.
func typeCodes(types []r4.ElementDefinitionType) []string {
	if len(types) == 0 {
		return nil
	}
	codes := make([]string, 0, len(types))
	for i := range types {
		code := derefString(types[i].Code)
		if mapped, ok := systemTypeMapping[code]; ok {
			code = mapped
		}
		if code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

func convertDiscriminators(discriminators []r4.ElementDefinitionSlicingDiscriminator) []catalog.Discriminator {
	if len(discriminators) == 0 {
		return nil
	}
	out := make([]catalog.Discriminator, 0, len(discriminators))
	for i := range discriminators {
		d := &discriminators[i]
		var dtype string
		if d.Type != nil {
			dtype = string(*d.Type)
		}
		out = append(out, catalog.Discriminator{
			Type: dtype,
			Path: derefString(d.Path),
		})
	}
	return out
}

// populateRequired fills each element's Required list with the names of
// children that declare min >= 1.
func populateRequired(elems []*catalog.Element) {
	for _, e := range elems {
		var required []string
		for _, child := range e.Elements {
			if child.Min != nil && *child.Min >= 1 {
				required = append(required, child.Name)
			}
		}
		e.Required = required
		populateRequired(e.Elements)
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
