package manifest

import (
	"fmt"
	"strings"
)

// QualifiedName is a '::' separated name such as acme::admin::user.
type QualifiedName []string

func (n QualifiedName) String() string {
	return strings.Join(n, "::")
}

// Attribute is a single key => value pair of a resource record.
type Attribute struct {
	Key   string
	Value Value
	Line  int
}

// RawRecord is one '@type {'name': ...}' declaration, before any filtering.
type RawRecord struct {
	Type       QualifiedName
	Name       string
	Attributes []Attribute
	Line       int
}

// AttributeMap returns the record attributes keyed by name. When a key is
// declared more than once the last declaration wins.
func (r RawRecord) AttributeMap() map[string]Value {
	attrs := make(map[string]Value, len(r.Attributes))
	for _, a := range r.Attributes {
		attrs[a.Key] = a.Value
	}
	return attrs
}

// ClassDeclaration is the single top-level class of a manifest.
type ClassDeclaration struct {
	Name    QualifiedName
	Records []RawRecord
}

// Tree returns a plain representation of the declaration suitable for
// YAML or JSON encoding.
func (c ClassDeclaration) Tree() map[string]any {
	records := make([]map[string]any, 0, len(c.Records))
	for _, r := range c.Records {
		attrs := make([]map[string]any, 0, len(r.Attributes))
		for _, a := range r.Attributes {
			attrs = append(attrs, map[string]any{
				"key":   a.Key,
				"kind":  a.Value.Kind().String(),
				"value": a.Value.Native(),
			})
		}
		records = append(records, map[string]any{
			"type":       r.Type.String(),
			"name":       r.Name,
			"line":       r.Line,
			"attributes": attrs,
		})
	}
	return map[string]any{
		"class":   c.Name.String(),
		"records": records,
	}
}

// String renders the declaration back in manifest syntax.
func (c ClassDeclaration) String() string {
	s := fmt.Sprintf("class %s {\n", c.Name)
	for _, r := range c.Records {
		s += fmt.Sprintf("  @%s {'%s':\n", r.Type, r.Name)
		for _, a := range r.Attributes {
			s += fmt.Sprintf("    %s => %s,\n", a.Key, a.Value)
		}
		s += "  }\n"
	}
	return s + "}\n"
}
