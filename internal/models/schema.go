package models

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const definitionsPrefix = "#/definitions/"

// Schema is the subset of a Swagger schema the example generator understands
type Schema struct {
	Type        string             `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string             `json:"format,omitempty" yaml:"format,omitempty"`
	Ref         string             `json:"$ref,omitempty" yaml:"$ref,omitempty"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty" yaml:"items,omitempty"`

	// PropertyOrder lists property names as the document declares them
	PropertyOrder []string `json:"propertyOrder,omitempty" yaml:"-"`
}

// UnmarshalYAML decodes a schema and records the declared order of its properties
func (s *Schema) UnmarshalYAML(value *yaml.Node) error {
	type plain Schema
	if err := value.Decode((*plain)(s)); err != nil {
		return err
	}
	s.PropertyOrder = MappingKeys(MappingValue(value, "properties"))
	return nil
}

// PropertyNames returns the declared property order. Names missing from it
// follow in sorted order.
func (s *Schema) PropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	seen := make(map[string]bool, len(s.Properties))
	for _, name := range s.PropertyOrder {
		if _, ok := s.Properties[name]; ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	var rest []string
	for name := range s.Properties {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// MappingValue returns the value node stored under key, nil when node is not a mapping or lacks key
func MappingValue(node *yaml.Node, key string) *yaml.Node {
	node = resolveNode(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return resolveNode(node.Content[i+1])
		}
	}
	return nil
}

// MappingKeys returns the keys of a mapping node in document order
func MappingKeys(node *yaml.Node) []string {
	node = resolveNode(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keys = append(keys, node.Content[i].Value)
	}
	return keys
}

func resolveNode(node *yaml.Node) *yaml.Node {
	for node != nil {
		switch node.Kind {
		case yaml.DocumentNode:
			if len(node.Content) == 0 {
				return nil
			}
			node = node.Content[0]
		case yaml.AliasNode:
			node = node.Alias
		default:
			return node
		}
	}
	return nil
}

// SchemaKind is the resolved shape of a schema
type SchemaKind int

const (
	KindUnknown SchemaKind = iota
	KindRef
	KindInteger
	KindNumber
	KindBoolean
	KindString
	KindFile
	KindArray
	KindObject
)

var kindNames = map[SchemaKind]string{
	KindUnknown: "unknown",
	KindRef:     "ref",
	KindInteger: "integer",
	KindNumber:  "number",
	KindBoolean: "boolean",
	KindString:  "string",
	KindFile:    "file",
	KindArray:   "array",
	KindObject:  "object",
}

func (k SchemaKind) String() string {
	return kindNames[k]
}

// Kind resolves the schema shape. A $ref wins over any type set next to it.
func (s *Schema) Kind() SchemaKind {
	if s == nil {
		return KindUnknown
	}
	if s.Ref != "" {
		return KindRef
	}

	switch s.Type {
	case "integer":
		return KindInteger
	case "number":
		return KindNumber
	case "boolean":
		return KindBoolean
	case "string":
		return KindString
	case "file":
		return KindFile
	case "array":
		return KindArray
	case "object":
		return KindObject
	default:
		return KindUnknown
	}
}

// RefName returns the definition name a $ref points at
func (s *Schema) RefName() string {
	if s == nil {
		return ""
	}
	return strings.Replace(s.Ref, definitionsPrefix, "", 1)
}

// DefinitionRef builds a $ref to a named definition
func DefinitionRef(name string) string {
	return definitionsPrefix + name
}
