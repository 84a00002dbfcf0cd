// Package xmp parses embedded XMP packets into an ordered property tree.
package xmp

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// Kind describes the shape of a property node.
type Kind int

const (
	KindSimple Kind = iota
	KindStruct
	KindBag
	KindSeq
	KindAlt
)

func (k Kind) IsArray() bool {
	return k == KindBag || k == KindSeq || k == KindAlt
}

// Node is a property, struct field or array item.
type Node struct {
	Namespace string
	// Name is the qualified name ("dc:subject"). Array items use "[]".
	Name     string
	Value    string
	Kind     Kind
	Lang     string
	Children []*Node
}

// Schema groups the top-level properties of one namespace.
type Schema struct {
	Namespace  string
	Prefix     string
	Properties []*Node
}

// Meta is a parsed XMP packet.
type Meta struct {
	Schemas []*Schema
}

// PropertyInfo is one entry of a pre-order iteration.
type PropertyInfo struct {
	Namespace string
	Path      string
	Value     string
}

var (
	ErrNoSuchProperty = errors.New("xmp: no such property")
	ErrNotAnArray     = errors.New("xmp: property is not an array")
	ErrIndexRange     = errors.New("xmp: array index out of range")
)

func (m *Meta) schema(ns string) *Schema {
	for _, s := range m.Schemas {
		if s.Namespace == ns {
			return s
		}
	}
	return nil
}

func (m *Meta) addProperty(ns, prefix string, n *Node) {
	s := m.schema(ns)
	if s == nil {
		s = &Schema{Namespace: ns, Prefix: prefix}
		m.Schemas = append(m.Schemas, s)
	}
	// a repeated property replaces the earlier one, like a re-set in XMPCore
	for i, p := range s.Properties {
		if p.Name == n.Name {
			s.Properties[i] = n
			return
		}
	}
	s.Properties = append(s.Properties, n)
}

// Sort puts the tree in canonical order: schemas by namespace URI,
// properties and struct fields by name. Array items keep document order.
func (m *Meta) Sort() {
	sort.SliceStable(m.Schemas, func(i, j int) bool {
		return m.Schemas[i].Namespace < m.Schemas[j].Namespace
	})
	for _, s := range m.Schemas {
		sortNodes(s.Properties)
		for _, p := range s.Properties {
			sortChildren(p)
		}
	}
}

func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Name < nodes[j].Name
	})
}

func sortChildren(n *Node) {
	if n.Kind == KindStruct {
		sortNodes(n.Children)
	}
	for _, c := range n.Children {
		sortChildren(c)
	}
}

// Iterate visits every node in pre-order. Schema and container nodes are
// reported with empty values; xml:lang qualifiers are reported as
// "<path>/?xml:lang".
func (m *Meta) Iterate(fn func(PropertyInfo) error) error {
	for _, s := range m.Schemas {
		if err := fn(PropertyInfo{Namespace: s.Namespace}); err != nil {
			return err
		}
		for _, p := range s.Properties {
			if err := iterateNode(s.Namespace, p.Name, p, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func iterateNode(ns, path string, n *Node, fn func(PropertyInfo) error) error {
	if len(path) > maxPathLen {
		return fmt.Errorf("xmp: property path too long at %.40q", path)
	}
	value := ""
	if n.Kind == KindSimple {
		value = n.Value
	}
	if err := fn(PropertyInfo{Namespace: ns, Path: path, Value: value}); err != nil {
		return err
	}
	if n.Lang != "" {
		if err := fn(PropertyInfo{Namespace: NSXML, Path: path + "/?xml:lang", Value: n.Lang}); err != nil {
			return err
		}
	}
	for i, c := range n.Children {
		var child string
		if n.Kind.IsArray() {
			child = path + "[" + strconv.Itoa(i+1) + "]"
		} else {
			child = path + "/" + c.Name
		}
		if err := iterateNode(c.Namespace, child, c, fn); err != nil {
			return err
		}
	}
	return nil
}

const maxPathLen = 4096

// Properties collects a full iteration.
func (m *Meta) Properties() ([]PropertyInfo, error) {
	var out []PropertyInfo
	err := m.Iterate(func(p PropertyInfo) error {
		out = append(out, p)
		return nil
	})
	return out, err
}

// Property returns the top-level property ns:name.
func (m *Meta) Property(ns, name string) (*Node, error) {
	s := m.schema(ns)
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchProperty, name)
	}
	for _, p := range s.Properties {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoSuchProperty, name)
}

// DoesPropertyExist reports whether the top-level property ns:name is set.
// name is qualified ("dc:subject").
func (m *Meta) DoesPropertyExist(ns, name string) bool {
	_, err := m.Property(ns, name)
	return err == nil
}

// CountArrayItems returns the number of items of an array property.
func (m *Meta) CountArrayItems(ns, name string) (int, error) {
	p, err := m.Property(ns, name)
	if err != nil {
		return 0, err
	}
	if !p.Kind.IsArray() {
		return 0, fmt.Errorf("%w: %s", ErrNotAnArray, name)
	}
	return len(p.Children), nil
}

// ArrayItem returns the 1-based item i of an array property.
func (m *Meta) ArrayItem(ns, name string, i int) (*Node, error) {
	p, err := m.Property(ns, name)
	if err != nil {
		return nil, err
	}
	if !p.Kind.IsArray() {
		return nil, fmt.Errorf("%w: %s", ErrNotAnArray, name)
	}
	if i < 1 || i > len(p.Children) {
		return nil, fmt.Errorf("%w: %s[%d]", ErrIndexRange, name, i)
	}
	return p.Children[i-1], nil
}
