package xmp

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const maxDepth = 256

var ErrNoRDF = errors.New("xmp: no rdf:RDF element")

type element struct {
	name     xml.Name
	attrs    []xml.Attr
	children []*element
	text     strings.Builder
}

func (e *element) attr(space, local string) (string, bool) {
	for _, a := range e.attrs {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func isRDF(n xml.Name, local string) bool {
	return n.Space == NSRDF && n.Local == local
}

// Parse decodes an XMP packet (RDF/XML, optionally wrapped in x:xmpmeta and
// xpacket processing instructions).
func Parse(data []byte) (*Meta, error) {
	root, prefixes, err := buildTree(data)
	if err != nil {
		return nil, err
	}
	rdf := findRDF(root)
	if rdf == nil {
		return nil, ErrNoRDF
	}

	p := &parser{prefixes: prefixes, meta: &Meta{}}
	for _, d := range rdf.children {
		p.description(d)
	}
	return p.meta, nil
}

func buildTree(data []byte) (*element, *prefixTable, error) {
	prefixes := newPrefixTable()
	dec := xml.NewDecoder(bytes.NewReader(data))
	root := &element{}
	stack := []*element{root}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("xmp: malformed packet: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) > maxDepth {
				return nil, nil, fmt.Errorf("xmp: nesting deeper than %d", maxDepth)
			}
			el := &element{name: t.Name, attrs: append([]xml.Attr(nil), t.Attr...)}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" {
					prefixes.declare(a.Name.Local, a.Value)
				}
			}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, el)
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			stack[len(stack)-1].text.WriteString(string(t))
		}
	}
	if len(stack) != 1 {
		return nil, nil, errors.New("xmp: unexpected end of packet")
	}
	return root, prefixes, nil
}

func findRDF(el *element) *element {
	if isRDF(el.name, "RDF") {
		return el
	}
	for _, c := range el.children {
		if r := findRDF(c); r != nil {
			return r
		}
	}
	return nil
}

type parser struct {
	prefixes *prefixTable
	meta     *Meta
}

func (p *parser) qualify(n xml.Name) string {
	return p.prefixes.qualify(n.Space, n.Local)
}

// isPropertyAttr filters out rdf:*, xml:* and namespace declarations.
func isPropertyAttr(a xml.Attr) bool {
	switch a.Name.Space {
	case "", "xmlns", NSRDF, NSXML:
		return false
	}
	return true
}

func (p *parser) add(n *Node) {
	p.meta.addProperty(n.Namespace, p.prefixes.prefix(n.Namespace), n)
}

func (p *parser) description(d *element) {
	for _, a := range d.attrs {
		if !isPropertyAttr(a) {
			continue
		}
		p.add(&Node{Namespace: a.Name.Space, Name: p.qualify(a.Name), Value: a.Value})
	}
	for _, c := range d.children {
		if c.name.Space == "" {
			continue
		}
		p.add(p.property(c))
	}
}

func (p *parser) property(el *element) *Node {
	n := &Node{Namespace: el.name.Space, Name: p.qualify(el.name)}
	p.fill(n, el)
	return n
}

func (p *parser) fill(n *Node, el *element) {
	if lang, ok := el.attr(NSXML, "lang"); ok {
		n.Lang = lang
	}

	if pt, ok := el.attr(NSRDF, "parseType"); ok && pt == "Resource" {
		n.Kind = KindStruct
		p.structFields(n, el)
		return
	}
	if res, ok := el.attr(NSRDF, "resource"); ok {
		n.Value = res
		return
	}

	for _, c := range el.children {
		switch {
		case isRDF(c.name, "Bag"):
			p.arrayItems(n, KindBag, c)
			return
		case isRDF(c.name, "Seq"):
			p.arrayItems(n, KindSeq, c)
			return
		case isRDF(c.name, "Alt"):
			p.arrayItems(n, KindAlt, c)
			return
		case isRDF(c.name, "Description"):
			n.Kind = KindStruct
			p.structFields(n, c)
			return
		}
	}

	if len(el.children) > 0 {
		n.Kind = KindStruct
		p.structFields(n, el)
		return
	}
	for _, a := range el.attrs {
		if isPropertyAttr(a) {
			n.Kind = KindStruct
			p.structFields(n, el)
			return
		}
	}
	n.Value = el.text.String()
}

func (p *parser) structFields(n *Node, el *element) {
	for _, a := range el.attrs {
		if !isPropertyAttr(a) {
			continue
		}
		n.Children = append(n.Children, &Node{Namespace: a.Name.Space, Name: p.qualify(a.Name), Value: a.Value})
	}
	for _, c := range el.children {
		if c.name.Space == "" || c.name.Space == NSRDF {
			continue
		}
		n.Children = append(n.Children, p.property(c))
	}
}

func (p *parser) arrayItems(n *Node, kind Kind, container *element) {
	n.Kind = kind
	for _, li := range container.children {
		if !isRDF(li.name, "li") {
			continue
		}
		item := &Node{Namespace: n.Namespace, Name: "[]"}
		p.fill(item, li)
		n.Children = append(n.Children, item)
	}
}
