package html

import (
	"fmt"
	stdhtml "html"
	"io"
)

// NodeID addresses a node in a Document.
type NodeID int32

// None is the NodeID of an absent node.
const None NodeID = -1

// Attribute is a name/value pair of an element. Flags print without a value.
type Attribute struct {
	Name  string
	Value string
	Flag  bool
}

type node struct {
	tag   string
	text  string
	raw   bool
	attrs []Attribute
	child NodeID
	next  NodeID
}

// Document is a node table.
type Document struct {
	nodes []node
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Len returns the number of nodes in the document.
func (d *Document) Len() int {
	return len(d.nodes)
}

func (d *Document) add(n node) NodeID {
	n.child, n.next = None, None
	d.nodes = append(d.nodes, n)
	return NodeID(len(d.nodes) - 1)
}

func (d *Document) node(id NodeID) *node {
	if id < 0 || int(id) >= len(d.nodes) {
		panic(fmt.Sprintf("html: node %d out of range", id))
	}
	return &d.nodes[id]
}

// Element adds an element with the given text, which is escaped on print.
func (d *Document) Element(tag, text string) NodeID {
	return d.add(node{tag: tag, text: text})
}

// Raw adds markup that is printed verbatim.
func (d *Document) Raw(markup string) NodeID {
	return d.add(node{text: markup, raw: true})
}

// Attr appends an attribute to an element and returns the element.
func (d *Document) Attr(id NodeID, name, value string) NodeID {
	n := d.node(id)
	n.attrs = append(n.attrs, Attribute{Name: name, Value: value})
	return id
}

// Flag appends a valueless attribute to an element and returns the element.
func (d *Document) Flag(id NodeID, name string) NodeID {
	n := d.node(id)
	n.attrs = append(n.attrs, Attribute{Name: name, Flag: true})
	return id
}

// Attrs returns the attributes of a node.
func (d *Document) Attrs(id NodeID) []Attribute {
	return d.node(id).attrs
}

// Child sets the only child of parent and returns the child. A node has at
// most one child; attaching a second one panics.
func (d *Document) Child(parent, child NodeID) NodeID {
	p := d.node(parent)
	if p.raw {
		panic("html: raw markup cannot have children")
	}
	if p.child != None {
		panic(fmt.Sprintf("html: node %d already has a child", parent))
	}
	d.node(child)
	p.child = child
	return child
}

// Sibling sets the node following prev and returns next.
func (d *Document) Sibling(prev, next NodeID) NodeID {
	p := d.node(prev)
	if p.next != None {
		panic(fmt.Sprintf("html: node %d already has a sibling", prev))
	}
	d.node(next)
	p.next = next
	return next
}

// AppendChild adds child after the last child of parent.
func (d *Document) AppendChild(parent, child NodeID) NodeID {
	first := d.node(parent).child
	if first == None {
		return d.Child(parent, child)
	}
	return d.AppendSibling(first, child)
}

// AppendSibling adds next at the end of the sibling chain starting at first.
func (d *Document) AppendSibling(first, next NodeID) NodeID {
	last := first
	for d.node(last).next != None {
		last = d.node(last).next
	}
	return d.Sibling(last, next)
}

var void = map[string]bool{
	"br":    true,
	"hr":    true,
	"img":   true,
	"input": true,
	"link":  true,
	"meta":  true,
}

var inline = map[string]bool{
	"a":      true,
	"b":      true,
	"code":   true,
	"em":     true,
	"i":      true,
	"input":  true,
	"label":  true,
	"span":   true,
	"strong": true,
	"td":     true,
	"th":     true,
	"title":  true,
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) write(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *printer) print(d *Document, id NodeID) {
	for ; id != None && p.err == nil; id = d.node(id).next {
		n := d.node(id)
		if n.raw {
			p.write(n.text)
			continue
		}

		p.write("<" + n.tag)
		for _, attr := range n.attrs {
			if attr.Flag {
				p.write(" " + attr.Name)
				continue
			}
			p.write(" " + attr.Name + `="` + stdhtml.EscapeString(attr.Value) + `"`)
		}
		p.write(">")

		if void[n.tag] {
			if !inline[n.tag] {
				p.write("\n")
			}
			continue
		}

		p.write(stdhtml.EscapeString(n.text))
		if n.child != None {
			p.print(d, n.child)
		}

		p.write("</" + n.tag + ">")
		if !inline[n.tag] {
			p.write("\n")
		}
	}
}

// Print writes root, its descendants and its following siblings to w.
func (d *Document) Print(w io.Writer, root NodeID) error {
	p := &printer{w: w}
	p.print(d, root)
	if p.err != nil {
		return fmt.Errorf("failed to print document: %w", p.err)
	}
	return nil
}
