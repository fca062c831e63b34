// Package html builds pages as a table of nodes and prints them.
//
// A node is an element or a piece of raw markup. Elements carry a tag,
// attributes in insertion order, optional text, at most one child and a
// next sibling; deeper structure hangs off the child's sibling chain. Nodes
// are addressed by NodeID, so a Document is freed as a whole.
package html
