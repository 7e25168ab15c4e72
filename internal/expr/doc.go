// Package expr provides the query expression tree consumed by the sieve
// translation engine.
//
// This package contains the tree, its typed markers and the primitives every
// translation pass shares. It imports nothing internal; catalog and translate
// build on top of it.
//
// CLOSED NODE SET:
//
// Node is a closed set of variants. Every variant implements Accept, which
// calls exactly one method on Visitor. Adding a node kind means adding a
// method to Visitor, which breaks every consumer until it handles the new
// kind:
//
//	type printer struct{ ... }
//	func (p *printer) VisitBinary(n *Binary) { ... }
//	func (p *printer) VisitCall(n *Call)     { ... }
//	// ... one method per kind
//
// Trees are immutable. Rewrite builds new nodes and reuses unchanged
// subtrees.
//
// MARKERS:
//
// Three node kinds never come from a parser. They are attached by the engine
// so later passes recognise meaningful structure without re-deriving it:
//   - PropertyRef: a member access bound to one well-known field
//   - Condition: a comparison awaiting conversion to a filter record
//   - Paging: a Take or Skip call recognised as a count limit or offset
//
// TEXTUAL FORM:
//
// Parse reads the same syntax String prints:
//
//	sensors.Where(s => (s.Name == "ping") || (s.Status == Status.Up)).Take(5)
package expr
