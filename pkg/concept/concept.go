// Package concept extracts a dialect-agnostic intermediate representation
// from a normalized template tree: a structural skeleton plus independent
// behavioral concept lists (events, conditionals, iterations, slots,
// attributes, styling).
//
// Dialect backends consume a ComponentConcept and emit framework-specific
// source text; nothing in this package knows about any output dialect.
package concept

import "github.com/loomkit/weft/pkg/template"

// NodeID is a stable path-like key for a node: the ancestor-index chain
// joined by dots, e.g. "0.1.2". Removing or reordering unrelated siblings
// never changes an unaffected node's association with its own concepts,
// only its own position-derived id.
type NodeID string

// StructuralNode is one node of the structural skeleton. Behavioral data
// (attributes, events, constructs) lives in the concept lists, keyed by ID.
type StructuralNode struct {
	ID          NodeID
	Kind        template.Kind
	Tag         string
	Content     string
	SelfClosing bool
	Children    []*StructuralNode
}

// EventConcept is one handler binding, owned by the element it came from.
type EventConcept struct {
	Name      string
	Handler   string
	Modifiers []string
	Params    []string
	NodeID    NodeID
}

// ConditionalConcept carries a conditional construct's own data. Then and
// Else are the construct's child trees in extracted form so their elements
// stay addressable by NodeID.
type ConditionalConcept struct {
	Condition string
	Then      []*StructuralNode
	Else      []*StructuralNode
	NodeID    NodeID
}

// IterationConcept carries an iteration construct's own data.
type IterationConcept struct {
	Items    string
	Item     string
	Index    string
	Key      string
	Children []*StructuralNode
	NodeID   NodeID
}

// SlotConcept carries a slot's name and extracted fallback tree.
type SlotConcept struct {
	Name     string
	Fallback []*StructuralNode
	NodeID   NodeID
}

// AttributeConcept is one attribute of one element. Value is the scalar
// rendered as text; IsExpression marks attributes whose value is bound
// rather than quoted.
type AttributeConcept struct {
	Name         string
	Value        string
	IsExpression bool
	NodeID       NodeID
}

// StylingConcept aggregates the styling view of the component.
type StylingConcept struct {
	// StaticClasses is the union of author class attributes in order of
	// first appearance.
	StaticClasses []string
	// DynamicClasses is the union of expression-bound class attributes.
	DynamicClasses []string
	// InlineStyles maps an element to its plain declarations, joined as
	// inline attribute text.
	InlineStyles map[NodeID]string
	// PerElementClasses maps an element to the ordered classes styling
	// extensions contributed to it (for example BEM).
	PerElementClasses map[NodeID][]string
	// Raw carries per-extension styling data that the generic shape cannot
	// express, keyed by extension name.
	Raw map[string]any
}

// ComponentConcept is the full IR for one render.
type ComponentConcept struct {
	Structure    []*StructuralNode
	Events       []EventConcept
	Conditionals []ConditionalConcept
	Iterations   []IterationConcept
	Slots        []SlotConcept
	Attributes   []AttributeConcept
	Styling      StylingConcept

	index map[NodeID]*StructuralNode
}

// Lookup resolves a NodeID to its structural node, or nil when the referent
// does not exist. Backends must skip a concept whose referent is missing
// rather than fail the render.
func (c *ComponentConcept) Lookup(id NodeID) *StructuralNode {
	return c.index[id]
}

// AttributesFor returns the element's attributes in declaration order.
func (c *ComponentConcept) AttributesFor(id NodeID) []AttributeConcept {
	var out []AttributeConcept
	for _, a := range c.Attributes {
		if a.NodeID == id {
			out = append(out, a)
		}
	}
	return out
}

// EventsFor returns the element's events in declaration order.
func (c *ComponentConcept) EventsFor(id NodeID) []EventConcept {
	var out []EventConcept
	for _, e := range c.Events {
		if e.NodeID == id {
			out = append(out, e)
		}
	}
	return out
}

// ConditionalFor returns the conditional concept owned by the node, if any.
func (c *ComponentConcept) ConditionalFor(id NodeID) *ConditionalConcept {
	for i := range c.Conditionals {
		if c.Conditionals[i].NodeID == id {
			return &c.Conditionals[i]
		}
	}
	return nil
}

// IterationFor returns the iteration concept owned by the node, if any.
func (c *ComponentConcept) IterationFor(id NodeID) *IterationConcept {
	for i := range c.Iterations {
		if c.Iterations[i].NodeID == id {
			return &c.Iterations[i]
		}
	}
	return nil
}

// SlotFor returns the slot concept owned by the node, if any.
func (c *ComponentConcept) SlotFor(id NodeID) *SlotConcept {
	for i := range c.Slots {
		if c.Slots[i].NodeID == id {
			return &c.Slots[i]
		}
	}
	return nil
}
