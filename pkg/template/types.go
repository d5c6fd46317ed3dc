// Package template defines the node model for declarative UI trees.
//
// A template is an ordered list of tagged-union nodes (element, text,
// comment, fragment, slot, conditional, iteration). Nodes are plain data:
// the rendering engine, extensions and dialect backends all operate on the
// shapes defined here.
package template

import "strings"

// Kind discriminates the node union.
type Kind string

const (
	// KindElement is a markup element with a tag, attributes and children.
	KindElement Kind = "element"
	// KindText is a literal text node.
	KindText Kind = "text"
	// KindComment is a literal comment node.
	KindComment Kind = "comment"
	// KindFragment groups children without a wrapping tag.
	KindFragment Kind = "fragment"
	// KindSlot is a named insertion point with an optional fallback.
	KindSlot Kind = "slot"
	// KindIf is a conditional with then/else branches.
	KindIf Kind = "if"
	// KindFor is an iteration over an items expression.
	KindFor Kind = "for"
)

// Attribute is one ordered attribute entry. Value holds a string, float64,
// bool, or a []Declaration when the attribute carries a style object.
type Attribute struct {
	Name  string
	Value any
}

// Declaration is one ordered style declaration. Nested is non-nil for block
// values such as media queries and pseudo selectors; Value is empty then.
type Declaration struct {
	Property string
	Value    string
	Nested   []Declaration
}

// Event describes a handler bound to an element. Handler text is passed
// through verbatim; it is never parsed or evaluated.
type Event struct {
	Name      string
	Handler   string
	Modifiers []string
	Params    []string
}

// Override is a per-extension customization block found on a node, keyed by
// the extension's name. The reserved "ignore" key drops the node and its
// subtree for all remaining extensions. An override only ever adds or
// overwrites node properties by key; it never deletes unrelated properties.
type Override map[string]any

// OverrideIgnoreKey is the reserved override key that omits a node.
const OverrideIgnoreKey = "ignore"

// Ignored reports whether the override block carries ignore: true.
func (o Override) Ignored() bool {
	v, ok := o[OverrideIgnoreKey]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// Node is one unit of the template tree. Only the fields relevant to the
// node's Kind are populated; see the Kind constants for which.
type Node struct {
	Kind Kind

	// Element fields.
	Tag            string
	Attributes     []Attribute
	ExprAttributes []Attribute
	Children       []*Node
	SelfClosing    bool
	Events         []Event
	Styles         []Declaration

	// Overrides holds per-extension customization blocks keyed by
	// extension name.
	Overrides map[string]Override

	// Content is the literal text of text and comment nodes.
	Content string

	// Slot fields.
	Name     string
	Fallback []*Node

	// Conditional fields. Condition is verbatim expression text.
	Condition string
	Then      []*Node
	Else      []*Node

	// Iteration fields. Items and KeyExpr are verbatim expression text.
	Items     string
	ItemName  string
	IndexName string
	KeyExpr   string

	// Meta holds extension-defined properties merged from override blocks
	// whose keys do not map to a declared node field.
	Meta map[string]any

	// ExtClasses are classes contributed by styling extensions during a
	// render pass. They are kept apart from the author's class attribute.
	ExtClasses []string
}

// NewElement creates an element node.
func NewElement(tag string, children ...*Node) *Node {
	return &Node{Kind: KindElement, Tag: tag, Children: children}
}

// NewText creates a text node.
func NewText(content string) *Node {
	return &Node{Kind: KindText, Content: content}
}

// NewComment creates a comment node.
func NewComment(content string) *Node {
	return &Node{Kind: KindComment, Content: content}
}

// NewFragment creates a fragment node.
func NewFragment(children ...*Node) *Node {
	return &Node{Kind: KindFragment, Children: children}
}

// NewSlot creates a slot node with an optional fallback.
func NewSlot(name string, fallback ...*Node) *Node {
	return &Node{Kind: KindSlot, Name: name, Fallback: fallback}
}

// IsElement returns true if this is an element node.
func (n *Node) IsElement() bool { return n.Kind == KindElement }

// IsText returns true if this is a text node.
func (n *Node) IsText() bool { return n.Kind == KindText }

// IsComment returns true if this is a comment node.
func (n *Node) IsComment() bool { return n.Kind == KindComment }

// IsFragment returns true if this is a fragment node.
func (n *Node) IsFragment() bool { return n.Kind == KindFragment }

// IsStructural reports whether the node belongs to the structural skeleton
// (element, text, comment, fragment) rather than a behavioral construct.
func (n *Node) IsStructural() bool {
	switch n.Kind {
	case KindElement, KindText, KindComment, KindFragment:
		return true
	}
	return false
}

// Attr returns the value of the named attribute and whether it is present.
func (n *Node) Attr(name string) (any, bool) {
	for _, a := range n.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// SetAttr overwrites the named attribute in place, appending it when absent.
// Attribute order is preserved for existing names.
func (n *Node) SetAttr(name string, value any) {
	for i, a := range n.Attributes {
		if a.Name == name {
			n.Attributes[i].Value = value
			return
		}
	}
	n.Attributes = append(n.Attributes, Attribute{Name: name, Value: value})
}

// SetExprAttr overwrites the named expression attribute in place, appending
// it when absent.
func (n *Node) SetExprAttr(name string, value any) {
	for i, a := range n.ExprAttributes {
		if a.Name == name {
			n.ExprAttributes[i].Value = value
			return
		}
	}
	n.ExprAttributes = append(n.ExprAttributes, Attribute{Name: name, Value: value})
}

// ClassList returns the author's class attribute split into class names.
func (n *Node) ClassList() []string {
	v, ok := n.Attr("class")
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return strings.Fields(s)
}

// MetaString returns the named Meta entry as a string.
func (n *Node) MetaString(key string) string {
	if n.Meta == nil {
		return ""
	}
	s, _ := n.Meta[key].(string)
	return s
}

// MetaStrings returns the named Meta entry as a string list, accepting both
// a single string and a list value.
func (n *Node) MetaStrings(key string) []string {
	if n.Meta == nil {
		return nil
	}
	switch v := n.Meta[key].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Clone returns a deep copy of the node. The render pipeline clones the
// normalized list before extension application so an engine can be reused
// across renders without extensions mutating the caller's tree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Attributes = cloneAttributes(n.Attributes)
	c.ExprAttributes = cloneAttributes(n.ExprAttributes)
	c.Children = CloneNodes(n.Children)
	c.Fallback = CloneNodes(n.Fallback)
	c.Then = CloneNodes(n.Then)
	c.Else = CloneNodes(n.Else)
	if n.Events != nil {
		c.Events = make([]Event, len(n.Events))
		copy(c.Events, n.Events)
	}
	if n.Styles != nil {
		c.Styles = cloneDeclarations(n.Styles)
	}
	if n.Overrides != nil {
		c.Overrides = make(map[string]Override, len(n.Overrides))
		for k, ov := range n.Overrides {
			dup := make(Override, len(ov))
			for ok, v := range ov {
				dup[ok] = v
			}
			c.Overrides[k] = dup
		}
	}
	if n.Meta != nil {
		c.Meta = make(map[string]any, len(n.Meta))
		for k, v := range n.Meta {
			c.Meta[k] = v
		}
	}
	if n.ExtClasses != nil {
		c.ExtClasses = append([]string(nil), n.ExtClasses...)
	}
	return &c
}

// CloneNodes deep-copies a node list.
func CloneNodes(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Clone())
	}
	return out
}

func cloneAttributes(attrs []Attribute) []Attribute {
	if attrs == nil {
		return nil
	}
	out := make([]Attribute, len(attrs))
	copy(out, attrs)
	for i, a := range attrs {
		if decls, ok := a.Value.([]Declaration); ok {
			out[i].Value = cloneDeclarations(decls)
		}
	}
	return out
}

func cloneDeclarations(decls []Declaration) []Declaration {
	out := make([]Declaration, len(decls))
	copy(out, decls)
	for i, d := range decls {
		if d.Nested != nil {
			out[i].Nested = cloneDeclarations(d.Nested)
		}
	}
	return out
}

// Component carries optional component metadata attached to a template
// document: name, props, verbatim script text, import lines, and
// per-extension component-level overrides.
type Component struct {
	Name      string
	Props     []Prop
	Script    string
	Imports   []string
	Overrides map[string]Override
}

// Prop is one declared component property.
type Prop struct {
	Name     string
	Type     string
	Default  string
	Required bool
}

// Document is a parsed template input: the node list plus optional
// component metadata.
type Document struct {
	Template  []*Node
	Component *Component
}
