package concept

import (
	"strconv"
	"strings"

	"github.com/loomkit/weft/pkg/template"
)

// Extract walks a normalized template tree and separates it into the
// structural skeleton and the behavioral concept lists.
//
// Every node is assigned a NodeID from its ancestor-index path. Conditional,
// iteration and slot nodes appear in the skeleton as placeholder entries
// carrying only kind and id; their data lives in the concept lists, and
// their content (then/else/children/fallback) is still walked so nested
// concepts and per-element classes reach inner elements.
func Extract(nodes []*template.Node) *ComponentConcept {
	c := &ComponentConcept{
		Styling: StylingConcept{
			InlineStyles:      make(map[NodeID]string),
			PerElementClasses: make(map[NodeID][]string),
			Raw:               make(map[string]any),
		},
		index: make(map[NodeID]*StructuralNode),
	}
	c.Structure = c.extractList(nodes, "")
	return c
}

func (c *ComponentConcept) extractList(nodes []*template.Node, parent NodeID) []*StructuralNode {
	out := make([]*StructuralNode, 0, len(nodes))
	for i, n := range nodes {
		if s := c.extractNode(n, childID(parent, i)); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (c *ComponentConcept) extractNode(n *template.Node, id NodeID) *StructuralNode {
	s := &StructuralNode{ID: id, Kind: n.Kind}

	switch n.Kind {
	case template.KindElement:
		s.Tag = n.Tag
		s.SelfClosing = n.SelfClosing
		c.extractAttributes(n, id)
		c.extractEvents(n, id)
		c.extractStyling(n, id)
		s.Children = c.extractList(n.Children, id)
	case template.KindText, template.KindComment:
		s.Content = n.Content
	case template.KindFragment:
		s.Children = c.extractList(n.Children, id)
	case template.KindSlot:
		c.Slots = append(c.Slots, SlotConcept{
			Name:     n.Name,
			Fallback: c.extractList(n.Fallback, id),
			NodeID:   id,
		})
	case template.KindIf:
		// Then and else children share one running index so ids stay unique
		// under the construct.
		then := make([]*StructuralNode, 0, len(n.Then))
		idx := 0
		for _, child := range n.Then {
			if s := c.extractNode(child, childID(id, idx)); s != nil {
				then = append(then, s)
			}
			idx++
		}
		var els []*StructuralNode
		for _, child := range n.Else {
			if s := c.extractNode(child, childID(id, idx)); s != nil {
				els = append(els, s)
			}
			idx++
		}
		c.Conditionals = append(c.Conditionals, ConditionalConcept{
			Condition: n.Condition,
			Then:      then,
			Else:      els,
			NodeID:    id,
		})
	case template.KindFor:
		c.Iterations = append(c.Iterations, IterationConcept{
			Items:    n.Items,
			Item:     n.ItemName,
			Index:    n.IndexName,
			Key:      n.KeyExpr,
			Children: c.extractList(n.Children, id),
			NodeID:   id,
		})
	default:
		return nil
	}

	c.index[id] = s
	return s
}

func (c *ComponentConcept) extractAttributes(n *template.Node, id NodeID) {
	for _, a := range n.Attributes {
		if _, isStyleObject := a.Value.([]template.Declaration); isStyleObject {
			continue
		}
		c.Attributes = append(c.Attributes, AttributeConcept{
			Name:   a.Name,
			Value:  template.FormatScalar(a.Value),
			NodeID: id,
		})
	}
	for _, a := range n.ExprAttributes {
		if isEventAttribute(a.Name) {
			continue
		}
		c.Attributes = append(c.Attributes, AttributeConcept{
			Name:         a.Name,
			Value:        template.FormatScalar(a.Value),
			IsExpression: true,
			NodeID:       id,
		})
	}
}

// extractEvents collects the element's declared events, plus expression
// attributes named on* which are lifted into events (name without the
// prefix, lowercased).
func (c *ComponentConcept) extractEvents(n *template.Node, id NodeID) {
	for _, ev := range n.Events {
		c.Events = append(c.Events, EventConcept{
			Name:      ev.Name,
			Handler:   ev.Handler,
			Modifiers: ev.Modifiers,
			Params:    ev.Params,
			NodeID:    id,
		})
	}
	for _, a := range n.ExprAttributes {
		if !isEventAttribute(a.Name) {
			continue
		}
		handler, _ := a.Value.(string)
		c.Events = append(c.Events, EventConcept{
			Name:    strings.ToLower(strings.TrimPrefix(a.Name, "on")),
			Handler: handler,
			NodeID:  id,
		})
	}
}

func (c *ComponentConcept) extractStyling(n *template.Node, id NodeID) {
	for _, class := range n.ClassList() {
		c.Styling.StaticClasses = appendUnique(c.Styling.StaticClasses, class)
	}
	for _, a := range n.ExprAttributes {
		if a.Name == "class" {
			if s, ok := a.Value.(string); ok {
				c.Styling.DynamicClasses = appendUnique(c.Styling.DynamicClasses, s)
			}
		}
	}
	if len(n.Styles) > 0 {
		if text := inlineDeclarations(n.Styles); text != "" {
			c.Styling.InlineStyles[id] = text
		}
	}
	if len(n.ExtClasses) > 0 {
		c.Styling.PerElementClasses[id] = append([]string(nil), n.ExtClasses...)
	}
	if raw, ok := n.Meta["styling"]; ok {
		c.Styling.Raw[string(id)] = raw
	}
}

// inlineDeclarations renders the plain (non-pseudo, non-media) declarations
// the same way the style compiler's inline form does.
func inlineDeclarations(decls []template.Declaration) string {
	var parts []string
	for _, d := range decls {
		if d.Nested != nil {
			continue
		}
		parts = append(parts, kebabCase(d.Property)+": "+d.Value)
	}
	return strings.Join(parts, "; ")
}

func kebabCase(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch >= 'A' && ch <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteByte(ch + ('a' - 'A'))
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}

// isEventAttribute reports whether an expression attribute name denotes an
// event binding (onClick, onInput, ...).
func isEventAttribute(name string) bool {
	return len(name) > 2 && strings.HasPrefix(name, "on") && name[2] >= 'A' && name[2] <= 'Z'
}

func appendUnique(list []string, s string) []string {
	for _, e := range list {
		if e == s {
			return list
		}
	}
	return append(list, s)
}

func childID(parent NodeID, index int) NodeID {
	if parent == "" {
		return NodeID(strconv.Itoa(index))
	}
	return parent + NodeID("."+strconv.Itoa(index))
}
