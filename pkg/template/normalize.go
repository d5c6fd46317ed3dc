package template

import (
	"fmt"
	"sort"
)

// ValidationError records a malformed node shape or another structural
// problem found while normalizing or validating input. Node-shape failures
// are collected, not fatal: the offending node is skipped and its siblings
// still render.
type ValidationError struct {
	// Path locates the node in the input tree, e.g. "1.children.0".
	Path string
	// Reason describes what was wrong with the shape.
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation at %s: %s", e.Path, e.Reason)
}

// Normalize walks the node list recursively (including fallback, then and
// else branches) and makes implicit shapes explicit: a node with a tag and
// no kind becomes an element. Unrecognizable nodes are dropped from the list
// and reported; siblings are unaffected.
//
// Normalize is idempotent: running it over already-normalized input returns
// an equal list and no errors.
func Normalize(nodes []*Node) ([]*Node, []error) {
	var errs []error
	out := normalizeList(nodes, "", &errs)
	return out, errs
}

func normalizeList(nodes []*Node, path string, errs *[]error) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, 0, len(nodes))
	for i, n := range nodes {
		p := joinPath(path, fmt.Sprintf("%d", i))
		if n == nil {
			*errs = append(*errs, &ValidationError{Path: p, Reason: "node is nil"})
			continue
		}
		if !normalizeNode(n, p, errs) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// normalizeNode fixes up one node in place and reports whether it is a
// recognizable template node.
func normalizeNode(n *Node, path string, errs *[]error) bool {
	if n.Kind == "" {
		if n.Tag == "" {
			*errs = append(*errs, &ValidationError{Path: path, Reason: "node has neither a type nor a tag"})
			return false
		}
		n.Kind = KindElement
	}

	switch n.Kind {
	case KindElement:
		if n.Tag == "" {
			*errs = append(*errs, &ValidationError{Path: path, Reason: "element node is missing a tag"})
			return false
		}
		n.Children = normalizeList(n.Children, joinPath(path, "children"), errs)
	case KindText, KindComment:
		// Literal content only; nothing to normalize.
	case KindFragment:
		n.Children = normalizeList(n.Children, joinPath(path, "children"), errs)
	case KindSlot:
		n.Fallback = normalizeList(n.Fallback, joinPath(path, "fallback"), errs)
	case KindIf:
		n.Then = normalizeList(n.Then, joinPath(path, "then"), errs)
		n.Else = normalizeList(n.Else, joinPath(path, "else"), errs)
	case KindFor:
		n.Children = normalizeList(n.Children, joinPath(path, "children"), errs)
	default:
		*errs = append(*errs, &ValidationError{Path: path, Reason: fmt.Sprintf("unknown node type %q", n.Kind)})
		return false
	}
	return true
}

// ApplyOverride shallow-merges an extension's override block onto the node,
// excluding the reserved ignore key. Keys naming a declared node field
// overwrite that field; any other key lands in Meta so extensions can read
// their own configuration off the node. Nothing is ever deleted.
func ApplyOverride(n *Node, ov Override) {
	for key, value := range ov {
		if key == OverrideIgnoreKey {
			continue
		}
		applyOverrideKey(n, key, value)
	}
}

func applyOverrideKey(n *Node, key string, value any) {
	switch key {
	case "tag":
		if s, ok := value.(string); ok {
			n.Tag = s
		}
	case "content":
		if s, ok := value.(string); ok {
			n.Content = s
		}
	case "name":
		if s, ok := value.(string); ok {
			n.Name = s
		}
	case "condition":
		if s, ok := value.(string); ok {
			n.Condition = s
		}
	case "items":
		if s, ok := value.(string); ok {
			n.Items = s
		}
	case "item":
		if s, ok := value.(string); ok {
			n.ItemName = s
		}
	case "index":
		if s, ok := value.(string); ok {
			n.IndexName = s
		}
	case "key":
		if s, ok := value.(string); ok {
			n.KeyExpr = s
		}
	case "selfClosing":
		if b, ok := value.(bool); ok {
			n.SelfClosing = b
		}
	case "attributes":
		mergeAttrMap(n, value, false)
	case "expressionAttributes":
		mergeAttrMap(n, value, true)
	default:
		if n.Meta == nil {
			n.Meta = make(map[string]any)
		}
		n.Meta[key] = value
	}
}

func mergeAttrMap(n *Node, value any, expr bool) {
	m, ok := value.(map[string]any)
	if !ok {
		return
	}
	// Existing attributes keep their position; only genuinely new names are
	// appended, in name order so the merge stays deterministic.
	var added []string
	for name, v := range m {
		if expr {
			if _, exists := exprAttrIndex(n, name); exists {
				n.SetExprAttr(name, v)
				continue
			}
		} else {
			if _, exists := n.Attr(name); exists {
				n.SetAttr(name, v)
				continue
			}
		}
		added = append(added, name)
	}
	sort.Strings(added)
	for _, name := range added {
		if expr {
			n.SetExprAttr(name, m[name])
		} else {
			n.SetAttr(name, m[name])
		}
	}
}

func exprAttrIndex(n *Node, name string) (int, bool) {
	for i, a := range n.ExprAttributes {
		if a.Name == name {
			return i, true
		}
	}
	return 0, false
}
