// Package bem is a styling extension that computes block__element--modifier
// class names from per-node override blocks keyed "bem".
//
// A node declares "block", "element", "modifier" (single) or "modifiers"
// (list) in its bem block. Elements inherit their block from the nearest
// ancestor declaring one, resolved by a pure reverse scan of the ancestor
// stack. Computed classes are contributed through the node's extension-class
// list, so they reach both the plain-markup emitter and the styling
// concept's per-element classes.
package bem

import (
	"github.com/loomkit/weft/pkg/template"
)

// Key is the extension key and override-block name.
const Key = "bem"

// Extension implements the bem styling hooks. It holds no per-render state.
type Extension struct{}

// New creates the bem extension.
func New() *Extension { return &Extension{} }

// Key implements weft.Extension.
func (e *Extension) Key() string { return Key }

// OnNodeVisit computes the node's bem classes from its own declaration and
// the nearest enclosing block.
func (e *Extension) OnNodeVisit(node *template.Node, ancestors []*template.Node) {
	block := node.MetaString("block")
	element := node.MetaString("element")
	if block == "" && element == "" {
		return
	}

	base := block
	if element != "" {
		enclosing := block
		if enclosing == "" {
			enclosing = nearestBlock(ancestors)
		}
		if enclosing == "" {
			// An element with no block in scope has no derivable name.
			return
		}
		base = enclosing + "__" + element
	}

	classes := []string{base}
	for _, m := range modifierUnion(node) {
		classes = append(classes, base+"--"+m)
	}
	for _, c := range classes {
		node.ExtClasses = appendUnique(node.ExtClasses, c)
	}
}

// nearestBlock scans the ancestor stack from the inside out for a bem block
// declaration.
func nearestBlock(ancestors []*template.Node) string {
	for i := len(ancestors) - 1; i >= 0; i-- {
		if b := ancestors[i].MetaString("block"); b != "" {
			return b
		}
	}
	return ""
}

// modifierUnion joins the singular "modifier" and plural "modifiers"
// declarations: singular first, then plural entries in declaration order,
// deduplicated.
func modifierUnion(node *template.Node) []string {
	var out []string
	if m := node.MetaString("modifier"); m != "" {
		out = append(out, m)
	}
	for _, m := range node.MetaStrings("modifiers") {
		out = appendUnique(out, m)
	}
	return out
}

func appendUnique(list []string, s string) []string {
	for _, e := range list {
		if e == s {
			return list
		}
	}
	return append(list, s)
}
