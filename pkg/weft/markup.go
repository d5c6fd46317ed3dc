package weft

import (
	"html"
	"strings"

	"github.com/loomkit/weft/pkg/style"
	"github.com/loomkit/weft/pkg/template"
)

// voidElements are markup elements that cannot have children and always
// render self-closing.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// booleanAttributes render as a bare name when true and are omitted when
// false.
var booleanAttributes = map[string]bool{
	"checked":   true,
	"disabled":  true,
	"readonly":  true,
	"required":  true,
	"selected":  true,
	"defer":     true,
	"async":     true,
	"multiple":  true,
	"autofocus": true,
}

// emitMarkup renders a node list as plain markup. Recursion for child nodes
// reuses the merged options and carries the ancestor stack forward; it is a
// direct emission call, not a pipeline run.
func emitMarkup(rc *RenderContext, nodes []*template.Node, ancestors []*template.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		emitNode(rc, &b, n, ancestors)
	}
	return b.String()
}

func emitNode(rc *RenderContext, b *strings.Builder, n *template.Node, ancestors []*template.Node) {
	switch n.Kind {
	case template.KindText:
		b.WriteString(html.EscapeString(n.Content))
	case template.KindComment:
		b.WriteString("<!-- ")
		b.WriteString(n.Content)
		b.WriteString(" -->")
	case template.KindFragment:
		emitChildren(rc, b, n, ancestors)
	case template.KindElement:
		emitElement(rc, b, n, ancestors)
	case template.KindSlot:
		emitSlot(rc, b, n, ancestors)
	case template.KindIf:
		// Condition expressions are verbatim text the plain dialect cannot
		// evaluate; the then branch is the static preview.
		for _, child := range n.Then {
			emitNode(rc, b, child, appendAncestor(ancestors, n))
		}
	case template.KindFor:
		emitChildren(rc, b, n, ancestors)
	}
}

func emitChildren(rc *RenderContext, b *strings.Builder, n *template.Node, ancestors []*template.Node) {
	next := appendAncestor(ancestors, n)
	for _, child := range n.Children {
		emitNode(rc, b, child, next)
	}
}

func emitElement(rc *RenderContext, b *strings.Builder, n *template.Node, ancestors []*template.Node) {
	b.WriteString("<")
	b.WriteString(n.Tag)

	classes := mergedClasses(n)
	classWritten := false

	for _, a := range n.Attributes {
		if a.Name == "class" {
			if len(classes) > 0 {
				writeAttr(b, "class", strings.Join(classes, " "))
			}
			classWritten = true
			continue
		}
		if _, isStyleObject := a.Value.([]template.Declaration); isStyleObject {
			continue
		}
		if bv, ok := a.Value.(bool); ok && booleanAttributes[a.Name] {
			if bv {
				b.WriteString(" ")
				b.WriteString(a.Name)
			}
			continue
		}
		writeAttr(b, a.Name, template.FormatScalar(a.Value))
	}
	if !classWritten && len(classes) > 0 {
		writeAttr(b, "class", strings.Join(classes, " "))
	}

	if rc.Options.StyleFormat == style.FormatInline && rc.styles != nil {
		if inline, ok := rc.styles.InlineStyles(n); ok {
			writeAttr(b, "style", inline)
		}
	}

	formatter := rc.Options.AttributeFormatter
	if formatter == nil {
		formatter = defaultAttributeFormatter
	}
	for _, a := range n.ExprAttributes {
		b.WriteString(" ")
		b.WriteString(formatter(a.Name, template.FormatScalar(a.Value), true))
	}

	if selfClosing(rc.Options, n) {
		b.WriteString(" />")
		return
	}

	b.WriteString(">")
	emitChildren(rc, b, n, ancestors)
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteString(">")
}

// emitSlot applies slot precedence: a matching options.Slots entry replaces
// the slot regardless of any fallback; otherwise the fallback renders;
// otherwise nothing.
func emitSlot(rc *RenderContext, b *strings.Builder, n *template.Node, ancestors []*template.Node) {
	next := appendAncestor(ancestors, n)
	if replacement, ok := rc.Options.Slots[n.Name]; ok {
		for _, child := range replacement {
			emitNode(rc, b, child, next)
		}
		return
	}
	for _, child := range n.Fallback {
		emitNode(rc, b, child, next)
	}
}

// selfClosing implements the self-closing rule: the node's own flag, the
// preferSelfClosingTags option, or a void tag, and in every case no
// children.
func selfClosing(opts Options, n *template.Node) bool {
	if len(n.Children) > 0 {
		return false
	}
	return n.SelfClosing || opts.PreferSelfClosingTags || voidElements[n.Tag]
}

// mergedClasses joins the author's class attribute with extension-contributed
// classes, deduplicated, author classes first.
func mergedClasses(n *template.Node) []string {
	classes := n.ClassList()
	for _, c := range n.ExtClasses {
		found := false
		for _, existing := range classes {
			if existing == c {
				found = true
				break
			}
		}
		if !found {
			classes = append(classes, c)
		}
	}
	return classes
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString("=\"")
	b.WriteString(html.EscapeString(value))
	b.WriteString("\"")
}

// defaultAttributeFormatter renders an expression attribute with its value
// unescaped, since the value is bound text rather than a literal.
func defaultAttributeFormatter(name, value string, _ bool) string {
	return name + "=\"" + value + "\""
}

func appendAncestor(ancestors []*template.Node, n *template.Node) []*template.Node {
	next := make([]*template.Node, len(ancestors)+1)
	copy(next, ancestors)
	next[len(ancestors)] = n
	return next
}
