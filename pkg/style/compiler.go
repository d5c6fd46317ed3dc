// Package style compiles per-node style declarations into a selector tree
// and emits stylesheet text in css, scss or inline form.
package style

import (
	"strings"

	"github.com/loomkit/weft/pkg/template"
)

// Format selects the stylesheet output dialect.
type Format string

const (
	// FormatCSS emits flat rule blocks with sibling pseudo rules and
	// top-level media blocks.
	FormatCSS Format = "css"
	// FormatSCSS emits nested rules: pseudo blocks under &pseudo and media
	// blocks inside the rule they apply to.
	FormatSCSS Format = "scss"
	// FormatInline suppresses primary declarations (retrievable per node via
	// InlineStyles) and emits only the pseudo/media remainder.
	FormatInline Format = "inline"
)

// Compiler accumulates per-node style declarations for one root render.
// The engine constructs a fresh Compiler per render; nothing survives
// between renders.
type Compiler struct {
	rules []*rule
	index map[*template.Node]*rule
}

// rule is one selector's split declaration set.
type rule struct {
	selector string
	plain    []template.Declaration
	pseudos  []block
	medias   []block
}

// block is a nested pseudo or media group under a rule.
type block struct {
	key   string
	decls []template.Declaration
}

// NewCompiler creates an empty style compiler.
func NewCompiler() *Compiler {
	return &Compiler{index: make(map[*template.Node]*rule)}
}

// ProcessNode registers the node's style declarations under a selector
// derived from the node: the first class of its class attribute when
// present, otherwise the tag name. Nodes without declarations are ignored.
func (c *Compiler) ProcessNode(n *template.Node) {
	if n == nil || len(n.Styles) == 0 {
		return
	}
	r := &rule{selector: SelectorFor(n)}
	for _, d := range n.Styles {
		switch {
		case strings.HasPrefix(d.Property, "@media"):
			r.medias = append(r.medias, block{key: d.Property, decls: d.Nested})
		case strings.HasPrefix(d.Property, ":") || strings.HasPrefix(d.Property, "&"):
			r.pseudos = append(r.pseudos, block{key: d.Property, decls: d.Nested})
		default:
			r.plain = append(r.plain, d)
		}
	}
	c.rules = append(c.rules, r)
	c.index[n] = r
}

// SelectorFor derives the selector a node's declarations register under.
func SelectorFor(n *template.Node) string {
	if classes := n.ClassList(); len(classes) > 0 {
		return "." + classes[0]
	}
	return n.Tag
}

// InlineStyles returns the node's non-pseudo, non-media declarations as a
// semicolon-joined, kebab-cased string. ok is false when the node has no
// registered declaration.
func (c *Compiler) InlineStyles(n *template.Node) (string, bool) {
	r, found := c.index[n]
	if !found || len(r.plain) == 0 {
		return "", false
	}
	return declarationText(r.plain), true
}

// HasRules reports whether any declarations were registered this render.
func (c *Compiler) HasRules() bool { return len(c.rules) > 0 }

// GenerateOutput renders every registered declaration set in the given
// format. Rules are emitted in registration order, which follows the
// document order of the render walk.
func (c *Compiler) GenerateOutput(format Format) string {
	switch format {
	case FormatSCSS:
		return c.generateSCSS()
	case FormatInline:
		return c.generateInlineRemainder()
	default:
		return c.generateCSS()
	}
}

func (c *Compiler) generateCSS() string {
	var b strings.Builder
	for _, r := range c.rules {
		if len(r.plain) > 0 {
			writeFlatRule(&b, r.selector, r.plain)
		}
		for _, p := range r.pseudos {
			writeFlatRule(&b, pseudoSelector(r.selector, p.key), flattenPlain(p.decls))
		}
		for _, m := range r.medias {
			b.WriteString(m.key)
			b.WriteString(" {\n")
			writeIndentedRule(&b, "  ", r.selector, flattenPlain(m.decls))
			for _, p := range nestedPseudos(m.decls) {
				writeIndentedRule(&b, "  ", pseudoSelector(r.selector, p.key), flattenPlain(p.decls))
			}
			b.WriteString("}\n")
		}
	}
	return b.String()
}

func (c *Compiler) generateSCSS() string {
	var b strings.Builder
	for _, r := range c.rules {
		b.WriteString(r.selector)
		b.WriteString(" {\n")
		for _, d := range r.plain {
			b.WriteString("  ")
			b.WriteString(kebabCase(d.Property))
			b.WriteString(": ")
			b.WriteString(d.Value)
			b.WriteString(";\n")
		}
		for _, p := range r.pseudos {
			writeNestedBlock(&b, "  ", scssPseudoKey(p.key), p.decls)
		}
		for _, m := range r.medias {
			writeNestedBlock(&b, "  ", m.key, m.decls)
		}
		b.WriteString("}\n")
	}
	return b.String()
}

// generateInlineRemainder emits only what cannot be expressed as inline
// attributes: pseudo and media blocks, in css form.
func (c *Compiler) generateInlineRemainder() string {
	var b strings.Builder
	for _, r := range c.rules {
		for _, p := range r.pseudos {
			writeFlatRule(&b, pseudoSelector(r.selector, p.key), flattenPlain(p.decls))
		}
		for _, m := range r.medias {
			b.WriteString(m.key)
			b.WriteString(" {\n")
			writeIndentedRule(&b, "  ", r.selector, flattenPlain(m.decls))
			b.WriteString("}\n")
		}
	}
	return b.String()
}

// writeNestedBlock emits one scss nested block, recursing into further
// nested groups.
func writeNestedBlock(b *strings.Builder, indent, key string, decls []template.Declaration) {
	b.WriteString(indent)
	b.WriteString(key)
	b.WriteString(" {\n")
	for _, d := range decls {
		if d.Nested != nil {
			writeNestedBlock(b, indent+"  ", scssNestedKey(d.Property), d.Nested)
			continue
		}
		b.WriteString(indent)
		b.WriteString("  ")
		b.WriteString(kebabCase(d.Property))
		b.WriteString(": ")
		b.WriteString(d.Value)
		b.WriteString(";\n")
	}
	b.WriteString(indent)
	b.WriteString("}\n")
}

func writeFlatRule(b *strings.Builder, selector string, decls []template.Declaration) {
	if len(decls) == 0 {
		return
	}
	b.WriteString(selector)
	b.WriteString(" { ")
	b.WriteString(declarationText(decls))
	b.WriteString("; }\n")
}

func writeIndentedRule(b *strings.Builder, indent, selector string, decls []template.Declaration) {
	if len(decls) == 0 {
		return
	}
	b.WriteString(indent)
	b.WriteString(selector)
	b.WriteString(" { ")
	b.WriteString(declarationText(decls))
	b.WriteString("; }\n")
}

// declarationText joins plain declarations as "prop: value; prop: value".
func declarationText(decls []template.Declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		if d.Nested != nil {
			continue
		}
		parts = append(parts, kebabCase(d.Property)+": "+d.Value)
	}
	return strings.Join(parts, "; ")
}

func flattenPlain(decls []template.Declaration) []template.Declaration {
	out := make([]template.Declaration, 0, len(decls))
	for _, d := range decls {
		if d.Nested == nil {
			out = append(out, d)
		}
	}
	return out
}

func nestedPseudos(decls []template.Declaration) []block {
	var out []block
	for _, d := range decls {
		if d.Nested != nil && (strings.HasPrefix(d.Property, ":") || strings.HasPrefix(d.Property, "&")) {
			out = append(out, block{key: d.Property, decls: d.Nested})
		}
	}
	return out
}

// pseudoSelector combines a rule selector with a pseudo key for flat css
// output: ":hover" appends, "&:hover" substitutes the parent.
func pseudoSelector(selector, key string) string {
	if strings.HasPrefix(key, "&") {
		return strings.Replace(key, "&", selector, 1)
	}
	return selector + key
}

func scssPseudoKey(key string) string {
	if strings.HasPrefix(key, "&") {
		return key
	}
	return "&" + key
}

func scssNestedKey(key string) string {
	if strings.HasPrefix(key, ":") {
		return "&" + key
	}
	return key
}

// kebabCase converts camelCase property names to kebab-case. Properties
// already in kebab-case or custom properties pass through unchanged.
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
