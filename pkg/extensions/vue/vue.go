// Package vue is a dialect backend that assembles Vue single-file
// components from the extracted concept IR. It is the reference consumer of
// the backend contract: pure per-concept processors plus a RenderComponent
// entry point that composes template, script and style sections.
package vue

import (
	"strings"

	"github.com/loomkit/weft/pkg/concept"
	"github.com/loomkit/weft/pkg/style"
	"github.com/loomkit/weft/pkg/weft"
)

// Key is the extension key.
const Key = "vue"

// Backend renders Vue single-file components. It holds no state between
// renders; everything flows through the arguments.
type Backend struct{}

// New creates the vue backend.
func New() *Backend { return &Backend{} }

// Key implements weft.Extension.
func (b *Backend) Key() string { return Key }

// FileExtension implements weft.DialectBackend.
func (b *Backend) FileExtension(weft.Options) string { return "vue" }

// FormatterParser implements weft.DialectBackend.
func (b *Backend) FormatterParser(weft.Options) string { return "vue" }

// Fragment is dialect syntax derived from one concept list: attribute text
// per owning node plus any import lines the syntax needs.
type Fragment struct {
	Attributes map[concept.NodeID][]string
	Imports    []string
}

// ProcessEvents turns event concepts into @event handler attributes.
func ProcessEvents(events []concept.EventConcept) Fragment {
	f := Fragment{Attributes: make(map[concept.NodeID][]string)}
	for _, ev := range events {
		name := "@" + ev.Name
		for _, m := range ev.Modifiers {
			name += "." + m
		}
		handler := ev.Handler
		if len(ev.Params) > 0 {
			handler += "(" + strings.Join(ev.Params, ", ") + ")"
		}
		f.Attributes[ev.NodeID] = append(f.Attributes[ev.NodeID], name+"=\""+handler+"\"")
	}
	return f
}

// ProcessConditionals returns the v-if attribute for a conditional's then
// branch; the else branch gets v-else at render time.
func ProcessConditionals(conds []concept.ConditionalConcept) Fragment {
	f := Fragment{Attributes: make(map[concept.NodeID][]string)}
	for _, c := range conds {
		f.Attributes[c.NodeID] = append(f.Attributes[c.NodeID], "v-if=\""+c.Condition+"\"")
	}
	return f
}

// ProcessIterations turns iteration concepts into v-for/:key attributes.
func ProcessIterations(iters []concept.IterationConcept) Fragment {
	f := Fragment{Attributes: make(map[concept.NodeID][]string)}
	for _, it := range iters {
		binding := it.Item
		if it.Index != "" {
			binding = "(" + it.Item + ", " + it.Index + ")"
		}
		attrs := []string{"v-for=\"" + binding + " in " + it.Items + "\""}
		if it.Key != "" {
			attrs = append(attrs, ":key=\""+it.Key+"\"")
		}
		f.Attributes[it.NodeID] = append(f.Attributes[it.NodeID], attrs...)
	}
	return f
}

// ProcessSlots renders slot concepts; slots carry no extra imports.
func ProcessSlots(slots []concept.SlotConcept) Fragment {
	return Fragment{Attributes: make(map[concept.NodeID][]string)}
}

// ProcessAttributes turns attribute concepts into plain or bound attribute
// text, in declaration order per element.
func ProcessAttributes(attrs []concept.AttributeConcept) Fragment {
	f := Fragment{Attributes: make(map[concept.NodeID][]string)}
	for _, a := range attrs {
		if a.IsExpression {
			f.Attributes[a.NodeID] = append(f.Attributes[a.NodeID], ":"+a.Name+"=\""+a.Value+"\"")
			continue
		}
		f.Attributes[a.NodeID] = append(f.Attributes[a.NodeID], a.Name+"=\""+a.Value+"\"")
	}
	return f
}

// RenderComponent implements weft.DialectBackend: it assembles the template,
// script and style sections into one single-file component and claims the
// stylesheet so the engine does not duplicate it in a sibling file.
func (b *Backend) RenderComponent(c *concept.ComponentConcept, rc *weft.RenderContext) (string, error) {
	r := &renderer{
		c:            c,
		attributes:   ProcessAttributes(c.Attributes),
		events:       ProcessEvents(c.Events),
		conditionals: ProcessConditionals(c.Conditionals),
		iterations:   ProcessIterations(c.Iterations),
		inlineStyles: rc.Options.StyleFormat == style.FormatInline,
	}

	var out strings.Builder
	out.WriteString("<template>\n")
	for _, n := range c.Structure {
		r.writeNode(&out, n, 1)
	}
	out.WriteString("</template>\n")

	writeScript(&out, rc)

	if rc.Stylesheet != "" {
		out.WriteString("\n<style scoped>\n")
		out.WriteString(rc.Stylesheet)
		out.WriteString("</style>\n")
		rc.StyleHandled = true
	}
	return out.String(), nil
}

type renderer struct {
	c            *concept.ComponentConcept
	attributes   Fragment
	events       Fragment
	conditionals Fragment
	iterations   Fragment
	inlineStyles bool
}

func (r *renderer) writeNode(out *strings.Builder, n *concept.StructuralNode, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n.Kind {
	case "text":
		out.WriteString(indent + n.Content + "\n")
	case "comment":
		out.WriteString(indent + "<!-- " + n.Content + " -->\n")
	case "fragment":
		for _, child := range n.Children {
			r.writeNode(out, child, depth)
		}
	case "element":
		r.writeElement(out, n, depth, nil)
	case "if":
		r.writeConditional(out, n, depth)
	case "for":
		r.writeIteration(out, n, depth)
	case "slot":
		r.writeSlot(out, n, depth)
	}
}

func (r *renderer) writeElement(out *strings.Builder, n *concept.StructuralNode, depth int, extraAttrs []string) {
	indent := strings.Repeat("  ", depth)
	attrs := append([]string(nil), extraAttrs...)
	attrs = append(attrs, r.elementAttrs(n.ID)...)

	open := "<" + n.Tag
	if len(attrs) > 0 {
		open += " " + strings.Join(attrs, " ")
	}

	if len(n.Children) == 0 {
		out.WriteString(indent + open + " />\n")
		return
	}
	out.WriteString(indent + open + ">\n")
	for _, child := range n.Children {
		r.writeNode(out, child, depth+1)
	}
	out.WriteString(indent + "</" + n.Tag + ">\n")
}

// elementAttrs joins static/bound attributes, per-element styling classes,
// event bindings and inline styles for one element id.
func (r *renderer) elementAttrs(id concept.NodeID) []string {
	var attrs []string
	extClasses := r.c.Styling.PerElementClasses[id]
	classWritten := false

	for _, a := range r.attributes.Attributes[id] {
		if strings.HasPrefix(a, "class=\"") && len(extClasses) > 0 {
			merged := strings.TrimSuffix(a, "\"") + " " + strings.Join(extClasses, " ") + "\""
			attrs = append(attrs, merged)
			classWritten = true
			continue
		}
		attrs = append(attrs, a)
	}
	if !classWritten && len(extClasses) > 0 {
		attrs = append(attrs, "class=\""+strings.Join(extClasses, " ")+"\"")
	}
	if r.inlineStyles {
		if inline, ok := r.c.Styling.InlineStyles[id]; ok && inline != "" {
			attrs = append(attrs, "style=\""+inline+"\"")
		}
	}
	attrs = append(attrs, r.events.Attributes[id]...)
	return attrs
}

// writeConditional renders the conditional's branches with v-if/v-else. A
// missing concept referent means the concept is skipped, never a failure.
func (r *renderer) writeConditional(out *strings.Builder, n *concept.StructuralNode, depth int) {
	cond := r.c.ConditionalFor(n.ID)
	if cond == nil {
		return
	}
	directive := "v-if=\"" + cond.Condition + "\""
	if d := r.conditionals.Attributes[n.ID]; len(d) > 0 {
		directive = d[0]
	}
	r.writeBranch(out, cond.Then, directive, depth)
	if len(cond.Else) > 0 {
		r.writeBranch(out, cond.Else, "v-else", depth)
	}
}

// writeBranch attaches the directive to a lone element child, or wraps the
// branch in a directive-carrying template element otherwise.
func (r *renderer) writeBranch(out *strings.Builder, branch []*concept.StructuralNode, directive string, depth int) {
	if len(branch) == 1 && branch[0].Kind == "element" {
		r.writeElement(out, branch[0], depth, []string{directive})
		return
	}
	indent := strings.Repeat("  ", depth)
	out.WriteString(indent + "<template " + directive + ">\n")
	for _, child := range branch {
		r.writeNode(out, child, depth+1)
	}
	out.WriteString(indent + "</template>\n")
}

func (r *renderer) writeIteration(out *strings.Builder, n *concept.StructuralNode, depth int) {
	it := r.c.IterationFor(n.ID)
	if it == nil {
		return
	}
	directives := r.iterations.Attributes[n.ID]
	if len(it.Children) == 1 && it.Children[0].Kind == "element" {
		r.writeElement(out, it.Children[0], depth, directives)
		return
	}
	indent := strings.Repeat("  ", depth)
	out.WriteString(indent + "<template " + strings.Join(directives, " ") + ">\n")
	for _, child := range it.Children {
		r.writeNode(out, child, depth+1)
	}
	out.WriteString(indent + "</template>\n")
}

func (r *renderer) writeSlot(out *strings.Builder, n *concept.StructuralNode, depth int) {
	slot := r.c.SlotFor(n.ID)
	if slot == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	open := "<slot"
	if slot.Name != "" {
		open += " name=\"" + slot.Name + "\""
	}
	if len(slot.Fallback) == 0 {
		out.WriteString(indent + open + " />\n")
		return
	}
	out.WriteString(indent + open + ">\n")
	for _, child := range slot.Fallback {
		r.writeNode(out, child, depth+1)
	}
	out.WriteString(indent + "</slot>\n")
}

// writeScript assembles imports, the component declaration and any verbatim
// script text.
func writeScript(out *strings.Builder, rc *weft.RenderContext) {
	comp := rc.Component
	opts := rc.Options

	out.WriteString("\n<script>\n")
	if comp != nil {
		for _, imp := range comp.Imports {
			out.WriteString(imp + "\n")
		}
		if len(comp.Imports) > 0 {
			out.WriteString("\n")
		}
	}

	name := opts.Name
	if comp != nil && comp.Name != "" {
		name = comp.Name
	}

	out.WriteString("export default {\n")
	if name != "" {
		out.WriteString("  name: '" + name + "',\n")
	}
	if comp != nil && len(comp.Props) > 0 {
		out.WriteString("  props: {\n")
		for _, p := range comp.Props {
			out.WriteString("    " + p.Name + ": { type: " + propType(p.Type))
			if p.Required {
				out.WriteString(", required: true")
			}
			if p.Default != "" {
				out.WriteString(", default: " + p.Default)
			}
			out.WriteString(" },\n")
		}
		out.WriteString("  },\n")
	}
	out.WriteString("}\n")

	if comp != nil && comp.Script != "" {
		out.WriteString("\n" + comp.Script + "\n")
	}
	out.WriteString("</script>\n")
	rc.ScriptHandled = true
}

// propType maps a declared prop type onto a Vue prop constructor.
func propType(t string) string {
	switch strings.ToLower(t) {
	case "number", "float", "int", "integer":
		return "Number"
	case "boolean", "bool":
		return "Boolean"
	case "array":
		return "Array"
	case "object":
		return "Object"
	case "function", "func":
		return "Function"
	default:
		return "String"
	}
}
