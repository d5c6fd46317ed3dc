package template

import (
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// ParseDocument decodes a JSON template document. The input is either a bare
// node array or an object wrapping {"template": [...], "component": {...}}.
//
// Decoding preserves document order for attributes, expression attributes,
// style declarations and override keys, which is what makes repeated renders
// byte-identical. Malformed individual nodes are recorded as validation
// errors and skipped; their siblings still parse.
func ParseDocument(data []byte) (*Document, []error) {
	var errs []error
	root := gjson.ParseBytes(data)

	switch {
	case root.IsArray():
		nodes := parseNodeList(root, "", &errs)
		return &Document{Template: nodes}, errs
	case root.IsObject():
		doc := &Document{}
		if tpl := root.Get("template"); tpl.Exists() {
			if !tpl.IsArray() {
				errs = append(errs, &ValidationError{Path: "template", Reason: "template must be a node array"})
			} else {
				doc.Template = parseNodeList(tpl, "", &errs)
			}
		} else {
			// A single node object is accepted as a one-node template.
			if n := parseNode(root, "", &errs); n != nil {
				doc.Template = []*Node{n}
				return doc, errs
			}
			return doc, errs
		}
		if comp := root.Get("component"); comp.Exists() {
			doc.Component = parseComponent(comp, &errs)
		}
		return doc, errs
	default:
		errs = append(errs, &ValidationError{Path: "", Reason: "input is neither a node array nor a template object"})
		return &Document{}, errs
	}
}

// Parse decodes a JSON node array (or single node object) into a node list.
func Parse(data []byte) ([]*Node, []error) {
	doc, errs := ParseDocument(data)
	return doc.Template, errs
}

func parseNodeList(v gjson.Result, path string, errs *[]error) []*Node {
	var nodes []*Node
	i := 0
	v.ForEach(func(_, item gjson.Result) bool {
		p := joinPath(path, strconv.Itoa(i))
		if n := parseNode(item, p, errs); n != nil {
			nodes = append(nodes, n)
		}
		i++
		return true
	})
	return nodes
}

func parseNode(v gjson.Result, path string, errs *[]error) *Node {
	if !v.IsObject() {
		*errs = append(*errs, &ValidationError{Path: path, Reason: fmt.Sprintf("node must be an object, got %s", v.Type)})
		return nil
	}

	kind := Kind(v.Get("type").String())
	if kind == "" {
		if v.Get("tag").Exists() {
			kind = KindElement
		} else {
			*errs = append(*errs, &ValidationError{Path: path, Reason: "node has neither a type nor a tag"})
			return nil
		}
	}

	n := &Node{Kind: kind}

	switch kind {
	case KindElement:
		n.Tag = v.Get("tag").String()
		if n.Tag == "" {
			*errs = append(*errs, &ValidationError{Path: path, Reason: "element node is missing a tag"})
			return nil
		}
		n.Attributes = parseAttributes(v.Get("attributes"))
		n.ExprAttributes = parseAttributes(v.Get("expressionAttributes"))
		n.SelfClosing = v.Get("selfClosing").Bool()
		n.Events = parseEvents(v.Get("events"))
		n.Styles = parseStyleSource(v)
		n.Children = parseNodeList(v.Get("children"), joinPath(path, "children"), errs)
	case KindText, KindComment:
		n.Content = v.Get("content").String()
	case KindFragment:
		n.Children = parseNodeList(v.Get("children"), joinPath(path, "children"), errs)
	case KindSlot:
		n.Name = v.Get("name").String()
		n.Fallback = parseNodeList(v.Get("fallback"), joinPath(path, "fallback"), errs)
	case KindIf:
		n.Condition = v.Get("condition").String()
		n.Then = parseNodeList(v.Get("then"), joinPath(path, "then"), errs)
		if e := v.Get("else"); e.Exists() {
			n.Else = parseNodeList(e, joinPath(path, "else"), errs)
		}
	case KindFor:
		n.Items = v.Get("items").String()
		n.ItemName = v.Get("item").String()
		n.IndexName = v.Get("index").String()
		n.KeyExpr = v.Get("key").String()
		n.Children = parseNodeList(v.Get("children"), joinPath(path, "children"), errs)
	default:
		*errs = append(*errs, &ValidationError{Path: path, Reason: fmt.Sprintf("unknown node type %q", kind)})
		return nil
	}

	if ov := v.Get("overrides"); ov.IsObject() {
		n.Overrides = parseOverrides(ov)
	}

	return n
}

func parseAttributes(v gjson.Result) []Attribute {
	if !v.IsObject() {
		return nil
	}
	var attrs []Attribute
	v.ForEach(func(key, val gjson.Result) bool {
		attrs = append(attrs, Attribute{Name: key.String(), Value: attrValue(val)})
		return true
	})
	return attrs
}

// attrValue maps a JSON attribute value onto the node model: scalars stay
// scalars, object values become ordered style declarations.
func attrValue(v gjson.Result) any {
	switch v.Type {
	case gjson.String:
		return v.String()
	case gjson.Number:
		return v.Float()
	case gjson.True:
		return true
	case gjson.False:
		return false
	default:
		if v.IsObject() {
			return parseDeclarations(v)
		}
		return v.String()
	}
}

// parseStyleSource reads the node's style declarations from its "styles" key
// or from an object-valued "style" attribute, whichever is present.
func parseStyleSource(v gjson.Result) []Declaration {
	if s := v.Get("styles"); s.IsObject() {
		return parseDeclarations(s)
	}
	if s := v.Get("attributes.style"); s.IsObject() {
		return parseDeclarations(s)
	}
	return nil
}

func parseDeclarations(v gjson.Result) []Declaration {
	var decls []Declaration
	v.ForEach(func(key, val gjson.Result) bool {
		d := Declaration{Property: key.String()}
		if val.IsObject() {
			d.Nested = parseDeclarations(val)
		} else {
			d.Value = scalarString(val)
		}
		decls = append(decls, d)
		return true
	})
	return decls
}

func parseEvents(v gjson.Result) []Event {
	if !v.Exists() {
		return nil
	}
	var events []Event
	collect := func(name string, item gjson.Result) {
		ev := Event{Name: name}
		if item.IsObject() {
			ev.Handler = item.Get("handler").String()
			ev.Modifiers = stringList(item.Get("modifiers"))
			ev.Params = stringList(item.Get("params"))
		} else {
			ev.Handler = item.String()
		}
		events = append(events, ev)
	}
	if v.IsArray() {
		v.ForEach(func(_, item gjson.Result) bool {
			collect(item.Get("name").String(), item)
			return true
		})
		return events
	}
	if v.IsObject() {
		v.ForEach(func(key, item gjson.Result) bool {
			collect(key.String(), item)
			return true
		})
	}
	return events
}

func parseOverrides(v gjson.Result) map[string]Override {
	out := make(map[string]Override)
	v.ForEach(func(key, block gjson.Result) bool {
		if !block.IsObject() {
			return true
		}
		ov := make(Override)
		block.ForEach(func(k, val gjson.Result) bool {
			ov[k.String()] = jsonValue(val)
			return true
		})
		out[key.String()] = ov
		return true
	})
	return out
}

func parseComponent(v gjson.Result, errs *[]error) *Component {
	c := &Component{
		Name:   v.Get("name").String(),
		Script: v.Get("script").String(),
	}
	c.Imports = stringList(v.Get("imports"))
	if props := v.Get("props"); props.IsObject() {
		props.ForEach(func(key, val gjson.Result) bool {
			p := Prop{Name: key.String()}
			if val.IsObject() {
				p.Type = val.Get("type").String()
				p.Default = scalarString(val.Get("default"))
				p.Required = val.Get("required").Bool()
			} else {
				p.Type = val.String()
			}
			c.Props = append(c.Props, p)
			return true
		})
	} else if props.Exists() {
		*errs = append(*errs, &ValidationError{Path: "component.props", Reason: "props must be an object"})
	}
	if ov := v.Get("overrides"); ov.IsObject() {
		c.Overrides = parseOverrides(ov)
	}
	return c
}

func jsonValue(v gjson.Result) any {
	switch v.Type {
	case gjson.String:
		return v.String()
	case gjson.Number:
		return v.Float()
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Null:
		return nil
	default:
		return v.Value()
	}
}

func stringList(v gjson.Result) []string {
	if !v.Exists() {
		return nil
	}
	if v.Type == gjson.String {
		return []string{v.String()}
	}
	var out []string
	v.ForEach(func(_, item gjson.Result) bool {
		out = append(out, item.String())
		return true
	})
	return out
}

// scalarString renders a scalar JSON value as attribute text. Numbers drop a
// trailing ".0" so {"tabindex": 1} round-trips as "1".
func scalarString(v gjson.Result) string {
	if !v.Exists() {
		return ""
	}
	if v.Type == gjson.Number {
		return FormatScalar(v.Float())
	}
	return v.String()
}

// FormatScalar renders an attribute value as text the way the emitters do:
// floats print without an exponent and without a trailing ".0".
func FormatScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func joinPath(base, seg string) string {
	if base == "" {
		return seg
	}
	return base + "." + seg
}
