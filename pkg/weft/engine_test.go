package weft

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomkit/weft/pkg/concept"
	"github.com/loomkit/weft/pkg/style"
	"github.com/loomkit/weft/pkg/template"
)

// stubExtension implements selected hooks through optional function fields.
type stubExtension struct {
	key         string
	options     func(defaults, user Options) Options
	node        func(n *template.Node, ancestors []*template.Node) (*template.Node, error)
	visit       func(n *template.Node, ancestors []*template.Node)
	root        func(text string, opts Options, rc *RootContext) (string, error)
	output      func(text string, opts Options) (string, error)
	before      func(nodes []*template.Node, opts Options) error
	after       func(nodes []*template.Node, opts Options) error
	beforeCalls int
	afterCalls  int
}

func (s *stubExtension) Key() string { return s.key }

func (s *stubExtension) HandleOptions(defaults, user Options) Options {
	if s.options == nil {
		return defaults
	}
	return s.options(defaults, user)
}

func (s *stubExtension) HandleNode(n *template.Node, ancestors []*template.Node) (*template.Node, error) {
	if s.node == nil {
		return n, nil
	}
	return s.node(n, ancestors)
}

func (s *stubExtension) OnNodeVisit(n *template.Node, ancestors []*template.Node) {
	if s.visit != nil {
		s.visit(n, ancestors)
	}
}

func (s *stubExtension) HandleRoot(text string, opts Options, rc *RootContext) (string, error) {
	if s.root == nil {
		return text, nil
	}
	return s.root(text, opts, rc)
}

func (s *stubExtension) TransformOutput(text string, opts Options) (string, error) {
	if s.output == nil {
		return text, nil
	}
	return s.output(text, opts)
}

func (s *stubExtension) BeforeRender(nodes []*template.Node, opts Options) error {
	s.beforeCalls++
	if s.before == nil {
		return nil
	}
	return s.before(nodes, opts)
}

func (s *stubExtension) AfterRender(nodes []*template.Node, opts Options) error {
	s.afterCalls++
	if s.after == nil {
		return nil
	}
	return s.after(nodes, opts)
}

func mustRender(t *testing.T, e *Engine, input any, opts Options) *Result {
	t.Helper()
	result, err := e.Render(context.Background(), input, opts)
	require.NoError(t, err)
	return result
}

func TestRender_PlainMarkupExample(t *testing.T) {
	input := `[{"tag":"div","attributes":{"class":"container"},"children":[{"type":"text","content":"Hi"}]}]`

	result := mustRender(t, New(), input, Options{})
	assert.Equal(t, `<div class="container">Hi</div>`, result.Text)
	assert.Empty(t, result.Errors)
}

func TestRender_Deterministic(t *testing.T) {
	input := `[{"tag":"ul","attributes":{"class":"list","id":"main"},"children":[
		{"tag":"li","children":[{"type":"text","content":"one"}]},
		{"tag":"li","children":[{"type":"text","content":"two"}]}
	]}]`

	e := New()
	first := mustRender(t, e, input, Options{})
	for i := 0; i < 5; i++ {
		again := mustRender(t, e, input, Options{})
		require.Equal(t, first.Text, again.Text)
		require.Equal(t, first.Stylesheet, again.Stylesheet)
	}
}

func TestRender_SelfClosingRule(t *testing.T) {
	tests := []struct {
		name string
		node *template.Node
		opts Options
		want string
	}{
		{"void tag", &template.Node{Tag: "input"}, Options{}, "<input />"},
		{"explicit flag", &template.Node{Tag: "div", SelfClosing: true}, Options{}, "<div />"},
		{"prefer option", &template.Node{Tag: "div"}, Options{PreferSelfClosingTags: true}, "<div />"},
		{"plain element", &template.Node{Tag: "div"}, Options{}, "<div></div>"},
		{"children win over flag", &template.Node{Tag: "div", SelfClosing: true,
			Children: []*template.Node{{Kind: template.KindText, Content: "x"}}}, Options{}, "<div>x</div>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mustRender(t, New(), []*template.Node{tt.node.Clone()}, tt.opts)
			assert.Equal(t, tt.want, result.Text)
		})
	}
}

func TestRender_SlotPrecedence(t *testing.T) {
	slot := func() []*template.Node {
		return []*template.Node{{Kind: template.KindSlot, Name: "header",
			Fallback: []*template.Node{{Kind: template.KindText, Content: "fallback"}}}}
	}

	// Named entry wins over fallback.
	result := mustRender(t, New(), slot(), Options{Slots: map[string][]*template.Node{
		"header": {{Kind: template.KindElement, Tag: "h1",
			Children: []*template.Node{{Kind: template.KindText, Content: "Title"}}}},
	}})
	assert.Equal(t, "<h1>Title</h1>", result.Text)

	// Fallback renders when no entry matches.
	result = mustRender(t, New(), slot(), Options{})
	assert.Equal(t, "fallback", result.Text)

	// Neither present renders empty.
	result = mustRender(t, New(), []*template.Node{{Kind: template.KindSlot, Name: "header"}}, Options{})
	assert.Equal(t, "", result.Text)
}

func TestRender_IgnoreShortCircuit(t *testing.T) {
	var secondSaw []string
	first := &stubExtension{key: "first"}
	second := &stubExtension{key: "second", node: func(n *template.Node, _ []*template.Node) (*template.Node, error) {
		if n.IsElement() {
			secondSaw = append(secondSaw, n.Tag)
		}
		return n, nil
	}}

	nodes := []*template.Node{
		{Kind: template.KindElement, Tag: "div", Children: []*template.Node{
			{Kind: template.KindElement, Tag: "aside",
				Overrides: map[string]template.Override{"first": {"ignore": true}},
				Children:  []*template.Node{{Kind: template.KindElement, Tag: "b"}}},
			{Kind: template.KindElement, Tag: "main"},
		}},
	}

	result := mustRender(t, New(first, second), nodes, Options{})
	assert.Equal(t, "<div><main></main></div>", result.Text)
	// The ignored node and its subtree were never observed by the later
	// extension.
	assert.Equal(t, []string{"div", "main"}, secondSaw)
}

func TestRender_NodeHandlerOrderAndOverrideMerge(t *testing.T) {
	var order []string
	a := &stubExtension{key: "a", node: func(n *template.Node, _ []*template.Node) (*template.Node, error) {
		order = append(order, "a:"+n.Tag)
		// Later extensions must observe this mutation.
		n.SetAttr("data-a", "1")
		return n, nil
	}}
	b := &stubExtension{key: "b", node: func(n *template.Node, _ []*template.Node) (*template.Node, error) {
		order = append(order, "b:"+n.Tag)
		if _, ok := n.Attr("data-a"); !ok {
			return nil, errors.New("a's mutation not visible")
		}
		// The b override block was merged before this hook ran.
		if n.MetaString("flavor") != "plum" {
			return nil, errors.New("own override block not merged")
		}
		return n, nil
	}}

	nodes := []*template.Node{
		{Kind: template.KindElement, Tag: "div",
			Overrides: map[string]template.Override{"b": {"flavor": "plum"}}},
	}

	result := mustRender(t, New(a, b), nodes, Options{})
	assert.Equal(t, []string{"a:div", "b:div"}, order)
	assert.Contains(t, result.Text, `data-a="1"`)
}

func TestRender_ExtensionErrorIsFatal(t *testing.T) {
	failing := &stubExtension{key: "boom", node: func(*template.Node, []*template.Node) (*template.Node, error) {
		return nil, errors.New("no thanks")
	}}
	after := &stubExtension{key: "later"}

	result, err := New(failing, after).Render(context.Background(),
		[]*template.Node{{Kind: template.KindElement, Tag: "div"}}, Options{})

	require.Error(t, err)
	var extErr *ExtensionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "boom", extErr.Extension)
	assert.Equal(t, "nodeHandler", extErr.Hook)
	assert.Empty(t, result.Text)
	assert.NotEmpty(t, result.Errors)
	// The pipeline halted before after-render hooks.
	assert.Zero(t, after.afterCalls)
}

func TestRender_HookPanicIsWrapped(t *testing.T) {
	panicking := &stubExtension{key: "volatile", node: func(*template.Node, []*template.Node) (*template.Node, error) {
		panic("unexpected")
	}}

	result, err := New(panicking).Render(context.Background(),
		[]*template.Node{{Kind: template.KindElement, Tag: "div"}}, Options{})

	require.Error(t, err)
	var extErr *ExtensionError
	require.ErrorAs(t, err, &extErr)
	assert.Contains(t, extErr.Err.Error(), "panic")
	assert.Empty(t, result.Text)
}

// testBackend is a minimal dialect backend double.
type testBackend struct {
	key  string
	text string
}

func newTestBackend(key, text string) *testBackend {
	return &testBackend{key: key, text: text}
}

func (f *testBackend) Key() string { return f.key }

func (f *testBackend) RenderComponent(c *concept.ComponentConcept, _ *RenderContext) (string, error) {
	if f.text != "" {
		return f.text, nil
	}
	return fmt.Sprintf("backend(%s):%d nodes", f.key, len(c.Structure)), nil
}

func (f *testBackend) FileExtension(Options) string   { return f.key }
func (f *testBackend) FormatterParser(Options) string { return f.key }

func TestRender_BackendReceivesIR(t *testing.T) {
	backend := newTestBackend("fake", "")

	result := mustRender(t, New(backend), []*template.Node{
		{Kind: template.KindElement, Tag: "div"},
		{Kind: template.KindText, Content: "x"},
	}, Options{})
	assert.Equal(t, "backend(fake):2 nodes", result.Text)
}

func TestRender_MultipleRenderersFail(t *testing.T) {
	one := newTestBackend("alpha", "")
	two := newTestBackend("beta", "")

	result, err := New(one, two).Render(context.Background(),
		[]*template.Node{{Kind: template.KindElement, Tag: "div"}}, Options{})

	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	// Both offenders are named.
	assert.Contains(t, verr.Reason, "alpha")
	assert.Contains(t, verr.Reason, "beta")
	assert.Empty(t, result.Text)
}

func TestRender_MalformedNodesAreCollectedNotFatal(t *testing.T) {
	input := `[{"tag":"div"},{"bogus":true},{"type":"text","content":"ok"}]`

	result := mustRender(t, New(), input, Options{})
	assert.Equal(t, "<div></div>ok", result.Text)
	require.Len(t, result.Errors, 1)
	var verr *ValidationError
	assert.ErrorAs(t, result.Errors[0], &verr)
}

func TestRender_OptionsHandlerChain(t *testing.T) {
	first := &stubExtension{key: "first", options: func(defaults, _ Options) Options {
		defaults.FileExtension = "first"
		if defaults.Extra == nil {
			defaults.Extra = map[string]any{}
		}
		defaults.Extra["chain"] = "first"
		return defaults
	}}
	second := &stubExtension{key: "second", options: func(defaults, _ Options) Options {
		// Receives the previous extension's merged result.
		if defaults.Extra["chain"] != "first" {
			defaults.Extra["chain"] = "broken"
			return defaults
		}
		defaults.Extra["chain"] = "second"
		return defaults
	}}

	var seen Options
	probe := &stubExtension{key: "probe", root: func(text string, opts Options, _ *RootContext) (string, error) {
		seen = opts
		return text, nil
	}}

	// User options always win over extension-computed values.
	mustRender(t, New(first, second, probe),
		[]*template.Node{{Kind: template.KindElement, Tag: "div"}},
		Options{FileExtension: "user"})

	assert.Equal(t, "second", seen.Extra["chain"])
	assert.Equal(t, "user", seen.FileExtension)
}

func TestRender_RootHandlerChainOrder(t *testing.T) {
	wrapA := &stubExtension{key: "a", root: func(text string, _ Options, _ *RootContext) (string, error) {
		return "[A " + text + "]", nil
	}}
	wrapB := &stubExtension{key: "b", root: func(text string, _ Options, _ *RootContext) (string, error) {
		return "[B " + text + "]", nil
	}}

	result := mustRender(t, New(wrapA, wrapB),
		[]*template.Node{{Kind: template.KindText, Content: "core"}}, Options{})
	assert.Equal(t, "[B [A core]]", result.Text)
}

func TestRender_StylesheetClaim(t *testing.T) {
	nodes := func() []*template.Node {
		return []*template.Node{{Kind: template.KindElement, Tag: "div",
			Attributes: []template.Attribute{{Name: "class", Value: "card"}},
			Styles:     []template.Declaration{{Property: "color", Value: "red"}}}}
	}

	// Unclaimed: the stylesheet is surfaced for a sibling file.
	result := mustRender(t, New(), nodes(), Options{})
	assert.Equal(t, ".card { color: red; }\n", result.Stylesheet)

	// Claimed by a root handler: the sibling output is suppressed.
	claimer := &stubExtension{key: "claimer", root: func(text string, _ Options, rc *RootContext) (string, error) {
		text += "<style>" + rc.Stylesheet + "</style>"
		rc.ClaimStylesheet()
		return text, nil
	}}
	result = mustRender(t, New(claimer), nodes(), Options{})
	assert.Empty(t, result.Stylesheet)
	assert.Contains(t, result.Text, "<style>.card { color: red; }")
}

func TestRender_InlineStyleFormat(t *testing.T) {
	nodes := []*template.Node{{Kind: template.KindElement, Tag: "div",
		Attributes: []template.Attribute{{Name: "class", Value: "card"}},
		Styles: []template.Declaration{
			{Property: "color", Value: "red"},
			{Property: ":hover", Nested: []template.Declaration{{Property: "color", Value: "blue"}}},
		}}}

	result := mustRender(t, New(), nodes, Options{StyleFormat: style.FormatInline})
	assert.Equal(t, `<div class="card" style="color: red"></div>`, result.Text)
	// Only the pseudo remainder goes to the stylesheet.
	assert.Equal(t, ".card:hover { color: blue; }\n", result.Stylesheet)
}

func TestRender_ScriptFolding(t *testing.T) {
	input := `{"template":[{"tag":"div"}],"component":{"name":"App",
		"script":"const n = 1","imports":["import x from 'y'"]}}`

	result := mustRender(t, New(), input, Options{})
	assert.Equal(t, "<div></div>\n<script>\nimport x from 'y'\n\nconst n = 1\n</script>", result.Text)
}

func TestRender_ExpressionAttributes(t *testing.T) {
	nodes := []*template.Node{{Kind: template.KindElement, Tag: "button",
		ExprAttributes: []template.Attribute{{Name: "disabled", Value: "isBusy"}}}}

	result := mustRender(t, New(), template.CloneNodes(nodes), Options{})
	assert.Equal(t, `<button disabled="isBusy"></button>`, result.Text)

	custom := func(name, value string, _ bool) string {
		return fmt.Sprintf(":%s=%q", name, value)
	}
	result = mustRender(t, New(), template.CloneNodes(nodes), Options{AttributeFormatter: custom})
	assert.Equal(t, `<button :disabled="isBusy"></button>`, result.Text)
}

func TestRender_BeforeAfterHooksRunOnce(t *testing.T) {
	ext := &stubExtension{key: "probe"}
	mustRender(t, New(ext), []*template.Node{
		{Kind: template.KindElement, Tag: "div", Children: []*template.Node{
			{Kind: template.KindElement, Tag: "span"},
		}},
	}, Options{})

	assert.Equal(t, 1, ext.beforeCalls)
	assert.Equal(t, 1, ext.afterCalls)
}

func TestRender_OutputTransformRunsLast(t *testing.T) {
	upper := &stubExtension{key: "upper", output: func(text string, _ Options) (string, error) {
		return strings.ToUpper(text), nil
	}}

	result := mustRender(t, New(upper),
		[]*template.Node{{Kind: template.KindText, Content: "quiet"}}, Options{})
	assert.Equal(t, "QUIET", result.Text)
}

func TestRender_InputNotMutated(t *testing.T) {
	mutator := &stubExtension{key: "mutator", node: func(n *template.Node, _ []*template.Node) (*template.Node, error) {
		if n.IsElement() {
			n.Tag = "section"
		}
		return n, nil
	}}
	nodes := []*template.Node{{Kind: template.KindElement, Tag: "div"}}

	result := mustRender(t, New(mutator), nodes, Options{})
	assert.Equal(t, "<section></section>", result.Text)
	assert.Equal(t, "div", nodes[0].Tag)
}

func TestRender_MarkupSnapshot(t *testing.T) {
	input := `{"template":[
		{"tag":"article","attributes":{"class":"post"},"children":[
			{"tag":"h1","children":[{"type":"text","content":"Weft"}]},
			{"type":"if","condition":"published","then":[
				{"tag":"p","children":[{"type":"text","content":"Visible"}]}
			],"else":[{"type":"text","content":"Draft"}]},
			{"type":"for","items":"tags","item":"tag","children":[
				{"tag":"span","attributes":{"class":"tag"}}
			]},
			{"type":"slot","name":"footer","fallback":[{"tag":"small","children":[{"type":"text","content":"(c)"}]}]},
			{"tag":"img","attributes":{"src":"cover.png","alt":"Cover"}}
		]}
	]}`

	result := mustRender(t, New(), input, Options{})
	snaps.WithConfig(snaps.Ext(".html")).MatchSnapshot(t, result.Text)
}
