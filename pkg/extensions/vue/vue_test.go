package vue

import (
	"context"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomkit/weft/pkg/concept"
	"github.com/loomkit/weft/pkg/extensions/bem"
	"github.com/loomkit/weft/pkg/weft"
)

func render(t *testing.T, input any, extensions ...weft.Extension) *weft.Result {
	t.Helper()
	engine := weft.New(append([]weft.Extension{New()}, extensions...)...)
	result, err := engine.Render(context.Background(), input, weft.Options{})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	return result
}

func TestRenderComponent_Basic(t *testing.T) {
	input := `{"template":[
		{"tag":"button","attributes":{"class":"btn","type":"submit"},
		 "events":{"click":{"handler":"save","modifiers":["prevent"]}}}
	],"component":{"name":"SaveButton"}}`

	result := render(t, input)

	want := "<template>\n" +
		"  <button class=\"btn\" type=\"submit\" @click.prevent=\"save\" />\n" +
		"</template>\n" +
		"\n<script>\n" +
		"export default {\n" +
		"  name: 'SaveButton',\n" +
		"}\n" +
		"</script>\n"
	assert.Equal(t, want, result.Text)
}

func TestRenderComponent_StylesheetClaimed(t *testing.T) {
	input := `{"template":[
		{"tag":"div","attributes":{"class":"card"},"styles":{"color":"red"}}
	],"component":{"name":"Card"}}`

	result := render(t, input)

	assert.Contains(t, result.Text, "<style scoped>\n.card { color: red; }\n</style>")
	// The backend folded the stylesheet into the component; no sibling file.
	assert.Empty(t, result.Stylesheet)
}

func TestRenderComponent_PerElementClasses(t *testing.T) {
	input := `{"template":[
		{"tag":"nav","overrides":{"bem":{"block":"nav"}},"children":[
			{"tag":"li","attributes":{"class":"plain"},
			 "overrides":{"bem":{"element":"item","modifier":"active"}}}
		]}
	]}`

	result := render(t, input, bem.New())

	assert.Contains(t, result.Text, `<nav class="nav">`)
	assert.Contains(t, result.Text, `<li class="plain nav__item nav__item--active" />`)
}

func TestRenderComponent_Deterministic(t *testing.T) {
	input := `{"template":[
		{"tag":"ul","children":[
			{"type":"for","items":"todos","item":"todo","index":"i","key":"todo.id",
			 "children":[{"tag":"li","expressionAttributes":{"title":"todo.label"}}]}
		]}
	],"component":{"name":"TodoList","props":{"todos":{"type":"array","required":true}}}}`

	backend := New()
	engine := weft.New(backend)
	first, err := engine.Render(context.Background(), input, weft.Options{})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := engine.Render(context.Background(), input, weft.Options{})
		require.NoError(t, err)
		assert.Equal(t, first.Text, again.Text)
	}
}

func TestRenderComponent_FullSnapshot(t *testing.T) {
	input := `{"template":[
		{"tag":"article","attributes":{"class":"post"},"children":[
			{"type":"if","condition":"published","then":[
				{"tag":"p","expressionAttributes":{"class":"bodyClass"}}
			],"else":[{"tag":"em","children":[{"type":"text","content":"Draft"}]}]},
			{"type":"for","items":"tags","item":"tag","key":"tag",
			 "children":[{"tag":"span","attributes":{"class":"tag"}}]},
			{"type":"slot","name":"footer","fallback":[{"tag":"small"}]}
		]}
	],"component":{"name":"Post","props":{"published":"boolean","tags":"array"},
		"imports":["import { format } from './format'"],
		"script":"const version = 2"}}`

	result := render(t, input)
	snaps.WithConfig(snaps.Ext(".vue")).MatchSnapshot(t, result.Text)
}

func TestProcessEvents(t *testing.T) {
	events := []concept.EventConcept{
		{Name: "click", Handler: "save", Modifiers: []string{"stop", "prevent"}, NodeID: "0"},
		{Name: "input", Handler: "update", Params: []string{"$event", "row"}, NodeID: "0.1"},
	}

	f := ProcessEvents(events)
	assert.Equal(t, []string{`@click.stop.prevent="save"`}, f.Attributes["0"])
	assert.Equal(t, []string{`@input="update($event, row)"`}, f.Attributes["0.1"])

	// The concepts themselves are untouched.
	assert.Equal(t, "save", events[0].Handler)
	assert.Equal(t, []string{"stop", "prevent"}, events[0].Modifiers)
}

func TestProcessIterations(t *testing.T) {
	f := ProcessIterations([]concept.IterationConcept{
		{Items: "todos", Item: "todo", Index: "i", Key: "todo.id", NodeID: "2"},
		{Items: "tags", Item: "tag", NodeID: "3"},
	})

	assert.Equal(t, []string{`v-for="(todo, i) in todos"`, `:key="todo.id"`}, f.Attributes["2"])
	assert.Equal(t, []string{`v-for="tag in tags"`}, f.Attributes["3"])
}

func TestProcessAttributes(t *testing.T) {
	f := ProcessAttributes([]concept.AttributeConcept{
		{Name: "type", Value: "submit", NodeID: "0"},
		{Name: "disabled", Value: "isBusy", IsExpression: true, NodeID: "0"},
	})

	assert.Equal(t, []string{`type="submit"`, `:disabled="isBusy"`}, f.Attributes["0"])
}

func TestMissingReferentIsSkipped(t *testing.T) {
	// A conditional whose structural referent is gone must be skipped, not
	// fail the render.
	c := concept.Extract(nil)
	r := &renderer{c: c, attributes: Fragment{Attributes: map[concept.NodeID][]string{}},
		events:       Fragment{Attributes: map[concept.NodeID][]string{}},
		conditionals: Fragment{Attributes: map[concept.NodeID][]string{}},
		iterations:   Fragment{Attributes: map[concept.NodeID][]string{}}}

	out := &strings.Builder{}
	r.writeConditional(out, &concept.StructuralNode{ID: "9", Kind: "if"}, 1)
	r.writeIteration(out, &concept.StructuralNode{ID: "9", Kind: "for"}, 1)
	r.writeSlot(out, &concept.StructuralNode{ID: "9", Kind: "slot"}, 1)
	assert.Empty(t, out.String())
}
