package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument_BareArray(t *testing.T) {
	doc, errs := ParseDocument([]byte(`[
		{"tag": "div", "attributes": {"class": "container", "id": "main", "tabindex": 1, "hidden": true},
		 "children": [{"type": "text", "content": "Hi"}]}
	]`))
	require.Empty(t, errs)
	require.Len(t, doc.Template, 1)

	el := doc.Template[0]
	assert.Equal(t, KindElement, el.Kind)
	assert.Equal(t, "div", el.Tag)

	// Attribute order follows the document.
	require.Len(t, el.Attributes, 4)
	assert.Equal(t, "class", el.Attributes[0].Name)
	assert.Equal(t, "id", el.Attributes[1].Name)
	assert.Equal(t, "tabindex", el.Attributes[2].Name)
	assert.Equal(t, float64(1), el.Attributes[2].Value)
	assert.Equal(t, true, el.Attributes[3].Value)

	require.Len(t, el.Children, 1)
	assert.Equal(t, "Hi", el.Children[0].Content)
}

func TestParseDocument_TemplateWrapper(t *testing.T) {
	doc, errs := ParseDocument([]byte(`{
		"template": [{"tag": "button", "expressionAttributes": {"disabled": "isBusy"},
			"events": {"click": {"handler": "submit", "modifiers": ["prevent"], "params": ["id"]}}}],
		"component": {
			"name": "SubmitButton",
			"props": {"id": {"type": "string", "required": true}, "label": "string"},
			"script": "const x = 1",
			"imports": ["import { api } from './api'"]
		}
	}`))
	require.Empty(t, errs)
	require.Len(t, doc.Template, 1)

	el := doc.Template[0]
	require.Len(t, el.ExprAttributes, 1)
	assert.Equal(t, "disabled", el.ExprAttributes[0].Name)
	assert.Equal(t, "isBusy", el.ExprAttributes[0].Value)

	require.Len(t, el.Events, 1)
	assert.Equal(t, Event{Name: "click", Handler: "submit", Modifiers: []string{"prevent"}, Params: []string{"id"}}, el.Events[0])

	require.NotNil(t, doc.Component)
	assert.Equal(t, "SubmitButton", doc.Component.Name)
	require.Len(t, doc.Component.Props, 2)
	assert.Equal(t, Prop{Name: "id", Type: "string", Required: true}, doc.Component.Props[0])
	assert.Equal(t, Prop{Name: "label", Type: "string"}, doc.Component.Props[1])
	assert.Equal(t, "const x = 1", doc.Component.Script)
	assert.Equal(t, []string{"import { api } from './api'"}, doc.Component.Imports)
}

func TestParseDocument_StylesAndOverrides(t *testing.T) {
	doc, errs := ParseDocument([]byte(`[
		{"tag": "div", "attributes": {"class": "card"},
		 "styles": {"color": "red", "@media (max-width: 768px)": {"color": "blue"}, ":hover": {"color": "green"}},
		 "overrides": {"bem": {"block": "card"}, "vue": {"ignore": true}}}
	]`))
	require.Empty(t, errs)
	el := doc.Template[0]

	require.Len(t, el.Styles, 3)
	assert.Equal(t, Declaration{Property: "color", Value: "red"}, el.Styles[0])
	assert.Equal(t, "@media (max-width: 768px)", el.Styles[1].Property)
	require.Len(t, el.Styles[1].Nested, 1)
	assert.Equal(t, Declaration{Property: "color", Value: "blue"}, el.Styles[1].Nested[0])
	assert.Equal(t, ":hover", el.Styles[2].Property)

	assert.Equal(t, "card", doc.Template[0].Overrides["bem"]["block"])
	assert.True(t, doc.Template[0].Overrides["vue"].Ignored())
}

func TestParseDocument_ConstructNodes(t *testing.T) {
	doc, errs := ParseDocument([]byte(`[
		{"type": "if", "condition": "items.length > 0",
		 "then": [{"type": "for", "items": "items", "item": "item", "index": "i", "key": "item.id",
			"children": [{"tag": "li"}]}],
		 "else": [{"type": "text", "content": "empty"}]},
		{"type": "slot", "name": "footer", "fallback": [{"tag": "small"}]}
	]`))
	require.Empty(t, errs)
	require.Len(t, doc.Template, 2)

	cond := doc.Template[0]
	assert.Equal(t, KindIf, cond.Kind)
	assert.Equal(t, "items.length > 0", cond.Condition)
	require.Len(t, cond.Then, 1)

	loop := cond.Then[0]
	assert.Equal(t, KindFor, loop.Kind)
	assert.Equal(t, "items", loop.Items)
	assert.Equal(t, "item", loop.ItemName)
	assert.Equal(t, "i", loop.IndexName)
	assert.Equal(t, "item.id", loop.KeyExpr)

	slot := doc.Template[1]
	assert.Equal(t, "footer", slot.Name)
	require.Len(t, slot.Fallback, 1)
}

func TestParseDocument_MalformedNodesAreCollected(t *testing.T) {
	doc, errs := ParseDocument([]byte(`[
		{"tag": "div"},
		"not a node",
		{"content": "no type or tag"},
		{"type": "text", "content": "kept"}
	]`))
	require.Len(t, doc.Template, 2)
	assert.Equal(t, "div", doc.Template[0].Tag)
	assert.Equal(t, "kept", doc.Template[1].Content)

	require.Len(t, errs, 2)
	var verr *ValidationError
	assert.ErrorAs(t, errs[0], &verr)
	assert.ErrorAs(t, errs[1], &verr)
}

func TestParse_NodeList(t *testing.T) {
	nodes, errs := Parse([]byte(`[{"tag": "span"}, {"type": "text", "content": "x"}]`))
	require.Empty(t, errs)
	require.Len(t, nodes, 2)
	assert.Equal(t, "span", nodes[0].Tag)
	assert.Equal(t, "x", nodes[1].Content)
}

func TestParseDocument_NotATree(t *testing.T) {
	doc, errs := ParseDocument([]byte(`42`))
	assert.Empty(t, doc.Template)
	require.Len(t, errs, 1)
}

func TestFormatScalar(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "a", "a"},
		{"whole float", float64(3), "3"},
		{"fraction", 2.5, "2.5"},
		{"bool", true, "true"},
		{"int", 7, "7"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatScalar(tt.value))
		})
	}
}
