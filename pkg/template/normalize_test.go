package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_DefaultsTagToElement(t *testing.T) {
	nodes := []*Node{
		{Tag: "div", Children: []*Node{
			{Tag: "span"},
			{Kind: KindText, Content: "hi"},
		}},
	}

	out, errs := Normalize(nodes)
	require.Empty(t, errs)
	require.Len(t, out, 1)

	assert.Equal(t, KindElement, out[0].Kind)
	assert.Equal(t, KindElement, out[0].Children[0].Kind)
	assert.Equal(t, KindText, out[0].Children[1].Kind)
}

func TestNormalize_RecursesIntoBranches(t *testing.T) {
	nodes := []*Node{
		{Kind: KindSlot, Name: "header", Fallback: []*Node{{Tag: "h1"}}},
		{Kind: KindIf, Condition: "ok", Then: []*Node{{Tag: "p"}}, Else: []*Node{{Tag: "em"}}},
		{Kind: KindFor, Items: "items", ItemName: "item", Children: []*Node{{Tag: "li"}}},
	}

	out, errs := Normalize(nodes)
	require.Empty(t, errs)
	require.Len(t, out, 3)

	assert.Equal(t, KindElement, out[0].Fallback[0].Kind)
	assert.Equal(t, KindElement, out[1].Then[0].Kind)
	assert.Equal(t, KindElement, out[1].Else[0].Kind)
	assert.Equal(t, KindElement, out[2].Children[0].Kind)
}

func TestNormalize_CollectsErrorsAndKeepsSiblings(t *testing.T) {
	nodes := []*Node{
		{Tag: "div"},
		{}, // neither type nor tag
		{Kind: "bogus"},
		{Kind: KindText, Content: "still here"},
	}

	out, errs := Normalize(nodes)
	require.Len(t, out, 2)
	assert.Equal(t, "div", out[0].Tag)
	assert.Equal(t, "still here", out[1].Content)

	require.Len(t, errs, 2)
	var verr *ValidationError
	require.ErrorAs(t, errs[0], &verr)
	assert.Equal(t, "1", verr.Path)
	require.ErrorAs(t, errs[1], &verr)
	assert.Equal(t, "2", verr.Path)
}

func TestNormalize_Idempotent(t *testing.T) {
	nodes := []*Node{
		{Tag: "div", Children: []*Node{{Tag: "span"}, {Kind: KindText, Content: "x"}}},
		{Kind: KindIf, Condition: "c", Then: []*Node{{Tag: "b"}}},
	}

	once, errs := Normalize(nodes)
	require.Empty(t, errs)

	again, errs := Normalize(CloneNodes(once))
	require.Empty(t, errs)
	assert.Equal(t, once, again)
}

func TestApplyOverride_MergesByKey(t *testing.T) {
	n := &Node{Kind: KindElement, Tag: "div",
		Attributes: []Attribute{{Name: "class", Value: "card"}, {Name: "id", Value: "a"}}}

	ApplyOverride(n, Override{
		"tag":        "section",
		"attributes": map[string]any{"id": "b", "role": "note"},
		"block":      "card",
		"ignore":     true, // reserved, never merged
	})

	assert.Equal(t, "section", n.Tag)

	// Existing attributes keep their position, new names are appended.
	require.Len(t, n.Attributes, 3)
	assert.Equal(t, "class", n.Attributes[0].Name)
	assert.Equal(t, "id", n.Attributes[1].Name)
	assert.Equal(t, "b", n.Attributes[1].Value)
	assert.Equal(t, "role", n.Attributes[2].Name)

	// Unknown keys land in Meta; the ignore key never does.
	assert.Equal(t, "card", n.MetaString("block"))
	_, hasIgnore := n.Meta[OverrideIgnoreKey]
	assert.False(t, hasIgnore)
}

func TestOverride_Ignored(t *testing.T) {
	assert.True(t, Override{"ignore": true}.Ignored())
	assert.False(t, Override{"ignore": false}.Ignored())
	assert.False(t, Override{"ignore": "yes"}.Ignored())
	assert.False(t, Override{}.Ignored())
}

func TestClone_IsDeep(t *testing.T) {
	n := &Node{Kind: KindElement, Tag: "div",
		Attributes: []Attribute{{Name: "class", Value: "a"}},
		Children:   []*Node{{Kind: KindText, Content: "x"}},
		Overrides:  map[string]Override{"bem": {"block": "nav"}},
	}

	c := n.Clone()
	c.Tag = "span"
	c.Attributes[0].Value = "b"
	c.Children[0].Content = "y"
	c.Overrides["bem"]["block"] = "aside"

	assert.Equal(t, "div", n.Tag)
	assert.Equal(t, "a", n.Attributes[0].Value)
	assert.Equal(t, "x", n.Children[0].Content)
	assert.Equal(t, "nav", n.Overrides["bem"]["block"])
}
