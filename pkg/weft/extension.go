package weft

import (
	"github.com/loomkit/weft/pkg/concept"
	"github.com/loomkit/weft/pkg/template"
)

// Extension is the base of the hook contract: a plugin with a stable key.
// All lifecycle callbacks are optional capability interfaces discovered by
// type assertion; an extension implements only what it needs.
//
// Hooks run in extension list order — constructor-supplied extensions first,
// then per-call extensions not already present by key. List order is the
// single source of truth for conflict resolution: a later extension always
// observes, and may override, an earlier extension's node mutations.
type Extension interface {
	// Key names the extension. It keys per-node override blocks and must be
	// unique within an active extension list.
	Key() string
}

// OptionsHandler lets an extension contribute option defaults. The chain is
// cumulative: each extension receives the previous extension's merged result
// as its defaults. User-supplied options always win in the final overlay.
type OptionsHandler interface {
	HandleOptions(defaults Options, user Options) Options
}

// BeforeRenderer runs once per root render before the main body.
type BeforeRenderer interface {
	BeforeRender(nodes []*template.Node, opts Options) error
}

// AfterRenderer runs once per root render after the main body.
type AfterRenderer interface {
	AfterRender(nodes []*template.Node, opts Options) error
}

// NodeHandler transforms one node at a time, in list order per node. The
// node arrives with the extension's own override block (minus the reserved
// ignore key) already shallow-merged onto it. Returning nil keeps the node
// unchanged.
type NodeHandler interface {
	HandleNode(node *template.Node, ancestors []*template.Node) (*template.Node, error)
}

// NodeVisitor is a read/mutate hook distinct from NodeHandler, for styling
// extensions that need ancestor-aware state (block inheritance) without
// participating in the override/ignore short-circuit.
type NodeVisitor interface {
	OnNodeVisit(node *template.Node, ancestors []*template.Node)
}

// RootHandler transforms the emitted text once per root render, in list
// order; typical use is wrapping the body in a component shell.
type RootHandler interface {
	HandleRoot(text string, opts Options, root *RootContext) (string, error)
}

// OutputTransformer applies a final text transform before persistence.
type OutputTransformer interface {
	TransformOutput(text string, opts Options) (string, error)
}

// DialectBackend marks a renderer extension: the one extension that owns
// final dialect-specific code assembly. At most one may be active in a
// render; more is a fatal validation error.
//
// RenderComponent consumes the extracted IR and must honor the styling
// concept's per-element classes when emitting an element whose id has
// contributed classes. FileExtension and FormatterParser are pure metadata
// queries for the output and formatting collaborators.
type DialectBackend interface {
	Extension
	RenderComponent(c *concept.ComponentConcept, rc *RenderContext) (string, error)
	FileExtension(opts Options) string
	FormatterParser(opts Options) string
}
