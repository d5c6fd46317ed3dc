package weft

import (
	"github.com/loomkit/weft/pkg/style"
	"github.com/loomkit/weft/pkg/template"
)

// RenderContext is the per-root-call record threaded through the pipeline
// steps. It is constructed by the first step, updated by each subsequent
// step, and discarded when the render returns. Nested recursive emission
// reuses the merged Options but never the context of another render.
type RenderContext struct {
	// Input is the original value handed to Render.
	Input any

	// Nodes is the normalized node list.
	Nodes []*template.Node

	// Component is the optional component metadata from the input document.
	Component *template.Component

	// Options is the merged option set after the optionsHandler chain and
	// the user overlay.
	Options Options

	// Root is false for nested recursive emission calls.
	Root bool

	// Ancestors is the accumulated ancestor-node stack during per-node
	// extension application and emission.
	Ancestors []*template.Node

	// PostNodes is the node list after extension application. Emission and
	// style compilation read this list, never Nodes.
	PostNodes []*template.Node

	// Text is the emitted output text.
	Text string

	// Stylesheet is the compiled stylesheet text.
	Stylesheet string

	// StyleHandled records that a hook already folded the stylesheet into
	// the text; the pipeline must not duplicate it in a sibling file.
	StyleHandled bool

	// ScriptHandled records that script/import material was already folded
	// into the text.
	ScriptHandled bool

	// Errors accumulates every problem of the render, fatal and collected.
	Errors []error

	styles      *style.Compiler
	backend     DialectBackend
	extensions  []Extension
	writtenPath string
}

// Styles exposes the per-render style compiler to backends that need
// per-node inline style lookups.
func (rc *RenderContext) Styles() *style.Compiler { return rc.styles }

// Backend returns the active dialect backend, or nil on the plain path.
func (rc *RenderContext) Backend() DialectBackend { return rc.backend }

// RootContext is the view of the render handed to rootHandler hooks.
type RootContext struct {
	// Component is the component metadata, when present.
	Component *template.Component

	// ExtensionKey is the key of the extension currently being invoked.
	ExtensionKey string

	// Stylesheet is the compiled stylesheet text.
	Stylesheet string

	rc *RenderContext
}

// ClaimStylesheet records that the handler folded the stylesheet into its
// own output, suppressing the sibling stylesheet file.
func (r *RootContext) ClaimStylesheet() { r.rc.StyleHandled = true }

// ClaimScript records that the handler folded script/import material into
// its own output.
func (r *RootContext) ClaimScript() { r.rc.ScriptHandled = true }

// StylesheetClaimed reports whether any handler claimed the stylesheet.
func (r *RootContext) StylesheetClaimed() bool { return r.rc.StyleHandled }

// Result is what a render call always produces, even on failure: the
// (possibly empty or partial) text, the stylesheet, where the text was
// written when output was enabled, and the full error list.
type Result struct {
	Text       string
	Stylesheet string
	FilePath   string
	Errors     []error
}

// Ok reports whether the render completed with no recorded errors.
func (r *Result) Ok() bool { return len(r.Errors) == 0 }
