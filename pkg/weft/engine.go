// Package weft renders declarative template trees into textual source code.
//
// An Engine holds an ordered extension list and runs a fixed pipeline per
// root render: input normalization, option merging, per-node extension
// application, style compilation, text emission, root handling, after-render
// hooks and output writing. Dialect backends plug in through the hook
// contract in extension.go; without one the engine emits plain markup.
package weft

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/loomkit/weft/internal/logger"
	"github.com/loomkit/weft/pkg/concept"
	"github.com/loomkit/weft/pkg/style"
	"github.com/loomkit/weft/pkg/template"
)

// Engine renders templates with a constructor-supplied extension list. An
// engine is reusable across sequential renders; all per-render state lives
// in the RenderContext, never on the engine or its extensions.
type Engine struct {
	extensions []Extension
}

// New creates an engine with the given extensions, in order.
func New(extensions ...Extension) *Engine {
	return &Engine{extensions: extensions}
}

// step is one pipeline stage. A non-nil error halts all subsequent steps.
type step struct {
	name string
	run  func(ctx context.Context, rc *RenderContext) error
}

// Render executes the full pipeline over the input, which may be JSON bytes
// or text, a parsed *template.Document, a node list, or a single node.
//
// The returned Result always carries the (possibly partial) text, the
// compiled stylesheet and the complete error list. The error return is
// non-nil only for fatal conditions: a hook failure, multiple renderer
// extensions, a formatter failure or a write failure. Malformed individual
// nodes are collected in Result.Errors and never abort the render.
func (e *Engine) Render(ctx context.Context, input any, userOpts Options) (*Result, error) {
	rc := &RenderContext{Input: input, Root: true}

	steps := []step{
		{"normalize input", e.stepNormalize},
		{"merge options", func(c context.Context, rc *RenderContext) error { return e.stepOptions(rc, userOpts) }},
		{"apply extensions", e.stepApplyExtensions},
		{"compile styles", e.stepCompileStyles},
		{"emit text", e.stepEmit},
		{"handle root", e.stepRootHandling},
		{"after render", e.stepAfterRender},
		{"write output", e.stepOutputWrite},
	}

	var fatal error
	for _, s := range steps {
		if err := s.run(ctx, rc); err != nil {
			rc.Errors = append(rc.Errors, err)
			fatal = err
			break
		}
	}

	result := &Result{
		Text:     rc.Text,
		FilePath: rc.writtenPath,
		Errors:   rc.Errors,
	}
	if !rc.StyleHandled {
		result.Stylesheet = rc.Stylesheet
	}
	if fatal != nil {
		logger.Error("render failed", "err", fatal)
	}
	return result, fatal
}

// stepNormalize turns the raw input into a normalized node list plus
// optional component metadata, collecting node-shape errors.
func (e *Engine) stepNormalize(_ context.Context, rc *RenderContext) error {
	doc, errs := normalizeInput(rc.Input)
	rc.Errors = append(rc.Errors, errs...)
	if doc == nil {
		return &RenderError{Stage: "normalize", Err: fmt.Errorf("unsupported input type %T", rc.Input)}
	}
	rc.Nodes = doc.Template
	rc.Component = doc.Component
	return nil
}

func normalizeInput(input any) (*template.Document, []error) {
	switch v := input.(type) {
	case []byte:
		doc, errs := template.ParseDocument(v)
		return normalizeDoc(doc, errs)
	case string:
		doc, errs := template.ParseDocument([]byte(v))
		return normalizeDoc(doc, errs)
	case *template.Document:
		return normalizeDoc(&template.Document{Template: v.Template, Component: v.Component}, nil)
	case []*template.Node:
		return normalizeDoc(&template.Document{Template: v}, nil)
	case *template.Node:
		return normalizeDoc(&template.Document{Template: []*template.Node{v}}, nil)
	default:
		return nil, nil
	}
}

func normalizeDoc(doc *template.Document, errs []error) (*template.Document, []error) {
	nodes, nerrs := template.Normalize(doc.Template)
	doc.Template = nodes
	return doc, append(errs, nerrs...)
}

// stepOptions runs the optionsHandler chain, overlays the user's options,
// resolves the active extension list and enforces the single-renderer rule.
func (e *Engine) stepOptions(rc *RenderContext, user Options) error {
	exts := make([]Extension, 0, len(e.extensions)+len(user.Extensions))
	seen := make(map[string]bool)
	for _, x := range e.extensions {
		if !seen[x.Key()] {
			exts = append(exts, x)
			seen[x.Key()] = true
		}
	}
	for _, x := range user.Extensions {
		if !seen[x.Key()] {
			exts = append(exts, x)
			seen[x.Key()] = true
		}
	}
	rc.extensions = exts

	var renderers []string
	for _, x := range exts {
		if b, ok := x.(DialectBackend); ok {
			renderers = append(renderers, x.Key())
			rc.backend = b
		}
	}
	if len(renderers) > 1 {
		rc.backend = nil
		return &ValidationError{Reason: fmt.Sprintf("multiple renderer extensions active: %s", strings.Join(renderers, ", "))}
	}

	merged := DefaultOptions()
	for _, x := range exts {
		h, ok := x.(OptionsHandler)
		if !ok {
			continue
		}
		merged = h.HandleOptions(merged, user)
	}
	rc.Options = overlay(merged, user)

	logger.Configure(rc.Options.Verbose, nil)
	return nil
}

// stepApplyExtensions clones the normalized list and applies override blocks
// and nodeHandler/onNodeVisit hooks depth-first, left-to-right, carrying an
// accumulating ancestor stack. A node whose override block for the current
// extension carries ignore: true is dropped with its subtree; remaining
// extensions never observe it.
func (e *Engine) stepApplyExtensions(_ context.Context, rc *RenderContext) error {
	for _, x := range rc.extensions {
		h, ok := x.(BeforeRenderer)
		if !ok {
			continue
		}
		if err := invokeHook(x.Key(), "beforeRender", func() error {
			return h.BeforeRender(rc.Nodes, rc.Options)
		}); err != nil {
			return err
		}
	}

	post, err := e.applyNodeList(rc, template.CloneNodes(rc.Nodes), nil)
	if err != nil {
		return err
	}
	rc.PostNodes = post
	return nil
}

func (e *Engine) applyNodeList(rc *RenderContext, nodes []*template.Node, ancestors []*template.Node) ([]*template.Node, error) {
	out := make([]*template.Node, 0, len(nodes))
	for _, n := range nodes {
		kept, err := e.applyNode(rc, n, ancestors)
		if err != nil {
			return out, err
		}
		if kept != nil {
			out = append(out, kept)
		}
	}
	return out, nil
}

func (e *Engine) applyNode(rc *RenderContext, n *template.Node, ancestors []*template.Node) (*template.Node, error) {
	for _, x := range rc.extensions {
		ov := n.Overrides[x.Key()]
		if ov.Ignored() {
			return nil, nil
		}
		if ov != nil {
			template.ApplyOverride(n, ov)
		}

		if h, ok := x.(NodeHandler); ok {
			var replaced *template.Node
			err := invokeHook(x.Key(), "nodeHandler", func() error {
				var herr error
				replaced, herr = h.HandleNode(n, ancestors)
				return herr
			})
			if err != nil {
				return nil, err
			}
			if replaced != nil {
				n = replaced
			}
		}
		if v, ok := x.(NodeVisitor); ok {
			if err := invokeHook(x.Key(), "onNodeVisit", func() error {
				v.OnNodeVisit(n, ancestors)
				return nil
			}); err != nil {
				return nil, err
			}
		}
	}

	// Pass an independent ancestor slice so sibling subtrees never share a
	// backing array.
	childAncestors := make([]*template.Node, len(ancestors)+1)
	copy(childAncestors, ancestors)
	childAncestors[len(ancestors)] = n
	var err error
	if n.Children, err = e.applyNodeList(rc, n.Children, childAncestors); err != nil {
		return nil, err
	}
	if n.Fallback, err = e.applyNodeList(rc, n.Fallback, childAncestors); err != nil {
		return nil, err
	}
	if n.Then, err = e.applyNodeList(rc, n.Then, childAncestors); err != nil {
		return nil, err
	}
	if n.Else, err = e.applyNodeList(rc, n.Else, childAncestors); err != nil {
		return nil, err
	}
	return n, nil
}

// invokeHook runs one hook with panic containment so a throwing extension
// surfaces as an ExtensionError instead of crashing the render.
func invokeHook(key, hook string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ExtensionError{Extension: key, Hook: hook, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if herr := fn(); herr != nil {
		return &ExtensionError{Extension: key, Hook: hook, Err: herr}
	}
	return nil
}

// stepCompileStyles walks the post-extension node list with a fresh compiler
// and renders the stylesheet in the configured format.
func (e *Engine) stepCompileStyles(_ context.Context, rc *RenderContext) error {
	rc.styles = style.NewCompiler()
	var walk func(nodes []*template.Node)
	walk = func(nodes []*template.Node) {
		for _, n := range nodes {
			rc.styles.ProcessNode(n)
			walk(n.Children)
			walk(n.Fallback)
			walk(n.Then)
			walk(n.Else)
		}
	}
	walk(rc.PostNodes)
	if rc.styles.HasRules() {
		rc.Stylesheet = rc.styles.GenerateOutput(rc.Options.StyleFormat)
	}
	return nil
}

// stepEmit produces the body text: concept extraction plus the dialect
// backend when one is active, direct markup emission otherwise.
func (e *Engine) stepEmit(_ context.Context, rc *RenderContext) error {
	if rc.backend != nil {
		ir := concept.Extract(rc.PostNodes)
		text, err := rc.backend.RenderComponent(ir, rc)
		if err != nil {
			return &ExtensionError{Extension: rc.backend.Key(), Hook: "renderComponent", Err: err}
		}
		rc.Text = text
		return nil
	}
	rc.Text = emitMarkup(rc, rc.PostNodes, nil)
	return nil
}

// stepRootHandling applies the rootHandler chain, then folds component
// script/import material into the plain-markup output when no renderer
// extension claimed it.
func (e *Engine) stepRootHandling(_ context.Context, rc *RenderContext) error {
	for _, x := range rc.extensions {
		h, ok := x.(RootHandler)
		if !ok {
			continue
		}
		root := &RootContext{
			Component:    rc.Component,
			ExtensionKey: x.Key(),
			Stylesheet:   rc.Stylesheet,
			rc:           rc,
		}
		var text string
		err := invokeHook(x.Key(), "rootHandler", func() error {
			var herr error
			text, herr = h.HandleRoot(rc.Text, rc.Options, root)
			return herr
		})
		if err != nil {
			return err
		}
		rc.Text = text
	}

	if rc.backend == nil && !rc.ScriptHandled && rc.Component != nil {
		if block := inlineScriptBlock(rc.Component); block != "" {
			rc.Text += block
			rc.ScriptHandled = true
		}
	}
	return nil
}

// inlineScriptBlock assembles the component's imports and script into a
// script element for the plain-markup path.
func inlineScriptBlock(c *template.Component) string {
	if c.Script == "" && len(c.Imports) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n<script>\n")
	for _, imp := range c.Imports {
		b.WriteString(imp)
		b.WriteString("\n")
	}
	if c.Script != "" {
		if len(c.Imports) > 0 {
			b.WriteString("\n")
		}
		b.WriteString(c.Script)
		b.WriteString("\n")
	}
	b.WriteString("</script>")
	return b.String()
}

func (e *Engine) stepAfterRender(_ context.Context, rc *RenderContext) error {
	for _, x := range rc.extensions {
		h, ok := x.(AfterRenderer)
		if !ok {
			continue
		}
		if err := invokeHook(x.Key(), "afterRender", func() error {
			return h.AfterRender(rc.PostNodes, rc.Options)
		}); err != nil {
			return err
		}
	}
	return nil
}

// stepOutputWrite applies onOutputWrite transforms and the optional
// formatter, then delegates persistence to the writer collaborator. The
// sibling stylesheet file is skipped when a hook claimed the stylesheet.
func (e *Engine) stepOutputWrite(ctx context.Context, rc *RenderContext) error {
	for _, x := range rc.extensions {
		h, ok := x.(OutputTransformer)
		if !ok {
			continue
		}
		var text string
		err := invokeHook(x.Key(), "onOutputWrite", func() error {
			var herr error
			text, herr = h.TransformOutput(rc.Text, rc.Options)
			return herr
		})
		if err != nil {
			return err
		}
		rc.Text = text
	}

	if rc.Options.Formatter != nil {
		parser := ""
		if rc.backend != nil {
			parser = rc.backend.FormatterParser(rc.Options)
		}
		formatted, err := rc.Options.Formatter.Format(ctx, rc.Text, parser)
		if err != nil {
			return &RenderError{Stage: "format", Err: err}
		}
		rc.Text = formatted
	}

	if !rc.Options.WriteOutputFile {
		return nil
	}

	ext := rc.Options.FileExtension
	if rc.backend != nil {
		if be := rc.backend.FileExtension(rc.Options); be != "" {
			ext = be
		}
	}
	path := filepath.Join(rc.Options.OutputDir, rc.Options.OutputName()+"."+ext)
	if err := rc.Options.Writer.Write(ctx, rc.Text, path); err != nil {
		return &FileOutputError{Path: path, Err: err}
	}
	rc.writtenPath = path
	logger.Success("wrote " + path)

	if rc.Stylesheet != "" && !rc.StyleHandled {
		styleExt := "css"
		if rc.Options.StyleFormat == style.FormatSCSS {
			styleExt = "scss"
		}
		stylePath := filepath.Join(rc.Options.OutputDir, rc.Options.OutputName()+"."+styleExt)
		if err := rc.Options.Writer.Write(ctx, rc.Stylesheet, stylePath); err != nil {
			return &FileOutputError{Path: stylePath, Err: err}
		}
		logger.Success("wrote " + stylePath)
	}
	return nil
}
