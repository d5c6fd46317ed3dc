package weft

import (
	"github.com/loomkit/weft/pkg/output"
	"github.com/loomkit/weft/pkg/style"
	"github.com/loomkit/weft/pkg/template"
)

// AttributeFormatter renders one attribute as markup text. isExpression is
// true for bound attributes whose value must not be escaped or quoted as a
// literal.
type AttributeFormatter func(name string, value string, isExpression bool) string

// Options is the merged option surface of one render call.
type Options struct {
	// Name is the component name; Filename overrides it for output paths.
	Name     string
	Filename string

	// OutputDir and FileExtension build the output path together with the
	// filename. FileExtension is overridden by an active dialect backend.
	OutputDir     string
	FileExtension string

	// PreferSelfClosingTags renders childless elements self-closing even
	// when their tag is not in the void set.
	PreferSelfClosingTags bool

	// WriteOutputFile enables the output-write pipeline step.
	WriteOutputFile bool

	// Verbose enables informational logging.
	Verbose bool

	// Extensions are per-call extensions, appended after the engine's
	// constructor-supplied list (skipping keys already present).
	Extensions []Extension

	// Slots maps slot names to replacement node lists. A named entry takes
	// precedence over a slot's fallback.
	Slots map[string][]*template.Node

	// StyleFormat selects the stylesheet output form.
	StyleFormat style.Format

	// AttributeFormatter overrides expression-attribute rendering in the
	// plain-markup dialect.
	AttributeFormatter AttributeFormatter

	// Writer persists output when WriteOutputFile is set. Defaults to an
	// output.FileWriter.
	Writer output.Writer

	// Formatter, when non-nil, pretty-prints the text before writing.
	// Formatting failures are render failures.
	Formatter output.Formatter

	// Extra carries extension-contributed options that have no typed field.
	Extra map[string]any
}

// DefaultOptions returns the option values a render starts from before the
// optionsHandler chain and the user overlay run.
func DefaultOptions() Options {
	return Options{
		FileExtension: "html",
		StyleFormat:   style.FormatCSS,
		Writer:        output.NewFileWriter(),
	}
}

// OutputName returns the base name used for output files.
func (o Options) OutputName() string {
	if o.Filename != "" {
		return o.Filename
	}
	if o.Name != "" {
		return o.Name
	}
	return "component"
}

// ExtraString returns a string entry of Extra.
func (o Options) ExtraString(key string) string {
	if o.Extra == nil {
		return ""
	}
	s, _ := o.Extra[key].(string)
	return s
}

// overlay applies the user's options on top of the extension-merged
// defaults. Non-zero user fields always win; Extra maps are merged with
// user keys winning.
func overlay(defaults, user Options) Options {
	out := defaults
	if user.Name != "" {
		out.Name = user.Name
	}
	if user.Filename != "" {
		out.Filename = user.Filename
	}
	if user.OutputDir != "" {
		out.OutputDir = user.OutputDir
	}
	if user.FileExtension != "" {
		out.FileExtension = user.FileExtension
	}
	if user.PreferSelfClosingTags {
		out.PreferSelfClosingTags = true
	}
	if user.WriteOutputFile {
		out.WriteOutputFile = true
	}
	if user.Verbose {
		out.Verbose = true
	}
	if user.Extensions != nil {
		out.Extensions = user.Extensions
	}
	if user.Slots != nil {
		out.Slots = user.Slots
	}
	if user.StyleFormat != "" {
		out.StyleFormat = user.StyleFormat
	}
	if user.AttributeFormatter != nil {
		out.AttributeFormatter = user.AttributeFormatter
	}
	if user.Writer != nil {
		out.Writer = user.Writer
	}
	if user.Formatter != nil {
		out.Formatter = user.Formatter
	}
	if user.Extra != nil {
		if out.Extra == nil {
			out.Extra = make(map[string]any, len(user.Extra))
		} else {
			merged := make(map[string]any, len(out.Extra)+len(user.Extra))
			for k, v := range out.Extra {
				merged[k] = v
			}
			out.Extra = merged
		}
		for k, v := range user.Extra {
			out.Extra[k] = v
		}
	}
	return out
}
