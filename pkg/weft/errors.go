package weft

import (
	"fmt"

	"github.com/loomkit/weft/pkg/template"
)

// ValidationError reports a malformed node shape or a structurally invalid
// extension configuration. Node-shape validations are collected and
// non-fatal; configuration validations (such as multiple renderer
// extensions) abort the render.
type ValidationError = template.ValidationError

// ExtensionError wraps a failure raised by a hook implementation. Hook
// failures are fatal: the pipeline halts at the failing step.
type ExtensionError struct {
	Extension string
	Hook      string
	Err       error
}

func (e *ExtensionError) Error() string {
	return fmt.Sprintf("extension %s: %s hook failed: %v", e.Extension, e.Hook, e.Err)
}

func (e *ExtensionError) Unwrap() error { return e.Err }

// RenderError is a generic emission failure not attributable to a specific
// hook, including formatter failures.
type RenderError struct {
	Stage string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed at %s: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// FileOutputError surfaces a failure from the output-writer collaborator.
type FileOutputError struct {
	Path string
	Err  error
}

func (e *FileOutputError) Error() string {
	return fmt.Sprintf("file output to %s failed: %v", e.Path, e.Err)
}

func (e *FileOutputError) Unwrap() error { return e.Err }
