// Package logger provides the leveled logging sink used across weft.
// It is purely observational: nothing in the render pipeline branches on
// logger state.
package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Logger is the global logger instance.
var Logger *log.Logger

var successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)

func init() {
	Logger = log.New(os.Stderr)
	Logger.SetTimeFormat("")
	Logger.SetLevel(log.WarnLevel)
}

// Configure sets verbosity and, optionally, a different sink. Verbose mode
// enables info and debug output; otherwise only warnings and errors pass.
func Configure(verbose bool, output io.Writer) {
	if output == nil {
		output = os.Stderr
	}
	Logger = log.New(output)
	Logger.SetTimeFormat("")
	if verbose {
		Logger.SetLevel(log.DebugLevel)
	} else {
		Logger.SetLevel(log.WarnLevel)
	}
}

// Debug logs a development-detail message.
func Debug(msg string, keyvals ...any) { Logger.Debug(msg, keyvals...) }

// Info logs an informational message.
func Info(msg string, keyvals ...any) { Logger.Info(msg, keyvals...) }

// Warn logs a recoverable problem.
func Warn(msg string, keyvals ...any) { Logger.Warn(msg, keyvals...) }

// Error logs a failure.
func Error(msg string, keyvals ...any) { Logger.Error(msg, keyvals...) }

// Success logs a completed operation with success styling at info level.
func Success(msg string, keyvals ...any) {
	Logger.Info(successStyle.Render("✓ ")+msg, keyvals...)
}
