package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/phanxgames/sap"
	"github.com/phanxgames/sap/manifest"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // A script expectation failed
	ExitCommandError = 2 // Bad input: unreadable or invalid manifest, bad flags
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose output; keeps JSON on Writer clean
	Verbose   bool

	pass, fail *color.Color
}

// CLIResponse is the JSON envelope for every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Message string `json:"message"`
}

func newFormatter(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	f := &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   opts.Verbose,
		pass:      color.New(color.FgGreen, color.Bold),
		fail:      color.New(color.FgRed, color.Bold),
	}
	if isTerminal(out) {
		f.pass.EnableColor()
		f.fail.EnableColor()
	} else {
		f.pass.DisableColor()
		f.fail.DisableColor()
	}
	return f
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// JSON writes data inside an "ok" envelope.
func (f *OutputFormatter) JSON(data any) error {
	return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
}

// Fail reports err in the configured format and returns it as an ExitError.
func (f *OutputFormatter) Fail(code int, message string, err error) error {
	exitErr := WrapExitError(code, message, err)
	if f.Format == "json" {
		_ = json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Message: exitErr.Error()},
		})
	}
	return exitErr
}

// VerboseLog outputs a message only if verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.errWriter(), format+"\n", args...)
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// loadGraph reads the manifest at path and builds it on a fresh engine. In
// verbose mode the engine logs at debug level to the formatter's error writer.
func loadGraph(f *OutputFormatter, path string) (*manifest.Manifest, *manifest.Graph, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, nil, f.Fail(ExitCommandError, "load manifest", err)
	}
	e := sap.NewEngine()
	if f.Verbose {
		e.SetLogger(slog.New(slog.NewTextHandler(f.errWriter(), &slog.HandlerOptions{Level: slog.LevelDebug})))
		e.SetDebugMode(true)
	}
	g, err := manifest.Build(e, m)
	if err != nil {
		return nil, nil, f.Fail(ExitCommandError, "build graph", err)
	}
	f.VerboseLog("built %d properties from %s", len(m.Properties), path)
	return m, g, nil
}

// label names id by its manifest name, falling back to the engine's name.
func label(g *manifest.Graph, id sap.PropertyID) string {
	if name := g.NameOf(id); name != "" {
		return name
	}
	if name := g.Engine().Name(id); name != "" {
		return name
	}
	return id.String()
}
