package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/roach88/restq/internal/overload"
	"github.com/roach88/restq/internal/query"
	"github.com/roach88/restq/internal/querydef"
	"github.com/roach88/restq/internal/resource"
	"github.com/roach88/restq/internal/transport"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Request succeeded
	ExitFailure      = 1 // The server answered with an error or an unusable body
	ExitCommandError = 2 // Bad flags, arguments, config or definition files
)

// Error codes reported in JSON output.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeRequest     = "E002" // Non-2xx status or transport failure
	ErrCodeDecode      = "E003" // Response body is not JSON
	ErrCodeArgument    = "E004" // Invalid URL or argument shape
	ErrCodeDefinition  = "E005" // Query definition failed to load
	ErrCodeUnsupported = "E006" // Unknown aggregate method
	ErrCodeConfig      = "E007" // Config failed to load or validate
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// classify maps a client error to its JSON error code and exit code.
func classify(err error) (string, int) {
	var de *querydef.DefinitionError
	switch {
	case transport.IsRequestError(err):
		return ErrCodeRequest, ExitFailure
	case transport.IsDecodeError(err):
		return ErrCodeDecode, ExitFailure
	case resource.IsInvalidArgument(err), overload.IsNoMatchingOverload(err):
		return ErrCodeArgument, ExitCommandError
	case query.IsUnsupportedOperation(err):
		return ErrCodeUnsupported, ExitCommandError
	case errors.As(err, &de):
		return ErrCodeDefinition, ExitCommandError
	}
	return ErrCodeGeneric, GetExitCode(err)
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the JSON envelope written in json format.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success writes data. Text output is indented JSON, except for plain
// strings which are printed as-is.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}

	if s, ok := data.(string); ok {
		_, err := fmt.Fprintln(f.Writer, s)
		return err
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f.Writer, string(raw))
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err and returns it as an ExitError carrying the matching
// exit code. A RequestError's status and body are included as details.
func (f *OutputFormatter) Fail(message string, err error) error {
	code, exit := classify(err)

	var details any
	var re *transport.RequestError
	if errors.As(err, &re) && re.Status != 0 {
		details = map[string]any{"status": re.Status, "body": string(re.Body)}
	}
	if outErr := f.Error(code, fmt.Sprintf("%s: %v", message, err), details); outErr != nil {
		return outErr
	}
	return WrapExitError(exit, message, err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
