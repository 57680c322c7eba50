package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the job ran but some items failed
	ExitCommandError = 2 // bad flags, unreachable dependencies
)

// ExitError carries the process exit code for a failed command
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

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError without a cause
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps err with an exit code
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Plain errors exit 1.
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

// Field is one labelled value of a text report
type Field struct {
	Label string
	Value any
}

// OutputFormatter writes command results as text or JSON
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Response is the JSON envelope of every command
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Report writes a titled list of fields, or data as JSON. A non-nil runErr
// marks the JSON status as partial.
func (f *OutputFormatter) Report(title string, data any, runErr error, fields ...Field) error {
	if f.Format == "json" {
		resp := Response{Status: "ok", Data: data}
		if runErr != nil {
			resp.Status = "partial"
			resp.Error = runErr.Error()
		}
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Fprintln(f.Writer, title)
	for _, field := range fields {
		fmt.Fprintf(f.Writer, "  %s: %v\n", field.Label, field.Value)
	}
	if runErr != nil {
		fmt.Fprintf(f.Writer, "  errors: %v\n", runErr)
	}
	return nil
}
