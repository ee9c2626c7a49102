// Package convert provides the Dispatcher that validates a conversion request
// against the format registry, runs the matching collaborator and folds every
// outcome into a single Result.
package convert

import (
	"fmt"

	"github.com/maauso/mediaconv/internal/format"
)

// FailureKind classifies why a request did not produce an output.
type FailureKind string

const (
	// UnsupportedFormat means the requested output format is not legal for
	// the action, or the action itself is unknown.
	UnsupportedFormat FailureKind = "UnsupportedFormat"
	// UnsupportedInput means the input file or URL is not accepted by the action.
	UnsupportedInput FailureKind = "UnsupportedInput"
	// NotImplemented means the pair is registered but has no conversion path.
	NotImplemented FailureKind = "NotImplemented"
	// CollaboratorError means an external tool or library failed.
	CollaboratorError FailureKind = "CollaboratorError"
)

// Request describes a single conversion.
type Request struct {
	// Kind selects the action.
	Kind format.ActionKind
	// Input is a local file path, or a URL for remote download.
	Input string
	// Format is the requested output format. Empty selects the action default.
	Format string
	// Brightness and Contrast are used by image enhancement only. Zero means 1.0.
	Brightness float64
	Contrast   float64
}

// Output references a produced file.
type Output struct {
	Path     string `json:"path"`
	Format   string `json:"format"`
	MIMEType string `json:"mime_type"`
}

// Failure describes a request that produced nothing.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Error implements error.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Result is the outcome of Convert. Exactly one of Output and Failure is set.
type Result struct {
	Output  *Output
	Failure *Failure
}

// OK reports whether the result carries an output.
func (r Result) OK() bool {
	return r.Failure == nil && r.Output != nil
}

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

func succeeded(path, written, mimeType string) Result {
	return Result{Output: &Output{Path: path, Format: written, MIMEType: mimeType}}
}

func failed(kind FailureKind, format string, args ...any) Result {
	return Result{Failure: &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}}
}
