// Package server provides the HTTP shell of the media converter.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// ConvertForm holds the multipart fields of POST /convert.
type ConvertForm struct {
	// Kind is the action wire name, e.g. "image-convert".
	Kind string `validate:"required,max=64"`
	// Format is the requested output format. Empty selects the action default.
	Format string `validate:"max=16"`
	// Filename is the client-side name of the uploaded file.
	Filename string `validate:"required,max=255"`
	// Brightness and Contrast are used by image-enhance only.
	Brightness float64
	Contrast   float64
	// Publish uploads the output to S3 when set.
	Publish bool
}

// DownloadRequest is the HTTP request body for POST /download.
type DownloadRequest struct {
	// URL is the remote page or media link.
	URL string `json:"url" validate:"required,max=2048"`
	// Media is "audio" or "video". Empty selects video.
	Media string `json:"media" validate:"omitempty,max=16"`
	// Publish uploads the output to S3 when set.
	Publish bool `json:"publish"`
}

// ConversionResponse renders a conversion result. Exactly one of Output and
// Failure is set.
type ConversionResponse struct {
	// OK is true when an output was produced.
	OK      bool            `json:"ok"`
	Output  *OutputResponse `json:"output,omitempty"`
	Failure *FailureDTO     `json:"failure,omitempty"`
}

// OutputResponse describes a produced file.
type OutputResponse struct {
	// File is the output file name inside the output directory.
	File string `json:"file"`
	// URL is the local download link, served by GET /files/{name}.
	URL      string `json:"url"`
	Format   string `json:"format"`
	MIMEType string `json:"mime_type"`
	// PublishedURL is set when the output was uploaded to S3.
	PublishedURL string `json:"published_url,omitempty"`
	// PublishError is set when publication was requested but failed.
	PublishError string `json:"publish_error,omitempty"`
}

// FailureDTO describes why nothing was produced.
type FailureDTO struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ActionResponse describes one action of the format registry.
type ActionResponse struct {
	Kind           string   `json:"kind"`
	AcceptedInputs []string `json:"accepted_inputs"`
	AllowedOutputs []string `json:"allowed_outputs"`
	DefaultOutput  string   `json:"default_output,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
