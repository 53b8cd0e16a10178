// Package server provides the HTTP server for the media jobs API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// Error codes returned in ErrorResponse.Code.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeToolNotFound   = "TOOL_NOT_FOUND"
	CodeToolFailed     = "TOOL_EXECUTION_FAILED"
	CodeOutputMissing  = "OUTPUT_MISSING"
	CodeTimeout        = "TIMEOUT"
	CodeCancelled      = "CANCELLED"
	CodeUploadTooLarge = "UPLOAD_TOO_LARGE"
	CodeInternal       = "INTERNAL_ERROR"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HomeResponse is the HTTP response for the liveness endpoint.
type HomeResponse struct {
	Message string `json:"message"`
}
