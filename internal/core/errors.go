// Package core provides core types and interfaces shared by the generator,
// the enhancement pipeline and the completion gateway.
package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents the type of error that occurred
type ErrorType string

const (
	// ErrorTypeValidation indicates a missing or malformed request field
	ErrorTypeValidation ErrorType = "validation_error"
	// ErrorTypeUnknownModel indicates a model id with no configuration
	ErrorTypeUnknownModel ErrorType = "unknown_model_error"
	// ErrorTypeUnknownScenario indicates a template id with no registered scenario
	ErrorTypeUnknownScenario ErrorType = "unknown_scenario_error"
	// ErrorTypeAuthentication indicates an authentication error (401)
	ErrorTypeAuthentication ErrorType = "authentication_error"
	// ErrorTypeRateLimit indicates a rate limit error (429)
	ErrorTypeRateLimit ErrorType = "rate_limit_error"
	// ErrorTypeOverloaded indicates the upstream model is overloaded (503)
	ErrorTypeOverloaded ErrorType = "overloaded_error"
	// ErrorTypeProvider indicates any other upstream provider error
	ErrorTypeProvider ErrorType = "provider_error"
	// ErrorTypeExtraction indicates no program could be recovered from a model response
	ErrorTypeExtraction ErrorType = "extraction_error"
)

// Error is the base error type for all generation and gateway errors
type Error struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Provider   string    `json:"provider,omitempty"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Provider, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *Error) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Type {
	case ErrorTypeValidation, ErrorTypeUnknownModel:
		return http.StatusBadRequest
	case ErrorTypeUnknownScenario:
		return http.StatusNotFound
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case ErrorTypeOverloaded:
		return http.StatusServiceUnavailable
	case ErrorTypeProvider:
		return http.StatusBadGateway
	case ErrorTypeExtraction:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON converts the error to a JSON-compatible map
func (e *Error) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"type":    e.Type,
			"message": e.Message,
		},
	}
}

// UserMessage returns the message shown to end users for this error.
// Upstream authentication failures are masked; local ones (no provider) keep
// their message.
func (e *Error) UserMessage() string {
	switch e.Type {
	case ErrorTypeAuthentication:
		if e.Provider == "" {
			return e.Message
		}
		return "Invalid API key. Please check your key and try again."
	case ErrorTypeRateLimit:
		return "Rate limit exceeded. Please try again later."
	case ErrorTypeOverloaded:
		return "Model is currently overloaded. Please try again in a few moments."
	default:
		return e.Message
	}
}

// IsType reports whether err wraps an *Error of the given type.
func IsType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// NewValidationError creates a new validation error (400)
func NewValidationError(message string) *Error {
	return &Error{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewUnknownModelError creates an error for a model id with no configuration
func NewUnknownModelError(model string) *Error {
	return &Error{
		Type:       ErrorTypeUnknownModel,
		Message:    "unknown model: " + model,
		StatusCode: http.StatusBadRequest,
	}
}

// NewUnknownScenarioError creates an error for an unregistered template id
func NewUnknownScenarioError(id string) *Error {
	return &Error{
		Type:       ErrorTypeUnknownScenario,
		Message:    fmt.Sprintf("template %s not found", id),
		StatusCode: http.StatusNotFound,
	}
}

// NewAuthenticationError creates a new authentication error (401)
func NewAuthenticationError(provider string, message string) *Error {
	return &Error{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Provider:   provider,
	}
}

// NewRateLimitError creates a new rate limit error (429)
func NewRateLimitError(provider string, message string) *Error {
	return &Error{
		Type:       ErrorTypeRateLimit,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
		Provider:   provider,
	}
}

// NewOverloadedError creates a new overload error (503)
func NewOverloadedError(provider string, message string) *Error {
	return &Error{
		Type:       ErrorTypeOverloaded,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Provider:   provider,
	}
}

// NewProviderError creates a new provider error (upstream failure)
func NewProviderError(provider string, statusCode int, message string, err error) *Error {
	return &Error{
		Type:       ErrorTypeProvider,
		Message:    message,
		StatusCode: statusCode,
		Provider:   provider,
		Err:        err,
	}
}

// NewExtractionError creates an error for a response that holds no usable program
func NewExtractionError(message string) *Error {
	return &Error{
		Type:       ErrorTypeExtraction,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// ParseProviderError parses an error response from a provider and returns an appropriate Error
func ParseProviderError(provider string, statusCode int, body []byte, originalErr error) *Error {
	var errorResponse struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}

	message := string(body)
	errType := ""
	if err := json.Unmarshal(body, &errorResponse); err == nil && errorResponse.Error.Message != "" {
		message = errorResponse.Error.Message
		errType = errorResponse.Error.Type
	}

	return ClassifyStatus(provider, statusCode, message, errType, originalErr)
}

// ClassifyStatus maps an upstream status code and message to an Error.
// Overload is detected from the status code (503, Anthropic's 529) or from an
// explicit "overloaded" signal in the message or upstream error type.
func ClassifyStatus(provider string, statusCode int, message, upstreamType string, originalErr error) *Error {
	overloaded := strings.Contains(strings.ToLower(message), "overloaded") ||
		strings.Contains(strings.ToLower(upstreamType), "overloaded")

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return NewAuthenticationError(provider, message)
	case statusCode == http.StatusTooManyRequests:
		return NewRateLimitError(provider, message)
	case statusCode == http.StatusServiceUnavailable || statusCode == 529 || overloaded:
		err := NewOverloadedError(provider, message)
		err.Err = originalErr
		return err
	default:
		return NewProviderError(provider, http.StatusBadGateway, message, originalErr)
	}
}
