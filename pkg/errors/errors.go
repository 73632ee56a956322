package errors

import "fmt"

// ErrorType classifies failures in the fetch-assess-write pipeline.
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeContentType ErrorType = "content_type"
	ErrorTypeDecode      ErrorType = "decode"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error is a classified error carrying the HTTP status code when one exists.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// New creates a classified error.
func New(t ErrorType, message string, code int) *Error {
	return &Error{Type: t, Message: message, Code: code}
}

// Newf creates a classified error with a formatted message.
func Newf(t ErrorType, code int, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...), Code: code}
}

// IsRetryable reports whether an error type is worth retrying. Decode and
// content-type failures are permanent for a given URL and never retried.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode reports whether an HTTP status code indicates a
// transient condition.
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429:
		return true
	case 500, 502, 503, 504:
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}
