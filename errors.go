package tablesync

import (
	"errors"
	"fmt"
)

// Sentinel errors for classifying remote failures. Adapters map vendor
// responses onto these through RemoteError; the engine and transfer manager
// only ever test against the sentinels.
var (
	// ErrPayloadTooLarge indicates the remote side rejected a write because
	// the request body exceeded its size limit. It drives chunk bisection and
	// is deliberately not a transient error.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrRateLimited indicates the call-frequency budget was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable indicates a server-side or network failure.
	ErrUnavailable = errors.New("service unavailable")

	// ErrUnauthorized indicates an authentication or authorization failure.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput indicates the remote side rejected the request as
	// malformed (validation failure).
	ErrInvalidInput = errors.New("invalid input")

	// ErrKeyColumnRequired indicates a sync mode that needs a key column was
	// configured without one.
	ErrKeyColumnRequired = errors.New("key column required")
)

// Vendor error codes shared by the record and grid boundaries.
const (
	codeRequestTooLarge = 90227
)

// RemoteError wraps a failure reported by the table service. Code carries the
// vendor error code when one was present, otherwise the HTTP status.
type RemoteError struct {
	Op      string
	Code    int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: remote error %d: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: remote error: %s", e.Op, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is maps vendor and HTTP codes onto the classification sentinels.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrPayloadTooLarge:
		return e.Code == codeRequestTooLarge || e.Code == 413
	case ErrRateLimited:
		return e.Code == 429
	case ErrUnavailable:
		return e.Code >= 500 && e.Code < 600
	case ErrUnauthorized:
		return e.Code == 401 || e.Code == 403
	case ErrInvalidInput:
		return e.Code == 400
	}
	return false
}

// NewRemoteError creates a RemoteError for the given operation and code.
func NewRemoteError(op string, code int, message string) *RemoteError {
	return &RemoteError{Op: op, Code: code, Message: message}
}

// ConfigError reports an invalid configuration. It is raised before any
// remote call and never retried.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config: %s", e.Message)
}

// Is maps key-column configuration failures onto their sentinel so callers
// can test for them without string matching.
func (e *ConfigError) Is(target error) bool {
	return target == ErrKeyColumnRequired && e.Field == "key_column"
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// IsTransient reports whether err is worth retrying. Payload-too-large is
// excluded: it is handled by bisection, not by the retry loop.
func IsTransient(err error) bool {
	if errors.Is(err, ErrPayloadTooLarge) {
		return false
	}
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}

// IsPayloadTooLarge reports whether err carries the payload-too-large signal.
func IsPayloadTooLarge(err error) bool {
	return errors.Is(err, ErrPayloadTooLarge)
}
