package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error codes for different failure scenarios
const (
	ErrInvalidInput   = "INVALID_INPUT"
	ErrRemoteAPI      = "REMOTE_API_ERROR"
	ErrGeolocation    = "GEOLOCATION_ERROR"
	ErrStorage        = "STORAGE_ERROR"
	ErrRateLimit      = "RATE_LIMIT_EXCEEDED"
	ErrInternalServer = "INTERNAL_SERVER_ERROR"
	ErrValidation     = "VALIDATION_ERROR"
)

// User-facing messages. Remote failures deliberately stay generic: the
// details go to the log, the user gets a retry suggestion.
const (
	MsgAnalysisFailed     = "Failed to analyze symptoms. Please try again in a moment."
	MsgDoctorLookupFailed = "Could not search for nearby doctors. Please try again in a moment."
	MsgLocationDenied     = "Location access was denied. Please allow location access and try again."
	MsgLocationUnknown    = "Your location could not be determined."
	MsgLocationTimeout    = "Timed out while determining your location."
)

// APIError is the structured error payload returned by the HTTP and MCP
// surfaces.
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// RemoteCallError wraps a failed model invocation: transport fault, non-2xx
// status, or an upstream reply with no usable text. It is never retried
// automatically; StatusCode is zero when no HTTP status was received.
type RemoteCallError struct {
	Op         string
	StatusCode int
	Cause      error
}

// Error implements the error interface
func (e *RemoteCallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote call %s failed with status %d: %v", e.Op, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("remote call %s failed: %v", e.Op, e.Cause)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *RemoteCallError) Unwrap() error {
	return e.Cause
}

// RateLimited reports whether the upstream rejected the call for quota.
func (e *RemoteCallError) RateLimited() bool {
	return e.StatusCode == 429
}

// NewRemoteCallError creates a RemoteCallError for a failed operation.
func NewRemoteCallError(op string, statusCode int, cause error) *RemoteCallError {
	return &RemoteCallError{Op: op, StatusCode: statusCode, Cause: cause}
}

// AnalysisError is what the symptom-analysis path surfaces on failure. The
// user-facing message stays generic regardless of the cause.
type AnalysisError struct {
	Cause error
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	return fmt.Sprintf("symptom analysis failed: %v", e.Cause)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the generic retry-suggesting message shown to users.
func (e *AnalysisError) UserMessage() string {
	return MsgAnalysisFailed
}

// NewAnalysisError wraps a cause as an analysis failure.
func NewAnalysisError(cause error) *AnalysisError {
	return &AnalysisError{Cause: cause}
}

// DoctorLookupError is surfaced only when the final fallback stage of a
// doctor lookup fails; a recovered first-stage failure never raises it.
type DoctorLookupError struct {
	Cause error
}

// Error implements the error interface
func (e *DoctorLookupError) Error() string {
	return fmt.Sprintf("doctor lookup failed: %v", e.Cause)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *DoctorLookupError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the generic retry-suggesting message shown to users.
func (e *DoctorLookupError) UserMessage() string {
	return MsgDoctorLookupFailed
}

// NewDoctorLookupError wraps a cause as a doctor-lookup failure.
func NewDoctorLookupError(cause error) *DoctorLookupError {
	return &DoctorLookupError{Cause: cause}
}

// GeolocationCode distinguishes the three position-acquisition outcomes.
type GeolocationCode string

const (
	GEO_DENIED      GeolocationCode = "denied"
	GEO_UNAVAILABLE GeolocationCode = "unavailable"
	GEO_TIMEOUT     GeolocationCode = "timeout"
)

// GeolocationError reports a failed position acquisition. Each code carries
// its own user message; callers must not collapse them into one generic
// failure.
type GeolocationError struct {
	Code  GeolocationCode
	Cause error
}

// Error implements the error interface
func (e *GeolocationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("geolocation %s: %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("geolocation %s", e.Code)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *GeolocationError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the code-specific message shown to users.
func (e *GeolocationError) UserMessage() string {
	switch e.Code {
	case GEO_DENIED:
		return MsgLocationDenied
	case GEO_TIMEOUT:
		return MsgLocationTimeout
	default:
		return MsgLocationUnknown
	}
}

// NewGeolocationError creates a GeolocationError with the given code.
func NewGeolocationError(code GeolocationCode, cause error) *GeolocationError {
	return &GeolocationError{Code: code, Cause: cause}
}

// GeolocationCodeOf extracts the geolocation outcome code from an error
// chain.
func GeolocationCodeOf(err error) (GeolocationCode, bool) {
	var geoErr *GeolocationError
	if errors.As(err, &geoErr) {
		return geoErr.Code, true
	}
	return "", false
}

// StorageError wraps a history persistence fault. The delivery layer logs it
// and continues; it is never shown to users, and a corrupt blob reads as an
// empty history.
type StorageError struct {
	Op    string
	Cause error
}

// Error implements the error interface
func (e *StorageError) Error() string {
	return fmt.Sprintf("history storage %s failed: %v", e.Op, e.Cause)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError wraps a cause as a storage failure for the given operation.
func NewStorageError(op string, cause error) *StorageError {
	return &StorageError{Op: op, Cause: cause}
}
