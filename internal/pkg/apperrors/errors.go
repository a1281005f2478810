package apperrors

import "errors"

// Common errors
var (
	// Gateway errors
	ErrFetchFailed = errors.New("fetch failed")
	ErrWriteFailed = errors.New("write failed")

	// Push channel errors
	ErrChannelFailed = errors.New("channel failure")
	ErrChannelClosed = errors.New("channel closed")

	// Reconciliation errors
	ErrReconciliationFallback = errors.New("reconciliation fallback")

	// Entity errors
	ErrQuestionNotFound = errors.New("question not found")
	ErrAnswerNotFound   = errors.New("answer not found")
	ErrReplyNotFound    = errors.New("reply not found")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
)

// NewFetchError creates an error for a failed gateway read with a message
func NewFetchError(message string, cause error) error {
	return &CustomError{
		Err:     ErrFetchFailed,
		Message: message,
		Cause:   cause,
	}
}

// NewWriteError creates an error for a failed create/delete call, tagged
// with the operation name
func NewWriteError(op string, cause error) error {
	return &CustomError{
		Err:     ErrWriteFailed,
		Message: op + " failed",
		Op:      op,
		Cause:   cause,
	}
}

// NewChannelError creates an error for a failed or dropped push connection
func NewChannelError(message string, cause error) error {
	return &CustomError{
		Err:     ErrChannelFailed,
		Message: message,
		Cause:   cause,
	}
}

// NewReconciliationFallback creates an error recording that a push event
// was applied from partial data because the follow-up fetch failed
func NewReconciliationFallback(message string, cause error) error {
	return &CustomError{
		Err:     ErrReconciliationFallback,
		Message: message,
		Cause:   cause,
	}
}

// NewCustomError creates a CustomError with an underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Op      string
	Cause   error
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		if e.Cause != nil {
			return e.Message + ": " + e.Cause.Error()
		}
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is returns whether target matches err or any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
