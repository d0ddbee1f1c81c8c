package shared

// DomainError is the error type services return for expected failures.
// The code travels up to the HTTP layer, which maps it onto a status and
// a stable client-facing error code.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string { return e.Message }

// NewDomainError builds a DomainError with the given code and message
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Sentinel errors shared across the domain. Services wrap these with
// fmt.Errorf("...: %w", ...) so callers can match with errors.Is.
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrThemeInUse          = NewDomainError("THEME_IN_USE", "Theme is referenced by one or more stores")
	ErrBuildInProgress     = NewDomainError("BUILD_IN_PROGRESS", "A build is already in progress for this target")
)
