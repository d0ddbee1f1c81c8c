package dto

import "net/http"

// Client-facing error codes, stable across releases. Handlers never send
// raw domain codes; NormalizeErrorCode translates them first.
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	// Build and deployment
	ErrCodeBuildInProgress = "ERR_BUILD_IN_PROGRESS"
	ErrCodeThemeInUse      = "ERR_THEME_IN_USE"
	ErrCodeThemeNotBuilt   = "ERR_THEME_NOT_BUILT"
	ErrCodeInvalidState    = "ERR_INVALID_STATE"

	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"

	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

var errorCodeStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeBuildInProgress: http.StatusConflict,
	ErrCodeThemeInUse:      http.StatusConflict,
	ErrCodeThemeNotBuilt:   http.StatusUnprocessableEntity,
	ErrCodeInvalidState:    http.StatusUnprocessableEntity,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status for a client-facing error code,
// defaulting to 500 for codes the table does not know.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodeMapping translates domain error codes into client-facing ones
var domainCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"BUILD_IN_PROGRESS":    ErrCodeBuildInProgress,
	"THEME_IN_USE":         ErrCodeThemeInUse,
	"THEME_NOT_BUILT":      ErrCodeThemeNotBuilt,
	"INVALID_CREDENTIALS":  ErrCodeUnauthorized,
	"INVALID_SLUG":         ErrCodeInvalidInput,
	"INVALID_NAME":         ErrCodeInvalidInput,
	"INVALID_EMAIL":        ErrCodeInvalidInput,
	"INVALID_PASSWORD":     ErrCodeInvalidInput,
	"INVALID_SKU":          ErrCodeInvalidInput,
	"INVALID_PRICE":        ErrCodeInvalidInput,
	"INVALID_QUANTITY":     ErrCodeInvalidInput,
	"MISSING_ARCHIVE":      ErrCodeInvalidInput,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code into the client-facing
// format. Codes already in that format, or unknown ones, pass through.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
