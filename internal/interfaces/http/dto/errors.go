package dto

import (
	"net/http"

	"github.com/Duran117/kibray-sub001/internal/domain/shared"
)

// Transport-level error codes. Domain failures reuse the shared.Code* values.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeInvalidJSON  = "INVALID_JSON"
	ErrCodeRouteMissing = "ROUTE_NOT_FOUND"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeRouteMissing: http.StatusNotFound,

	shared.CodeValidation:          http.StatusBadRequest,
	shared.CodeInvalidInput:        http.StatusBadRequest,
	shared.CodeNotFound:            http.StatusNotFound,
	shared.CodeAlreadyExists:       http.StatusConflict,
	shared.CodeConcurrencyConflict: http.StatusConflict,
	shared.CodeInvalidState:        http.StatusUnprocessableEntity,
	shared.CodeInsufficientStock:   http.StatusUnprocessableEntity,

	// A negative balance means an invariant broke inside the engine
	shared.CodeNegativeStock: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
