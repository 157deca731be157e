package dto

import (
	"errors"
	"net/http"

	"github.com/resys/backend/internal/domain/shared"
)

// Error codes produced by the HTTP layer itself. Domain error codes are
// passed through with the same ERR_ prefix.
const (
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeNotFound        = "ERR_NOT_FOUND"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

const errCodePrefix = "ERR_"

// ErrorCodeHTTPStatus maps HTTP-layer error codes to status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
}

// KindHTTPStatus maps a domain error kind to its status code.
// Failures reported by the domain are well-formed requests the system
// cannot serve in its current configuration.
var KindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation: http.StatusBadRequest,
	shared.KindNotFound:   http.StatusNotFound,
	shared.KindConflict:   http.StatusConflict,
	shared.KindFailure:    http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an HTTP-layer error code.
// Unknown codes are 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromError classifies err into a status code and error body. Errors that
// are not domain errors never leak their message.
func FromError(err error, requestID string) (int, Response) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, NewErrorResponse(ErrCodeInternal, "An unexpected error occurred", requestID)
	}
	status, ok := KindHTTPStatus[de.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return status, NewErrorResponse(errCodePrefix+de.Code, de.Message, requestID)
}
