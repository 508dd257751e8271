package dto

import "net/http"

// General error codes used by the HTTP layer itself
const (
	ErrCodeInternal   = "INTERNAL"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeNotFound   = "NOT_FOUND"
)

// domainCodeHTTPStatus maps domain error codes to HTTP status codes.
// Codes not listed fall back to 422: the request was well-formed but the
// operation violated a business rule.
var domainCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,

	"NOT_FOUND": http.StatusNotFound,

	"ALREADY_EXISTS":  http.StatusConflict,
	"ALREADY_POSTED":  http.StatusConflict,
	"SCHEDULE_EXISTS": http.StatusConflict,
	"PERIOD_EXISTS":   http.StatusConflict,

	"INVALID_INPUT":    http.StatusBadRequest,
	"INVALID_AMOUNT":   http.StatusBadRequest,
	"INVALID_QUANTITY": http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status for a domain error code
func GetHTTPStatus(code string) int {
	if status, ok := domainCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusUnprocessableEntity
}
