package httpx

import "net/http"

const (
	StatusOK                  = http.StatusOK                  // Successful request
	StatusCreated             = http.StatusCreated             // Resource created
	StatusNoContent           = http.StatusNoContent           // Successful with no body
	StatusSeeOther            = http.StatusSeeOther            // Redirect after POST
	StatusBadRequest          = http.StatusBadRequest          // Validation or malformed input
	StatusUnauthorized        = http.StatusUnauthorized        // Missing or invalid authentication
	StatusForbidden           = http.StatusForbidden           // Authenticated but lacks permission
	StatusNotFound            = http.StatusNotFound            // Resource not found
	StatusInternalError       = http.StatusInternalServerError // Unexpected server error
	StatusServiceUnavailable  = http.StatusServiceUnavailable  // Dependency failure or maintenance
)

// ApiStatus is the JSON envelope for operation outcomes returned to
// programmatic clients. Code mirrors the HTTP status of the response.
type ApiStatus struct {
	Code      int    `json:"code"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// NewApiStatus returns an envelope with the given code and message.
func NewApiStatus(code int, message string) ApiStatus {
	return ApiStatus{Code: code, Message: message}
}

// WithSessionID returns a copy carrying the web session identifier.
func (s ApiStatus) WithSessionID(id string) ApiStatus {
	s.SessionID = id
	return s
}
