package middleware

import (
	"net/http"

	httputil "clinicbook/pkg/http"
)

const (
	codeTimeout          = "TIMEOUT"
	codeRateLimited      = "RATE_LIMITED"
	codeUnsupportedMedia = "UNSUPPORTED_MEDIA_TYPE"
	codeInternal         = "INTERNAL_ERROR"
)

// reject answers with the error body the route handlers use, so clients
// parse middleware refusals the same way.
func reject(w http.ResponseWriter, status int, code, message string) {
	_ = httputil.WriteJSON(w, status, httputil.ErrorResponse{Error: message, Code: code})
}
