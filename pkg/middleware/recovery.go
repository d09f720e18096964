package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"clinicbook/pkg/logger"
)

// Recovery turns a handler panic into a 500 and logs the stack.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("Handler panicked",
					"request_id", RequestIDFromContext(r.Context()),
					"panic", fmt.Sprint(rec),
					"route", r.Method+" "+r.URL.Path,
					"stack", string(debug.Stack()),
				)
				reject(w, http.StatusInternalServerError, codeInternal, "Internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
