package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// deadlineWriter lets exactly one side answer: the handler, or the deadline.
type deadlineWriter struct {
	http.ResponseWriter
	mu      sync.Mutex
	expired bool
	started bool
}

// claim reports whether the handler may still write.
func (dw *deadlineWriter) claim() bool {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.expired {
		return false
	}
	dw.started = true
	return true
}

func (dw *deadlineWriter) WriteHeader(code int) {
	if dw.claim() {
		dw.ResponseWriter.WriteHeader(code)
	}
}

func (dw *deadlineWriter) Write(b []byte) (int, error) {
	if !dw.claim() {
		return 0, http.ErrHandlerTimeout
	}
	return dw.ResponseWriter.Write(b)
}

// expire closes the writer and reports whether nothing was written yet.
func (dw *deadlineWriter) expire() bool {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	dw.expired = true
	return !dw.started
}

// RequestTimeout bounds each request. A handler that has not started its
// response when the deadline fires is answered with 503 on its behalf.
func RequestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			dw := &deadlineWriter{ResponseWriter: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(dw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if dw.expire() {
					reject(w, http.StatusServiceUnavailable, codeTimeout, "Request timeout")
				}
			}
		})
	}
}
