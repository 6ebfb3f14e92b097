package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// Recover turns a handler panic into a generic 500 and logs the stack.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
// If the handler already started its response, that response is left as it
// is and only the log entry is written.
func Recover(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &headerTracker{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic_recovered",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.Bool("response_started", tw.wroteHeader),
					zap.Stack("stack"),
				)
				if !tw.wroteHeader {
					writeError(w, http.StatusInternalServerError, GenericErrorMessage)
				}
			}()
			next.ServeHTTP(tw, r)
		})
	}
}

// headerTracker records whether the wrapped handler has sent headers.
type headerTracker struct {
	http.ResponseWriter
	wroteHeader bool
}

func (t *headerTracker) WriteHeader(code int) {
	t.wroteHeader = true
	t.ResponseWriter.WriteHeader(code)
}

func (t *headerTracker) Write(b []byte) (int, error) {
	t.wroteHeader = true
	return t.ResponseWriter.Write(b)
}

func (t *headerTracker) Unwrap() http.ResponseWriter { return t.ResponseWriter }
