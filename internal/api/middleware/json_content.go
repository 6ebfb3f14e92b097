package middleware

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
)

// Messages returned by RequireJSON.
const (
	MsgJSONContentType = "Content-Type must be application/json"
	MsgEmptyBody       = "Request body cannot be empty"
	MsgBodyTooLarge    = "Request body too large"
)

// RequireJSON gates POST requests: the body must be declared as JSON, must
// not be empty and must fit in maxBytes. Other methods pass through.
func RequireJSON(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != "application/json" {
				writeError(w, http.StatusBadRequest, MsgJSONContentType)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					writeError(w, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
					return
				}
				writeError(w, http.StatusBadRequest, "Unable to read request body")
				return
			}
			if len(bytes.TrimSpace(body)) == 0 {
				writeError(w, http.StatusBadRequest, MsgEmptyBody)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			r.ContentLength = int64(len(body))
			next.ServeHTTP(w, r)
		})
	}
}
