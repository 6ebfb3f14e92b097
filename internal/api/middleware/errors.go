package middleware

import (
	"encoding/json"
	"net/http"
)

// GenericErrorMessage is returned for any failure whose detail must not
// reach the client.
const GenericErrorMessage = "An unexpected error occurred"

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
