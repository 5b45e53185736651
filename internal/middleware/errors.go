package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError writes the API error body used across the service:
// {"error": "<message>", "code": "<CODE>"}.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  code,
	})
}
