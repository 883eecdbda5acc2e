package middleware

import (
	"encoding/json"
	"net/http"

	"go-live-chatroom/internal/model"
)

// writeErrorEnvelope answers before a handler runs, in the same envelope the
// handlers use.
func writeErrorEnvelope(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   &model.APIError{Code: code, Message: message},
	})
}
