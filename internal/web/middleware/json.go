package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody mirrors web.ErrorResponse so middleware rejections look like
// handler errors to API clients.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func writeJSONError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: message, Message: message, Code: code})
}
