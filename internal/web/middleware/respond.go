package middleware

import (
	"encoding/json"
	"net/http"
)

// failure is the body middleware writes when it rejects a request. It has
// the same shape as the web package's hard-failure responses.
type failure struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Code       string `json:"code"`
}

func reject(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(failure{
		StatusCode: status,
		Message:    message,
		Code:       code,
	})
}
