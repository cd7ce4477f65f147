package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// The editing UI keys off a success flag in every response.
type errResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func errorBody(msg string) errResponse {
	return errResponse{Success: false, Message: msg}
}

func okBody(msg string) map[string]any {
	return map[string]any{"success": true, "message": msg}
}
