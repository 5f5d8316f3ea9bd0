package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"messenger-backend/apperror"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Data any `json:"data"`
}

func respondWithError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondWithAppError maps the error taxonomy to an HTTP status. Internal
// details of unknown errors are not leaked to the client.
func respondWithAppError(w http.ResponseWriter, err error) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		respondWithError(w, appErr.Message, appErr.StatusCode())
		return
	}
	respondWithError(w, "internal server error", http.StatusInternalServerError)
}

func respondWithSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(SuccessResponse{Data: data})
}
