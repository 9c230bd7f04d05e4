package handlers

import (
	"encoding/json"
	"net/http"

	"telescordAPI/pkg/errors"
)

// Helper functions
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithAppError maps the error taxonomy onto HTTP statuses.
func respondWithAppError(w http.ResponseWriter, err error) {
	var code int
	switch errors.CodeOf(err) {
	case errors.CodeInvalidArgument:
		code = http.StatusBadRequest
	case errors.CodeNotFound:
		code = http.StatusNotFound
	case errors.CodeAlreadyExists, errors.CodeFailedPrecondition:
		code = http.StatusConflict
	case errors.CodeUnauthenticated:
		code = http.StatusUnauthorized
	default:
		code = http.StatusInternalServerError
	}
	respondWithError(w, code, err.Error())
}
