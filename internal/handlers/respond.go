package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/rgoyal/huddle/internal/errs"
)

// response is the boundary shape for every mutation: a success flag plus
// a human-readable message, with optional data alongside.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeSuccess(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Success: true, Message: message})
}

func writeError(w http.ResponseWriter, err error) {
	status := errs.StatusOf(err)
	if status == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
	}
	writeJSON(w, status, response{Success: false, Message: errs.MessageOf(err)})
}
