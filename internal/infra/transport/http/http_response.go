package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes caps the size of decoded request bodies.
const maxBodyBytes = 1 << 20

// ErrInvalidBody is returned by DecodeJSON for bodies that are not a single JSON value.
var ErrInvalidBody = errors.New("invalid request body")

// ErrorResponse is the envelope of every error answer. Error holds either a
// single message or a list of messages.
type ErrorResponse struct {
	Error any `json:"error"`
}

// MessageResponse is a plain informational answer.
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

// WriteError writes a single message error envelope.
func WriteError(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteErrors writes a multi message error envelope.
func WriteErrors(w http.ResponseWriter, status int, messages []string) error {
	return WriteJSON(w, status, ErrorResponse{Error: messages})
}

// DecodeJSON decodes the request body into v.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))

	if err := dec.Decode(v); err != nil {
		return errors.Join(ErrInvalidBody, fmt.Errorf("decode body: %w", err))
	}

	return nil
}
