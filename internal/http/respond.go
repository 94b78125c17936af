package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"tally/internal/core"
)

// maxBodySize caps request bodies at 1 MiB. Payloads here are tiny; anything
// bigger is abuse.
const maxBodySize = 1 << 20

type envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Errors  []core.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response", "error", err)
	}
}

func writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, r, status, envelope{Success: true, Data: data})
}

func writeFieldErrors(w http.ResponseWriter, r *http.Request, errs []core.FieldError) {
	writeJSON(w, r, http.StatusBadRequest, envelope{Errors: errs})
}

func writeNotFound(w http.ResponseWriter, r *http.Request, msg string) {
	writeJSON(w, r, http.StatusNotFound, envelope{Error: msg})
}

func writeServerError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "Request failed", "error", err,
		"method", r.Method, "path", r.URL.Path)
	writeJSON(w, r, http.StatusInternalServerError, envelope{Error: "internal server error"})
}

// decodeJSON reads the request body into dst. Malformed JSON and unknown
// fields come back as a field error on "body" so clients get the same error
// shape as validation failures.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		msg := "request body must be valid JSON"
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			msg = "request body is too large"
		case errors.Is(err, io.EOF):
			msg = "request body must not be empty"
		}
		writeFieldErrors(w, r, []core.FieldError{{Field: "body", Message: msg, Code: core.CodeInvalid}})
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeFieldErrors(w, r, []core.FieldError{{
			Field: "body", Message: "request body must contain a single JSON object", Code: core.CodeInvalid,
		}})
		return false
	}
	return true
}
