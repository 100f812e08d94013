// Package httpjson holds the JSON response helpers shared by every handler.
package httpjson

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"leadsync/internal/model"
)

// OK writes v as a 200 JSON response.
func OK(w http.ResponseWriter, v any) {
	Write(w, http.StatusOK, v)
}

// Write writes v as a JSON response with the given status code.
func Write(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// Error writes {"error": msg} with the given status code.
func Error(w http.ResponseWriter, msg string, code int) {
	Write(w, code, map[string]string{"error": msg})
}

// Fail maps a service error onto a status code: validation errors are 400,
// missing records 404, AI backend failures 502 and anything else a logged 500.
func Fail(w http.ResponseWriter, err error) {
	var ve *model.ValidationError
	var ue *model.UpstreamError
	switch {
	case errors.As(err, &ve):
		Error(w, ve.Msg, http.StatusBadRequest)
	case errors.Is(err, model.ErrNotFound):
		Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &ue):
		log.Printf("[http] upstream error: %v", err)
		Error(w, ue.Error(), http.StatusBadGateway)
	default:
		log.Printf("[http] internal error: %v", err)
		Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// Decode reads a JSON request body into v.
func Decode(r *http.Request, v any) error {
	if r.Body == nil {
		return &model.ValidationError{Msg: "request body is required"}
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &model.ValidationError{Msg: "invalid JSON body", Err: err}
	}
	return nil
}

// Method rejects requests whose method is not one of allowed.
func Method(w http.ResponseWriter, r *http.Request, allowed ...string) bool {
	for _, m := range allowed {
		if r.Method == m {
			return true
		}
	}
	Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}
