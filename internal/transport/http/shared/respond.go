// Package shared holds response helpers used by every handler package.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "trailguard/pkg/domain-errors"
)

// WriteJSON encodes v with the given status. Encoding failures are ignored;
// the status line has already been committed.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError maps a domain error to its HTTP status. Non-domain errors become
// opaque 500s so internal detail never leaks to clients.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		WriteJSON(w, dErrors.HTTPStatus(domainErr.Code), errorBody{
			Error: errorDetail{Code: string(domainErr.Code), Message: domainErr.Message},
		})
		return
	}
	WriteJSON(w, http.StatusInternalServerError, errorBody{
		Error: errorDetail{Code: string(dErrors.CodeInternal), Message: "internal error"},
	})
}
