package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// maxBodyBytes caps request bodies; every API payload is a few fields.
const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into dst. On failure it writes the
// error response itself and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeErrorBody(w, http.StatusBadRequest, decodeErrorMessage(err))
		return false
	}
	if dec.More() {
		writeErrorBody(w, http.StatusBadRequest, "request body must contain a single JSON object")
		return false
	}
	return true
}

func decodeErrorMessage(err error) string {
	var maxErr *http.MaxBytesError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &maxErr):
		return "request body too large"
	case errors.Is(err, io.EOF):
		return "request body is empty"
	case errors.As(err, &syntaxErr):
		return "malformed JSON in request body"
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return "invalid value for field " + typeErr.Field
		}
		return "invalid value in request body"
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		return "unknown field in request body"
	default:
		return "invalid request body"
	}
}

// requireUserQuery extracts the user_id query parameter, answering 400 when
// it is missing.
func requireUserQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeErrorBody(w, http.StatusBadRequest, "user_id query parameter is required")
		return "", false
	}
	return userID, true
}
