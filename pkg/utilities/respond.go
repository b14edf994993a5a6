package utilities

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
)

const maxBodyBytes = 1 << 20

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": msg}.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

// DecodeJSON decodes a request body of at most 1 MiB into v.
// An empty body is reported as io.EOF.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return err
	}
	return nil
}

// QueryInt reads a non-negative integer query parameter, returning d when absent or invalid.
func QueryInt(r *http.Request, key string, d int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return d
	}
	return v
}

// Page clamps limit/offset query parameters to [1, max] and [0, ∞).
func Page(r *http.Request, defLimit, max int) (limit, offset int) {
	limit = QueryInt(r, "limit", defLimit)
	if limit == 0 {
		limit = defLimit
	}
	if limit > max {
		limit = max
	}
	return limit, QueryInt(r, "offset", 0)
}
