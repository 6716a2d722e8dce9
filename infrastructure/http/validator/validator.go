package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

const maxBodyBytes = 1 << 20

var ErrEmptyBody = errors.New("request body is empty")

// DecodeJSON reads one JSON object from the request body into dst.
// Unknown fields are rejected so typos surface as 400s.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// DecodeOptionalJSON is DecodeJSON that accepts an empty body
func DecodeOptionalJSON(r *http.Request, dst interface{}) error {
	err := DecodeJSON(r, dst)
	if errors.Is(err, ErrEmptyBody) {
		return nil
	}
	return err
}

// QueryInt returns the integer query parameter or def when absent or malformed
func QueryInt(r *http.Request, key string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func QueryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(key)))
	return err == nil && v
}

func ValidateRequired(value string) bool {
	return strings.TrimSpace(value) != ""
}
