package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")

	// ErrExpired is returned by writes against an invite the backend has
	// marked expired. Reads report expiry as data instead.
	ErrExpired = errors.New("invite expired")
)

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Message string

	// Expired and ExpiresAt are set when the body carried the expiry flag.
	Expired   bool
	ExpiresAt string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrExpired:
		return e.Expired
	}
	return false
}

type errorBody struct {
	Error     string `json:"error"`
	Detail    string `json:"detail"`
	Message   string `json:"message"`
	Expired   bool   `json:"expired"`
	ExpiresAt string `json:"expires_at"`
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status}

	var b errorBody
	if err := json.Unmarshal(body, &b); err == nil {
		e.Message = firstNonEmpty(b.Error, b.Detail, b.Message)
		e.Expired = b.Expired
		e.ExpiresAt = b.ExpiresAt
		return e
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	e.Message = msg
	return e
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
