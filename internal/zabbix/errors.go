package zabbix

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionNotFound is returned by a SessionStore without a token for the key
var ErrSessionNotFound = errors.New("session not found")

// APIError is the JSON-RPC error object returned by the Zabbix API
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (e *APIError) Error() string {
	if e.Data == "" {
		return fmt.Sprintf("Error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("Error %d: %s %s", e.Code, e.Message, e.Data)
}

// sessionExpired reports whether the server rejected the auth token
func (e *APIError) sessionExpired() bool {
	for _, s := range []string{"Session terminated", "Not authorised", "Not authorized"} {
		if strings.Contains(e.Data, s) || strings.Contains(e.Message, s) {
			return true
		}
	}
	return false
}

// HTTPError is returned when the API answers with a non-2xx status
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}
