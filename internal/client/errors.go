package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnauthorized   = errors.New("unauthorized, please login again")
	ErrNoToken        = errors.New("token not returned from API")
	ErrDecodeResponse = errors.New("decode response")
	ErrEncodeRequest  = errors.New("encode request")
)

// RequestError is a non-2xx reply from the webhook backend.
type RequestError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *RequestError) Error() string {
	if e == nil {
		return "<nil>"
	}
	statusText := http.StatusText(e.StatusCode)
	if statusText == "" {
		statusText = "unknown status"
	}
	return fmt.Sprintf("request failed: status=%d (%s) message=%s", e.StatusCode, statusText, e.Message)
}

// mapRequestError prefers the backend's own message/error field.
func mapRequestError(statusCode int, body []byte) error {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if json.Unmarshal(body, &parsed) == nil {
		msg = parsed.Message
		if msg == "" {
			msg = parsed.Error
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	return &RequestError{
		StatusCode: statusCode,
		Message:    msg,
		Body:       append([]byte(nil), body...),
	}
}
