package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// RequestError is a non-2xx answer from the backend
type RequestError struct {
	Status  int
	Message string
	Payload json.RawMessage
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed (%d): %s", e.Status, e.Message)
}

// FieldErrors extracts per-field messages from a validation payload. Both
// {"errors": {"field": ["msg"]}} and {"error": {"field": "msg"}} are understood.
func (e *RequestError) FieldErrors() map[string]string {
	if len(e.Payload) == 0 {
		return nil
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(e.Payload, &body); err != nil {
		return nil
	}

	out := map[string]string{}
	for _, key := range []string{"errors", "error"} {
		raw, ok := body[key]
		if !ok {
			continue
		}
		var many map[string][]string
		if err := json.Unmarshal(raw, &many); err == nil {
			for field, msgs := range many {
				if len(msgs) > 0 {
					out[field] = msgs[0]
				}
			}
			continue
		}
		var one map[string]string
		if err := json.Unmarshal(raw, &one); err == nil {
			for field, msg := range one {
				out[field] = msg
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// TransportError means no usable response arrived (network, timeout, cancel)
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Timeout() bool {
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// IsStatus reports whether err is a RequestError with the given status
func IsStatus(err error, status int) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Status == status
}

func newRequestError(status int, payload []byte) *RequestError {
	re := &RequestError{
		Status:  status,
		Message: http.StatusText(status),
	}
	if len(payload) == 0 {
		return re
	}
	if json.Valid(payload) {
		re.Payload = json.RawMessage(payload)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(payload, &body); err != nil {
		if text := strings.TrimSpace(string(payload)); text != "" && len(text) < 200 {
			re.Message = text
		}
		return re
	}
	for _, key := range []string{"message", "error"} {
		if msg, ok := body[key].(string); ok && msg != "" {
			re.Message = msg
			return re
		}
	}
	return re
}

// isCSRFFailure matches the statuses a backend uses to reject a stale token
func isCSRFFailure(re *RequestError) bool {
	if re.Status == 419 {
		return true
	}
	return re.Status == http.StatusForbidden && strings.Contains(strings.ToLower(re.Message), "csrf")
}
