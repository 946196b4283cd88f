package clients

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindServer       Kind = "server"
	KindNetwork      Kind = "network"
	KindUnauthorized Kind = "unauthorized"
	KindDataShape    Kind = "data_shape"
)

const (
	networkMessage      = "network error or service unavailable"
	nonJSONMessage      = "received non-JSON response from server"
	unauthorizedMessage = "unauthorized, redirecting to login"
)

var ErrUnauthorized = errors.New("unauthorized")

// Error is returned for every failed upstream call.
// Payload holds the parsed error body when the server sent one.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Payload json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// IsNetwork reports whether err is a transport-level failure (no HTTP status).
func IsNetwork(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == KindNetwork
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Status
	}
	return 0
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}

func serverError(status int, payload json.RawMessage) *Error {
	return &Error{
		Kind:    KindServer,
		Status:  status,
		Message: detailMessage(status, payload),
		Payload: payload,
	}
}

// detailMessage extracts a message from an error body: a string detail is used
// as-is, a validation list is joined by its msg fields, anything else is echoed as JSON.
func detailMessage(status int, payload json.RawMessage) string {
	if payload == nil {
		return fmt.Sprintf("Error %d: server returned an invalid response", status)
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(payload, &body); err != nil {
		return fmt.Sprintf("Error %d", status)
	}
	raw, ok := body["detail"]
	if !ok || isFalsyJSON(raw) {
		return fmt.Sprintf("Error %d", status)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		if _, ok := list[0]["msg"]; ok {
			msgs := make([]string, 0, len(list))
			for _, d := range list {
				msgs = append(msgs, fmt.Sprint(d["msg"]))
			}
			return strings.Join(msgs, ", ")
		}
	}

	return string(raw)
}

func isFalsyJSON(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "null", `""`, "false", "0":
		return true
	}
	return false
}
