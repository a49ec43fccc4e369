package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Error is the single failure shape every facade operation returns. Kind
// classifies the failure; Message is always safe to show to the user.
type Error struct {
	Kind    ErrorKind
	Op      string
	Status  int
	Message string
}

type ErrorKind int

const (
	// ErrKindUnreachable covers connection-refused and DNS-level failures:
	// the engine process is not there.
	ErrKindUnreachable ErrorKind = iota
	ErrKindTimeout
	ErrKindTooLarge
	ErrKindServer
	ErrKindRequest
)

func (e *Error) Error() string {
	return e.Message
}

// normalizeTransportError maps pre-response failures onto the taxonomy.
func normalizeTransportError(err error, base, op string) error {
	switch {
	case errors.Is(err, context.Canceled):
		return &Error{Kind: ErrKindRequest, Op: op, Message: fmt.Sprintf("%s canceled", op)}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: ErrKindTimeout, Op: op, Message: fmt.Sprintf("%s timed out waiting for the engine", op)}
	case isConnectionRefused(err):
		return &Error{
			Kind:    ErrKindUnreachable,
			Op:      op,
			Message: fmt.Sprintf("backend is not running at %s — start the engine and retry", base),
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: ErrKindTimeout, Op: op, Message: fmt.Sprintf("%s timed out waiting for the engine", op)}
	}
	return &Error{Kind: ErrKindUnreachable, Op: op, Message: fmt.Sprintf("%s failed: %v", op, err)}
}

// normalizeStatusError maps a non-2xx response onto the taxonomy, pulling
// the engine's own detail text out of the body when it offers one.
func normalizeStatusError(status int, body []byte, op string) error {
	detail := extractDetail(body)
	switch {
	case status == http.StatusRequestEntityTooLarge:
		msg := "file too large for the engine to accept"
		if detail != "" {
			msg = detail
		}
		return &Error{Kind: ErrKindTooLarge, Op: op, Status: status, Message: msg}
	case status >= 500:
		msg := fmt.Sprintf("engine error during %s", op)
		if detail != "" {
			msg = detail
		}
		return &Error{Kind: ErrKindServer, Op: op, Status: status, Message: msg}
	default:
		msg := fmt.Sprintf("%s failed (%d)", op, status)
		if detail != "" {
			msg = detail
		}
		return &Error{Kind: ErrKindRequest, Op: op, Status: status, Message: msg}
	}
}

// extractDetail digs the FastAPI-style {"detail": ...} message out of an
// error body; plain-text bodies pass through trimmed.
func extractDetail(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return ""
	}
	if len(trimmed) > 200 {
		trimmed = trimmed[:200]
	}
	return trimmed
}

func isConnectionRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
