package apperrors

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNoSession    = errors.New("no active session")
)

// LoginFailed is the message shown when the backend gives no usable detail.
const LoginFailed = "Login failed"

// AuthError reports rejected credentials or an expired/invalid token.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return LoginFailed
	}
	return e.Message
}

// RequestError reports a transport failure, a timeout or a non-auth error status.
type RequestError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Timeout reports whether the request hit its deadline.
func (e *RequestError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

func IsRequest(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}

// Message returns the user-facing text for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Error()
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Message != "" {
			return reqErr.Message
		}
		if reqErr.Timeout() {
			return "request timed out"
		}
		if reqErr.Err != nil {
			return reqErr.Err.Error()
		}
		return "request failed"
	}
	return err.Error()
}
