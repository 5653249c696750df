package etrade

import (
	"errors"
	"fmt"
)

var (
	// ErrCredentialsMissing covers absent consumer credentials, an
	// incomplete or unparseable stored token, and a token past its daily
	// hard expiry. Recoverable by re-running the interactive flow.
	ErrCredentialsMissing = errors.New("brokerage credentials missing or expired")

	// ErrUserCancelled means the operator declined the authorization step.
	// This is an expected outcome, not a provider failure.
	ErrUserCancelled = errors.New("authorization cancelled by user")

	// ErrNotAuthenticated is what the session facade reports when no flow
	// could establish a session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// HandshakeError wraps an HTTP/protocol failure during the request-token or
// access-token steps. Never retried automatically.
type HandshakeError struct {
	Step string
	Err  error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("oauth handshake failed at %s: %v", e.Step, e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// RenewalError wraps a failed idle-renewal call. It propagates as if the
// token were expired so a stale token is never handed out as valid.
type RenewalError struct {
	Err error
}

func (e *RenewalError) Error() string {
	return fmt.Sprintf("access token renewal failed: %v", e.Err)
}

func (e *RenewalError) Unwrap() error { return e.Err }
