package interfaces

import "context"

// VerifierSource supplies the human-entered OAuth verification code.
// RequestVerifier presents authorizeURL to the operator and blocks until a
// code is entered or the operator cancels. An empty string (with nil error)
// means the operator cancelled; it is invoked exactly once per handshake
// attempt. No timeout is enforced here: cancellation is the caller's
// context.
type VerifierSource interface {
	RequestVerifier(ctx context.Context, authorizeURL string) (string, error)
}

// VerifierFunc adapts a plain function to VerifierSource, mainly for tests.
type VerifierFunc func(ctx context.Context, authorizeURL string) (string, error)

func (f VerifierFunc) RequestVerifier(ctx context.Context, authorizeURL string) (string, error) {
	return f(ctx, authorizeURL)
}
