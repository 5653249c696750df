package etrade

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dghubble/oauth1"

	"etrade-assistant/internal/creds"
	"etrade-assistant/internal/interfaces"
	"etrade-assistant/internal/logger"
)

type ControllerParams struct {
	Store     *creds.Store
	Endpoints Endpoints
	Verifier  interfaces.VerifierSource
	Resolver  *AccountResolver // defaults to NewAccountResolver()
	Now       func() time.Time // test hook, defaults to time.Now
}

// Controller drives the three-legged OAuth 1.0a handshake end to end:
// request token, user authorization through the injected VerifierSource,
// then the access-token exchange. It performs no UI of its own.
type Controller struct {
	store     *creds.Store
	endpoints Endpoints
	verifier  interfaces.VerifierSource
	resolver  *AccountResolver
	now       func() time.Time
}

func NewController(p ControllerParams) *Controller {
	if p.Resolver == nil {
		p.Resolver = NewAccountResolver()
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Controller{
		store:     p.Store,
		endpoints: p.Endpoints,
		verifier:  p.Verifier,
		resolver:  p.Resolver,
		now:       p.Now,
	}
}

// Authenticate runs the full interactive flow and persists the resulting
// access token with issued-at = now (UTC). Returns ErrUserCancelled when the
// operator declines, *HandshakeError on any provider failure. No network
// call is made when consumer credentials are absent.
func (c *Controller) Authenticate(ctx context.Context) (*Session, error) {
	consumerKey, consumerSecret := c.store.ConsumerCredentials()
	if consumerKey == "" || consumerSecret == "" {
		return nil, fmt.Errorf("no consumer credentials: %w", ErrCredentialsMissing)
	}

	config := &oauth1.Config{
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		CallbackURL:    "oob",
		Endpoint: oauth1.Endpoint{
			RequestTokenURL: c.endpoints.RequestTokenURL,
			AuthorizeURL:    c.endpoints.AuthorizeURL,
			AccessTokenURL:  c.endpoints.AccessTokenURL,
		},
	}

	requestToken, requestSecret, err := config.RequestToken()
	if err != nil {
		return nil, &HandshakeError{Step: "request_token", Err: err}
	}
	logger.Info(ctx, "Request token obtained")

	authorizeURL, err := config.AuthorizationURL(requestToken)
	if err != nil {
		return nil, &HandshakeError{Step: "authorize_url", Err: err}
	}

	// Blocks until the operator enters a code or cancels. No timeout is
	// enforced here; cancellation arrives through ctx or an empty code.
	verifier, err := c.verifier.RequestVerifier(ctx, authorizeURL.String())
	if err != nil {
		return nil, &HandshakeError{Step: "user_authorization", Err: err}
	}
	verifier = strings.TrimSpace(verifier)
	if verifier == "" {
		return nil, ErrUserCancelled
	}

	accessToken, accessSecret, err := config.AccessToken(requestToken, requestSecret, verifier)
	if err != nil {
		return nil, &HandshakeError{Step: "access_token", Err: err}
	}
	logger.Info(ctx, "Access token obtained")

	session := newSession(c.endpoints, consumerKey, consumerSecret, accessToken, accessSecret)

	// Account resolution is non-fatal: market data and analysis work
	// without an account id.
	accountID, err := c.resolver.Resolve(ctx, session)
	if err != nil {
		logger.Warn(ctx, "Account resolution failed", "error", err)
	} else if accountID == "" {
		logger.Warn(ctx, "No brokerage accounts found for the authenticated user")
	} else {
		session.accountID = accountID
		logger.Info(ctx, "Default account resolved", "account_id", accountID)
	}

	if err := c.store.SetAccessToken(accessToken, accessSecret, c.now().UTC()); err != nil {
		return nil, fmt.Errorf("persist access token: %w", err)
	}
	return session, nil
}
