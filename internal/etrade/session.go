package etrade

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/go-resty/resty/v2"

	"etrade-assistant/internal/creds"
	"etrade-assistant/internal/interfaces"
	"etrade-assistant/internal/logger"
	"etrade-assistant/internal/trace"
)

// Session is an authenticated transport handle bound to one access-token
// pair. It is never persisted; the facade reconstructs it from stored
// credentials whenever the bound token changes.
type Session struct {
	rest      *resty.Client
	token     string
	accountID string
}

// Rest returns the signing REST client, rooted at the environment's API
// base URL.
func (s *Session) Rest() *resty.Client { return s.rest }

func newSession(ep Endpoints, consumerKey, consumerSecret, token, tokenSecret string) *Session {
	config := oauth1.NewConfig(consumerKey, consumerSecret)
	httpClient := config.Client(oauth1.NoContext, oauth1.NewToken(token, tokenSecret))

	rest := resty.NewWithClient(httpClient).
		SetBaseURL(ep.APIBaseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")

	return &Session{rest: rest, token: token}
}

type FacadeParams struct {
	Store      *creds.Store
	Endpoints  Endpoints
	Verifier   interfaces.VerifierSource
	IdleWindow time.Duration    // defaults to DefaultIdleWindow
	Now        func() time.Time // test hook, defaults to time.Now
}

// SessionFacade is the single entry point collaborators use to obtain a
// working session. Missing or expired token state transparently triggers
// the full interactive flow inside GetSession: that re-authentication is a
// documented side effect of the contract, not a hidden branch.
type SessionFacade struct {
	store     *creds.Store
	endpoints Endpoints
	tokens    *TokenManager
	control   *Controller
	resolver  *AccountResolver

	mu        sync.Mutex
	session   *Session
	accountID string
}

func NewSessionFacade(p FacadeParams) *SessionFacade {
	if p.Now == nil {
		p.Now = time.Now
	}
	resolver := NewAccountResolver()
	return &SessionFacade{
		store:     p.Store,
		endpoints: p.Endpoints,
		resolver:  resolver,
		tokens: NewTokenManager(TokenManagerParams{
			Store:      p.Store,
			Endpoints:  p.Endpoints,
			IdleWindow: p.IdleWindow,
			Now:        p.Now,
		}),
		control: NewController(ControllerParams{
			Store:     p.Store,
			Endpoints: p.Endpoints,
			Verifier:  p.Verifier,
			Resolver:  resolver,
			Now:       p.Now,
		}),
	}
}

// GetSession returns a session backed by a currently valid access token,
// renewing an idle token or re-running the interactive handshake as needed.
// The mutex serializes callers so two near-simultaneous requests never race
// into two interactive flows; the second caller blocks and then rides on the
// first one's freshly stored token. Fails with ErrNotAuthenticated (wrapping
// the cause) when no flow can establish a session.
func (f *SessionFacade) GetSession(ctx context.Context) (*Session, error) {
	ctx, span := trace.StartSpan(ctx, "session.Get")
	defer span.End()

	f.mu.Lock()
	defer f.mu.Unlock()

	token, tokenSecret, err := f.tokens.EnsureActive(ctx)
	if err == nil {
		if f.session == nil || f.session.token != token {
			consumerKey, consumerSecret := f.store.ConsumerCredentials()
			f.session = newSession(f.endpoints, consumerKey, consumerSecret, token, tokenSecret)
			f.session.accountID = f.accountID
		}
		return f.session, nil
	}

	// Only daily expiry, missing state, and failed renewal fall through to
	// the interactive flow; anything else would be a programming error and
	// is surfaced as-is.
	var renewErr *RenewalError
	if !errors.Is(err, ErrCredentialsMissing) && !errors.As(err, &renewErr) {
		return nil, err
	}
	logger.Info(ctx, "Stored token unusable, starting interactive authorization", "reason", err.Error())

	session, err := f.control.Authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}
	f.session = session
	if session.accountID != "" {
		f.accountID = session.accountID
	}
	return session, nil
}

// AccountID returns the default brokerage account id, resolving and caching
// it on first use. An authenticated session without any account yields an
// empty id and no error.
func (f *SessionFacade) AccountID(ctx context.Context) (string, error) {
	f.mu.Lock()
	cached := f.accountID
	f.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	session, err := f.GetSession(ctx)
	if err != nil {
		return "", err
	}

	id, err := f.resolver.Resolve(ctx, session)
	if err != nil {
		logger.Warn(ctx, "Account resolution failed", "error", err)
		return "", nil
	}
	f.mu.Lock()
	f.accountID = id
	f.mu.Unlock()
	return id, nil
}

// State exposes the token manager's classification for status displays.
func (f *SessionFacade) State() TokenState {
	return f.tokens.Classify()
}
