package etrade

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/dghubble/oauth1"

	"etrade-assistant/internal/creds"
	"etrade-assistant/internal/logger"
)

// DefaultIdleWindow is how long a token may sit unused before it must be
// refreshed through the renewal endpoint instead of being handed out as-is.
const DefaultIdleWindow = 90 * time.Minute

// eastern is the provider's home time zone. Tokens die at midnight Eastern
// regardless of activity, so day-boundary checks happen here even though
// timestamps are stored in UTC.
var eastern = mustLocation("America/New_York")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// TokenState classifies the stored token at one instant. Recomputed on every
// EnsureActive call, never persisted.
type TokenState int

const (
	StateNoCredentials TokenState = iota
	StateValid
	StateExpiredDaily
	StateNeedsRenewal
)

func (s TokenState) String() string {
	switch s {
	case StateNoCredentials:
		return "NO_CREDENTIALS"
	case StateValid:
		return "VALID"
	case StateExpiredDaily:
		return "EXPIRED_DAILY"
	case StateNeedsRenewal:
		return "NEEDS_RENEWAL"
	}
	return "UNKNOWN"
}

type TokenManagerParams struct {
	Store      *creds.Store
	Endpoints  Endpoints
	IdleWindow time.Duration    // defaults to DefaultIdleWindow
	Now        func() time.Time // test hook, defaults to time.Now
}

// TokenManager decides whether the stored access token is usable and renews
// it through a lightweight signed call when it has idled out. It never runs
// the interactive handshake itself, and it never holds the secret values
// beyond the duration of a call.
type TokenManager struct {
	store     *creds.Store
	endpoints Endpoints
	idle      time.Duration
	now       func() time.Time

	mu       sync.Mutex
	lastUsed time.Time
}

func NewTokenManager(p TokenManagerParams) *TokenManager {
	if p.IdleWindow <= 0 {
		p.IdleWindow = DefaultIdleWindow
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &TokenManager{
		store:     p.Store,
		endpoints: p.Endpoints,
		idle:      p.IdleWindow,
		now:       p.Now,
	}
}

// EnsureActive returns the stored token pair, renewing it first when it has
// been idle past the window. The daily hard cutoff is unconditionally fatal
// (ErrCredentialsMissing, no renewal attempted); a failed renewal surfaces
// as *RenewalError and leaves the stored state untouched.
func (m *TokenManager) EnsureActive(ctx context.Context) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	consumerKey, consumerSecret := m.store.ConsumerCredentials()
	token, tokenSecret, issued, ok := m.store.AccessToken()
	if consumerKey == "" || consumerSecret == "" || !ok {
		return "", "", fmt.Errorf("no stored token state: %w", ErrCredentialsMissing)
	}

	now := m.now().UTC()
	if !sameEasternDay(issued, now) {
		return "", "", fmt.Errorf("token crossed the midnight-Eastern boundary: %w", ErrCredentialsMissing)
	}

	idleAnchor := issued
	if !m.lastUsed.IsZero() {
		idleAnchor = m.lastUsed
	}
	if now.Sub(idleAnchor) > m.idle {
		if err := m.renew(ctx, consumerKey, consumerSecret, token, tokenSecret); err != nil {
			return "", "", &RenewalError{Err: err}
		}
		// Renewal does not rotate the token value, only its validity
		// window, so persist the same pair with a fresh issuance time.
		if err := m.store.SetAccessToken(token, tokenSecret, now); err != nil {
			return "", "", &RenewalError{Err: err}
		}
		logger.Info(ctx, "Access token renewed after idle period",
			"idle", now.Sub(idleAnchor).String())
	}

	m.lastUsed = now
	return token, tokenSecret, nil
}

// Classify reports the token state without side effects. NEEDS_RENEWAL is
// advisory; EnsureActive resolves it by renewing.
func (m *TokenManager) Classify() TokenState {
	m.mu.Lock()
	defer m.mu.Unlock()

	consumerKey, consumerSecret := m.store.ConsumerCredentials()
	_, _, issued, ok := m.store.AccessToken()
	if consumerKey == "" || consumerSecret == "" || !ok {
		return StateNoCredentials
	}

	now := m.now().UTC()
	if !sameEasternDay(issued, now) {
		return StateExpiredDaily
	}

	idleAnchor := issued
	if !m.lastUsed.IsZero() {
		idleAnchor = m.lastUsed
	}
	if now.Sub(idleAnchor) > m.idle {
		return StateNeedsRenewal
	}
	return StateValid
}

// renew performs the signed liveness GET against the renewal endpoint. Not
// retried: the caller treats failure as an expired token.
func (m *TokenManager) renew(ctx context.Context, consumerKey, consumerSecret, token, tokenSecret string) error {
	config := oauth1.NewConfig(consumerKey, consumerSecret)
	client := config.Client(ctx, oauth1.NewToken(token, tokenSecret))
	client.Timeout = 30 * time.Second

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.endpoints.RenewTokenURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("renew access token: http %d", resp.StatusCode)
	}
	return nil
}

func sameEasternDay(a, b time.Time) bool {
	ay, am, ad := a.In(eastern).Date()
	by, bm, bd := b.In(eastern).Date()
	return ay == by && am == bm && ad == bd
}
