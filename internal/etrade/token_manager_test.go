package etrade

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"etrade-assistant/internal/creds"
)

// noon Eastern on a regular trading day (17:00 UTC == 12:00 EST).
var testNow = time.Date(2024, 3, 5, 17, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, issued time.Time) *creds.Store {
	t.Helper()
	store := creds.NewStore(creds.NewMemoryBackend())
	if err := store.SetConsumerCredentials("ck", "cs"); err != nil {
		t.Fatalf("SetConsumerCredentials: %v", err)
	}
	if err := store.SetAccessToken("at", "ats", issued); err != nil {
		t.Fatalf("SetAccessToken: %v", err)
	}
	return store
}

func TestEnsureActiveFreshToken(t *testing.T) {
	store := newTestStore(t, testNow.Add(-10*time.Minute))
	mgr := NewTokenManager(TokenManagerParams{
		Store:     store,
		Endpoints: Endpoints{RenewTokenURL: "http://invalid.test/renew"},
		Now:       func() time.Time { return testNow },
	})

	token, secret, err := mgr.EnsureActive(context.Background())
	if err != nil {
		t.Fatalf("EnsureActive: %v", err)
	}
	if token != "at" || secret != "ats" {
		t.Errorf("got (%q, %q), want (at, ats)", token, secret)
	}
}

func TestEnsureActiveIdleRenewal(t *testing.T) {
	renewCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		renewCalls++
		if r.Method != http.MethodGet {
			t.Errorf("renewal used method %s, want GET", r.Method)
		}
		if r.Header.Get("Authorization") == "" {
			t.Error("renewal request is not signed")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	issued := testNow.Add(-100 * time.Minute)
	store := newTestStore(t, issued)
	mgr := NewTokenManager(TokenManagerParams{
		Store:     store,
		Endpoints: Endpoints{RenewTokenURL: srv.URL + "/oauth/renew_access_token"},
		Now:       func() time.Time { return testNow },
	})

	token, secret, err := mgr.EnsureActive(context.Background())
	if err != nil {
		t.Fatalf("EnsureActive: %v", err)
	}
	if renewCalls != 1 {
		t.Fatalf("renewal endpoint hit %d times, want 1", renewCalls)
	}
	if token != "at" || secret != "ats" {
		t.Errorf("renewal must not rotate the token pair, got (%q, %q)", token, secret)
	}

	_, _, storedIssued, ok := store.AccessToken()
	if !ok {
		t.Fatal("token disappeared after renewal")
	}
	if diff := testNow.Sub(storedIssued); diff < -5*time.Minute || diff > 5*time.Minute {
		t.Errorf("stored issuance %v not within 5 minutes of now %v", storedIssued, testNow)
	}
}

func TestEnsureActiveDailyHardExpiry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("daily-expired token must not attempt renewal")
	}))
	defer srv.Close()

	// Issued 23:59 Eastern the previous day; "now" is 00:01 Eastern the
	// next day, only two minutes later in UTC.
	issued := time.Date(2024, 3, 5, 4, 59, 0, 0, time.UTC)
	now := time.Date(2024, 3, 5, 5, 1, 0, 0, time.UTC)

	store := newTestStore(t, issued)
	mgr := NewTokenManager(TokenManagerParams{
		Store:     store,
		Endpoints: Endpoints{RenewTokenURL: srv.URL},
		Now:       func() time.Time { return now },
	})

	_, _, err := mgr.EnsureActive(context.Background())
	if !errors.Is(err, ErrCredentialsMissing) {
		t.Fatalf("got %v, want ErrCredentialsMissing", err)
	}
}

func TestEnsureActiveMissingCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("missing credentials must short-circuit before any network call")
	}))
	defer srv.Close()

	store := creds.NewStore(creds.NewMemoryBackend())
	mgr := NewTokenManager(TokenManagerParams{
		Store:     store,
		Endpoints: Endpoints{RenewTokenURL: srv.URL},
		Now:       func() time.Time { return testNow },
	})

	_, _, err := mgr.EnsureActive(context.Background())
	if !errors.Is(err, ErrCredentialsMissing) {
		t.Fatalf("got %v, want ErrCredentialsMissing", err)
	}
}

func TestEnsureActiveRenewalFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	issued := testNow.Add(-100 * time.Minute)
	store := newTestStore(t, issued)
	mgr := NewTokenManager(TokenManagerParams{
		Store:     store,
		Endpoints: Endpoints{RenewTokenURL: srv.URL},
		Now:       func() time.Time { return testNow },
	})

	_, _, err := mgr.EnsureActive(context.Background())
	var renewErr *RenewalError
	if !errors.As(err, &renewErr) {
		t.Fatalf("got %v, want *RenewalError", err)
	}

	// Stored state stays at the last known good value.
	_, _, storedIssued, ok := store.AccessToken()
	if !ok {
		t.Fatal("token should still be stored after failed renewal")
	}
	if !storedIssued.Equal(issued) {
		t.Errorf("failed renewal must not touch stored issuance, got %v want %v", storedIssued, issued)
	}
}

func TestEnsureActiveIdleAnchorTracksUse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("recently used token must not renew")
	}))
	defer srv.Close()

	// Issued long ago today, but used two minutes ago this process run.
	issued := testNow.Add(-4 * time.Hour)
	store := newTestStore(t, issued)

	current := testNow.Add(-2 * time.Minute)
	mgr := NewTokenManager(TokenManagerParams{
		Store:     store,
		Endpoints: Endpoints{RenewTokenURL: srv.URL},
		IdleWindow: 90 * time.Minute,
		Now:        func() time.Time { return current },
	})

	// Prime last-used by renew-free path: pretend first use happened when
	// the token was still fresh.
	current = issued.Add(time.Minute)
	if _, _, err := mgr.EnsureActive(context.Background()); err != nil {
		t.Fatalf("first EnsureActive: %v", err)
	}

	// 80 minutes later: past nothing, anchored on last use.
	current = issued.Add(81 * time.Minute)
	if _, _, err := mgr.EnsureActive(context.Background()); err != nil {
		t.Fatalf("second EnsureActive: %v", err)
	}
}

func TestClassify(t *testing.T) {
	store := newTestStore(t, testNow.Add(-10*time.Minute))
	mgr := NewTokenManager(TokenManagerParams{
		Store: store,
		Now:   func() time.Time { return testNow },
	})
	if got := mgr.Classify(); got != StateValid {
		t.Errorf("fresh token classified %v, want VALID", got)
	}

	idleMgr := NewTokenManager(TokenManagerParams{
		Store: newTestStore(t, testNow.Add(-100*time.Minute)),
		Now:   func() time.Time { return testNow },
	})
	if got := idleMgr.Classify(); got != StateNeedsRenewal {
		t.Errorf("idle token classified %v, want NEEDS_RENEWAL", got)
	}

	expiredMgr := NewTokenManager(TokenManagerParams{
		Store: newTestStore(t, time.Date(2024, 3, 5, 4, 59, 0, 0, time.UTC)),
		Now:   func() time.Time { return time.Date(2024, 3, 5, 5, 1, 0, 0, time.UTC) },
	})
	if got := expiredMgr.Classify(); got != StateExpiredDaily {
		t.Errorf("yesterday's token classified %v, want EXPIRED_DAILY", got)
	}

	emptyMgr := NewTokenManager(TokenManagerParams{
		Store: creds.NewStore(creds.NewMemoryBackend()),
		Now:   func() time.Time { return testNow },
	})
	if got := emptyMgr.Classify(); got != StateNoCredentials {
		t.Errorf("empty store classified %v, want NO_CREDENTIALS", got)
	}
}
