// Package creds stores the consumer credentials and access token for the
// brokerage API. Secrets live in the platform secret vault under a fixed
// service name, with an environment-variable fallback for headless hosts.
package creds

import (
	"errors"
	"sync"
	"time"
)

// Service is the fixed vault service name all entries are stored under.
const Service = "StockAssistant:ETrade"

// Named entries inside the vault.
const (
	entryConsumerKey       = "consumer_key"
	entryConsumerSecret    = "consumer_secret"
	entryAccessToken       = "access_token"
	entryAccessTokenSecret = "access_token_secret"
	entryTokenIssued       = "token_issued"
)

var allEntries = []string{
	entryConsumerKey,
	entryConsumerSecret,
	entryAccessToken,
	entryAccessTokenSecret,
	entryTokenIssued,
}

// ErrNotFound is returned by backends when an entry does not exist.
var ErrNotFound = errors.New("credential entry not found")

// Backend is one place secrets can live (vault, environment, memory).
type Backend interface {
	Get(entry string) (string, error)
	Set(entry, value string) error
	Delete(entry string) error
}

// Store persists the five credential entries. Reads consult the backends in
// order and return the first hit; writes and deletes go to the primary
// (first) backend only. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	backends []Backend
}

// NewStore builds a store over the given backends. The first backend is the
// write target.
func NewStore(backends ...Backend) *Store {
	return &Store{backends: backends}
}

// NewDefault is the production store: platform vault primary, environment
// variables as a read-only fallback.
func NewDefault() *Store {
	return NewStore(NewKeyringBackend(), NewEnvBackend())
}

func (s *Store) get(entry string) string {
	for _, b := range s.backends {
		v, err := b.Get(entry)
		if err == nil && v != "" {
			return v
		}
	}
	return ""
}

func (s *Store) set(entry, value string) error {
	return s.backends[0].Set(entry, value)
}

// SetConsumerCredentials stores both consumer values. Prior values are
// overwritten silently; the key/secret format is not validated.
func (s *Store) SetConsumerCredentials(key, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.set(entryConsumerKey, key); err != nil {
		return err
	}
	return s.set(entryConsumerSecret, secret)
}

// ConsumerCredentials returns the stored consumer key and secret. Missing
// components come back empty; it never fails.
func (s *Store) ConsumerCredentials() (key, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(entryConsumerKey), s.get(entryConsumerSecret)
}

// HaveConsumerCredentials reports whether both consumer values are present.
func (s *Store) HaveConsumerCredentials() bool {
	key, secret := s.ConsumerCredentials()
	return key != "" && secret != ""
}

// SetAccessToken stores the token pair and its issuance timestamp. The
// timestamp is persisted as ISO-8601 with an explicit UTC offset. A failure
// on a later entry does not roll back earlier ones.
func (s *Store) SetAccessToken(token, tokenSecret string, issued time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.set(entryAccessToken, token); err != nil {
		return err
	}
	if err := s.set(entryAccessTokenSecret, tokenSecret); err != nil {
		return err
	}
	return s.set(entryTokenIssued, issued.UTC().Format(time.RFC3339))
}

// AccessToken returns the stored token triple. If any component is missing,
// or the issuance timestamp does not parse, ok is false and all values are
// zero: a corrupt timestamp degrades to "no token" so the caller re-runs
// authentication instead of crashing.
func (s *Store) AccessToken() (token, tokenSecret string, issued time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token = s.get(entryAccessToken)
	tokenSecret = s.get(entryAccessTokenSecret)
	issuedRaw := s.get(entryTokenIssued)
	if token == "" || tokenSecret == "" || issuedRaw == "" {
		return "", "", time.Time{}, false
	}
	issued, err := time.Parse(time.RFC3339, issuedRaw)
	if err != nil {
		return "", "", time.Time{}, false
	}
	return token, tokenSecret, issued, true
}

// ClearAll deletes every stored entry from the primary backend. Deletion
// failures are swallowed: the entry may simply not exist.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range allEntries {
		_ = s.backends[0].Delete(entry)
	}
}
