package challengestore

import (
	"strings"
	"sync"
	"time"

	"github.com/gridlinecompany/LetsEcrypt/pkg/keylock"
)

// Challenge methods.
const (
	MethodHTTP01 = "http-01"
	MethodDNS01  = "dns-01"
)

// Challenge is the transient state of one domain's order.
type Challenge struct {
	Domain           string
	Method           string
	Token            string
	KeyAuthorization string
	RecordName       string
	RecordValue      string
	OrderURL         string
	AuthzURL         string
	ChallengeURL     string
	CSR              []byte
	PrivateKeyPEM    []byte
	// Fallback entries carry a placeholder record and no live order.
	Fallback  bool
	CreatedAt time.Time
}

// Store is a mutex-guarded map of challenges keyed by domain.
type Store struct {
	mu       sync.RWMutex
	byDomain map[string]Challenge
	byToken  map[string]string // token -> domain
	locks    keylock.Map
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		byDomain: make(map[string]Challenge),
		byToken:  make(map[string]string),
	}
}

func normalize(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

// Put stores c, replacing any challenge already held for c.Domain.
func (s *Store) Put(c Challenge) {
	key := normalize(c.Domain)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byDomain[key]; ok && old.Token != "" {
		delete(s.byToken, old.Token)
	}
	s.byDomain[key] = c
	if c.Token != "" {
		s.byToken[c.Token] = key
	}
}

// Get returns the challenge for domain.
func (s *Store) Get(domain string) (Challenge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byDomain[normalize(domain)]
	return c, ok
}

// Delete removes the challenge for domain.
func (s *Store) Delete(domain string) {
	key := normalize(domain)

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byDomain[key]; ok && old.Token != "" {
		delete(s.byToken, old.Token)
	}
	delete(s.byDomain, key)
}

// DeleteIfToken removes the domain's challenge only while it still holds
// token, so a superseded flow cannot clear its replacement.
func (s *Store) DeleteIfToken(domain, token string) bool {
	key := normalize(domain)

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.byDomain[key]
	if !ok || old.Token != token {
		return false
	}
	if token != "" {
		delete(s.byToken, token)
	}
	delete(s.byDomain, key)
	return true
}

// KeyAuthorization returns the key authorization published for token.
func (s *Store) KeyAuthorization(token string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	domain, ok := s.byToken[token]
	if !ok {
		return "", false
	}
	c := s.byDomain[domain]
	if c.KeyAuthorization == "" {
		return "", false
	}
	return c.KeyAuthorization, true
}

// Lock acquires the advisory lock for domain.
func (s *Store) Lock(domain string) (unlock func()) {
	return s.locks.Lock(normalize(domain))
}

// Len returns the number of stored challenges.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byDomain)
}
