package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Tokens maps compact opaque tokens to full URLs for the duplicate
// resolution keyboard: raw URLs do not fit the callback payload limit,
// so buttons carry a token and the table round-trips the URL. Tokens
// expire; a restart loses them and the user simply resubmits.
type Tokens struct {
	mu      sync.Mutex
	entries map[string]tokenEntry
	ttl     time.Duration
}

type tokenEntry struct {
	url     string
	expires time.Time
}

// NewTokens builds an empty token table with the given lifetime.
func NewTokens(ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Tokens{
		entries: map[string]tokenEntry{},
		ttl:     ttl,
	}
}

// Issue registers the URL under a fresh random token and returns it.
func (t *Tokens) Issue(url string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[token] = tokenEntry{url: url, expires: time.Now().Add(t.ttl)}
	return token
}

// Resolve returns the URL behind a token; false when unknown or expired.
func (t *Tokens) Resolve(token string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[token]
	if !ok || time.Now().After(e.expires) {
		return "", false
	}
	return e.url, true
}

// Discard drops a token once its interaction completed.
func (t *Tokens) Discard(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, token)
}

// Sweep evicts expired tokens and returns how many were dropped.
func (t *Tokens) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	var dropped int
	for token, e := range t.entries {
		if now.After(e.expires) {
			delete(t.entries, token)
			dropped++
		}
	}
	return dropped
}
