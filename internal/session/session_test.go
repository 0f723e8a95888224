package session

import (
	"testing"
	"time"
)

func TestStoreLastWriteWins(t *testing.T) {
	t.Parallel()
	store := NewStore(time.Minute)

	store.Put(1, KindIdeaCreate, "first")
	store.Put(1, KindIdeaCreate, "second")

	state, ok := store.Get(1, KindIdeaCreate)
	if !ok || state.(string) != "second" {
		t.Fatalf("state = %v, %v; want second", state, ok)
	}
}

func TestStoreKindsAreIndependent(t *testing.T) {
	t.Parallel()
	store := NewStore(time.Minute)

	store.Put(1, KindIdeaCreate, "idea")
	store.Put(1, KindModelSelect, "model")

	if _, ok := store.Get(1, KindIdeaCreate); !ok {
		t.Fatal("idea slot lost")
	}
	store.Clear(1, KindIdeaCreate)
	if _, ok := store.Get(1, KindIdeaCreate); ok {
		t.Fatal("idea slot survived clear")
	}
	if _, ok := store.Get(1, KindModelSelect); !ok {
		t.Fatal("clearing one kind dropped another")
	}
}

func TestStoreUsersAreIsolated(t *testing.T) {
	t.Parallel()
	store := NewStore(time.Minute)

	store.Put(1, KindLink, "one")
	if _, ok := store.Get(2, KindLink); ok {
		t.Fatal("state leaked across users")
	}
}

func TestStoreSweepEvictsExpired(t *testing.T) {
	t.Parallel()
	store := NewStore(time.Minute)

	store.Put(1, KindDraft, "draft")
	if dropped := store.Sweep(time.Now()); dropped != 0 {
		t.Fatalf("dropped %d fresh entries", dropped)
	}
	if dropped := store.Sweep(time.Now().Add(2 * time.Minute)); dropped != 1 {
		t.Fatalf("dropped = %d, want 1", dropped)
	}
	if _, ok := store.Get(1, KindDraft); ok {
		t.Fatal("expired slot still readable")
	}
}

func TestTokensRoundTrip(t *testing.T) {
	t.Parallel()
	tokens := NewTokens(time.Minute)

	const url = "https://habr.com/ru/articles/984968/"
	token := tokens.Issue(url)
	if token == "" {
		t.Fatal("empty token")
	}

	got, ok := tokens.Resolve(token)
	if !ok || got != url {
		t.Fatalf("resolve = %q, %v", got, ok)
	}

	tokens.Discard(token)
	if _, ok := tokens.Resolve(token); ok {
		t.Fatal("discarded token still resolves")
	}
}

func TestTokensUnknown(t *testing.T) {
	t.Parallel()
	tokens := NewTokens(time.Minute)

	if _, ok := tokens.Resolve("nope"); ok {
		t.Fatal("unknown token resolved")
	}
}

func TestTokensSweep(t *testing.T) {
	t.Parallel()
	tokens := NewTokens(time.Minute)

	tokens.Issue("https://example.com/a")
	tokens.Issue("https://example.com/b")

	if dropped := tokens.Sweep(time.Now().Add(2 * time.Minute)); dropped != 2 {
		t.Fatalf("dropped = %d, want 2", dropped)
	}
}

func TestTokensAreUnique(t *testing.T) {
	t.Parallel()
	tokens := NewTokens(time.Minute)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		token := tokens.Issue("https://example.com")
		if seen[token] {
			t.Fatalf("token %q issued twice", token)
		}
		seen[token] = true
	}
}
