package realtime

import (
	"sync"
	"testing"
)

type fakeSession struct {
	id string

	mu     sync.Mutex
	sent   []Envelope
	fail   bool
	closed bool
}

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Send(e Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errSendBufferFull
	}
	s.sent = append(s.sent, e)
	return nil
}

func (s *fakeSession) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *fakeSession) envelopes() []Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Envelope, len(s.sent))
	copy(out, s.sent)
	return out
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func TestRegistryRegisterThenLookup(t *testing.T) {
	registry := NewRegistry()
	session := &fakeSession{id: "s1"}

	registry.Register("42", session)

	got, ok := registry.Lookup("42")
	if !ok {
		t.Fatal("expected lookup to find registered session")
	}
	if got.ID() != "s1" {
		t.Fatalf("expected session s1, got %s", got.ID())
	}
}

func TestRegistryUnregisterRemovesBinding(t *testing.T) {
	registry := NewRegistry()
	session := &fakeSession{id: "s1"}

	registry.Register("42", session)
	registry.Unregister(session)

	if _, ok := registry.Lookup("42"); ok {
		t.Fatal("expected lookup to miss after unregister")
	}
	if registry.Len() != 0 {
		t.Fatalf("expected empty registry, got %d entries", registry.Len())
	}
}

func TestRegistryUnregisterWithoutRegisterIsNoop(t *testing.T) {
	registry := NewRegistry()
	registry.Register("42", &fakeSession{id: "s1"})

	registry.Unregister(&fakeSession{id: "never-registered"})

	if _, ok := registry.Lookup("42"); !ok {
		t.Fatal("unrelated unregister must not remove existing bindings")
	}
}

func TestRegistryRegisterOverwritesPreviousSession(t *testing.T) {
	registry := NewRegistry()
	first := &fakeSession{id: "s1"}
	second := &fakeSession{id: "s2"}

	registry.Register("42", first)
	registry.Register("42", second)

	got, ok := registry.Lookup("42")
	if !ok || got.ID() != "s2" {
		t.Fatalf("expected latest session s2, got %v", got)
	}

	// The replaced session's disconnect must not tear down the new binding.
	registry.Unregister(first)
	if _, ok := registry.Lookup("42"); !ok {
		t.Fatal("unregistering the replaced session removed the live binding")
	}
}

func TestRegistryReRegisterDropsOldUserBinding(t *testing.T) {
	registry := NewRegistry()
	session := &fakeSession{id: "s1"}

	registry.Register("42", session)
	registry.Register("43", session)

	if _, ok := registry.Lookup("42"); ok {
		t.Fatal("expected old user binding to be dropped on re-registration")
	}
	if got, ok := registry.Lookup("43"); !ok || got.ID() != "s1" {
		t.Fatal("expected session bound to the new user")
	}
	if registry.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", registry.Len())
	}
}

func TestRegistrySnapshot(t *testing.T) {
	registry := NewRegistry()
	registry.Register("1", &fakeSession{id: "a"})
	registry.Register("2", &fakeSession{id: "b"})

	entries := registry.Snapshot()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	seen := make(map[string]string)
	for _, e := range entries {
		seen[e.UserID] = e.SessionID
	}
	if seen["1"] != "a" || seen["2"] != "b" {
		t.Fatalf("unexpected snapshot contents: %v", seen)
	}
}
