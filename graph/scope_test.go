package graph

import (
	"errors"
	"testing"
)

func TestScopeCIDRAndExact(t *testing.T) {
	s, err := NewScope("10.0.0.0/24", "192.168.1.5")
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}

	if !s.Allows("10.0.0.42") {
		t.Error("expected address inside CIDR to be allowed")
	}
	if s.Allows("10.0.1.42") {
		t.Error("expected address outside CIDR to be rejected")
	}
	if !s.Allows("192.168.1.5") {
		t.Error("expected exact IP entry to be allowed")
	}
	if s.Allows("192.168.1.6") {
		t.Error("expected neighboring IP to be rejected")
	}
	if s.Allows("not-an-ip") {
		t.Error("expected unparseable address to be rejected")
	}
}

func TestScopeWildcard(t *testing.T) {
	for _, entry := range []string{"*", "0.0.0.0/0"} {
		s, err := NewScope(entry)
		if err != nil {
			t.Fatalf("NewScope(%q): %v", entry, err)
		}
		if !s.Allows("203.0.113.9") {
			t.Errorf("expected wildcard %q to admit everything", entry)
		}
	}
}

func TestScopeEmpty(t *testing.T) {
	s, err := NewScope()
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	if !s.Allows("10.0.0.1") {
		t.Error("expected empty non-strict scope to admit everything")
	}

	s.Strict = true
	if s.Allows("10.0.0.1") {
		t.Error("expected empty strict scope to fail closed")
	}

	var nilScope *Scope
	if !nilScope.Allows("10.0.0.1") {
		t.Error("expected nil scope to admit everything")
	}
}

func TestScopeInvalidEntry(t *testing.T) {
	_, err := NewScope("10.0.0.0/33")
	if !errors.Is(err, ErrInvalidScope) {
		t.Errorf("expected ErrInvalidScope, got %v", err)
	}
	_, err = NewScope("example.com")
	if !errors.Is(err, ErrInvalidScope) {
		t.Errorf("expected ErrInvalidScope for hostname entry, got %v", err)
	}
}

func TestScopeIgnoresBlankEntries(t *testing.T) {
	s, err := NewScope("  ", "10.0.0.0/24", "")
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	if s.Empty() {
		t.Error("expected scope with one CIDR to be non-empty")
	}
}
