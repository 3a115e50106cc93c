package graph

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

// ErrInvalidScope is returned when a scope entry is neither a CIDR prefix,
// an IP address, nor the wildcard.
var ErrInvalidScope = errors.New("graph: invalid scope entry")

// ScopeWildcard admits every address. Equivalent to "0.0.0.0/0".
const ScopeWildcard = "*"

// Scope is the engagement perimeter (rules of engagement) for host and
// service observations. Observations about addresses outside the scope are
// dropped as no-ops, so reconnaissance output from a misconfigured tool
// never pollutes the graph with out-of-scope targets.
//
// An empty, non-strict scope admits everything: the store is a passive
// record, and enforcement is opt-in. Set Strict to fail closed instead,
// dropping all observations until entries are added.
type Scope struct {
	// Strict makes an empty scope reject every address instead of
	// admitting every address.
	Strict bool

	prefixes []netip.Prefix
	addrs    []netip.Addr
	wildcard bool
}

// NewScope parses engagement scope entries. Each entry is a CIDR prefix
// ("10.0.0.0/24"), a single IP ("10.0.0.5"), or the wildcard ("*" or
// "0.0.0.0/0"). Any other entry yields ErrInvalidScope.
func NewScope(entries ...string) (*Scope, error) {
	s := &Scope{}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if entry == ScopeWildcard || entry == "0.0.0.0/0" {
			s.wildcard = true
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidScope, entry, err)
			}
			s.prefixes = append(s.prefixes, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidScope, entry, err)
		}
		s.addrs = append(s.addrs, a)
	}
	return s, nil
}

// Empty reports whether the scope has no entries and no wildcard.
func (s *Scope) Empty() bool {
	return !s.wildcard && len(s.prefixes) == 0 && len(s.addrs) == 0
}

// Allows reports whether observations about the given IP are admitted.
// An address that does not parse is rejected unless the scope is wide open.
func (s *Scope) Allows(ip string) bool {
	if s == nil {
		return true
	}
	if s.wildcard {
		return true
	}
	if s.Empty() {
		return !s.Strict
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, a := range s.addrs {
		if a == addr {
			return true
		}
	}
	for _, p := range s.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
