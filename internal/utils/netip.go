package utils

import (
	"net/http"
	"net/netip"
	"strings"
)

// Forwarding headers set by the OpenShift router and most ingress controllers, in preference order.
var forwardedHeaders = []string{"X-Forwarded-For", "X-Real-IP"}

// ParseAddr reads "ip", "ip:port" or "[v6]:port". IPv4-mapped IPv6 addresses are unmapped.
func ParseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap(), true
	}
	if a, err := netip.ParseAddr(strings.Trim(s, "[]")); err == nil {
		return a.Unmap(), true
	}
	return netip.Addr{}, false
}

// FirstForwardedFor returns the left-most entry of an X-Forwarded-For list.
func FirstForwardedFor(xff string) string {
	first, _, _ := strings.Cut(xff, ",")
	return strings.TrimSpace(first)
}

// ClientIP resolves the caller address. Forwarding headers are only read when
// trustProxy is set, otherwise RemoteAddr is used.
func ClientIP(r *http.Request, trustProxy bool) (netip.Addr, bool) {
	if trustProxy {
		for _, h := range forwardedHeaders {
			if a, ok := ParseAddr(FirstForwardedFor(r.Header.Get(h))); ok {
				return a, true
			}
		}
	}
	return ParseAddr(r.RemoteAddr)
}

// PrefixSet matches addresses against CIDRs. Bare addresses become single-host prefixes.
type PrefixSet struct {
	prefixes []netip.Prefix
}

// NewPrefixSet parses list and returns the entries it could not read.
func NewPrefixSet(list []string) (*PrefixSet, []string) {
	s := &PrefixSet{}
	var invalid []string
	for _, raw := range list {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		if p, err := netip.ParsePrefix(v); err == nil {
			s.prefixes = append(s.prefixes, p.Masked())
			continue
		}
		if a, ok := ParseAddr(v); ok {
			s.prefixes = append(s.prefixes, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		invalid = append(invalid, v)
	}
	return s, invalid
}

func (s *PrefixSet) Len() int { return len(s.prefixes) }

func (s *PrefixSet) Contains(a netip.Addr) bool {
	if !a.IsValid() {
		return false
	}
	for _, p := range s.prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
