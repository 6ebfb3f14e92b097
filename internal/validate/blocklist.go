package validate

import (
	"net/netip"
	"strconv"
	"strings"
)

// IsBlockedHost reports whether host names loopback or private address space.
//
// Dotted names are compared octet by octet from the left, so "10.0.0.5" and
// "10.internal.example" are rejected while "example10.com" is not. IP
// literals are also checked by range. Names made only of numeric labels
// that are not a canonical address ("127.1", "0177.0.0.1", "2130706433")
// are rejected because resolvers may expand them to internal addresses.
func IsBlockedHost(host string) bool {
	h := strings.ToLower(strings.TrimSuffix(strings.Trim(host, "[]"), "."))
	if h == "" {
		return false
	}
	if h == "localhost" || strings.HasSuffix(h, ".localhost") {
		return true
	}
	if h == "127.0.0.1" || h == "0.0.0.0" {
		return true
	}

	labels := strings.Split(h, ".")
	switch labels[0] {
	case "10":
		if len(labels) > 1 {
			return true
		}
	case "172":
		if len(labels) > 2 {
			if n, err := strconv.Atoi(labels[1]); err == nil && n >= 16 && n <= 31 {
				return true
			}
		}
	case "192":
		if len(labels) > 2 && labels[1] == "168" {
			return true
		}
	}

	if addr, err := netip.ParseAddr(h); err == nil {
		return IsBlockedAddr(addr)
	}
	return numericLabels(labels)
}

// numericLabels reports whether every label is decimal, octal or hex digits.
func numericLabels(labels []string) bool {
	for _, l := range labels {
		digits := "0123456789"
		if rest, ok := strings.CutPrefix(l, "0x"); ok {
			l, digits = rest, "0123456789abcdef"
		}
		if l == "" || strings.Trim(l, digits) != "" {
			return false
		}
	}
	return true
}
