// Package validate holds the input gate that runs before any probe.
//
// Every function here is pure: no DNS lookups, no sockets. The blocklist is
// applied to the parsed host component only, and compares dotted octets
// rather than raw substrings, so the same policy covers bare hostnames and
// URL hosts.
package validate

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/netip"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	consts "github.com/khanhnv2901/seca-recon/internal/shared/constants"
)

// User-visible rejection reasons.
const (
	ReasonURLRequired      = "URL is required"
	ReasonURLScheme        = "URL must start with http:// or https://"
	ReasonURLFormat        = "Invalid URL format"
	ReasonHostnameRequired = "Hostname is required"
	ReasonHostnameFormat   = "Invalid hostname format"
	ReasonInternalTarget   = "Access to localhost/internal networks is not allowed"
	ReasonPortInteger      = "Port must be a valid integer"
)

// ErrPortNotInteger is returned by ParsePort for non-integral input.
var ErrPortNotInteger = errors.New(ReasonPortInteger)

var hostnamePattern = regexp.MustCompile(`^(?i)[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)*$`)

// Outcome is the result of one validation. Reason is set iff Valid is false.
type Outcome struct {
	Valid  bool
	Reason string
}

func ok() Outcome { return Outcome{Valid: true} }

func fail(reason string) Outcome { return Outcome{Valid: false, Reason: reason} }

// Validator carries the configurable port bounds.
type Validator struct {
	MinPort int
	MaxPort int
}

// Default uses the full TCP port range.
var Default = Validator{MinPort: consts.MinPort, MaxPort: consts.MaxPort}

// ValidateURL checks that raw is an absolute http(s) URL whose host is not
// loopback or private address space.
func ValidateURL(raw string) Outcome {
	if raw == "" {
		return fail(ReasonURLRequired)
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return fail(ReasonURLScheme)
	}

	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" || u.Opaque != "" {
		return fail(ReasonURLFormat)
	}
	host := u.Hostname()
	if host == "" {
		return fail(ReasonURLFormat)
	}
	if port := u.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < consts.MinPort || n > consts.MaxPort {
			return fail(ReasonURLFormat)
		}
	}
	if _, err := netip.ParseAddr(host); err != nil && !isHostname(host) {
		return fail(ReasonURLFormat)
	}

	if IsBlockedHost(host) {
		return fail(ReasonInternalTarget)
	}
	return ok()
}

// ValidateHostname checks DNS label syntax and the internal-network blocklist.
func ValidateHostname(host string) Outcome {
	if host == "" {
		return fail(ReasonHostnameRequired)
	}
	if !isHostname(host) {
		return fail(ReasonHostnameFormat)
	}
	if IsBlockedHost(host) {
		return fail(ReasonInternalTarget)
	}
	return ok()
}

// ValidatePort checks port against the validator's bounds.
func (v Validator) ValidatePort(port int) Outcome {
	lo, hi := v.bounds()
	if port < lo || port > hi {
		return fail(fmt.Sprintf("Port must be between %d and %d", lo, hi))
	}
	return ok()
}

// ValidatePort checks port against the full TCP range.
func ValidatePort(port int) Outcome {
	return Default.ValidatePort(port)
}

func (v Validator) bounds() (int, int) {
	lo, hi := v.MinPort, v.MaxPort
	if lo <= 0 {
		lo = consts.MinPort
	}
	if hi <= 0 || hi > consts.MaxPort {
		hi = consts.MaxPort
	}
	return lo, hi
}

// ParsePort converts a decoded JSON value into a port number. Integral JSON
// numbers and decimal strings are accepted; anything else is rejected.
func ParsePort(v any) (int, error) {
	switch p := v.(type) {
	case int:
		return p, nil
	case int64:
		return int(p), nil
	case float64:
		if p != math.Trunc(p) || math.IsInf(p, 0) || math.Abs(p) > math.MaxInt32 {
			return 0, ErrPortNotInteger
		}
		return int(p), nil
	case json.Number:
		if n, err := strconv.Atoi(p.String()); err == nil {
			return n, nil
		}
		f, err := p.Float64()
		if err != nil {
			return 0, ErrPortNotInteger
		}
		return ParsePort(f)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0, ErrPortNotInteger
		}
		return n, nil
	default:
		return 0, ErrPortNotInteger
	}
}

// ValidateAPIKey compares the supplied key with the configured secret in
// constant time. An unset secret matches nothing.
func ValidateAPIKey(supplied, expected string) bool {
	if expected == "" || supplied == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) == 1
}

func isHostname(host string) bool {
	return len(host) <= 253 && hostnamePattern.MatchString(host)
}
