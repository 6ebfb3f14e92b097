package validate

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBlockedHost(t *testing.T) {
	blocked := []string{
		"localhost", "localhost.", "127.0.0.1", "127.1.2.3", "0.0.0.0",
		"10.1.2.3", "172.16.5.4", "172.31.0.0", "192.168.10.10",
		"169.254.169.254", "::1", "[::1]", "fe80::1", "fd00::1234",
		"127.1", "0177.0.0.1", "2130706433", "192.168", "0x7f.0.0.1",
	}
	for _, h := range blocked {
		assert.True(t, IsBlockedHost(h), h)
	}

	allowed := []string{
		"", "example.com", "8.8.8.8", "172.15.0.1", "172.32.0.1",
		"192.169.0.1", "my10.example.com", "1.10.0.0", "2606:4700::1111",
		"0xdead.example.com", "123.example.com",
	}
	for _, h := range allowed {
		assert.False(t, IsBlockedHost(h), h)
	}
}

func TestIsBlockedAddrUnmapsIPv4(t *testing.T) {
	addr := netip.MustParseAddr("::ffff:10.0.0.1")
	assert.True(t, IsBlockedAddr(addr))
	assert.False(t, IsBlockedAddr(netip.MustParseAddr("::ffff:1.1.1.1")))
}

func TestValidateHostnameRejectsNumericShorthand(t *testing.T) {
	for _, h := range []string{"127.1", "0177.0.0.1", "2130706433", "192.168"} {
		out := ValidateHostname(h)
		assert.False(t, out.Valid, h)
		assert.Equal(t, ReasonInternalTarget, out.Reason, h)
	}
}
