package checker

import (
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"

	consts "github.com/khanhnv2901/seca-recon/internal/shared/constants"
	sharederrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
	"github.com/khanhnv2901/seca-recon/internal/validate"
	"go.uber.org/zap"
)

// Config controls an Engine. Zero timeouts fall back to the package defaults.
type Config struct {
	SocketTimeout time.Duration
	HTTPTimeout   time.Duration
	// BlockPrivate refuses connections whose resolved address is loopback,
	// private, link-local or unspecified.
	BlockPrivate bool
	Logger       *zap.Logger
}

// Engine runs probes. It is safe for concurrent use.
type Engine struct {
	socketTimeout time.Duration
	httpTimeout   time.Duration
	logger        *zap.Logger

	socketDialer *net.Dialer
	client       *http.Client
}

// NewEngine builds an Engine from cfg.
func NewEngine(cfg Config) *Engine {
	if cfg.SocketTimeout <= 0 {
		cfg.SocketTimeout = consts.DefaultSocketTimeout
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = consts.DefaultHTTPTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	e := &Engine{
		socketTimeout: cfg.SocketTimeout,
		httpTimeout:   cfg.HTTPTimeout,
		logger:        cfg.Logger,
		socketDialer:  newDialer(cfg.SocketTimeout, cfg.BlockPrivate),
	}

	httpDialer := newDialer(cfg.HTTPTimeout, cfg.BlockPrivate)
	e.client = &http.Client{
		Timeout: cfg.HTTPTimeout,
		Transport: &http.Transport{
			Proxy:                 nil,
			DialContext:           httpDialer.DialContext,
			TLSHandshakeTimeout:   cfg.HTTPTimeout,
			ResponseHeaderTimeout: cfg.HTTPTimeout,
			DisableKeepAlives:     true,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse // report the first hop only
		},
	}
	return e
}

// SocketTimeout returns the timeout applied to port and banner probes.
func (e *Engine) SocketTimeout() time.Duration { return e.socketTimeout }

// HTTPTimeout returns the timeout applied to website checks.
func (e *Engine) HTTPTimeout() time.Duration { return e.httpTimeout }

func newDialer(timeout time.Duration, blockPrivate bool) *net.Dialer {
	d := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: -1,
	}
	if blockPrivate {
		d.Control = guardDestination
	}
	return d
}

// guardDestination runs after name resolution, once per candidate address.
func guardDestination(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return err
	}
	if validate.IsBlockedAddr(addr) {
		return sharederrors.ErrDestinationBlocked
	}
	return nil
}
