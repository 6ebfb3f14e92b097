package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
	"unicode/utf8"

	consts "github.com/khanhnv2901/seca-recon/internal/shared/constants"
	sharederrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// dropIllFormed removes invalid UTF-8 from banner bytes instead of failing.
var dropIllFormed = runes.Remove(runes.Predicate(func(r rune) bool {
	return r == utf8.RuneError
}))

// CheckPort reports whether a TCP connection to host:port can be opened.
// No data is exchanged; an opened connection is closed immediately.
func (e *Engine) CheckPort(ctx context.Context, host string, port int) PortResult {
	result := PortResult{Host: host, Port: port}
	log := e.logger.With(zap.String("host", host), zap.Int("port", port))
	log.Info("checking port")

	conn, err := e.dial(ctx, host, port)
	if err != nil {
		result.Status, result.Error = portFailure(err)
		switch {
		case result.Status == StatusClosed:
			log.Info("port closed", zap.Error(err))
		case errors.Is(err, sharederrors.ErrDestinationBlocked):
			log.Warn("port check blocked", zap.Error(err))
		default:
			log.Warn("port check failed", zap.Error(err))
		}
		return result
	}
	_ = conn.Close()

	result.Status = StatusOpen
	log.Info("port open")
	return result
}

// GrabBanner connects to host:port, sends a minimal HTTP/1.1 request and
// returns whatever the service answers in a single read of up to 1024 bytes.
func (e *Engine) GrabBanner(ctx context.Context, host string, port int) BannerResult {
	result := BannerResult{Host: host, Port: port}
	log := e.logger.With(zap.String("host", host), zap.Int("port", port))
	log.Info("attempting banner grab")

	conn, err := e.dial(ctx, host, port)
	if err != nil {
		result.Error = strPtr(bannerErrorText(err))
		log.Warn("banner grab connect failed", zap.Error(err))
		return result
	}
	defer conn.Close()

	// One deadline covers the write and the read.
	_ = conn.SetDeadline(time.Now().Add(e.socketTimeout))

	request := fmt.Sprintf("GET / HTTP/1.1\r\nHost: %s\r\nUser-Agent: %s\r\n\r\n", host, consts.BannerUserAgent)
	if _, err := io.WriteString(conn, request); err != nil {
		result.Error = strPtr(bannerErrorText(err))
		log.Warn("banner request write failed", zap.Error(err))
		return result
	}

	buf := make([]byte, consts.BannerReadLimitBytes)
	n, err := conn.Read(buf)
	if n > 0 {
		result.Banner = strPtr(DecodeBanner(buf[:n]))
		log.Info("banner grabbed", zap.Int("bytes", n))
		return result
	}
	if err == nil || errors.Is(err, io.EOF) {
		result.Error = strPtr(ErrTextNoResponse)
		log.Warn("no banner received")
		return result
	}

	result.Error = strPtr(bannerErrorText(err))
	log.Warn("banner read failed", zap.Error(err))
	return result
}

// DecodeBanner turns raw banner bytes into text, dropping invalid UTF-8.
func DecodeBanner(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	out, _, err := transform.Bytes(dropIllFormed, raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// portFailure maps a dial error to a port status and its error text.
// Refused and unreachable targets are Closed and carry no error.
func portFailure(err error) (string, *string) {
	switch classify(err) {
	case failureRefused, failureUnreachable:
		return StatusClosed, nil
	case failureBlocked:
		return StatusError, strPtr(sharederrors.ErrDestinationBlocked.Error())
	case failureResolution:
		return StatusError, strPtr(resolutionMessage(err))
	case failureTimeout:
		return StatusError, strPtr(ErrTextConnectionTimeout)
	default:
		return StatusError, strPtr(err.Error())
	}
}

func bannerErrorText(err error) string {
	switch classify(err) {
	case failureBlocked:
		return sharederrors.ErrDestinationBlocked.Error()
	case failureResolution:
		return resolutionMessage(err)
	case failureTimeout:
		return ErrTextConnectionTimeout
	case failureRefused:
		return ErrTextConnectionRefused
	default:
		return err.Error()
	}
}

func (e *Engine) dial(ctx context.Context, host string, port int) (net.Conn, error) {
	address := net.JoinHostPort(host, strconv.Itoa(port))
	return e.socketDialer.DialContext(ctx, "tcp", address)
}

// ServiceName returns the common service name for a port, or "unknown".
func ServiceName(port int) string {
	if service, ok := wellKnownServices[port]; ok {
		return service
	}
	return "unknown"
}

var wellKnownServices = map[int]string{
	21:    "ftp",
	22:    "ssh",
	23:    "telnet",
	25:    "smtp",
	53:    "dns",
	80:    "http",
	110:   "pop3",
	143:   "imap",
	443:   "https",
	445:   "smb",
	3306:  "mysql",
	3389:  "rdp",
	5432:  "postgresql",
	5900:  "vnc",
	6379:  "redis",
	8080:  "http-alt",
	8443:  "https-alt",
	27017: "mongodb",
}

// PortRisk grades the exposure of an open port: critical, high, medium, low
// or info.
func PortRisk(port int) string {
	switch port {
	case 23, 3389, 5900:
		return "critical"
	case 21, 22, 445, 3306, 5432, 6379, 27017:
		return "high"
	case 25, 110, 143, 8080, 8443:
		return "medium"
	case 80, 443:
		return "low"
	}
	return "info"
}
