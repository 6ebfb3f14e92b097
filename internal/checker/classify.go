package checker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"os"
	"syscall"

	sharederrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

// failure is the engine's internal classification of a network error.
type failure int

const (
	failureOther failure = iota
	failureBlocked
	failureResolution
	failureTimeout
	failureRefused
	// failureUnreachable covers clean connect failures other than refusal
	// (host/network unreachable, reset during connect).
	failureUnreachable
)

func classify(err error) failure {
	if errors.Is(err, sharederrors.ErrDestinationBlocked) {
		return failureBlocked
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return failureResolution
	}
	if isTimeout(err) {
		return failureTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return failureRefused
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return failureUnreachable
	}
	return failureOther
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isConnectFailure reports whether an HTTP client error happened while
// establishing the connection rather than during the exchange.
func isConnectFailure(err error) bool {
	switch classify(err) {
	case failureResolution, failureRefused, failureUnreachable:
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var (
		recordErr    tls.RecordHeaderError
		verifyErr    *tls.CertificateVerificationError
		authorityErr x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)
	return errors.As(err, &recordErr) ||
		errors.As(err, &verifyErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr)
}

func resolutionMessage(err error) string {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrTextResolutionPrefix + dnsErr.Error()
	}
	return ErrTextResolutionPrefix + err.Error()
}
