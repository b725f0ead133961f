package httputil

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/url"
)

// ErrorClass labels the transport-level failure mode of an attempt.
// Classes are for diagnostics only; retry decisions are driven by
// [RetryableError] wrapping, not by class.
type ErrorClass string

const (
	ClassDNS     ErrorClass = "dns"
	ClassConnect ErrorClass = "connect"
	ClassTLS     ErrorClass = "tls"
	ClassTimeout ErrorClass = "timeout"
	ClassStatus  ErrorClass = "http-status"
	ClassOther   ErrorClass = "other"
)

// Classify inspects a transport error and returns its failure class.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassOther
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return ClassTimeout
		}
		err = urlErr.Err
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ClassDNS
	}

	var tlsRecordErr tls.RecordHeaderError
	if errors.As(err, &tlsRecordErr) {
		return ClassTLS
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return ClassTLS
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ClassTimeout
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" {
			return ClassConnect
		}
	}

	return ClassOther
}
