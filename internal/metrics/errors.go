package metrics

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// maxKindLen bounds histogram key length so free-form error text cannot
// explode the cardinality of the error breakdown.
const maxKindLen = 60

// KindFromError classifies a transport-level error into a short, stable
// error kind: well-known network failures get fixed labels, anything else
// falls back to the first clause of the error text.
func KindFromError(err error) string {
	if err == nil {
		return ""
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timeout"
	case errors.Is(err, context.Canceled):
		return "request canceled"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection refused"
	case errors.Is(err, syscall.ECONNRESET):
		return "connection reset"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "dns lookup failure"
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return "tls verification failure"
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return "tls handshake failure"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "request timeout"
	}

	return firstClause(err.Error())
}

// firstClause trims an error message at its first colon, matching the way
// the report buckets variant messages under one key.
func firstClause(msg string) string {
	if idx := strings.IndexByte(msg, ':'); idx >= 0 {
		msg = msg[:idx]
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "unknown error"
	}
	return msg
}

func truncateKind(kind string) string {
	if len(kind) > maxKindLen {
		return kind[:maxKindLen]
	}
	return kind
}
