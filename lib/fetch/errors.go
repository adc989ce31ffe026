package fetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
)

type ErrorCode string

const (
	CodeTimeout           ErrorCode = "timeout"
	CodeDNS               ErrorCode = "dns"
	CodeTLS               ErrorCode = "tls"
	CodeConnectionRefused ErrorCode = "connection_refused"
	CodeConnectionReset   ErrorCode = "connection_reset"
	CodeCanceled          ErrorCode = "canceled"
	CodeInvalidURL        ErrorCode = "invalid_url"
	CodeRedirectLimit     ErrorCode = "redirect_limit"
	CodeRequest           ErrorCode = "request"
)

// Error is a transport failure reduced to a machine readable code.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Classify maps a transport error to an Error, nil stays nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: classifyCode(err), Message: err.Error()}
}

func classifyCode(err error) ErrorCode {
	if errors.Is(err, context.Canceled) {
		return CodeCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CodeDNS
	}

	var (
		verifyErr    *tls.CertificateVerificationError
		recordErr    tls.RecordHeaderError
		authorityErr x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)
	if errors.As(err, &verifyErr) ||
		errors.As(err, &recordErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr) {
		return CodeTLS
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return CodeConnectionRefused
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return CodeConnectionReset
	}

	msg := err.Error()
	if strings.Contains(msg, "stopped after") {
		return CodeRedirectLimit
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil && strings.Contains(urlErr.Err.Error(), "unsupported protocol scheme") {
		return CodeInvalidURL
	}
	var parseErr url.EscapeError
	if errors.As(err, &parseErr) || strings.Contains(msg, "invalid URL") {
		return CodeInvalidURL
	}
	return CodeRequest
}
