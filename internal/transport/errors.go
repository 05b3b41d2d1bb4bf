package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// Kind is the category of a transport failure.
type Kind int

const (
	// KindTimeout means no response arrived in time
	KindTimeout Kind = iota
	// KindConnectionFailed means the request could not be delivered
	KindConnectionFailed
	// KindHTTPStatus means the hub answered with a non-200 status
	KindHTTPStatus
	// KindOther covers everything else, including cancellation
	KindOther
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "Timeout"
	case KindConnectionFailed:
		return "Connection Failed"
	case KindHTTPStatus:
		return "HTTP Error"
	case KindOther:
		return "Transport Error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Cause narrows down a connection failure
type Cause int

const (
	CauseGeneral Cause = iota
	CauseConnectionRefused
	CauseDNS
	CauseHostUnreachable
	CauseNetworkUnreachable
	CauseTLS
)

// Error is a categorised transport failure
type Error struct {
	Kind       Kind   // Category of error
	Cause      Cause  // Refinement for KindConnectionFailed
	Message    string // Human-readable error message
	StatusCode int    // HTTP status code for KindHTTPStatus
	Host       string // Hub address, for troubleshooting hints
	Err        error  // Underlying error (if any)
	Retryable  bool   // Whether the request certainly never reached the hub
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Classify turns an error from net/http into a categorised *Error.
func Classify(err error, host string) *Error {
	if err == nil {
		return nil
	}

	var already *Error
	if errors.As(err, &already) {
		return already
	}

	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: "request timed out", Host: host, Err: err}
	}

	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindOther, Message: "request canceled", Host: host, Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{
			Kind:    KindConnectionFailed,
			Cause:   CauseDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Host:    host,
			Err:     err,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return &Error{Kind: KindConnectionFailed, Cause: CauseConnectionRefused, Message: "hub refused connection", Host: host, Err: err, Retryable: true}
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return &Error{Kind: KindConnectionFailed, Cause: CauseHostUnreachable, Message: "host unreachable", Host: host, Err: err, Retryable: true}
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return &Error{Kind: KindConnectionFailed, Cause: CauseNetworkUnreachable, Message: "network unreachable", Host: host, Err: err, Retryable: true}
		}
	}

	var recordErr tls.RecordHeaderError
	var certErr *tls.CertificateVerificationError
	var unknownAuth x509.UnknownAuthorityError
	if errors.As(err, &recordErr) || errors.As(err, &certErr) || errors.As(err, &unknownAuth) {
		return &Error{Kind: KindConnectionFailed, Cause: CauseTLS, Message: "TLS handshake failed", Host: host, Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return Classify(urlErr.Err, host)
	}

	if opErr != nil {
		return &Error{Kind: KindConnectionFailed, Cause: CauseGeneral, Message: "network error occurred", Host: host, Err: err}
	}

	return &Error{Kind: KindOther, Message: "request failed", Host: host, Err: err}
}

// NewHTTPError creates an error for a non-200 response
func NewHTTPError(statusCode int, host string) *Error {
	return &Error{
		Kind:       KindHTTPStatus,
		Message:    fmt.Sprintf("unexpected status code: %d", statusCode),
		StatusCode: statusCode,
		Host:       host,
	}
}

// IsTimeout checks if err is a transport timeout
func IsTimeout(err error) bool {
	var tErr *Error
	return errors.As(err, &tErr) && tErr.Kind == KindTimeout
}

// IsConnectionFailed checks if err is a delivery failure
func IsConnectionFailed(err error) bool {
	var tErr *Error
	return errors.As(err, &tErr) && tErr.Kind == KindConnectionFailed
}

// IsHTTPError checks if err is a non-200 response
func IsHTTPError(err error) bool {
	var tErr *Error
	return errors.As(err, &tErr) && tErr.Kind == KindHTTPStatus
}

// IsRetryable checks if a request can be repeated without risk of acting twice
func IsRetryable(err error) bool {
	var tErr *Error
	return errors.As(err, &tErr) && tErr.Retryable
}

// TroubleshootingHint returns user-facing advice for a transport error
func TroubleshootingHint(err error) []string {
	var tErr *Error
	if !errors.As(err, &tErr) {
		return nil
	}

	switch tErr.Kind {
	case KindTimeout:
		return []string{
			"The hub did not respond in time",
			"Check that the hub is powered on and on the same network",
			"Try a longer --timeout",
		}

	case KindConnectionFailed:
		switch tErr.Cause {
		case CauseConnectionRefused:
			return []string{
				"The hub refused the connection",
				"Verify the host and port (the local API listens on port 80)",
				"Restart the hub if its web interface is also unreachable",
			}
		case CauseDNS:
			return []string{
				"Could not resolve the hub hostname",
				"Use the IP address instead of a hostname",
			}
		case CauseHostUnreachable:
			return []string{
				"The hub is not reachable on the network",
				"Verify the IP address is correct",
				"Try pinging the hub: ping " + hostOnly(tErr.Host),
			}
		case CauseNetworkUnreachable:
			return []string{
				"Your computer cannot reach the hub's network",
				"Check your network adapter and WiFi settings",
			}
		case CauseTLS:
			return []string{
				"The hub's local API is plain HTTP; use an http:// host",
			}
		default:
			return []string{
				"Check your network connection",
				"Verify the hub is powered on",
			}
		}

	case KindHTTPStatus:
		if tErr.StatusCode == 404 {
			return []string{"The host answered but has no /api.php; is this a GogoGate2 or iSmartGate hub?"}
		}
		if tErr.StatusCode >= 500 {
			return []string{
				fmt.Sprintf("The hub returned an error (HTTP %d)", tErr.StatusCode),
				"Try rebooting the hub",
			}
		}
		return []string{fmt.Sprintf("The hub returned HTTP %d", tErr.StatusCode)}

	default:
		return nil
	}
}

// ShortMessage returns a concise, user-friendly error message
func ShortMessage(err error) string {
	var tErr *Error
	if !errors.As(err, &tErr) {
		return err.Error()
	}

	switch tErr.Kind {
	case KindTimeout:
		return "Hub not responding (timeout)"
	case KindConnectionFailed:
		switch tErr.Cause {
		case CauseConnectionRefused:
			return "Hub refused connection"
		case CauseDNS:
			return "Cannot resolve hub hostname"
		case CauseHostUnreachable:
			return "Hub unreachable - check network connection"
		case CauseNetworkUnreachable:
			return "Network unreachable - check WiFi connection"
		case CauseTLS:
			return "TLS handshake failed"
		default:
			return "Network error - check connection"
		}
	case KindHTTPStatus:
		return fmt.Sprintf("Hub error (HTTP %d)", tErr.StatusCode)
	default:
		return tErr.Message
	}
}

func hostOnly(hostport string) string {
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return h
	}
	return strings.TrimSpace(hostport)
}
