package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/miekg/dns"
	"golang.org/x/sys/unix"
)

// DNS error codes reported by Poll.
const (
	ErrUnknown       uint8 = 0
	ErrServerFailure uint8 = 2
	ErrNameError     uint8 = 3
	ErrRefused       uint8 = 5
	ErrTimeout       uint8 = 17
	ErrNetworkDown   uint8 = 19
)

// RcodeError is returned by the Direct backend when a server answers with an
// error response code.
type RcodeError struct {
	Name   string
	Server string
	Rcode  int
}

func (e *RcodeError) Error() string {
	return fmt.Sprintf("lookup %s on %s: %s", e.Name, e.Server, dns.RcodeToString[e.Rcode])
}

func errNoIPv4(name string) error {
	return &net.DNSError{Err: "no IPv4 address", Name: name, IsNotFound: true}
}

// ErrorCode maps a lookup error to a DNS error code.
func ErrorCode(err error) uint8 {
	var rcodeErr *RcodeError
	if errors.As(err, &rcodeErr) {
		switch rcodeErr.Rcode {
		case dns.RcodeServerFailure:
			return ErrServerFailure
		case dns.RcodeNameError:
			return ErrNameError
		case dns.RcodeRefused:
			return ErrRefused
		default:
			return ErrUnknown
		}
	}

	switch {
	case errors.Is(err, unix.ECONNABORTED), errors.Is(err, unix.EHOSTDOWN):
		return ErrServerFailure
	case errors.Is(err, unix.ENETDOWN):
		return ErrNetworkDown
	case errors.Is(err, unix.ECONNREFUSED), errors.Is(err, unix.ECONNRESET):
		return ErrRefused
	case errors.Is(err, unix.ETIMEDOUT), errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		switch {
		case dnsErr.IsNotFound:
			return ErrNameError
		case dnsErr.IsTimeout:
			return ErrTimeout
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return ErrUnknown
}
