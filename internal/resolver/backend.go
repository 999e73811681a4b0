package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/miekg/dns"
)

const (
	SystemBackend = "system"
	DirectBackend = "direct"
)

// NewBackend returns the lookup backend of the given kind. The direct backend
// sends queries to servers, given in host:port form.
func NewBackend(kind string, servers []string, timeout time.Duration) (Backend, error) {
	switch kind {
	case "", SystemBackend:
		return net.DefaultResolver, nil
	case DirectBackend:
		return NewDirect(servers, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported resolver backend: %q", kind)
	}
}

// Direct is a Backend querying DNS servers without going through the host
// resolver. Servers are tried in order until one answers.
type Direct struct {
	servers []string
	client  *dns.Client
}

func NewDirect(servers []string, timeout time.Duration) *Direct {
	return &Direct{
		servers: servers,
		client:  &dns.Client{Net: "udp", Timeout: timeout},
	}
}

func (d *Direct) LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error) {
	qtype := dns.TypeA
	if network == "ip6" {
		qtype = dns.TypeAAAA
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), qtype)
	msg.RecursionDesired = true

	lastErr := error(&net.DNSError{Err: "no DNS servers", Name: host})
	for _, server := range d.servers {
		in, _, err := d.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			lastErr = fmt.Errorf("lookup %s on %s: %w", host, server, err)
			continue
		}

		switch in.Rcode {
		case dns.RcodeSuccess:
		case dns.RcodeNameError:
			return nil, &net.DNSError{Err: "no such host", Name: host, Server: server, IsNotFound: true}
		default:
			lastErr = &RcodeError{Name: host, Server: server, Rcode: in.Rcode}
			if in.Rcode == dns.RcodeServerFailure {
				continue
			}
			return nil, lastErr
		}

		var addrs []netip.Addr
		for _, rr := range in.Answer {
			var ip net.IP
			switch r := rr.(type) {
			case *dns.A:
				ip = r.A
			case *dns.AAAA:
				ip = r.AAAA
			default:
				continue
			}
			if addr, ok := netip.AddrFromSlice(ip); ok {
				addrs = append(addrs, addr.Unmap())
			}
		}
		if len(addrs) == 0 {
			return nil, &net.DNSError{Err: "no such host", Name: host, Server: server, IsNotFound: true}
		}
		return addrs, nil
	}

	if errors.Is(lastErr, context.DeadlineExceeded) {
		return nil, &net.DNSError{Err: lastErr.Error(), Name: host, IsTimeout: true}
	}
	return nil, lastErr
}
