package validator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// DefaultDNSTimeout bounds a single exchange with the name server
const DefaultDNSTimeout = 5 * time.Second

// NewDNSResolver creates a resolver that queries server directly. A server without a port uses port 53.
func NewDNSResolver(server string, timeout time.Duration) *DNSResolver {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}

	if timeout <= 0 {
		timeout = DefaultDNSTimeout
	}

	return &DNSResolver{
		server: server,
		udp:    &dns.Client{Net: "udp", Timeout: timeout},
		tcp:    &dns.Client{Net: "tcp", Timeout: timeout},
	}
}

// DNSResolver performs MX lookups against a single name server. Unlike net.Resolver it doesn't sort the records,
// they're returned in the order of the answer section.
type DNSResolver struct {
	server string
	udp    *dns.Client
	tcp    *dns.Client
}

// Server returns the address of the name server, including the port
func (r *DNSResolver) Server() string {
	return r.server
}

func (r *DNSResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(domain), dns.TypeMX)

	in, _, err := r.udp.ExchangeContext(ctx, m, r.server)
	if err == nil && in.Truncated {
		in, _, err = r.tcp.ExchangeContext(ctx, m, r.server)
	}

	if err != nil {
		return nil, &net.DNSError{
			Err:         err.Error(),
			Name:        domain,
			Server:      r.server,
			IsTimeout:   isTimeout(err),
			IsTemporary: true,
		}
	}

	switch in.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, &net.DNSError{
			Err:        "no such host",
			Name:       domain,
			Server:     r.server,
			IsNotFound: true,
		}
	default:
		return nil, &net.DNSError{
			Err:    fmt.Sprintf("server replied with %s", dns.RcodeToString[in.Rcode]),
			Name:   domain,
			Server: r.server,
		}
	}

	mxs := make([]*net.MX, 0, len(in.Answer))
	for _, rr := range in.Answer {
		if mx, ok := rr.(*dns.MX); ok {
			mxs = append(mxs, &net.MX{
				Host: mx.Mx,
				Pref: mx.Preference,
			})
		}
	}

	return mxs, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
