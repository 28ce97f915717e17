package validator

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MailExchangeHost is the mail exchange selected for a domain
type MailExchangeHost struct {
	Host     string
	Priority uint16
}

func (m MailExchangeHost) String() string {
	return fmt.Sprintf("%s (%d)", m.Host, m.Priority)
}

var errNoRecords = errors.New("no MX records found")

// ResolveMX performs a single MX lookup and returns the first record, the resolver's ordering is trusted. Every
// failure is returned as a *ResolutionError.
func ResolveMX(ctx context.Context, resolver LookupMX, domain string) (MailExchangeHost, error) {
	mxs, err := resolver.LookupMX(ctx, domain)
	if err != nil {
		metricMXLookup.WithLabelValues("error").Inc()
		return MailExchangeHost{}, &ResolutionError{Domain: domain, Cause: err}
	}

	if len(mxs) == 0 || mxs[0] == nil {
		metricMXLookup.WithLabelValues("none").Inc()
		return MailExchangeHost{}, &ResolutionError{Domain: domain, Cause: errNoRecords}
	}

	// Hosts might end on a "." (which isn't bad) or consist solely out of a "." (a null MX, which is bad)
	host := strings.TrimRight(mxs[0].Host, ".")
	if !MightBeAHostOrIP(host) {
		metricMXLookup.WithLabelValues("invalid").Inc()
		return MailExchangeHost{}, &ResolutionError{
			Domain: domain,
			Cause:  fmt.Errorf("first of %d MX host(s) %q %w", len(mxs), mxs[0].Host, ErrInvalidHost),
		}
	}

	metricMXLookup.WithLabelValues("ok").Inc()
	return MailExchangeHost{
		Host:     host,
		Priority: mxs[0].Pref,
	}, nil
}
