package validator

import (
	"context"
	"net"
)

// LookupMX resolves the mail exchanges of a domain, *net.Resolver satisfies it
type LookupMX interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
}

// DialContext opens the TCP connection to a mail exchange, *net.Dialer satisfies it
type DialContext interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

var (
	_ LookupMX    = (*net.Resolver)(nil)
	_ DialContext = (*net.Dialer)(nil)
)
