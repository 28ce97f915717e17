package validator

import (
	"regexp"
	"strings"
)

// minimalShape matches "non-whitespace, @, non-whitespace containing a dot" over the entire input
var minimalShape = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// NewSyntaxFilter creates a filter restricted to acceptedDomain. An empty acceptedDomain accepts any domain.
func NewSyntaxFilter(acceptedDomain string) SyntaxFilter {
	return SyntaxFilter{
		acceptedDomain: strings.ToLower(strings.TrimPrefix(acceptedDomain, "@")),
	}
}

// SyntaxFilter is a cheap structural check, used to avoid network round-trips for addresses that can't be probed
// in a meaningful way.
type SyntaxFilter struct {
	acceptedDomain string
}

// Check returns true when the address has the minimal shape and belongs to the accepted domain
func (f SyntaxFilter) Check(address string) bool {
	if !minimalShape.MatchString(address) {
		return false
	}

	// The expression might have matched on an earlier @, the domain is what follows the last one
	domain := address[strings.LastIndex(address, "@")+1:]
	if !strings.Contains(domain, ".") {
		return false
	}

	return f.acceptedDomain == "" || strings.EqualFold(domain, f.acceptedDomain)
}

// AcceptedDomain returns the domain addresses are restricted to
func (f SyntaxFilter) AcceptedDomain() string {
	return f.acceptedDomain
}
