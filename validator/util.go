package validator

import (
	"context"
	"time"
)

// getEarliestDeadlineCTX returns a context with a deadline of now+ttl, unless the parent expires sooner. A ttl of 0
// only derives a cancelable context from the parent.
func getEarliestDeadlineCTX(parent context.Context, ttl time.Duration) (context.Context, context.CancelFunc) {
	if ttl <= 0 {
		return context.WithCancel(parent)
	}

	myDeadline := time.Now().Add(ttl)
	parentDeadline, ok := parent.Deadline()
	if ok && parentDeadline.Before(myDeadline) {
		return context.WithCancel(parent)
	}

	return context.WithDeadline(parent, myDeadline)
}

// MightBeAHostOrIP is a very rudimentary check to see if the argument could be either a host name or IP address
// It aims on speed and not for correctness. It's intended to weed-out bogus responses such as '.'
//
//nolint:gocyclo
func MightBeAHostOrIP(h string) bool {

	// Normally we can assume that host names have a tld and consist out of at least 5 characters
	lastCharIndex := len(h) - 1
	if 3 >= lastCharIndex || lastCharIndex >= 253 {
		return false
	}

	var dotCount uint8
	for i, c := range h {
		switch {
		case 48 <= c && c <= 57 /* 0-9 */ :
		case 65 <= c && c <= 90 /* A-Z */ :
		case 97 <= c && c <= 122 /* a-z */ :
		case c == 45 /* dash - */ :
		case c == 46 && 0 < i && i < lastCharIndex /* dot . */ :
			dotCount++
		default:
			return false
		}
	}

	// We need at least one dot for a domain to be valid
	return dotCount > 0
}
