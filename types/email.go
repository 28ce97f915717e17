package types

import (
	"errors"
	"strings"
)

var (
	ErrInvalidEmailAddress = errors.New("invalid e-mail address, address is missing @")
	ErrMissingDomain       = errors.New("invalid e-mail address, domain is missing")
)

// NewEmailParts decomposes an address on the last @. The domain is lower-cased, the local part is kept as-is.
func NewEmailParts(emailAddress string) (EmailParts, error) {
	p, err := splitLocalAndDomain(emailAddress)
	if err != nil {
		return EmailParts{}, err
	}

	return p, nil
}

type EmailParts struct {
	Address string
	Local   string
	Domain  string
}

func splitLocalAndDomain(input string) (EmailParts, error) {
	i := strings.LastIndex(input, "@")
	if 0 >= i {
		return EmailParts{}, ErrInvalidEmailAddress
	}

	if i == len(input)-1 {
		return EmailParts{}, ErrMissingDomain
	}

	return EmailParts{
		Address: input,
		Local:   input[:i],
		Domain:  strings.ToLower(input[i+1:]),
	}, nil
}
