package erihttp

import "errors"

var (
	ErrMissingBody            = errors.New("missing body")
	ErrInvalidRequest         = errors.New("request is invalid")
	ErrBodyTooLarge           = errors.New("request body too large")
	ErrUnsupportedContentType = errors.New("unsupported content-type")
)

var empty = make([]string, 0)

type ERIResponse interface {
	// PrepareResponse makes the response safe to marshal, e.g. no null lists
	PrepareResponse()
}

// VerifyRequest holds a comma separated list of addresses
type VerifyRequest struct {
	Emails string `json:"emails"`
}

type VerifyResponse struct {
	ValidEmails   []string `json:"validEmails"`
	InvalidEmails []string `json:"invalidEmails"`
	Error         string   `json:"error,omitempty"`
}

func (r *VerifyResponse) PrepareResponse() {
	if r.ValidEmails == nil {
		r.ValidEmails = empty
	}

	if r.InvalidEmails == nil {
		r.InvalidEmails = empty
	}
}
