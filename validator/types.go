package validator

import (
	"context"

	"github.com/Dynom/mxprobe/types"
	"github.com/Dynom/mxprobe/validator/validations"
)

// Artifact carries the state of a single address through a validation sequence
type Artifact struct {
	Validations validations.Validations
	Steps       validations.Steps
	Timings
	Outcome ProbeOutcome

	email    types.EmailParts
	mx       MailExchangeHost
	ctx      context.Context
	resolver LookupMX
	prober   *Prober
	syntax   SyntaxFilter
}

type stateFn func(a *Artifact) error

// CheckFn is the signature of the EmailValidator.CheckWith* methods
type CheckFn func(ctx context.Context, parts types.EmailParts) Result

// Result is the outcome of a validation sequence. Error is nil when every step passed.
type Result struct {
	Validations validations.Validations
	Steps       validations.Steps
	Timings
	Outcome ProbeOutcome
	MX      MailExchangeHost
	Error   error
}

// ValidatorsRan returns true if at least one step ran
func (r Result) ValidatorsRan() bool {
	return r.Steps > 0 || r.Validations > 0
}

func createResult(a Artifact, err error) Result {
	return Result{
		Validations: a.Validations,
		Steps:       a.Steps,
		Timings:     a.Timings,
		Outcome:     a.Outcome,
		MX:          a.mx,
		Error:       err,
	}
}
