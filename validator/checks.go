package validator

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dynom/mxprobe/validator/validations"
)

// checkEmailAddressSyntax runs the syntax filter. It's cheap and never touches the network.
func checkEmailAddressSyntax(a *Artifact) error {
	a.Steps.SetFlag(validations.FSyntax)

	start := time.Now()
	ok := a.syntax.Check(a.email.Address)
	a.Timings.Add("checkEmailAddressSyntax", time.Since(start))

	if !ok {
		return ValidationError{
			Validator: "checkEmailAddressSyntax",
			error:     ErrSyntaxRejected,
		}
	}

	a.Validations.SetFlag(validations.FSyntax)
	return nil
}

// checkIfDomainHasMX performs a DNS lookup and keeps the first MX record
func checkIfDomainHasMX(a *Artifact) error {
	a.Steps.SetFlag(validations.FMXLookup)

	start := time.Now()
	mx, err := ResolveMX(a.ctx, a.resolver, a.email.Domain)
	a.Timings.Add("checkIfDomainHasMX", time.Since(start))

	if err != nil {
		return ValidationError{
			Validator: "checkIfDomainHasMX",
			Internal:  err,
			error:     ErrResolution,
		}
	}

	a.mx = mx
	a.Validations.SetFlag(validations.FMXLookup)
	return nil
}

// checkRCPT probes the mail exchange, asking politely if the recipient exists. Expects to run after
// checkIfDomainHasMX. Mail exchanges that accept everything produce false positives.
func checkRCPT(a *Artifact) error {
	a.Steps.SetFlag(validations.FHostConnect)

	start := time.Now()
	session, err := a.prober.Run(a.ctx, a.email.Address, a.mx)
	a.Timings.Add("checkRCPT", time.Since(start))

	a.Outcome = session.Outcome
	if session.Connected {
		a.Validations.SetFlag(validations.FHostConnect)
	}

	if session.rcptSent() {
		a.Steps.SetFlag(validations.FValidRCPT)
	}

	if err != nil {
		kind := ErrProbeConnection
		var pe ProbeError
		if errors.As(err, &pe) && pe.error != nil {
			kind = pe.error
		}

		return ValidationError{
			Validator: "checkRCPT",
			Internal:  err,
			error:     kind,
		}
	}

	if session.Outcome != OutcomeAccepted {
		return ValidationError{
			Validator: "checkRCPT",
			Internal:  fmt.Errorf("recipient %q refused with %d %s", a.email.Address, session.LastCode, session.LastMessage),
			error:     ErrMailboxUnavailable,
		}
	}

	a.Validations.SetFlag(validations.FValidRCPT)
	return nil
}
