package validator

import (
	"context"
	"net"
	"time"

	"github.com/Dynom/mxprobe/types"
	"github.com/sirupsen/logrus"
)

// Option configures an EmailValidator
type Option func(v *EmailValidator)

// WithResolver sets the MX resolver. Defaults to net.DefaultResolver
func WithResolver(r LookupMX) Option {
	return func(v *EmailValidator) {
		v.resolver = r
	}
}

// WithDialer sets the dialer used to connect to mail exchanges
func WithDialer(d DialContext) Option {
	return func(v *EmailValidator) {
		v.dialer = d
	}
}

// WithLogger sets the logger, the probe logs its phase transitions at debug level
func WithLogger(l logrus.FieldLogger) Option {
	return func(v *EmailValidator) {
		v.logger = l
	}
}

// NewEmailAddressValidator creates an EmailValidator that probes with conf
func NewEmailAddressValidator(conf ProbeConfig, options ...Option) EmailValidator {
	v := EmailValidator{
		conf: conf.withDefaults(),
	}

	for _, o := range options {
		o(&v)
	}

	if v.resolver == nil {
		v.resolver = net.DefaultResolver
	}

	if v.dialer == nil {
		v.dialer = &net.Dialer{}
	}

	v.syntax = NewSyntaxFilter(v.conf.AcceptedDomain)
	v.prober = NewProber(v.dialer, v.conf, v.logger)

	return v
}

type EmailValidator struct {
	conf     ProbeConfig
	resolver LookupMX
	dialer   DialContext
	logger   logrus.FieldLogger
	syntax   SyntaxFilter
	prober   *Prober
}

// CheckWithProbe performs a thorough check: syntax, MX resolution and a partial SMTP conversation with the mail
// exchange. It's the only check that can confirm a recipient.
func (v *EmailValidator) CheckWithProbe(ctx context.Context, emailParts types.EmailParts) Result {
	return validateSequence(ctx,
		v.getNewArtifact(ctx, emailParts),
		[]stateFn{
			checkEmailAddressSyntax,
			checkIfDomainHasMX,
			checkRCPT,
		})
}

// CheckWithLookup performs a sanity check using DNS lookups. It won't connect to the actual hosts.
func (v *EmailValidator) CheckWithLookup(ctx context.Context, emailParts types.EmailParts) Result {
	return validateSequence(ctx,
		v.getNewArtifact(ctx, emailParts),
		[]stateFn{
			checkEmailAddressSyntax,
			checkIfDomainHasMX,
		})
}

// CheckWithSyntax performs only a syntax check.
func (v *EmailValidator) CheckWithSyntax(ctx context.Context, emailParts types.EmailParts) Result {
	return validateSequence(ctx,
		v.getNewArtifact(ctx, emailParts),
		[]stateFn{
			checkEmailAddressSyntax,
		})
}

// SyntaxFilter returns the filter used as the first step
func (v *EmailValidator) SyntaxFilter() SyntaxFilter {
	return v.syntax
}

func (v *EmailValidator) getNewArtifact(ctx context.Context, parts types.EmailParts) Artifact {
	return Artifact{
		Timings:  make(Timings, 0, 3),
		email:    parts,
		ctx:      ctx,
		resolver: v.resolver,
		prober:   v.prober,
		syntax:   v.syntax,
	}
}

func validateSequence(ctx context.Context, artifact Artifact, sequence []stateFn) Result {
	for _, v := range sequence {
		if err := v(&artifact); err != nil {
			return createResult(artifact, err)
		}

		if t, deadlineSet := ctx.Deadline(); deadlineSet && !t.After(time.Now()) {
			return createResult(artifact, context.DeadlineExceeded)
		}

		if err := ctx.Err(); err != nil {
			return createResult(artifact, err)
		}
	}

	artifact.Validations.MarkAsValid()
	return createResult(artifact, nil)
}
