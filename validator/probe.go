package validator

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Phase is the position of a probe in the SMTP handshake
type Phase uint8

const (
	PhaseConnecting Phase = iota
	PhaseAwaitHeloAck
	PhaseAwaitMailFromAck
	PhaseAwaitRcptToAck
	PhaseDecided
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseAwaitHeloAck:
		return "await_helo_ack"
	case PhaseAwaitMailFromAck:
		return "await_mail_from_ack"
	case PhaseAwaitRcptToAck:
		return "await_rcpt_to_ack"
	case PhaseDecided:
		return "decided"
	case PhaseFailed:
		return "failed"
	}

	return "unknown"
}

// ProbeOutcome is the classification of a single probe
type ProbeOutcome uint8

const (
	// OutcomeIndeterminate means the remote never decided, the address is treated as rejected
	OutcomeIndeterminate ProbeOutcome = iota
	OutcomeAccepted
	OutcomeRejected
)

func (o ProbeOutcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	}

	return "indeterminate"
}

// ProbeSession is the state of a single handshake. It's returned by Prober.Run once the connection is closed.
type ProbeSession struct {
	Phase   Phase
	Outcome ProbeOutcome

	// Sender is the MAIL FROM identity, Target is the address under test
	Sender string
	Target string
	Host   string

	Connected   bool
	RcptSent    bool
	LastCode    int
	LastMessage string
}

func (s *ProbeSession) rcptSent() bool {
	return s.RcptSent
}

// NewProber creates a Prober. A nil logger discards the phase logging.
func NewProber(dialer DialContext, conf ProbeConfig, logger logrus.FieldLogger) *Prober {
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	if logger == nil {
		l := logrus.New()
		l.Out = io.Discard
		logger = l
	}

	return &Prober{
		dialer: dialer,
		conf:   conf.withDefaults(),
		logger: logger.WithField("component", "probe"),
	}
}

// Prober drives the partial SMTP conversation (HELO, MAIL FROM, RCPT TO) to find out if a recipient is accepted.
// It never sends DATA.
type Prober struct {
	dialer DialContext
	conf   ProbeConfig
	logger logrus.FieldLogger
}

// Probe classifies the address by probing the mail exchange
func (p *Prober) Probe(ctx context.Context, address string, mx MailExchangeHost) (ProbeOutcome, error) {
	s, err := p.Run(ctx, address, mx)
	return s.Outcome, err
}

// Run performs the handshake and returns the finished session. The error is nil for decided sessions, including
// rejections. Dial and socket failures produce OutcomeRejected, timeouts (connecting included) and early closes
// OutcomeIndeterminate.
func (p *Prober) Run(ctx context.Context, address string, mx MailExchangeHost) (ProbeSession, error) {
	start := time.Now()
	session, err := p.run(ctx, address, mx)

	outcome := session.Outcome.String()
	metricProbe.WithLabelValues(outcome).Inc()
	metricProbeDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	return session, err
}

func (p *Prober) run(ctx context.Context, address string, mx MailExchangeHost) (ProbeSession, error) {
	session := ProbeSession{
		Phase:  PhaseConnecting,
		Sender: p.conf.Sender,
		Target: address,
		Host:   mx.Host,
	}

	log := p.logger.WithFields(logrus.Fields{
		"mx":    mx.Host,
		"email": address,
	})

	ctx, cancel := getEarliestDeadlineCTX(ctx, p.conf.SessionTimeout)
	defer cancel()

	addr := net.JoinHostPort(mx.Host, strconv.Itoa(int(p.conf.Port)))

	// The idle bound also covers connecting, a host that never answers the SYN is a timeout
	dialCtx, dialCancel := context.WithTimeout(ctx, p.conf.Timeout)
	defer dialCancel()

	start := time.Now()
	conn, err := p.dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		log.WithError(err).Debug("Unable to connect to mail exchange")
		return p.dialFailure(ctx, dialCtx, &session, log, err)
	}

	if conn == nil {
		return p.fail(&session, log, OutcomeRejected, ErrProbeConnection, errors.New("dialer returned no connection"))
	}

	defer func() {
		_ = conn.Close()
	}()

	// Closing the connection is the only race-free way to interrupt a pending read
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	session.Connected = true
	log.WithField("time_µs", time.Since(start).Microseconds()).Debug("Connected to mail exchange")

	c := &smtpConn{
		conn:    conn,
		reader:  textproto.NewReader(bufio.NewReader(conn)),
		writer:  textproto.NewWriter(bufio.NewWriter(conn)),
		timeout: p.conf.Timeout,
	}

	// HELO goes out right away, the greeting is read as just another reply
	if err := c.send("HELO %s", p.conf.HeloName); err != nil {
		return p.ioFailure(ctx, &session, log, err)
	}

	p.transition(&session, log, PhaseAwaitHeloAck)

	for {
		code, message, err := c.readReply()
		if err != nil {
			var pe textproto.ProtocolError
			if errors.As(err, &pe) {
				log.WithError(ErrUnexpectedResponse).WithField("line", string(pe)).Debug("Ignoring malformed reply")
				continue
			}

			return p.ioFailure(ctx, &session, log, err)
		}

		session.LastCode, session.LastMessage = code, message
		rlog := log.WithFields(logrus.Fields{
			"code":    code,
			"message": message,
			"phase":   session.Phase.String(),
		})

		switch classifyReply(code) {
		case replyAck:
			switch session.Phase {
			case PhaseAwaitHeloAck:
				if err := c.send("MAIL FROM:<%s>", p.conf.Sender); err != nil {
					return p.ioFailure(ctx, &session, log, err)
				}

				p.transition(&session, rlog, PhaseAwaitMailFromAck)

			case PhaseAwaitMailFromAck:
				if err := c.send("RCPT TO:<%s>", address); err != nil {
					return p.ioFailure(ctx, &session, log, err)
				}

				session.RcptSent = true
				p.transition(&session, rlog, PhaseAwaitRcptToAck)

			case PhaseAwaitRcptToAck:
				return p.decide(c, &session, rlog, OutcomeAccepted), nil
			}

		case replyMailboxUnavailable:
			if session.rcptSent() {
				return p.decide(c, &session, rlog, OutcomeRejected), nil
			}

			rlog.WithError(ErrUnexpectedResponse).Debug("Mailbox unavailable before RCPT TO was sent")

		case replyGreeting:
			rlog.Debug("Greeting received")

		default:
			rlog.WithError(ErrUnexpectedResponse).Debug("Reply doesn't advance the handshake")
		}
	}
}

func (p *Prober) transition(s *ProbeSession, log logrus.FieldLogger, next Phase) {
	log.WithFields(logrus.Fields{
		"from": s.Phase.String(),
		"to":   next.String(),
	}).Debug("Probe phase transition")

	s.Phase = next
}

// decide ends the session with a decision from the remote. QUIT is sent best-effort.
func (p *Prober) decide(c *smtpConn, s *ProbeSession, log logrus.FieldLogger, outcome ProbeOutcome) ProbeSession {
	p.transition(s, log, PhaseDecided)
	s.Outcome = outcome

	_ = c.send("QUIT")

	log.WithField("outcome", outcome.String()).Debug("Probe decided")
	return *s
}

func (p *Prober) fail(s *ProbeSession, log logrus.FieldLogger, outcome ProbeOutcome, kind error, cause error) (ProbeSession, error) {
	err := ProbeError{
		Phase:    s.Phase,
		Internal: cause,
		error:    kind,
	}

	p.transition(s, log, PhaseFailed)
	s.Outcome = outcome

	log.WithFields(logrus.Fields{
		"outcome": outcome.String(),
		"error":   err,
	}).Debug("Probe failed")

	return *s, err
}

// dialFailure maps a failed connection attempt. Running out of time while connecting is indeterminate, anything
// else means the mail exchange can't be reached.
func (p *Prober) dialFailure(ctx, dialCtx context.Context, s *ProbeSession, log logrus.FieldLogger, err error) (ProbeSession, error) {
	if ctx.Err() != nil {
		return p.ioFailure(ctx, s, log, err)
	}

	var netErr net.Error
	if errors.Is(dialCtx.Err(), context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return p.fail(s, log, OutcomeIndeterminate, ErrProbeTimeout, err)
	}

	return p.fail(s, log, OutcomeRejected, ErrProbeConnection, err)
}

// ioFailure maps a socket error to a failed session
func (p *Prober) ioFailure(ctx context.Context, s *ProbeSession, log logrus.FieldLogger, err error) (ProbeSession, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		kind := ctxErr
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			kind = ErrProbeTimeout
		}

		return p.fail(s, log, OutcomeIndeterminate, kind, ctxErr)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return p.fail(s, log, OutcomeIndeterminate, ErrProbeTimeout, err)
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return p.fail(s, log, OutcomeIndeterminate, ErrConnectionClosed, err)
	}

	return p.fail(s, log, OutcomeRejected, ErrProbeConnection, err)
}
