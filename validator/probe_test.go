package validator

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/Dynom/mxprobe/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func newTestProber(r *testutil.SMTPResponder, timeout time.Duration, logger logrus.FieldLogger) *Prober {
	conf := DefaultProbeConfig()
	conf.Port = r.Port()
	conf.Timeout = timeout
	conf.SessionTimeout = 5 * time.Second

	return NewProber(&net.Dialer{}, conf, logger)
}

func TestProber_Run(t *testing.T) {
	const greeting = "220 mx.example.org ESMTP"

	tests := []struct {
		name        string
		greeting    string
		replies     []string
		wantOutcome ProbeOutcome
		wantPhase   Phase
		wantErr     error
	}{
		{
			name:        "accepted",
			greeting:    greeting,
			replies:     []string{"250 hello", "250 2.1.0 OK", "250 2.1.5 OK"},
			wantOutcome: OutcomeAccepted,
			wantPhase:   PhaseDecided,
		},
		{
			name:        "accepted without greeting",
			replies:     []string{"250 hello", "250 2.1.0 OK", "250 2.1.5 OK"},
			wantOutcome: OutcomeAccepted,
			wantPhase:   PhaseDecided,
		},
		{
			name:        "rejected recipient",
			greeting:    greeting,
			replies:     []string{"250 hello", "250 2.1.0 OK", "550 5.1.1 Mailbox unavailable"},
			wantOutcome: OutcomeRejected,
			wantPhase:   PhaseDecided,
		},
		{
			name:        "bare reply codes",
			replies:     []string{"250", "250", "250"},
			wantOutcome: OutcomeAccepted,
			wantPhase:   PhaseDecided,
		},
		{
			name:        "bare rejection code",
			greeting:    "220",
			replies:     []string{"250", "250", "550"},
			wantOutcome: OutcomeRejected,
			wantPhase:   PhaseDecided,
		},
		{
			name:        "multi-line acknowledgement",
			greeting:    greeting,
			replies:     []string{"250-mx.example.org\r\n250-SIZE 1000\r\n250 8BITMIME", "250 OK", "250 OK"},
			wantOutcome: OutcomeAccepted,
			wantPhase:   PhaseDecided,
		},
		{
			name:        "malformed lines are skipped",
			greeting:    greeting,
			replies:     []string{"garbage\r\n250 hello", "250 OK", "250 OK"},
			wantOutcome: OutcomeAccepted,
			wantPhase:   PhaseDecided,
		},
		{
			name:        "unexpected codes don't advance",
			greeting:    greeting,
			replies:     []string{"250 hello", "451 4.7.1 try later\r\n250 OK", "250 OK"},
			wantOutcome: OutcomeAccepted,
			wantPhase:   PhaseDecided,
		},
		{
			name:        "550 before RCPT TO isn't a decision",
			greeting:    greeting,
			replies:     []string{"550 go away", ""},
			wantOutcome: OutcomeIndeterminate,
			wantPhase:   PhaseFailed,
			wantErr:     ErrProbeTimeout,
		},
		{
			name:        "silent server",
			wantOutcome: OutcomeIndeterminate,
			wantPhase:   PhaseFailed,
			wantErr:     ErrProbeTimeout,
		},
		{
			name:        "remote hangs up",
			greeting:    greeting,
			replies:     []string{"250 hello", testutil.HangUp},
			wantOutcome: OutcomeIndeterminate,
			wantPhase:   PhaseFailed,
			wantErr:     ErrConnectionClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testutil.NewSMTPResponder(t, tt.greeting, tt.replies...)
			p := newTestProber(r, 200*time.Millisecond, nil)

			session, err := p.Run(context.Background(), "john.doe@gmail.com", MailExchangeHost{Host: r.Host()})

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Run() error = %v, want %v", err, tt.wantErr)
			}

			if session.Outcome != tt.wantOutcome {
				t.Errorf("Run() outcome = %s, want %s", session.Outcome, tt.wantOutcome)
			}

			if session.Phase != tt.wantPhase {
				t.Errorf("Run() phase = %s, want %s", session.Phase, tt.wantPhase)
			}

			if !session.Connected {
				t.Errorf("Expected the session to be connected %+v", session)
			}

			if !r.WaitClosed(2 * time.Second) {
				t.Errorf("Expected the connection to be closed after the probe")
			}
		})
	}
}

func TestProber_RunCommands(t *testing.T) {
	r := testutil.NewSMTPResponder(t, "220 ready", "250 hello", "250 OK", "250 OK")

	conf := DefaultProbeConfig()
	conf.Port = r.Port()
	conf.HeloName = "probe.example.org"
	conf.Sender = "verify@example.org"

	p := NewProber(nil, conf, nil)
	_, err := p.Run(context.Background(), "john.doe@gmail.com", MailExchangeHost{Host: r.Host()})
	if err != nil {
		t.Fatalf("Didn't expect an error %s", err)
	}

	if !r.WaitClosed(2 * time.Second) {
		t.Fatalf("Expected the connection to be closed")
	}

	want := []string{
		"HELO probe.example.org",
		"MAIL FROM:<verify@example.org>",
		"RCPT TO:<john.doe@gmail.com>",
		"QUIT",
	}

	got := r.Received()
	if len(got) != len(want) {
		t.Fatalf("Expected %d commands, instead I got %d: %q", len(want), len(got), got)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Command %d, expected %q, instead I got %q", i, want[i], got[i])
		}
	}
}

type stubDialer struct {
	err  error
	conn net.Conn
}

func (sd stubDialer) DialContext(_ context.Context, _, _ string) (net.Conn, error) {
	return sd.conn, sd.err
}

func TestProber_DialFailure(t *testing.T) {
	dialErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	tests := []struct {
		name   string
		dialer DialContext
	}{
		{name: "refused", dialer: stubDialer{err: dialErr}},
		{name: "no connection", dialer: stubDialer{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProber(tt.dialer, DefaultProbeConfig(), nil)

			session, err := p.Run(context.Background(), "john.doe@gmail.com", MailExchangeHost{Host: "mx.example.org"})
			if !errors.Is(err, ErrProbeConnection) {
				t.Errorf("Expected ErrProbeConnection, instead I got %v", err)
			}

			if session.Outcome != OutcomeRejected || session.Connected {
				t.Errorf("Expected a rejected, unconnected session, instead I got %+v", session)
			}
		})
	}

	t.Run("refused by a real listener", func(t *testing.T) {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("unable to listen %s", err)
		}

		port := uint16(l.Addr().(*net.TCPAddr).Port)
		_ = l.Close()

		conf := DefaultProbeConfig()
		conf.Port = port

		outcome, err := NewProber(nil, conf, nil).Probe(context.Background(), "john.doe@gmail.com", MailExchangeHost{Host: "127.0.0.1"})
		if outcome != OutcomeRejected || !errors.Is(err, ErrProbeConnection) {
			t.Errorf("Expected a rejected outcome with ErrProbeConnection, instead I got %s %v", outcome, err)
		}
	})
}

// hangingDialer blocks until the context is done, like a host that drops the SYN
type hangingDialer struct{}

func (hangingDialer) DialContext(ctx context.Context, _, _ string) (net.Conn, error) {
	<-ctx.Done()
	return nil, &net.OpError{Op: "dial", Net: "tcp", Err: ctx.Err()}
}

func TestProber_DialTimeout(t *testing.T) {
	conf := DefaultProbeConfig()
	conf.Timeout = 100 * time.Millisecond
	conf.SessionTimeout = 5 * time.Second

	start := time.Now()
	session, err := NewProber(hangingDialer{}, conf, nil).Run(context.Background(), "john.doe@gmail.com", MailExchangeHost{Host: "mx.example.org"})

	if took := time.Since(start); took > 2*time.Second {
		t.Errorf("Expected the idle timeout to bound connecting, it took %s", took)
	}

	if !errors.Is(err, ErrProbeTimeout) {
		t.Errorf("Expected ErrProbeTimeout, instead I got %v", err)
	}

	var pe ProbeError
	if !errors.As(err, &pe) || pe.Phase != PhaseConnecting {
		t.Errorf("Expected the error to be raised while connecting, instead I got %+v", pe)
	}

	if session.Outcome != OutcomeIndeterminate || session.Connected {
		t.Errorf("Expected an indeterminate, unconnected session, instead I got %+v", session)
	}
}

func TestProber_ContextCancel(t *testing.T) {
	r := testutil.NewSMTPResponder(t, "220 ready")
	p := newTestProber(r, 5*time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	session, err := p.Run(ctx, "john.doe@gmail.com", MailExchangeHost{Host: r.Host()})
	if time.Since(start) > 2*time.Second {
		t.Errorf("Expected the cancellation to end the probe early, it took %s", time.Since(start))
	}

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, instead I got %v", err)
	}

	if session.Outcome != OutcomeIndeterminate {
		t.Errorf("Expected an indeterminate outcome, instead I got %s", session.Outcome)
	}

	if !r.WaitClosed(2 * time.Second) {
		t.Errorf("Expected the connection to be closed")
	}
}

func TestProber_SessionTimeout(t *testing.T) {
	// Every reply re-arms the idle timer, the session bound still applies
	r := testutil.NewSMTPResponder(t, "220 ready", "250 hello")

	conf := DefaultProbeConfig()
	conf.Port = r.Port()
	conf.Timeout = 5 * time.Second
	conf.SessionTimeout = 100 * time.Millisecond

	session, err := NewProber(nil, conf, nil).Run(context.Background(), "john.doe@gmail.com", MailExchangeHost{Host: r.Host()})
	if !errors.Is(err, ErrProbeTimeout) {
		t.Errorf("Expected ErrProbeTimeout, instead I got %v", err)
	}

	var pe ProbeError
	if !errors.As(err, &pe) || pe.Phase != PhaseAwaitMailFromAck {
		t.Errorf("Expected the error to carry the phase it failed in, instead I got %+v", pe)
	}

	if session.Outcome != OutcomeIndeterminate {
		t.Errorf("Expected an indeterminate outcome, instead I got %s", session.Outcome)
	}
}

func TestProber_LogsTransitions(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	r := testutil.NewSMTPResponder(t, "220 ready", "250 hello", "250 OK", "250 OK")
	p := newTestProber(r, time.Second, logger)

	if _, err := p.Run(context.Background(), "john.doe@gmail.com", MailExchangeHost{Host: r.Host()}); err != nil {
		t.Fatalf("Didn't expect an error %s", err)
	}

	var transitions []string
	for _, e := range hook.AllEntries() {
		if e.Message == "Probe phase transition" {
			transitions = append(transitions, e.Data["to"].(string))
		}
	}

	want := []string{"await_helo_ack", "await_mail_from_ack", "await_rcpt_to_ack", "decided"}
	if len(transitions) != len(want) {
		t.Fatalf("Expected transitions %q, instead I got %q", want, transitions)
	}

	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("Expected transition %d to be %q, instead I got %q", i, want[i], transitions[i])
		}
	}
}

func TestClassifyReply(t *testing.T) {
	tests := []struct {
		code int
		want replyKind
	}{
		{code: 220, want: replyGreeting},
		{code: 250, want: replyAck},
		{code: 550, want: replyMailboxUnavailable},
		{code: 251, want: replyOther},
		{code: 421, want: replyOther},
		{code: 0, want: replyOther},
	}

	for _, tt := range tests {
		if got := classifyReply(tt.code); got != tt.want {
			t.Errorf("classifyReply(%d) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestParseReplyLine(t *testing.T) {
	tests := []struct {
		line     string
		wantCode int
		wantMore bool
		wantText string
		wantOK   bool
	}{
		{line: "250", wantCode: 250, wantOK: true},
		{line: "250 OK", wantCode: 250, wantText: "OK", wantOK: true},
		{line: "250-SIZE 1000", wantCode: 250, wantMore: true, wantText: "SIZE 1000", wantOK: true},
		{line: "550 ", wantCode: 550, wantOK: true},
		{line: "25"},
		{line: "garbage"},
		{line: "2500"},
		{line: "650 OK"},
		{line: ""},
	}

	for _, tt := range tests {
		code, more, text, ok := parseReplyLine(tt.line)
		if code != tt.wantCode || more != tt.wantMore || text != tt.wantText || ok != tt.wantOK {
			t.Errorf("parseReplyLine(%q) = %d, %t, %q, %t, want %d, %t, %q, %t",
				tt.line, code, more, text, ok, tt.wantCode, tt.wantMore, tt.wantText, tt.wantOK)
		}
	}
}
