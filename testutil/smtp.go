package testutil

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// HangUp can be used as a reply, it makes the responder close the connection instead of replying
const HangUp = "\x00hangup"

// NewSMTPResponder starts a scripted SMTP server on 127.0.0.1. Every connection first receives the greeting (when
// not empty), after which each received line is answered with the next reply. Once the replies are exhausted the
// responder stays silent until the client hangs up. An empty reply means: stay silent for this line.
func NewSMTPResponder(tb testing.TB, greeting string, replies ...string) *SMTPResponder {
	tb.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("unable to start the SMTP responder: %s", err)
	}

	r := &SMTPResponder{
		listener: l,
		greeting: greeting,
		replies:  replies,
		closed:   make(chan struct{}),
	}

	go r.serve()

	tb.Cleanup(func() {
		_ = l.Close()
	})

	return r
}

type SMTPResponder struct {
	listener net.Listener
	greeting string
	replies  []string

	lock     sync.Mutex
	received []string
	accepted int

	closeOnce sync.Once
	closed    chan struct{}
}

func (r *SMTPResponder) serve() {
	for {
		conn, err := r.listener.Accept()
		if err != nil {
			return
		}

		r.lock.Lock()
		r.accepted++
		r.lock.Unlock()

		go r.handle(conn)
	}
}

func (r *SMTPResponder) handle(conn net.Conn) {
	defer func() {
		_ = conn.Close()
		r.closeOnce.Do(func() {
			close(r.closed)
		})
	}()

	if r.greeting != "" {
		if _, err := conn.Write([]byte(r.greeting + "\r\n")); err != nil {
			return
		}
	}

	scanner := bufio.NewScanner(conn)
	for i := 0; scanner.Scan(); i++ {
		r.lock.Lock()
		r.received = append(r.received, strings.TrimRight(scanner.Text(), "\r"))
		r.lock.Unlock()

		if i >= len(r.replies) || r.replies[i] == "" {
			continue
		}

		if r.replies[i] == HangUp {
			return
		}

		if _, err := conn.Write([]byte(r.replies[i] + "\r\n")); err != nil {
			return
		}
	}
}

// Host returns the address the responder listens on
func (r *SMTPResponder) Host() string {
	return r.listener.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the port the responder listens on
func (r *SMTPResponder) Port() uint16 {
	return uint16(r.listener.Addr().(*net.TCPAddr).Port)
}

// Received returns the lines received so far, without line endings
func (r *SMTPResponder) Received() []string {
	r.lock.Lock()
	defer r.lock.Unlock()

	return append([]string(nil), r.received...)
}

// Connections returns the amount of accepted connections
func (r *SMTPResponder) Connections() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.accepted
}

// WaitClosed blocks until the first connection has been closed, or until d expires. It returns true when closed.
func (r *SMTPResponder) WaitClosed(d time.Duration) bool {
	select {
	case <-r.closed:
		return true
	case <-time.After(d):
		return false
	}
}
