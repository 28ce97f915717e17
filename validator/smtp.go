package validator

import (
	"net"
	"net/textproto"
	"strings"
	"time"
)

type replyKind uint8

const (
	replyOther replyKind = iota
	replyGreeting
	replyAck
	replyMailboxUnavailable
)

const (
	codeServiceReady       = 220
	codeAck                = 250
	codeMailboxUnavailable = 550
)

func classifyReply(code int) replyKind {
	switch code {
	case codeServiceReady:
		return replyGreeting
	case codeAck:
		return replyAck
	case codeMailboxUnavailable:
		return replyMailboxUnavailable
	}

	return replyOther
}

// smtpConn is a line oriented connection with an idle deadline that is re-armed before every read and write
type smtpConn struct {
	conn    net.Conn
	reader  *textproto.Reader
	writer  *textproto.Writer
	timeout time.Duration
}

func (c *smtpConn) arm() error {
	if c.timeout <= 0 {
		return c.conn.SetDeadline(time.Time{})
	}

	return c.conn.SetDeadline(time.Now().Add(c.timeout))
}

// send writes a single CRLF terminated command
func (c *smtpConn) send(format string, args ...any) error {
	if err := c.arm(); err != nil {
		return err
	}

	return c.writer.PrintfLine(format, args...)
}

// readReply reads one (possibly multi-line) reply. The text after the code is optional, so a bare "250" is a
// complete reply. Malformed lines result in a textproto.ProtocolError.
func (c *smtpConn) readReply() (int, string, error) {
	var code int
	var lines []string

	for {
		if err := c.arm(); err != nil {
			return 0, "", err
		}

		line, err := c.reader.ReadLine()
		if err != nil {
			return 0, "", err
		}

		lineCode, more, text, ok := parseReplyLine(line)
		if !ok || (code != 0 && lineCode != code) {
			return 0, "", textproto.ProtocolError("malformed reply line: " + line)
		}

		code = lineCode
		lines = append(lines, text)

		if !more {
			return code, strings.Join(lines, "\n"), nil
		}
	}
}

// parseReplyLine splits "250-text", "250 text" and "250" into the code, the continuation marker and the text
func parseReplyLine(line string) (code int, more bool, text string, ok bool) {
	if len(line) < 3 {
		return 0, false, "", false
	}

	for i := 0; i < 3; i++ {
		if line[i] < '0' || line[i] > '9' {
			return 0, false, "", false
		}
	}

	if line[0] < '1' || line[0] > '5' {
		return 0, false, "", false
	}

	code = int(line[0]-'0')*100 + int(line[1]-'0')*10 + int(line[2]-'0')
	if len(line) == 3 {
		return code, false, "", true
	}

	switch line[3] {
	case '-':
		return code, true, line[4:], true
	case ' ':
		return code, false, line[4:], true
	}

	return 0, false, "", false
}
