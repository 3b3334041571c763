package pop3

import (
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/customeros/mailrefresh/interfaces"
)

const (
	respOK  = "+OK"
	respErr = "-ERR"
)

// errRejected marks a -ERR status line from the server.
type errRejected struct {
	status string
}

func (e *errRejected) Error() string {
	if e.status == "" {
		return "POP3: command rejected"
	}
	return "POP3: " + e.status
}

func isRejected(err error) bool {
	var rejected *errRejected
	return errors.As(err, &rejected)
}

// conn is a raw RFC 1939 connection.
type conn struct {
	netConn net.Conn
	text    *textproto.Conn
	timeout time.Duration
	// deadline caps every command deadline, zero means none
	deadline time.Time
}

func newConn(netConn net.Conn, timeout time.Duration, deadline time.Time) *conn {
	return &conn{
		netConn:  netConn,
		text:     textproto.NewConn(netConn),
		timeout:  timeout,
		deadline: deadline,
	}
}

func (c *conn) arm() error {
	var deadline time.Time
	if c.timeout > 0 {
		deadline = time.Now().Add(c.timeout)
	}
	if !c.deadline.IsZero() && (deadline.IsZero() || c.deadline.Before(deadline)) {
		deadline = c.deadline
	}
	return c.netConn.SetDeadline(deadline)
}

// readStatus reads a single status line and strips the +OK prefix.
func (c *conn) readStatus() (string, error) {
	line, err := c.text.ReadLine()
	if err != nil {
		return "", err
	}
	switch {
	case line == respOK:
		return "", nil
	case strings.HasPrefix(line, respOK+" "):
		return strings.TrimPrefix(line, respOK+" "), nil
	case line == respErr:
		return "", &errRejected{}
	case strings.HasPrefix(line, respErr+" "):
		return "", &errRejected{status: strings.TrimPrefix(line, respErr+" ")}
	}
	return "", errors.Errorf("POP3: unexpected response: %s", line)
}

func (c *conn) greeting() error {
	if err := c.arm(); err != nil {
		return err
	}
	_, err := c.readStatus()
	return err
}

// cmd sends a command line and reads the status line.
func (c *conn) cmd(format string, args ...any) (string, error) {
	if err := c.arm(); err != nil {
		return "", err
	}
	if err := c.text.PrintfLine(format, args...); err != nil {
		return "", err
	}
	return c.readStatus()
}

// multi sends a command whose success response is a dot-terminated block.
func (c *conn) multi(format string, args ...any) ([]byte, error) {
	if _, err := c.cmd(format, args...); err != nil {
		return nil, err
	}
	return c.text.ReadDotBytes()
}

func (c *conn) auth(user, password string) error {
	if _, err := c.cmd("USER %s", user); err != nil {
		return err
	}
	_, err := c.cmd("PASS %s", password)
	return err
}

// list returns the scan listing in server order.
func (c *conn) list() ([]interfaces.MessageSummary, error) {
	block, err := c.multi("LIST")
	if err != nil {
		return nil, err
	}

	var out []interfaces.MessageSummary
	for _, line := range strings.Split(string(block), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "POP3: bad LIST line %q", line)
		}
		size, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "POP3: bad LIST line %q", line)
		}
		out = append(out, interfaces.MessageSummary{ID: id, Size: size})
	}
	return out, nil
}

func (c *conn) retr(id int64) ([]byte, error) {
	return c.multi("RETR %d", id)
}

// quit sends QUIT and closes the connection. QUIT errors are ignored.
func (c *conn) quit() error {
	_, _ = c.cmd("QUIT")
	return c.text.Close()
}
