package pop3

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/customeros/mailrefresh/interfaces"
	"github.com/customeros/mailrefresh/internal/logger"
	"github.com/customeros/mailrefresh/internal/tracing"
)

var (
	ErrNotConnected   = errors.New("pop3 session not connected")
	ErrUnknownMessage = errors.New("message id not in current listing")
)

type Config struct {
	DialTimeout    time.Duration `env:"POP3_DIAL_TIMEOUT" envDefault:"30s"`
	CommandTimeout time.Duration `env:"POP3_COMMAND_TIMEOUT" envDefault:"60s"`
}

var _ interfaces.MailClient = (*Client)(nil)

// Client is a single POP3 session implementing interfaces.MailClient.
type Client struct {
	config Config
	log    logger.Logger
	dialer *net.Dialer

	mu      sync.Mutex
	conn    *conn
	listing map[int64]struct{}
}

func NewClient(config Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		log:    log,
		dialer: &net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: 30 * time.Second,
		},
	}
}

// Connect dials and authenticates. A previous session, if any, is closed first.
func (c *Client) Connect(ctx context.Context, server string, port int, userName, password string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "POP3Client.Connect")
	defer span.Finish()
	tracing.SetDefaultTransportSpanTags(ctx, span)
	span.SetTag("server", server)
	span.SetTag("port", port)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLocked()

	addr := net.JoinHostPort(server, fmt.Sprintf("%d", port))
	netConn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		tracing.TraceErr(span, err)
		return false, errors.Wrapf(err, "POP3 connection to %s failed", addr)
	}

	deadline, _ := ctx.Deadline()
	pc := newConn(netConn, c.config.CommandTimeout, deadline)

	if err := pc.greeting(); err != nil {
		netConn.Close()
		tracing.TraceErr(span, err)
		return false, errors.Wrap(err, "POP3 greeting failed")
	}

	loginSpan := opentracing.StartSpan("POP3Client.login", opentracing.ChildOf(span.Context()))
	loginSpan.SetTag("username", userName)
	err = pc.auth(userName, password)
	loginSpan.Finish()
	if err != nil {
		pc.quit()
		if isRejected(err) {
			c.log.Warnf("POP3 login rejected for %s at %s: %v", userName, addr, err)
			span.LogFields(tracingLog.Bool("rejected", true))
			return false, nil
		}
		tracing.TraceErr(span, err)
		return false, errors.Wrap(err, "POP3 authentication failed")
	}

	c.conn = pc
	c.listing = nil
	c.log.Debugf("POP3 session opened to %s as %s", addr, userName)
	span.SetTag("success", true)

	return true, nil
}

func (c *Client) ListMessages(ctx context.Context) ([]interfaces.MessageSummary, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "POP3Client.ListMessages")
	defer span.Finish()
	tracing.SetDefaultTransportSpanTags(ctx, span)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, ErrNotConnected
	}
	c.conn.deadline, _ = ctx.Deadline()

	summaries, err := c.conn.list()
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "POP3 LIST failed")
	}

	c.listing = make(map[int64]struct{}, len(summaries))
	for _, summary := range summaries {
		c.listing[summary.ID] = struct{}{}
	}
	span.LogFields(tracingLog.Int("messages", len(summaries)))

	return summaries, nil
}

func (c *Client) FetchMessage(ctx context.Context, id int64) (*interfaces.Message, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "POP3Client.FetchMessage")
	defer span.Finish()
	tracing.SetDefaultTransportSpanTags(ctx, span)
	span.SetTag("message.id", id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, ErrNotConnected
	}
	if _, ok := c.listing[id]; !ok {
		return nil, errors.Wrapf(ErrUnknownMessage, "id %d", id)
	}
	c.conn.deadline, _ = ctx.Deadline()

	raw, err := c.conn.retr(id)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "POP3 RETR %d failed", id)
	}

	msg, err := parseMessage(id, raw)
	if err != nil {
		span.LogFields(tracingLog.String("parse.degraded", err.Error()))
		c.log.Warnf("POP3 message %d only partially parsed: %v", id, err)
	}

	return msg, nil
}

// Close ends the session with QUIT. Closing an idle client is a no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closeLocked()
}

func (c *Client) closeLocked() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.quit()
	c.conn = nil
	c.listing = nil
	return err
}
