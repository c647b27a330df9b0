package staticd

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"dqx0.com/go/staticd/internal/obs"
	"dqx0.com/go/staticd/staticd/internal/docroot"
	"dqx0.com/go/staticd/staticd/internal/http1"
)

type connState int

const (
	stateAwaitingRequest connState = iota
	stateParsed
	stateDispatched
	stateResponding
	stateFailed
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateAwaitingRequest:
		return "AWAITING_REQUEST"
	case stateParsed:
		return "PARSED"
	case stateDispatched:
		return "DISPATCHED"
	case stateResponding:
		return "RESPONDING"
	case stateFailed:
		return "FAILED"
	case stateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// methodHandler produces the response for one supported method.
type methodHandler func(s *Server, ctx context.Context, r *Request) *Response

var methodHandlers = map[string]methodHandler{
	"GET":  serveGet,
	"HEAD": serveHead,
}

func serveGet(s *Server, ctx context.Context, r *Request) *Response {
	s.logf(ctx, obs.Info, "Processing GET request: %s", r.Target)
	return s.serveContent(ctx, r, false)
}

func serveHead(s *Server, ctx context.Context, r *Request) *Response {
	s.logf(ctx, obs.Info, "Processing HEAD request: %s", r.Target)
	return s.serveContent(ctx, r, true)
}

// serveContent resolves r.Target and frames the result. HEAD runs the
// same resolution as GET so both report identical headers.
func (s *Server) serveContent(ctx context.Context, r *Request, headOnly bool) *Response {
	p, err := docroot.Resolve(r.Target, s.cfg.Root)
	if err != nil {
		s.logf(ctx, obs.Info, "%v", err)
		return errorResponse(r.Proto, s.cfg.ServerName, statusForError(err))
	}
	e, err := s.content.Load(p)
	if err != nil {
		s.logf(ctx, obs.Info, "%v", err)
		return errorResponse(r.Proto, s.cfg.ServerName, statusForError(err))
	}
	if e.Listing {
		s.logf(ctx, obs.Info, "Listing directory: %s", e.Path)
	} else {
		s.logf(ctx, obs.Info, "Getting file: %s (%s)", e.Path, humanize.Bytes(uint64(len(e.Body))))
	}
	return entityResponse(r.Proto, s.cfg.ServerName, e, headOnly)
}

// conn is one accepted connection. It is owned by a single worker from
// accept to close and carries exactly one request.
type conn struct {
	srv    *Server
	rwc    net.Conn
	br     *bufio.Reader
	bw     *bufio.Writer
	ctx    context.Context
	start  time.Time

	state  connState
	req    *Request
	handle methodHandler
	res    *Response
	closed bool
}

type stateFunc func(*conn) stateFunc

func (c *conn) serve() {
	defer func() {
		if r := recover(); r != nil {
			c.srv.cfg.Meter.Counter("staticd.panics", 1)
			c.srv.logf(c.ctx, obs.Error, "panic in state %s: %v\n%s", c.state, r, debug.Stack())
		}
		c.close()
	}()
	remote, _ := RemoteAddrFrom(c.ctx)
	c.srv.logf(c.ctx, obs.Info, "Got connection from: %s", remote)
	for st := awaitRequest; st != nil; {
		st = st(c)
	}
}

func awaitRequest(c *conn) stateFunc {
	c.state = stateAwaitingRequest
	if t := c.srv.cfg.ReadTimeout; t > 0 {
		_ = c.rwc.SetReadDeadline(time.Now().Add(t))
	}
	rr := &http1.Reader{BR: c.br, MaxLineBytes: c.srv.cfg.MaxLineBytes}
	pr, err := rr.ReadRequest()
	if err != nil {
		return c.readFailed(err)
	}
	c.req = newRequest(pr)
	return parsed
}

func (c *conn) readFailed(err error) stateFunc {
	switch {
	case err == io.EOF:
		c.srv.logf(c.ctx, obs.Debug, "peer closed before sending a request")
		return closeConn
	case errors.Is(err, ErrHeaderTooLarge),
		errors.Is(err, ErrMalformedRequestLine),
		errors.Is(err, ErrMalformedHeader):
		c.state = stateFailed
		c.srv.logf(c.ctx, obs.Info, "Invalid request: %v", err)
		c.res = errorResponse("HTTP/1.1", c.srv.cfg.ServerName, statusForError(err))
		return respond
	case isTimeout(err):
		c.srv.logf(c.ctx, obs.Warn, "read timeout after %s, dropping connection", c.srv.cfg.ReadTimeout)
		return closeConn
	default:
		c.srv.logf(c.ctx, obs.Warn, "read error: %v", err)
		return closeConn
	}
}

func parsed(c *conn) stateFunc {
	c.state = stateParsed
	h, ok := methodHandlers[c.req.Method]
	if !ok {
		c.srv.logf(c.ctx, obs.Info, "Unknown method: %s", c.req.Method)
		c.res = errorResponse(c.req.Proto, c.srv.cfg.ServerName, StatusMethodNotAllowed)
		return respond
	}
	c.handle = h
	return dispatched
}

func dispatched(c *conn) stateFunc {
	c.state = stateDispatched
	c.res = c.handle(c.srv, c.ctx, c.req)
	return respond
}

func respond(c *conn) stateFunc {
	if c.state != stateFailed {
		c.state = stateResponding
	}
	if t := c.srv.cfg.WriteTimeout; t > 0 {
		_ = c.rwc.SetWriteDeadline(time.Now().Add(t))
	}
	err := c.res.write(c.bw)
	if err == nil {
		err = c.bw.Flush()
	}
	if err != nil {
		c.srv.cfg.Meter.Counter("staticd.write_errors", 1)
		c.srv.logf(c.ctx, obs.Error, "writing %d response: %v", c.res.StatusCode, err)
	}
	return closeConn
}

func closeConn(c *conn) stateFunc {
	c.close()
	return nil
}

// close is idempotent; the deferred call in serve covers panics.
// Metrics are recorded before the socket is closed.
func (c *conn) close() {
	if c.closed {
		return
	}
	c.closed = true
	c.state = stateClosed
	c.record()
	if err := c.rwc.Close(); err != nil {
		c.srv.logf(c.ctx, obs.Debug, "close: %v", err)
	}
}

// record counts the exchange once a response was produced.
func (c *conn) record() {
	if c.res == nil {
		return
	}
	method := "-"
	if c.req != nil {
		method = c.req.Method
		if _, ok := methodHandlers[method]; !ok {
			method = "OTHER"
		}
	}
	labels := []obs.Label{{Key: "method", Value: method}, {Key: "status", Value: strconv.Itoa(c.res.StatusCode)}}
	c.srv.cfg.Meter.Counter("staticd.requests", 1, labels...)
	c.srv.cfg.Meter.Histogram("staticd.request.duration_ms", float64(time.Since(c.start).Microseconds())/1000, labels...)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
