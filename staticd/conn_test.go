package staticd

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net"
	"strings"
	"testing"
	"time"

	"dqx0.com/go/staticd/internal/obs"
)

type mockAddr struct {
	str string
}

func (m mockAddr) Network() string { return "tcp" }
func (m mockAddr) String() string  { return m.str }

// mockConn reads from in and writes to out; writeErr makes every write fail.
type mockConn struct {
	in       *bytes.Buffer
	out      bytes.Buffer
	writeErr error
	closed   int
}

func newMockConn(req string) *mockConn {
	return &mockConn{in: bytes.NewBufferString(req)}
}

func (m *mockConn) Read(p []byte) (int, error) { return m.in.Read(p) }

func (m *mockConn) Write(p []byte) (int, error) {
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	return m.out.Write(p)
}

func (m *mockConn) Close() error {
	m.closed++
	return nil
}

func (m *mockConn) LocalAddr() net.Addr                { return mockAddr{"(server)"} }
func (m *mockConn) RemoteAddr() net.Addr               { return mockAddr{"(client)"} }
func (m *mockConn) SetDeadline(t time.Time) error      { return nil }
func (m *mockConn) SetReadDeadline(t time.Time) error  { return nil }
func (m *mockConn) SetWriteDeadline(t time.Time) error { return nil }

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Root == "" {
		cfg.Root = mkRoot(t, siteFiles)
	}
	s, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func TestServeConn_OK(t *testing.T) {
	s := newTestServer(t, Config{ContentType: func(string) string { return "text/plain" }})
	mc := newMockConn("GET /hello.txt HTTP/1.1\r\n\r\n")
	s.serveConn(context.Background(), mc)

	want := "HTTP/1.1 200 OK\r\nServer: " + DefaultServerName +
		"\r\nContent-Type: text/plain\r\nContent-Length: 13\r\nConnection: close\r\n\r\nhello, world\n"
	if got := mc.out.String(); got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
	if mc.closed != 1 {
		t.Fatalf("Close called %d times, want 1", mc.closed)
	}
}

func TestServeConn_KeepAliveIgnored(t *testing.T) {
	s := newTestServer(t, Config{})
	mc := newMockConn("GET /hello.txt HTTP/1.1\r\nConnection: keep-alive\r\n\r\nGET /index.html HTTP/1.1\r\n\r\n")
	s.serveConn(context.Background(), mc)
	out := mc.out.String()
	if strings.Count(out, "HTTP/1.1 ") != 1 {
		t.Fatalf("expected a single response, got %q", out)
	}
	if !strings.Contains(out, "Connection: close\r\n") {
		t.Fatalf("missing Connection: close in %q", out)
	}
}

func TestServeConn_WriteFailureStillCloses(t *testing.T) {
	m := obs.NewMemMeter()
	s := newTestServer(t, Config{Meter: m})
	mc := newMockConn("GET /hello.txt HTTP/1.1\r\n\r\n")
	mc.writeErr = errors.New("broken pipe")
	s.serveConn(context.Background(), mc)

	if mc.closed != 1 {
		t.Fatalf("Close called %d times, want 1", mc.closed)
	}
	if v := m.CounterValue("staticd.write_errors"); v != 1 {
		t.Fatalf("write_errors=%v, want 1", v)
	}
}

func TestServeConn_LogsPeerAndConnID(t *testing.T) {
	var buf bytes.Buffer
	lg := obs.StdLogger{L: log.New(&buf, "", 0), Min: obs.Info}
	s := newTestServer(t, Config{Logger: lg})
	s.serveConn(context.Background(), newMockConn("GET /hello.txt HTTP/1.1\r\n\r\n"))

	out := buf.String()
	if !strings.Contains(out, "Got connection from: (client)") {
		t.Fatalf("log missing peer address:\n%s", out)
	}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if !strings.HasPrefix(line, "I [") {
			t.Fatalf("line without connection ID: %q", line)
		}
	}
}

func TestServeConn_HeadOmitsBody(t *testing.T) {
	s := newTestServer(t, Config{})
	mc := newMockConn("HEAD /hello.txt HTTP/1.1\r\n\r\n")
	s.serveConn(context.Background(), mc)
	out := mc.out.String()
	if !strings.HasSuffix(out, "Content-Length: 13\r\nConnection: close\r\n\r\n") {
		t.Fatalf("got %q", out)
	}
}

func TestServeConn_PanicContained(t *testing.T) {
	s := newTestServer(t, Config{ContentType: func(string) string { panic("boom") }})
	mc := newMockConn("GET /hello.txt HTTP/1.1\r\n\r\n")
	s.serveConn(context.Background(), mc)
	if mc.closed != 1 {
		t.Fatalf("Close called %d times, want 1", mc.closed)
	}
	if mc.out.Len() != 0 {
		t.Fatalf("unexpected output %q", mc.out.String())
	}
}

func TestConnState_String(t *testing.T) {
	for st, want := range map[connState]string{
		stateAwaitingRequest: "AWAITING_REQUEST",
		stateParsed:          "PARSED",
		stateDispatched:      "DISPATCHED",
		stateResponding:      "RESPONDING",
		stateFailed:          "FAILED",
		stateClosed:          "CLOSED",
	} {
		if got := st.String(); got != want {
			t.Fatalf("%d.String()=%q, want %q", st, got, want)
		}
	}
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrMalformedRequestLine, 400},
		{ErrMalformedHeader, 400},
		{ErrHeaderTooLarge, 431},
		{ErrForbidden, 403},
		{ErrNotFound, 404},
	}
	for _, c := range cases {
		if got := statusForError(c.err); got != c.want {
			t.Fatalf("statusForError(%v)=%d, want %d", c.err, got, c.want)
		}
	}
}
