package http1

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"
)

func readReq(t *testing.T, raw string, maxLine int) (*ParsedRequest, error) {
	t.Helper()
	r := &Reader{BR: bufio.NewReader(strings.NewReader(raw)), MaxLineBytes: maxLine}
	return r.ReadRequest()
}

func TestReader_ThreeTokens(t *testing.T) {
	pr, err := readReq(t, "GET /a/b.txt?x=1 HTTP/1.0\r\nHost: example\r\nAccept: */*\r\n\r\n", 0)
	if err != nil {
		t.Fatalf("ReadRequest error: %v", err)
	}
	if pr.Method != "GET" || pr.Target != "/a/b.txt?x=1" || pr.Proto != "HTTP/1.0" {
		t.Fatalf("request line = %q %q %q", pr.Method, pr.Target, pr.Proto)
	}
	if pr.Header["Host"] != "example" || pr.Header["Accept"] != "*/*" {
		t.Fatalf("headers = %v", pr.Header)
	}
}

func TestReader_TwoTokensDefaultProto(t *testing.T) {
	pr, err := readReq(t, "HEAD /\r\n\r\n", 0)
	if err != nil {
		t.Fatalf("ReadRequest error: %v", err)
	}
	if pr.Proto != "HTTP/1.1" {
		t.Fatalf("Proto=%q, want HTTP/1.1", pr.Proto)
	}
}

func TestReader_BadTokenCount(t *testing.T) {
	for _, raw := range []string{
		"GET\r\n\r\n",
		"GET / HTTP/1.1 extra\r\n\r\n",
		"\r\n\r\n",
		"   \r\n\r\n",
	} {
		if _, err := readReq(t, raw, 0); !errors.Is(err, ErrMalformedRequestLine) {
			t.Fatalf("%q: err=%v, want ErrMalformedRequestLine", raw, err)
		}
	}
}

func TestReader_OnlyASCIIWhitespaceSeparates(t *testing.T) {
	pr, err := readReq(t, "GET\t/a\tHTTP/1.0\r\n\r\n", 0)
	if err != nil {
		t.Fatalf("ReadRequest error: %v", err)
	}
	if pr.Method != "GET" || pr.Target != "/a" || pr.Proto != "HTTP/1.0" {
		t.Fatalf("request line = %q %q %q", pr.Method, pr.Target, pr.Proto)
	}

	for _, method := range []string{"GET\xa0/a", "GET\xc2\xa0/a", "GET\xc2\x85/a"} {
		pr, err := readReq(t, method+" HTTP/1.1\r\n\r\n", 0)
		if err != nil {
			t.Fatalf("%q: ReadRequest error: %v", method, err)
		}
		if pr.Method != method || pr.Target != "HTTP/1.1" {
			t.Fatalf("%q: request line = %q %q", method, pr.Method, pr.Target)
		}
	}
}

func TestReader_UnterminatedRequestLine(t *testing.T) {
	if _, err := readReq(t, "GET / HTTP/1.1", 0); !errors.Is(err, ErrMalformedRequestLine) {
		t.Fatalf("err=%v, want ErrMalformedRequestLine", err)
	}
}

func TestReader_EmptyStreamIsEOF(t *testing.T) {
	if _, err := readReq(t, "", 0); err != io.EOF {
		t.Fatalf("err=%v, want io.EOF", err)
	}
}

func TestReader_MalformedHeader(t *testing.T) {
	for _, raw := range []string{
		"GET / HTTP/1.1\r\nNoSeparator\r\n\r\n",
		"GET / HTTP/1.1\r\nHost:nospace\r\n\r\n",
		"GET / HTTP/1.1\r\nHost: ok\r\npartial",
	} {
		if _, err := readReq(t, raw, 0); !errors.Is(err, ErrMalformedHeader) {
			t.Fatalf("%q: err=%v, want ErrMalformedHeader", raw, err)
		}
	}
}

func TestReader_DuplicateHeaderLastWins(t *testing.T) {
	pr, err := readReq(t, "GET / HTTP/1.1\r\nX-A: one\r\nx-a: lower\r\nX-A: two\r\n\r\n", 0)
	if err != nil {
		t.Fatalf("ReadRequest error: %v", err)
	}
	if pr.Header["X-A"] != "two" {
		t.Fatalf("X-A=%q, want two", pr.Header["X-A"])
	}
	if pr.Header["x-a"] != "lower" {
		t.Fatalf("names must stay case-sensitive: %v", pr.Header)
	}
}

func TestReader_SplitsOnFirstSeparator(t *testing.T) {
	pr, err := readReq(t, "GET / HTTP/1.1\r\nX-Time: 12: 30\r\n\r\n", 0)
	if err != nil {
		t.Fatalf("ReadRequest error: %v", err)
	}
	if got := pr.Header["X-Time"]; got != "12: 30" {
		t.Fatalf("X-Time=%q", got)
	}
}

func TestReader_HeaderBlockEndings(t *testing.T) {
	for _, raw := range []string{
		"GET / HTTP/1.1\nHost: x\n\n",
		"GET / HTTP/1.1\r\nHost: x\r\n",
		"GET / HTTP/1.1\r\nHost: x\r\n\r\nignored garbage",
	} {
		pr, err := readReq(t, raw, 0)
		if err != nil {
			t.Fatalf("%q: %v", raw, err)
		}
		if pr.Header["Host"] != "x" {
			t.Fatalf("%q: Host=%q", raw, pr.Header["Host"])
		}
	}
}

func TestReader_LineTooLargeStopsReading(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nX-Big: " + strings.Repeat("a", 100) + "\r\nY-Next: z\r\n\r\n"
	br := bufio.NewReaderSize(strings.NewReader(raw), 16)
	r := &Reader{BR: br, MaxLineBytes: 32}
	if _, err := r.ReadRequest(); !errors.Is(err, ErrHeaderTooLarge) {
		t.Fatalf("err=%v, want ErrHeaderTooLarge", err)
	}
	rest, _ := io.ReadAll(br)
	if !strings.Contains(string(rest), "Y-Next: z") {
		t.Fatalf("reader consumed past the oversized line; rest=%q", rest)
	}
}

func TestReader_LineAtLimit(t *testing.T) {
	line := "GET /" + strings.Repeat("x", 27) // 32 bytes
	if _, err := readReq(t, line+"\r\n\r\n", 32); err != nil {
		t.Fatalf("line of exactly the limit rejected: %v", err)
	}
	if _, err := readReq(t, line+"y\r\n\r\n", 32); !errors.Is(err, ErrHeaderTooLarge) {
		t.Fatalf("err=%v, want ErrHeaderTooLarge", err)
	}
}

func TestReader_RequestLineTooLarge(t *testing.T) {
	raw := "GET /" + strings.Repeat("a", 200) + " HTTP/1.1\r\n\r\n"
	if _, err := readReq(t, raw, 64); !errors.Is(err, ErrHeaderTooLarge) {
		t.Fatalf("err=%v, want ErrHeaderTooLarge", err)
	}
}

func TestReader_HighBytesRoundTrip(t *testing.T) {
	raw := "GET /caf\xe9 HTTP/1.1\r\nX-Bin: \x80\xff\xfe\r\n\r\n"
	pr, err := readReq(t, raw, 0)
	if err != nil {
		t.Fatalf("ReadRequest error: %v", err)
	}
	if pr.Target != "/caf\xe9" {
		t.Fatalf("Target=%q", pr.Target)
	}
	if pr.Header["X-Bin"] != "\x80\xff\xfe" {
		t.Fatalf("X-Bin=%q", pr.Header["X-Bin"])
	}
}
