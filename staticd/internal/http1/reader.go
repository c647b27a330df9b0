package http1

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// DefaultMaxLineBytes bounds a single request or header line.
const DefaultMaxLineBytes = 64 << 10

var (
	ErrMalformedRequestLine = errors.New("http1: malformed request line")
	ErrMalformedHeader      = errors.New("http1: malformed header line")
	ErrHeaderTooLarge       = errors.New("http1: header line too large")
)

// ParsedRequest is a minimal representation parsed from the wire.
//
// All fields hold the raw bytes as received. No charset decoding is
// applied, so every byte value round-trips the way ISO-8859-1 would.
type ParsedRequest struct {
	Method string
	Target string
	Proto  string
	Header map[string]string
}

type Reader struct {
	BR           *bufio.Reader
	MaxLineBytes int
}

// ReadRequest reads the request line and header block. It returns io.EOF
// when the peer closed before sending a single byte.
func (r *Reader) ReadRequest() (*ParsedRequest, error) {
	line, err := r.readLine()
	switch {
	case err == io.EOF:
		return nil, io.EOF
	case err == io.ErrUnexpectedEOF:
		return nil, ErrMalformedRequestLine
	case err != nil:
		return nil, err
	}
	pr := &ParsedRequest{Proto: "HTTP/1.1"}
	parts := strings.FieldsFunc(line, isSpace)
	switch len(parts) {
	case 3:
		pr.Method, pr.Target, pr.Proto = parts[0], parts[1], parts[2]
	case 2:
		pr.Method, pr.Target = parts[0], parts[1]
	default:
		return nil, ErrMalformedRequestLine
	}
	hdr, err := r.readHeaders()
	if err != nil {
		return nil, err
	}
	pr.Header = hdr
	return pr, nil
}

// isSpace reports ASCII whitespace only. Bytes >= 0x80 are never
// separators, whatever they would decode to.
func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\v', '\f', '\r':
		return true
	}
	return false
}

func (r *Reader) readHeaders() (map[string]string, error) {
	h := make(map[string]string)
	for {
		line, err := r.readLine()
		if err == io.EOF {
			// peer closed after the request line
			return h, nil
		}
		if err == io.ErrUnexpectedEOF {
			return nil, ErrMalformedHeader
		}
		if err != nil {
			return nil, err
		}
		if line == "" {
			return h, nil
		}
		i := strings.Index(line, ": ")
		if i < 0 {
			return nil, ErrMalformedHeader
		}
		h[line[:i]] = line[i+2:]
	}
}

// readLine returns one line without its LF or CRLF terminator.
// io.EOF means nothing was read; io.ErrUnexpectedEOF means the line was
// cut short. Once a line grows past the limit it stops reading.
func (r *Reader) readLine() (string, error) {
	limit := r.limit()
	var sb strings.Builder
	for {
		b, err := r.BR.ReadByte()
		if err != nil {
			if err == io.EOF {
				if sb.Len() == 0 {
					return "", io.EOF
				}
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		if b == '\n' {
			break
		}
		sb.WriteByte(b)
		// one extra byte is allowed when it may be the CR of a CRLF
		if n := sb.Len(); n > limit && !(n == limit+1 && b == '\r') {
			return "", ErrHeaderTooLarge
		}
	}
	return strings.TrimSuffix(sb.String(), "\r"), nil
}

func (r *Reader) limit() int {
	if r.MaxLineBytes <= 0 {
		return DefaultMaxLineBytes
	}
	return r.MaxLineBytes
}
