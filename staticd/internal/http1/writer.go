package http1

import (
	"bufio"
	"fmt"
	"strings"
)

// Field is one response header line. Fields are written in slice order.
type Field struct {
	Name  string
	Value string
}

// WriteResponse writes a complete HTTP/1.x response: status line, fields,
// a trailing "Connection: close", the blank line and, if non-nil, body.
// It does not flush bw.
func WriteResponse(bw *bufio.Writer, proto string, status int, reason string, fields []Field, body []byte) error {
	if proto == "" {
		proto = "HTTP/1.1"
	}
	if reason == "" {
		reason = StatusText(status)
	}
	if _, err := fmt.Fprintf(bw, "%s %d %s\r\n", proto, status, reason); err != nil {
		return err
	}
	for _, f := range fields {
		// The connection is always closed; ignore any caller-supplied value.
		if strings.EqualFold(f.Name, "Connection") {
			continue
		}
		k := SanitizeHeaderKey(f.Name)
		if k == "" {
			continue
		}
		if _, err := fmt.Fprintf(bw, "%s: %s\r\n", k, SanitizeHeaderValue(f.Value)); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("Connection: close\r\n\r\n"); err != nil {
		return err
	}
	if len(body) > 0 {
		if _, err := bw.Write(body); err != nil {
			return err
		}
	}
	return nil
}

// StatusText returns the reason phrase for the codes this server emits.
func StatusText(code int) string {
	switch code {
	case 200:
		return "OK"
	case 400:
		return "Bad Request"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 431:
		return "Request Header Fields Too Large"
	case 500:
		return "Internal Server Error"
	default:
		return ""
	}
}

// SanitizeHeaderKey ensures header name is a valid token; returns empty string if invalid.
func SanitizeHeaderKey(k string) string {
	if k == "" {
		return ""
	}
	for i := 0; i < len(k); i++ {
		c := k[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			continue
		}
		switch c {
		case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
			continue
		default:
			return ""
		}
	}
	return k
}

// SanitizeHeaderValue removes CR/LF and control chars except HTAB.
func SanitizeHeaderValue(v string) string {
	if v == "" {
		return v
	}
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '\r' || c == '\n' || c == 0x7f {
			continue
		}
		if c < 0x20 && c != '\t' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
