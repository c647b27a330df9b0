package staticd

import (
	"bufio"
	"strconv"

	"dqx0.com/go/staticd/staticd/internal/docroot"
	"dqx0.com/go/staticd/staticd/internal/http1"
)

const (
	StatusOK                          = 200
	StatusBadRequest                  = 400
	StatusForbidden                   = 403
	StatusNotFound                    = 404
	StatusMethodNotAllowed            = 405
	StatusRequestHeaderFieldsTooLarge = 431
)

// StatusText returns the reason phrase sent with code.
func StatusText(code int) string {
	return http1.StatusText(code)
}

// Response is consumed exactly once by write.
type Response struct {
	Proto      string
	StatusCode int
	Status     string // reason phrase
	Header     ResponseHeader
	Body       []byte
	// HeadOnly keeps the body off the wire while Content-Length still
	// reports its size.
	HeadOnly bool
}

// errorResponse carries only Server; the writer appends Connection.
func errorResponse(proto, server string, code int) *Response {
	return &Response{
		Proto:      proto,
		StatusCode: code,
		Status:     StatusText(code),
		Header:     ResponseHeader{{"Server", server}},
	}
}

func entityResponse(proto, server string, e *docroot.Entity, headOnly bool) *Response {
	return &Response{
		Proto:      proto,
		StatusCode: StatusOK,
		Status:     StatusText(StatusOK),
		Header: ResponseHeader{
			{"Server", server},
			{"Content-Type", e.ContentType},
			{"Content-Length", strconv.Itoa(len(e.Body))},
		},
		Body:     e.Body,
		HeadOnly: headOnly,
	}
}

func (r *Response) write(bw *bufio.Writer) error {
	body := r.Body
	if r.HeadOnly {
		body = nil
	}
	return http1.WriteResponse(bw, r.Proto, r.StatusCode, r.Status, r.Header.fields(), body)
}
