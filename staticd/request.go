package staticd

import "dqx0.com/go/staticd/staticd/internal/http1"

// Request is a parsed request line plus headers. It is built once by the
// connection handler and never modified.
type Request struct {
	Method string
	// Target is the request target as sent, still percent-encoded.
	Target string
	// Proto defaults to HTTP/1.1 when the request line omitted it.
	Proto  string
	Header Header
}

func newRequest(pr *http1.ParsedRequest) *Request {
	return &Request{
		Method: pr.Method,
		Target: pr.Target,
		Proto:  pr.Proto,
		Header: Header(pr.Header),
	}
}
