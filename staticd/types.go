package staticd

import "dqx0.com/go/staticd/staticd/internal/http1"

// Header holds request headers exactly as received. Names are
// case-sensitive and a repeated name keeps its last value.
type Header map[string]string

// HeaderField is one response header line.
type HeaderField struct {
	Name  string
	Value string
}

// ResponseHeader is an ordered list of response header fields.
type ResponseHeader []HeaderField

func (h ResponseHeader) Get(name string) string {
	for _, f := range h {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// Set replaces the value of name in place or appends it.
func (h *ResponseHeader) Set(name, value string) {
	for i := range *h {
		if (*h)[i].Name == name {
			(*h)[i].Value = value
			return
		}
	}
	*h = append(*h, HeaderField{Name: name, Value: value})
}

func (h ResponseHeader) fields() []http1.Field {
	out := make([]http1.Field, len(h))
	for i, f := range h {
		out[i] = http1.Field{Name: f.Name, Value: f.Value}
	}
	return out
}
