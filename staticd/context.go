package staticd

import "context"

type ctxKey int

const (
	ctxKeyConnID ctxKey = iota
	ctxKeyRemoteAddr
)

// WithConnID returns a new context that carries a connection ID.
func WithConnID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyConnID, id)
}

// ConnIDFrom extracts the connection ID from ctx.
func ConnIDFrom(ctx context.Context) (string, bool) {
	v := ctx.Value(ctxKeyConnID)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// WithRemoteAddr returns a new context that carries the peer address.
func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, ctxKeyRemoteAddr, addr)
}

// RemoteAddrFrom extracts the peer address from ctx.
func RemoteAddrFrom(ctx context.Context) (string, bool) {
	v := ctx.Value(ctxKeyRemoteAddr)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}
