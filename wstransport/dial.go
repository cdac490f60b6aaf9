package wstransport

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// DialOption configures Dial, mirroring the functional-options idiom
// already used for RPC calls (root package's CallOption, adapted from the
// teacher's call.go).
type DialOption func(*dialOptions)

type dialOptions struct {
	tlsConfig  *tls.Config
	header     http.Header
	handshake  time.Duration
	clientKeep *time.Duration // Time, paired with keepTO
	keepTO     time.Duration
}

// WithTLSConfig sets the *tls.Config used for a wss:// dial. See
// credentials.go for constructors that build one from a certificate file.
func WithTLSConfig(cfg *tls.Config) DialOption {
	return func(o *dialOptions) { o.tlsConfig = cfg }
}

// WithHeader attaches additional HTTP headers to the upgrade request.
func WithHeader(h http.Header) DialOption {
	return func(o *dialOptions) { o.header = h }
}

// WithHandshakeTimeout bounds how long the WebSocket upgrade itself may
// take.
func WithHandshakeTimeout(d time.Duration) DialOption {
	return func(o *dialOptions) { o.handshake = d }
}

// Dial opens a WebSocket connection to url and wraps it as a wire.Transport.
func Dial(ctx context.Context, url string, opts ...DialOption) (*Conn, error) {
	var o dialOptions
	for _, opt := range opts {
		opt(&o)
	}
	dialer := websocket.Dialer{
		TLSClientConfig:  o.tlsConfig,
		HandshakeTimeout: o.handshake,
	}
	if dialer.HandshakeTimeout == 0 {
		dialer.HandshakeTimeout = 10 * time.Second
	}
	ws, resp, err := dialer.DialContext(ctx, url, o.header)
	if err != nil {
		return nil, err
	}
	if resp != nil {
		resp.Body.Close()
	}
	return New(ws), nil
}
