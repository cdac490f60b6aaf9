// Package wstransport implements spec §6's Transport contract over
// gorilla/websocket, plus a length-prefixed raw-TCP alternative for targets
// without a WebSocket stack (see framedconn.go). It also adapts the
// teacher's keepalive parameters into actual ping/pong traffic on the
// wire.
package wstransport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hyansuper/wsmprpc/compress"
	"github.com/hyansuper/wsmprpc/keepalive"
	"github.com/hyansuper/wsmprpc/wire"
)

// Conn adapts a *websocket.Conn to wire.Transport. All Sends are
// serialized through a single mutex (spec §5, §9 "Single-writer
// discipline") since gorilla/websocket connections support at most one
// concurrent writer and one concurrent reader.
type Conn struct {
	ws *websocket.Conn

	writeMu sync.Mutex

	pingParams   *time.Duration // client Time / server Time, nil disables pinging
	pongTimeout  time.Duration
	stopPing     chan struct{}
	stopPingOnce sync.Once

	compressor compress.Compressor // nil disables payload compression
}

var _ wire.Transport = (*Conn)(nil)

// New wraps an already-established *websocket.Conn.
func New(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws, stopPing: make(chan struct{})}
}

// WithClientKeepalive arms periodic pings using client-side parameters and
// returns c for chaining.
func (c *Conn) WithClientKeepalive(p keepalive.ClientParameters) *Conn {
	return c.withKeepalive(p.Time, p.Timeout)
}

// WithServerKeepalive arms periodic pings using server-side parameters and
// returns c for chaining.
func (c *Conn) WithServerKeepalive(p keepalive.ServerParameters) *Conn {
	return c.withKeepalive(p.Time, p.Timeout)
}

// WithCompression enables whole-message payload compression using the
// named compress.Compressor (see the compress package; "flate" is
// registered by default). Both peers must enable the same compressor —
// there is no in-band negotiation of it, unlike the protocol handshake
// itself (spec §4.6), since it is a transport-level concern the wire
// frames never carry. An unregistered name leaves compression disabled.
func (c *Conn) WithCompression(name string) *Conn {
	c.compressor = compress.Get(name)
	return c
}

func (c *Conn) withKeepalive(interval, timeout time.Duration) *Conn {
	if interval <= 0 {
		return c
	}
	c.pingParams = &interval
	c.pongTimeout = timeout
	c.ws.SetReadDeadline(time.Now().Add(interval + timeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(interval + timeout))
	})
	go c.pingLoop(interval, timeout)
	return c
}

func (c *Conn) pingLoop(interval, timeout time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-c.stopPing:
			return
		case <-t.C:
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Recv implements wire.Transport.
func (c *Conn) Recv(ctx context.Context) ([]byte, error) {
	type result struct {
		msg []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		_, msg, err := c.ws.ReadMessage()
		done <- result{msg, err}
	}()
	select {
	case <-ctx.Done():
		c.Close()
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			if websocket.IsCloseError(r.err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("wstransport: recv: %w", r.err)
		}
		if c.compressor == nil {
			return r.msg, nil
		}
		out, err := c.compressor.Decompress(r.msg)
		if err != nil {
			return nil, fmt.Errorf("wstransport: decompress: %w", err)
		}
		return out, nil
	}
}

// Send implements wire.Transport.
func (c *Conn) Send(ctx context.Context, msg []byte) error {
	if c.compressor != nil {
		out, err := c.compressor.Compress(msg)
		if err != nil {
			return fmt.Errorf("wstransport: compress: %w", err)
		}
		msg = out
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if dl, ok := ctx.Deadline(); ok {
		c.ws.SetWriteDeadline(dl)
		defer c.ws.SetWriteDeadline(time.Time{})
	}
	if err := c.ws.WriteMessage(websocket.BinaryMessage, msg); err != nil {
		return fmt.Errorf("wstransport: send: %w", err)
	}
	return nil
}

// Close implements wire.Transport.
func (c *Conn) Close() error {
	c.stopPingOnce.Do(func() { close(c.stopPing) })
	return c.ws.Close()
}

// ErrHandshakeIncomplete describes a peer that closes before completing the
// WebSocket upgrade. Dial and Accept do not return it: they return the
// underlying gorilla/websocket error unchanged.
var ErrHandshakeIncomplete = errors.New("wstransport: peer closed before completing handshake")
