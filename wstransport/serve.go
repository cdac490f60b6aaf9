package wstransport

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Upgrader wraps websocket.Upgrader with the defaults this protocol wants
// (no origin checking beyond what the caller configures — authentication
// is explicitly out of scope, spec §1). Conn sends binary messages; Recv
// accepts either message type.
type Upgrader struct {
	websocket.Upgrader
}

// NewUpgrader returns an Upgrader with generous buffer sizes suitable for
// MessagePack-framed RPC payloads.
func NewUpgrader() *Upgrader {
	return &Upgrader{Upgrader: websocket.Upgrader{
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      func(*http.Request) bool { return true },
	}}
}

// Accept upgrades an inbound HTTP request to a WebSocket connection and
// wraps it as a wire.Transport. The caller is expected to hand the result
// to Server.Serve in its own goroutine, one per connection, the way a
// net/http handler naturally does.
func (u *Upgrader) Accept(w http.ResponseWriter, r *http.Request, respHeader http.Header) (*Conn, error) {
	ws, err := u.Upgrade(w, r, respHeader)
	if err != nil {
		return nil, err
	}
	return New(ws), nil
}
