// Package keepalive defines configurable parameters for point-to-point
// liveness checking of a duplex RPC transport. It holds configuration only;
// wstransport.Conn's WithClientKeepalive/WithServerKeepalive apply them to a
// gorilla/websocket connection's native ping/pong control frames.
//
// Unlike HTTP/2's keepalive (which this package's shape is adapted from),
// there is no GoAway handshake here: once a peer fails to pong within
// Timeout, the only recourse is to close the connection, which the core
// already treats as mass cancellation (spec §5, §7 TransportClosed).
package keepalive

import "time"

// ClientParameters configures how a client actively probes a connection it
// is not otherwise sending RPCs on, to notice a dead peer before the next
// call would time out waiting for a reply that is never coming.
type ClientParameters struct {
	// Time is the interval between pings. Pings are sent on this fixed
	// period whether or not other traffic is flowing. The zero value means
	// no proactive pinging: rely on the transport's own liveness detection.
	Time time.Duration
	// Timeout is how long to wait for a pong after a ping before treating
	// the connection as dead.
	Timeout time.Duration
	// PermitWithoutStream is not read by wstransport.Conn, which pings
	// whether or not calls are outstanding.
	PermitWithoutStream bool
}

// ServerParameters configures the server side symmetrically.
type ServerParameters struct {
	Time                time.Duration
	Timeout             time.Duration
	PermitWithoutStream bool
}

// DefaultClientParameters matches no built-in pinging; callers that want
// liveness detection set Time explicitly.
var DefaultClientParameters = ClientParameters{Timeout: 20 * time.Second}

// DefaultServerParameters mirrors DefaultClientParameters.
var DefaultServerParameters = ServerParameters{Timeout: 20 * time.Second}
