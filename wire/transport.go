package wire

import "context"

// Transport is the external collaborator this protocol expects (spec §6):
// an ordered, in-order, duplex channel of opaque byte messages. The core
// never frames bytes itself; canonically this is a WebSocket connection,
// but anything satisfying this contract works (a length-prefixed TCP
// socket, an in-process pipe for tests, ...).
type Transport interface {
	// Recv blocks until the next inbound message, or returns io.EOF (or a
	// wrapped io.EOF) once the peer has closed the channel cleanly.
	Recv(ctx context.Context) ([]byte, error)
	// Send delivers one message. Safe to call concurrently only if the
	// implementation documents it; the core always serializes its own
	// calls to Send through a single writer (spec §5, §9).
	Send(ctx context.Context, msg []byte) error
	// Close ends the channel in both directions; it unblocks any
	// in-progress Recv with an error.
	Close() error
}
