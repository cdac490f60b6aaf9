package wsmprpc

import (
	"errors"
	"fmt"

	"github.com/hyansuper/wsmprpc/rpcqueue"
)

// Error kinds per spec §7. ClientUsageError and ProtocolError are raised
// synchronously at the call site or surfaced to the reader loop; they are
// never themselves sent on the wire. ServerReportedError is the client-side
// view of a server handler's failure, reconstructed from a RESPONSE frame's
// string error field. Cancellation is represented by rpcqueue.ErrCancelled,
// re-exported here as ErrCancelled for callers that don't want to import
// rpcqueue directly.

// ClientUsageError reports an invalid local call shape: an unknown method,
// or the wrong request/response stream arity. It is always returned
// synchronously, before any frame is sent (spec §7, §9 P3). A call made on
// a closed client fails with ErrClientClosed instead.
type ClientUsageError struct {
	Op  string
	Err error
}

func (e *ClientUsageError) Error() string {
	return fmt.Sprintf("wsmprpc: %s: %v", e.Op, e.Err)
}

func (e *ClientUsageError) Unwrap() error { return e.Err }

func newUsageError(op string, format string, args ...interface{}) *ClientUsageError {
	return &ClientUsageError{Op: op, Err: fmt.Errorf(format, args...)}
}

// ServerReportedError is returned by a client Call's Result/Recv when the
// server's handler failed: the wire only carries the stringified message
// (spec §6, §7), so that message is all the client ever sees.
type ServerReportedError struct {
	Message string
}

func (e *ServerReportedError) Error() string { return e.Message }

// ProtocolError reports a malformed or out-of-sequence frame (spec §7). On
// the server it is answered with a RESPONSE error when the call-id is
// known; on the client it aborts the reader loop.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string { return "wsmprpc: protocol error: " + e.Err.Error() }
func (e *ProtocolError) Unwrap() error { return e.Err }

func newProtocolError(format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Err: fmt.Errorf(format, args...)}
}

// ErrCancelled is the error observed by a client Call (or a server's
// request-stream reader) after cancellation; it is a distinct outcome, not
// a plain error (spec §7). It is rpcqueue.ErrCancelled itself, not a
// look-alike sentinel, so a Call.Recv() cancellation and a
// rpcqueue.Queue.Get() cancellation compare equal.
var ErrCancelled = rpcqueue.ErrCancelled

// ErrClientClosed is returned by new calls made after Client.Close.
var ErrClientClosed = errors.New("wsmprpc: client closed")

// ErrTransportClosed marks a call that never received a terminal frame
// because its transport went away first (spec §7 TransportClosed).
var ErrTransportClosed = errors.New("wsmprpc: transport closed")
