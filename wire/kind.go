// Package wire implements the on-the-wire frame shapes of the RPC protocol:
// packing and incremental unpacking of the tagged-tuple frames exchanged
// over a duplex transport, and the MessagePack encoding of the handshake
// messages that precede them.
//
// wire包实现了RPC协议在线路上的帧格式：把在双工传输通道上交换的带标记元组打包、
// 增量解包，以及握手阶段MessagePack编码的消息。
package wire

// Kind is the first element of every frame: the tag that identifies its
// shape. The numeric values are part of the wire format and must never
// change.
type Kind int8

const (
	// Notify is reserved for future one-way, no-reply messages. The core
	// never sends or expects it.
	Notify Kind = 1
	// Request opens a call: [Request, id, methodRef, args] or
	// [Request, id, methodRef, args, kwargs].
	Request Kind = 2
	// Response carries a call's unary result or error:
	// [Response, id, errOrNil, resultOrNil].
	Response Kind = 3
	// RequestStreamChunk carries one request-stream item: [kind, id, value].
	RequestStreamChunk Kind = 4
	// ResponseStreamChunk carries one response-stream item: [kind, id, value].
	ResponseStreamChunk Kind = 5
	// RequestStreamEnd closes a call's request stream: [kind, id].
	RequestStreamEnd Kind = 6
	// ResponseStreamEnd closes a call's response stream: [kind, id].
	ResponseStreamEnd Kind = 7
	// RequestCancel asks the server to cancel a call: [kind, id].
	RequestCancel Kind = 8
	// ResponseCancel is reserved; no RESPONSE_CANCEL frame is ever emitted
	// by this implementation (see spec §3 — client and server agree that a
	// call's disappearance from both registries is itself the
	// acknowledgement).
	ResponseCancel Kind = 9
)

func (k Kind) String() string {
	switch k {
	case Notify:
		return "NOTIFY"
	case Request:
		return "REQUEST"
	case Response:
		return "RESPONSE"
	case RequestStreamChunk:
		return "REQUEST_STREAM_CHUNK"
	case ResponseStreamChunk:
		return "RESPONSE_STREAM_CHUNK"
	case RequestStreamEnd:
		return "REQUEST_STREAM_END"
	case ResponseStreamEnd:
		return "RESPONSE_STREAM_END"
	case RequestCancel:
		return "REQUEST_CANCEL"
	case ResponseCancel:
		return "RESPONSE_CANCEL"
	default:
		return "UNKNOWN"
	}
}

// MethodIDType selects how method references are encoded on the wire once
// negotiated at handshake time.
type MethodIDType int8

const (
	// MethodIDStr addresses methods by their string name only.
	MethodIDStr MethodIDType = 1
	// MethodIDNum addresses methods by their index into the catalog.
	MethodIDNum MethodIDType = 2
	// MethodIDStrNum allows either; the client picks per call.
	MethodIDStrNum MethodIDType = 3
)
