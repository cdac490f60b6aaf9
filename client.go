package wsmprpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/hyansuper/wsmprpc/rpcqueue"
	"github.com/hyansuper/wsmprpc/wire"
)

// Client is the call-site counterpart to Server (spec §4.5): it owns one
// transport, negotiates the handshake as the connecting party, allocates
// call-ids, and demultiplexes inbound RESPONSE* frames to the Call that
// started each one. One Client serves exactly one transport, mirroring
// clientStream's one-attempt-per-RPC model in the teacher's stream.go
// rather than ClientConn's pooled-subconn model (there is no connection
// pooling in scope, spec §1 Non-goals).
type Client struct {
	opts   clientOptions
	sender *serialSender

	desc wire.HandshakeDescriptor

	mids *midAllocator

	mu    sync.Mutex
	calls map[uint32]*Call
	err   error // set once the reader loop exits; further calls fail fast

	readerDone chan struct{}
}

// Dial performs the client side of the handshake over t and starts the
// reader loop. ctx bounds only the handshake; the returned Client's reader
// loop runs until t is closed or Close is called.
func Dial(ctx context.Context, t wire.Transport, opts ...ClientOption) (*Client, error) {
	o := defaultClientOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Client{
		opts:       o,
		sender:     newSerialSender(t),
		calls:      make(map[uint32]*Call),
		readerDone: make(chan struct{}),
	}
	if err := c.handshake(ctx); err != nil {
		return nil, err
	}
	minID, maxID := uint32(defaultMinMsgID), uint32(defaultMaxMsgID)
	if c.desc.MinMsgID != nil {
		minID = *c.desc.MinMsgID
	}
	if c.desc.MaxMsgID != nil {
		maxID = *c.desc.MaxMsgID
	}
	c.mids = newMIDAllocator(minID, maxID, func(id uint32) bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		_, ok := c.calls[id]
		return ok
	})
	go c.readLoop()
	return c, nil
}

func (c *Client) handshake(ctx context.Context) error {
	b, err := wire.MarshalHello(wire.HandshakeHello{Version: ProtocolVersion})
	if err != nil {
		return err
	}
	if err := c.sender.Send(ctx, b); err != nil {
		return newProtocolError("sending hello: %v", err)
	}
	msg, err := c.sender.Recv(ctx)
	if err != nil {
		return newProtocolError("waiting for server descriptor: %v", err)
	}
	values, err := wire.DecodeAll(msg)
	if err != nil || len(values) == 0 {
		return newProtocolError("server descriptor is not a valid message")
	}
	raw, ok := wire.ToStringMap(values[0])
	if !ok {
		return newProtocolError("server descriptor is not a map")
	}
	_, desc, herr, err := wire.ParseHandshakeMessage(raw)
	if err != nil {
		return newProtocolError("server descriptor: %v", err)
	}
	if herr != nil {
		return newProtocolError("server rejected handshake: %s", herr.Error)
	}
	if desc == nil {
		return newProtocolError("server sent neither a descriptor nor an error")
	}
	if !versionsCompatible(ProtocolVersion, desc.Version) {
		return newProtocolError("server version %q incompatible with client %q", desc.Version, ProtocolVersion)
	}
	c.desc = *desc
	return nil
}

// Methods returns the negotiated method catalog in registration order
// (spec §4.6's rpc_info), for callers that want to inspect it (e.g. a
// generic CLI client).
func (c *Client) Methods() []wire.MethodDescriptor {
	return c.desc.RPCInfo
}

func (c *Client) methodRef(name string) (interface{}, *MethodInfo, error) {
	for i, d := range c.desc.RPCInfo {
		if d.Signature == name || methodNameFromSignature(d.Signature) == name {
			info := &MethodInfo{Name: name, Descriptor: d}
			switch c.desc.MethodIDType {
			case wire.MethodIDNum:
				return int64(i), info, nil
			case wire.MethodIDStrNum:
				if c.opts.preferNumRef {
					return int64(i), info, nil
				}
				return name, info, nil
			default:
				return name, info, nil
			}
		}
	}
	return nil, nil, newUsageError("Call", "unknown method %q", name)
}

// methodNameFromSignature strips a "(...)" parameter list, the inverse of
// MethodDesc.descriptor's default signature, so callers can still look a
// method up by plain name if the server didn't supply a distinct Signature.
func methodNameFromSignature(sig string) string {
	if i := strings.IndexByte(sig, '('); i >= 0 {
		return sig[:i]
	}
	return sig
}

// MethodInfo is the resolved, negotiated view of one catalog entry.
type MethodInfo struct {
	Name       string
	Descriptor wire.MethodDescriptor
}

// Call starts an RPC lazily: no frame is sent until the returned Call's
// Result or Recv is first invoked (spec §9 P3, grounded on
// clientStream's separation between newClientStream and SendMsg in the
// teacher's stream.go).
func (c *Client) Call(ctx context.Context, method string, args []interface{}, opts ...CallOption) (*Call, error) {
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return nil, c.err
	}
	c.mu.Unlock()

	ref, info, err := c.methodRef(method)
	if err != nil {
		return nil, err
	}
	o := callOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.reqStream != nil && !info.Descriptor.HasRequestStream {
		return nil, newUsageError("Call", "method %q takes no request stream", method)
	}
	if o.reqStream == nil && info.Descriptor.HasRequestStream {
		return nil, newUsageError("Call", "method %q requires a request stream", method)
	}

	ctx, cancel := context.WithCancel(ctx)
	call := &Call{
		client:    c,
		ctx:       ctx,
		cancel:    cancel,
		method:    method,
		methodRef: ref,
		args:      args,
		kwargs:    o.kwargs,
		info:      info,
		reqStream: o.reqStream,
		done:      make(chan struct{}),
	}
	if info.Descriptor.HasResponseStream {
		if o.respQueue != nil {
			call.respQueue = o.respQueue
		} else {
			call.respQueue = rpcqueue.New(o.respQueueSize)
		}
	}
	return call, nil
}

// start allocates a call-id, registers the Call, and sends its REQUEST
// frame. Idempotent per Call (guarded by Call.startOnce).
func (c *Client) start(call *Call) error {
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return c.err
	}
	id := c.mids.alloc()
	c.calls[id] = call
	c.mu.Unlock()

	call.id = id
	b, err := wire.MarshalRequest(id, call.methodRef, call.args, call.kwargs)
	if err != nil {
		c.dropCall(id)
		return err
	}
	if err := c.sender.Send(call.ctx, b); err != nil {
		c.dropCall(id)
		return newProtocolError("sending request: %v", err)
	}
	if call.reqStream != nil {
		go c.pumpRequestStream(call)
	}
	return nil
}

func (c *Client) pumpRequestStream(call *Call) {
	for {
		select {
		case v, ok := <-call.reqStream:
			if !ok {
				b, _ := wire.MarshalStreamEnd(wire.RequestStreamEnd, call.id)
				c.sender.Send(call.ctx, b)
				return
			}
			b, err := wire.MarshalStreamChunk(wire.RequestStreamChunk, call.id, v)
			if err != nil {
				continue
			}
			if err := c.sender.Send(call.ctx, b); err != nil {
				return
			}
		case <-call.ctx.Done():
			return
		}
	}
}

// cancel sends REQUEST_CANCEL for an already-started call. Cancelling a
// call that never started (spec §9 P3) is purely local: no frame is sent.
func (c *Client) cancel(call *Call) {
	c.mu.Lock()
	_, started := c.calls[call.id]
	c.mu.Unlock()
	if !started {
		return
	}
	b, err := wire.MarshalCancel(call.id)
	if err != nil {
		return
	}
	c.sender.Send(context.Background(), b)
}

func (c *Client) dropCall(id uint32) {
	c.mu.Lock()
	delete(c.calls, id)
	c.mu.Unlock()
}

func (c *Client) readLoop() {
	defer close(c.readerDone)
	for {
		msg, err := c.sender.Recv(context.Background())
		if err != nil {
			c.teardown(err)
			return
		}
		frames, err := wire.DecodeAll(msg)
		if err != nil {
			c.opts.logger.Warnf("wsmprpc: malformed message from server: %v", err)
			c.teardown(newProtocolError("malformed message from server: %v", err))
			return
		}
		for _, raw := range frames {
			f, err := wire.ParseFrame(raw)
			if err != nil {
				c.opts.logger.Warnf("wsmprpc: malformed frame from server: %v", err)
				c.teardown(newProtocolError("malformed frame from server: %v", err))
				return
			}
			c.dispatch(f)
		}
	}
}

func (c *Client) dispatch(f wire.Frame) {
	c.mu.Lock()
	call := c.calls[f.ID]
	c.mu.Unlock()
	if call == nil {
		return
	}
	switch f.Kind {
	case wire.Response:
		call.deliverResponse(f.Err, f.Result)
		c.dropCall(f.ID)
	case wire.ResponseStreamChunk:
		if call.respQueue != nil {
			call.respQueue.ForcePut(f.Value)
		}
	case wire.ResponseStreamEnd:
		if call.respQueue != nil {
			call.respQueue.ForceClose()
		}
		call.finishStream(nil)
		c.dropCall(f.ID)
	default:
		c.opts.logger.Warnf("wsmprpc: unexpected frame kind %s for call %d", f.Kind, f.ID)
	}
}

// teardown fails every outstanding call with err (or ErrTransportClosed if
// err is nil or the clean-close sentinel io.EOF) and marks the client unusable for new
// calls, mirroring server.py's mass-cancellation-on-disconnect behavior
// from the client's point of view.
func (c *Client) teardown(err error) {
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return
	}
	cause := ErrTransportClosed
	if err != nil && !errors.Is(err, io.EOF) {
		cause = fmt.Errorf("wsmprpc: %w", err)
	}
	c.err = cause
	calls := c.calls
	c.calls = make(map[uint32]*Call)
	c.mu.Unlock()

	for _, call := range calls {
		if call.respQueue != nil {
			call.respQueue.ForceError(cause)
		}
		call.deliverError(cause)
	}
}

// Close tears down the client side of the transport and fails any calls
// still outstanding with ErrClientClosed.
func (c *Client) Close() error {
	c.teardown(ErrClientClosed)
	return c.sender.Close()
}
