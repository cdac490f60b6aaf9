package wsmprpc

import (
	"context"
	"sync"

	"github.com/hyansuper/wsmprpc/rpcqueue"
)

// Call is a handle to one in-flight (or not-yet-started) RPC, the client
// counterpart of server.go's serverCall. It is lazy: the REQUEST frame is
// sent on the first call to Result or Recv, not at creation (spec
// §9 P3) — grounded on the teacher's split between newClientStream
// (allocates, doesn't write) and clientStream.SendMsg (writes) in
// stream.go.
type Call struct {
	client    *Client
	ctx       context.Context
	cancel    context.CancelFunc
	method    string
	methodRef interface{}
	args      []interface{}
	kwargs    map[string]interface{}
	info      *MethodInfo

	reqStream <-chan interface{}
	respQueue *rpcqueue.Queue // non-nil iff HasResponseStream

	startOnce sync.Once
	startErr  error
	id        uint32

	mu       sync.Mutex
	done     chan struct{}
	finished bool
	result   interface{}
	err      error
}

// ensureStarted sends the REQUEST frame exactly once, lazily.
func (c *Call) ensureStarted() error {
	c.startOnce.Do(func() {
		c.startErr = c.client.start(c)
	})
	return c.startErr
}

// Result waits for and returns a unary (or request-streaming) call's
// single reply. It is a usage error to call Result on a method with a
// response stream; use Recv instead.
func (c *Call) Result() (interface{}, error) {
	if c.info.Descriptor.HasResponseStream {
		return nil, newUsageError("Result", "method %q returns a response stream, use Recv", c.method)
	}
	if err := c.ensureStarted(); err != nil {
		return nil, err
	}
	select {
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.result, c.err
	case <-c.ctx.Done():
		return nil, ErrCancelled
	}
}

// Recv returns the next chunk of a response-streaming call's reply, io.EOF
// when the stream ends normally, or the terminal error otherwise — the
// same contract as rpcqueue.Queue.Get, which is where this forwards to
// (spec §9, "io.EOF as stream end", grounded on stream.go's RecvMsg/io.EOF
// convention).
func (c *Call) Recv() (interface{}, error) {
	if !c.info.Descriptor.HasResponseStream {
		return nil, newUsageError("Recv", "method %q has no response stream, use Result", c.method)
	}
	if err := c.ensureStarted(); err != nil {
		return nil, err
	}
	return c.respQueue.Get(c.ctx)
}

// Cancel requests cancellation of this call. If the call never started
// (Result/Recv was never invoked), no frame is ever sent — cancellation is
// then purely local and silent, per spec §9 P3. If a response queue
// exists, the cancellation sentinel is injected into it so an ongoing
// Recv iteration fails promptly with ErrCancelled rather than blocking
// until the surrounding context is torn down (spec §4.5, §7).
func (c *Call) Cancel() {
	if c.respQueue != nil {
		c.respQueue.ForceCancel()
	}
	c.cancel()
	c.client.cancel(c)
}

// Context returns the per-call context, done once Cancel is called or the
// context passed to Client.Call is done. A call that finishes normally
// leaves it undone.
func (c *Call) Context() context.Context {
	return c.ctx
}

// deliverResponse is invoked by the client's reader loop on a RESPONSE
// frame for this call's id.
func (c *Call) deliverResponse(errMsg *string, result interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished {
		return
	}
	c.finished = true
	if errMsg != nil {
		err := &ServerReportedError{Message: *errMsg}
		c.err = err
		if c.respQueue != nil {
			c.respQueue.ForceError(err)
		}
	} else {
		c.result = result
	}
	close(c.done)
}

// deliverError delivers a client-side failure (transport closed, client
// closed) that never arrived as a wire RESPONSE frame.
func (c *Call) deliverError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished {
		return
	}
	c.finished = true
	c.err = err
	close(c.done)
}

// finishStream is invoked by the reader loop on RESPONSE_STREAM_END; it
// only needs to unblock Result-style waiters for calls that happen to have
// both shapes misconfigured, which validate() otherwise prevents. Kept for
// symmetry with deliverResponse's close(c.done).
func (c *Call) finishStream(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished {
		return
	}
	c.finished = true
	c.err = err
	close(c.done)
}
