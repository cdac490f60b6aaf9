package wsmprpc

import (
	"time"

	"github.com/hyansuper/wsmprpc/rpcqueue"
	"github.com/hyansuper/wsmprpc/wire"
)

// ServerOption configures a Server at construction time, the functional-
// options idiom already present in the teacher's call.go (opts
// ...CallOption).
type ServerOption func(*serverOptions)

type serverOptions struct {
	logger       Logger
	grace        time.Duration
	methodIDType wire.MethodIDType
	minMsgID     uint32
	maxMsgID     uint32
}

func defaultServerOptions() serverOptions {
	return serverOptions{
		logger:       defaultLogger(),
		grace:        10 * time.Second,
		methodIDType: wire.MethodIDStrNum,
		minMsgID:     defaultMinMsgID,
		maxMsgID:     defaultMaxMsgID,
	}
}

// WithServerLogger overrides the Server's Logger.
func WithServerLogger(l Logger) ServerOption {
	return func(o *serverOptions) { o.logger = l }
}

// WithGracePeriod bounds how long the dispatcher waits for handler tasks to
// unwind after transport teardown before returning (spec §4.4).
func WithGracePeriod(d time.Duration) ServerOption {
	return func(o *serverOptions) { o.grace = d }
}

// WithMethodIDType selects how method references are advertised and
// accepted (spec §4.6).
func WithMethodIDType(t wire.MethodIDType) ServerOption {
	return func(o *serverOptions) { o.methodIDType = t }
}

// WithMsgIDRange negotiates a non-default call-id range (spec §3).
func WithMsgIDRange(min, max uint32) ServerOption {
	return func(o *serverOptions) { o.minMsgID, o.maxMsgID = min, max }
}

// ClientOption configures a Client at construction time.
type ClientOption func(*clientOptions)

type clientOptions struct {
	logger       Logger
	preferNumRef bool
}

func defaultClientOptions() clientOptions {
	return clientOptions{logger: defaultLogger()}
}

// WithClientLogger overrides the Client's Logger.
func WithClientLogger(l Logger) ClientOption {
	return func(o *clientOptions) { o.logger = l }
}

// WithPreferredNumericMethodRef makes the client send the catalog index
// instead of the method name when the server's negotiated MethodIDType is
// STR_NUM (spec §4.5). It has no effect under STR or NUM, which admit only
// one encoding.
func WithPreferredNumericMethodRef(prefer bool) ClientOption {
	return func(o *clientOptions) { o.preferNumRef = prefer }
}

// CallOption configures one invocation.
type CallOption func(*callOptions)

type callOptions struct {
	kwargs         map[string]interface{}
	reqStream      <-chan interface{}
	respQueue      *rpcqueue.Queue
	respQueueSize  int
}

// WithKwargs attaches keyword arguments to the call (spec §6 kwargs_map).
func WithKwargs(kwargs map[string]interface{}) CallOption {
	return func(o *callOptions) { o.kwargs = kwargs }
}

// WithRequestStream supplies the request-stream items for a
// request-streaming or bidirectional call. Closing the channel signals
// REQUEST_STREAM_END.
func WithRequestStream(items <-chan interface{}) CallOption {
	return func(o *callOptions) { o.reqStream = items }
}

// WithResponseQueue supplies a pre-built queue to receive response-stream
// chunks, instead of letting Client.Call allocate one.
func WithResponseQueue(q *rpcqueue.Queue) CallOption {
	return func(o *callOptions) { o.respQueue = q }
}

// WithResponseQueueSize bounds the capacity of the response queue that
// Client.Call allocates (0 = unbounded, the default).
func WithResponseQueueSize(n int) CallOption {
	return func(o *callOptions) { o.respQueueSize = n }
}
