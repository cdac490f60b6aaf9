package wsmprpc

import (
	"context"
	"fmt"

	"github.com/hyansuper/wsmprpc/rpcqueue"
	"github.com/hyansuper/wsmprpc/wire"
)

// UnaryHandler is implemented by methods with exactly one reply: plain
// unary calls, and request-streaming calls (reqStream is non-nil only for
// the latter). It corresponds to server.py's coroutine-function methods
// (spec §4.4).
type UnaryHandler func(ctx context.Context, args []interface{}, kwargs map[string]interface{}, reqStream *rpcqueue.Queue) (interface{}, error)

// StreamHandler is implemented by methods with a reply stream: response-
// streaming and bidirectional-streaming calls (reqStream is non-nil only
// for the latter). It corresponds to server.py's async-generator-function
// methods: each call to send delivers one RESPONSE_STREAM_CHUNK, and a nil
// return closes the stream normally with RESPONSE_STREAM_END (spec §4.4).
type StreamHandler func(ctx context.Context, args []interface{}, kwargs map[string]interface{}, reqStream *rpcqueue.Queue, send func(interface{}) error) error

// MethodDesc registers one RPC method. Exactly one of Unary or Stream must
// be set, matching HasResponseStream.
//
// Go has no runtime introspection of a function's parameter/return shape
// the way Python's inspect module provides (spec §9 "Method
// introspection"), so Signature and Doc are supplied explicitly rather than
// synthesized.
type MethodDesc struct {
	Name              string
	Signature         string // defaults to Name+"(...)" if empty
	Doc               string
	HasRequestStream  bool
	HasResponseStream bool
	// QueueSize bounds the request-stream queue for this method (0 =
	// unbounded). Meaningless when HasRequestStream is false.
	QueueSize int

	Unary  UnaryHandler
	Stream StreamHandler
}

func (d MethodDesc) validate() error {
	if d.Name == "" {
		return fmt.Errorf("method has no name")
	}
	if d.HasResponseStream {
		if d.Stream == nil {
			return fmt.Errorf("method %q: HasResponseStream is set but Stream is nil", d.Name)
		}
		if d.Unary != nil {
			return fmt.Errorf("method %q: HasResponseStream is set but Unary is also set", d.Name)
		}
	} else {
		if d.Unary == nil {
			return fmt.Errorf("method %q: Unary handler is nil", d.Name)
		}
		if d.Stream != nil {
			return fmt.Errorf("method %q: Stream is set but HasResponseStream is false", d.Name)
		}
	}
	return nil
}

func (d MethodDesc) descriptor() wire.MethodDescriptor {
	sig := d.Signature
	if sig == "" {
		sig = d.Name + "(...)"
	}
	return wire.MethodDescriptor{
		Signature:         sig,
		Doc:               d.Doc,
		HasRequestStream:  d.HasRequestStream,
		HasResponseStream: d.HasResponseStream,
	}
}

// methodRegistry is the ordered, by-name-and-by-index catalog shared by the
// server (spec §4.3/§4.4) — an OrderedDict equivalent, since the numeric
// method-ID encoding relies on stable insertion order (spec §9 "Catalog
// ordering").
type methodRegistry struct {
	order []string
	byName map[string]MethodDesc
}

func newMethodRegistry() *methodRegistry {
	return &methodRegistry{byName: make(map[string]MethodDesc)}
}

func (r *methodRegistry) register(d MethodDesc) error {
	if err := d.validate(); err != nil {
		return err
	}
	if _, exists := r.byName[d.Name]; !exists {
		r.order = append(r.order, d.Name)
	}
	r.byName[d.Name] = d
	return nil
}

func (r *methodRegistry) unregister(name string) {
	if _, ok := r.byName[name]; !ok {
		return
	}
	delete(r.byName, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *methodRegistry) byIndex(i int) (MethodDesc, bool) {
	if i < 0 || i >= len(r.order) {
		return MethodDesc{}, false
	}
	d, ok := r.byName[r.order[i]]
	return d, ok
}

func (r *methodRegistry) resolve(methodRef interface{}) (MethodDesc, bool) {
	switch v := methodRef.(type) {
	case int64:
		return r.byIndex(int(v))
	case int:
		return r.byIndex(v)
	case string:
		d, ok := r.byName[v]
		return d, ok
	default:
		return MethodDesc{}, false
	}
}

// catalog returns the rpc_info sequence in registration order.
func (r *methodRegistry) catalog() []wire.MethodDescriptor {
	out := make([]wire.MethodDescriptor, len(r.order))
	for i, name := range r.order {
		out[i] = r.byName[name].descriptor()
	}
	return out
}

func (r *methodRegistry) names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
