package wsmprpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hyansuper/wsmprpc/rpcqueue"
	"github.com/hyansuper/wsmprpc/wire"
)

// Server dispatches inbound REQUEST frames on one transport to registered
// methods (spec §4.4). One Server may run concurrently over many
// transports (one Serve call each); the method catalog is shared and
// frozen on the first call to Serve (spec §9 "Catalog ordering").
type Server struct {
	opts serverOptions

	regMu    sync.Mutex
	registry *methodRegistry
	started  bool
}

// NewServer creates a Server with no methods registered.
func NewServer(opts ...ServerOption) *Server {
	o := defaultServerOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{opts: o, registry: newMethodRegistry()}
}

// Register adds a method to the catalog. It fails once any Serve call has
// started (spec §4.4's "registration after server start is forbidden",
// §9 "Catalog ordering"), mirroring server.py's register()/assert pair.
func (s *Server) Register(d MethodDesc) error {
	s.regMu.Lock()
	defer s.regMu.Unlock()
	if s.started {
		return fmt.Errorf("wsmprpc: cannot register method %q after server has started", d.Name)
	}
	return s.registry.register(d)
}

// MustRegister is Register, panicking on error — convenient for the
// package-level var-init registration style common in RPC servers.
func (s *Server) MustRegister(d MethodDesc) {
	if err := s.Register(d); err != nil {
		panic(err)
	}
}

// Unregister removes a previously registered method, before the server has
// started.
func (s *Server) Unregister(name string) error {
	s.regMu.Lock()
	defer s.regMu.Unlock()
	if s.started {
		return fmt.Errorf("wsmprpc: cannot unregister method %q after server has started", name)
	}
	s.registry.unregister(name)
	return nil
}

// serverCall tracks one in-flight call's cancellation hook and request
// queue (spec §4.3's per-call record, server side).
type serverCall struct {
	cancel context.CancelFunc
	queue  *rpcqueue.Queue // nil if the method has no request stream
}

// Serve runs the dispatcher loop over one transport until it closes or ctx
// is done, then returns after every outstanding handler has unwound (up to
// the configured grace period). It is safe to call Serve concurrently for
// distinct transports on the same Server.
func (s *Server) Serve(ctx context.Context, t wire.Transport) error {
	s.regMu.Lock()
	s.started = true
	s.regMu.Unlock()

	connID := uuid.New().String()[:8]
	log := s.opts.logger

	sender := newSerialSender(t)
	ctx, cancelAll := context.WithCancel(ctx)
	defer cancelAll()

	calls := make(map[uint32]*serverCall)
	var callsMu sync.Mutex

	if err := s.handshake(ctx, sender, connID); err != nil {
		log.Warnf("wsmprpc[%s]: handshake failed: %v", connID, err)
		return err
	}

	var eg errgroup.Group
	defer func() {
		cancelAll()
		done := make(chan struct{})
		go func() { eg.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(s.opts.grace):
			log.Warnf("wsmprpc[%s]: grace period elapsed with handlers still running", connID)
		}
	}()

	for {
		msg, err := sender.Recv(ctx)
		if err != nil {
			log.Debugf("wsmprpc[%s]: transport closed: %v", connID, err)
			return nil
		}
		frames, err := wire.DecodeAll(msg)
		if err != nil {
			log.Warnf("wsmprpc[%s]: malformed message: %v", connID, err)
			continue
		}
		for _, raw := range frames {
			f, err := wire.ParseFrame(raw)
			if err != nil {
				log.Warnf("wsmprpc[%s]: malformed frame: %v", connID, err)
				continue
			}
			s.dispatch(ctx, sender, &callsMu, calls, &eg, f, log, connID)
		}
	}
}

func (s *Server) handshake(ctx context.Context, sender *serialSender, connID string) error {
	msg, err := sender.Recv(ctx)
	if err != nil {
		return fmt.Errorf("waiting for client hello: %w", err)
	}
	values, err := wire.DecodeAll(msg)
	if err != nil || len(values) == 0 {
		return newProtocolError("client hello is not a valid message")
	}
	raw, ok := wire.ToStringMap(values[0])
	if !ok {
		return newProtocolError("client hello is not a map")
	}
	hello, _, _, err := wire.ParseHandshakeMessage(raw)
	if err != nil || hello == nil {
		return newProtocolError("client hello missing version")
	}
	if !versionsCompatible(hello.Version, ProtocolVersion) {
		b, _ := wire.MarshalHandshakeError(wire.HandshakeError{
			Error: fmt.Sprintf("Incompatible version, server: %s", ProtocolVersion),
		})
		sender.Send(ctx, b)
		sender.Close()
		return fmt.Errorf("client version %q incompatible with server %q", hello.Version, ProtocolVersion)
	}
	s.regMu.Lock()
	catalog := s.registry.catalog()
	s.regMu.Unlock()
	minID, maxID := s.opts.minMsgID, s.opts.maxMsgID
	b, err := wire.MarshalDescriptor(wire.HandshakeDescriptor{
		Version:      ProtocolVersion,
		MethodIDType: s.opts.methodIDType,
		RPCInfo:      catalog,
		MinMsgID:     &minID,
		MaxMsgID:     &maxID,
	})
	if err != nil {
		return err
	}
	log := s.opts.logger
	log.Debugf("wsmprpc[%s]: handshake ok, client version %s", connID, hello.Version)
	return sender.Send(ctx, b)
}

func (s *Server) dispatch(ctx context.Context, sender *serialSender, callsMu *sync.Mutex, calls map[uint32]*serverCall, eg *errgroup.Group, f wire.Frame, log Logger, connID string) {
	switch f.Kind {
	case wire.Request:
		s.handleRequest(ctx, sender, callsMu, calls, eg, f, log, connID)
	case wire.RequestStreamChunk:
		callsMu.Lock()
		c := calls[f.ID]
		callsMu.Unlock()
		if c != nil && c.queue != nil {
			c.queue.ForcePut(f.Value)
		}
	case wire.RequestStreamEnd:
		callsMu.Lock()
		c := calls[f.ID]
		callsMu.Unlock()
		if c != nil && c.queue != nil {
			c.queue.ForceClose()
		}
	case wire.RequestCancel:
		callsMu.Lock()
		c := calls[f.ID]
		callsMu.Unlock()
		if c != nil {
			c.cancel()
		}
	default:
		s.sendError(ctx, sender, f.ID, fmt.Sprintf("Wrong message type %d.", f.Kind))
	}
}

func (s *Server) handleRequest(ctx context.Context, sender *serialSender, callsMu *sync.Mutex, calls map[uint32]*serverCall, eg *errgroup.Group, f wire.Frame, log Logger, connID string) {
	callsMu.Lock()
	if _, exists := calls[f.ID]; exists {
		callsMu.Unlock()
		s.sendError(ctx, sender, f.ID, fmt.Sprintf("Message id %d already in use", f.ID))
		return
	}
	callsMu.Unlock()

	s.regMu.Lock()
	desc, ok := s.registry.resolve(f.MethodRef)
	s.regMu.Unlock()
	if !ok {
		s.sendError(ctx, sender, f.ID, fmt.Sprintf("Unknown method %v.", f.MethodRef))
		return
	}

	callCtx, cancel := context.WithCancel(ctx)
	var queue *rpcqueue.Queue
	if desc.HasRequestStream {
		queue = rpcqueue.New(desc.QueueSize)
	}
	rec := &serverCall{cancel: cancel, queue: queue}
	callsMu.Lock()
	calls[f.ID] = rec
	callsMu.Unlock()

	eg.Go(func() error {
		defer func() {
			callsMu.Lock()
			delete(calls, f.ID)
			callsMu.Unlock()
			cancel()
		}()
		s.runHandler(callCtx, sender, f.ID, desc, f.Args, f.Kwargs, queue, log, connID)
		return nil
	})
}

func (s *Server) runHandler(ctx context.Context, sender *serialSender, id uint32, desc MethodDesc, args []interface{}, kwargs map[string]interface{}, queue *rpcqueue.Queue, log Logger, connID string) {
	if desc.HasResponseStream {
		send := func(v interface{}) error {
			b, err := wire.MarshalStreamChunk(wire.ResponseStreamChunk, id, v)
			if err != nil {
				return err
			}
			return sender.Send(ctx, b)
		}
		err := desc.Stream(ctx, args, kwargs, queue, send)
		if err != nil {
			if ctx.Err() != nil {
				log.Debugf("wsmprpc[%s]: call %d cancelled mid-stream", connID, id)
				return
			}
			s.sendError(ctx, sender, id, errString(err))
			return
		}
		b, _ := wire.MarshalStreamEnd(wire.ResponseStreamEnd, id)
		sender.Send(ctx, b)
		return
	}
	result, err := desc.Unary(ctx, args, kwargs, queue)
	if err != nil {
		if ctx.Err() != nil {
			log.Debugf("wsmprpc[%s]: call %d cancelled", connID, id)
			return
		}
		s.sendError(ctx, sender, id, errString(err))
		return
	}
	b, err := wire.MarshalResponse(id, nil, result)
	if err != nil {
		s.sendError(ctx, sender, id, err.Error())
		return
	}
	sender.Send(ctx, b)
}

func (s *Server) sendError(ctx context.Context, sender *serialSender, id uint32, msg string) {
	b, err := wire.MarshalResponse(id, &msg, nil)
	if err != nil {
		return
	}
	sender.Send(ctx, b)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

