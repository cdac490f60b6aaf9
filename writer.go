package wsmprpc

import (
	"context"
	"sync"

	"github.com/hyansuper/wsmprpc/wire"
)

// serialSender guarantees the single-writer discipline spec §5/§9 demands
// regardless of whether the concrete wire.Transport already serializes its
// own Send calls (wstransport.Conn does, but the contract doesn't require
// it of every implementation).
type serialSender struct {
	mu sync.Mutex
	t  wire.Transport
}

func newSerialSender(t wire.Transport) *serialSender {
	return &serialSender{t: t}
}

func (s *serialSender) Send(ctx context.Context, msg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.Send(ctx, msg)
}

func (s *serialSender) Recv(ctx context.Context) ([]byte, error) {
	return s.t.Recv(ctx)
}

func (s *serialSender) Close() error {
	return s.t.Close()
}
