package wsmprpc

import "sync"

// midAllocator hands out call-ids in [min, max], monotonically, wrapping
// back to min and skipping any id still in use (spec §3, P6). 0 is always
// reserved regardless of a negotiated min below it.
type midAllocator struct {
	mu       sync.Mutex
	min, max uint32
	next     uint32
	inUse    func(uint32) bool
}

const (
	defaultMinMsgID = 1
	defaultMaxMsgID = 65535
)

func newMIDAllocator(min, max uint32, inUse func(uint32) bool) *midAllocator {
	if min == 0 {
		min = 1
	}
	if max < min {
		max = min
	}
	return &midAllocator{min: min, max: max, next: min, inUse: inUse}
}

// alloc returns a fresh, currently-unused call-id. The caller must register
// it (so inUse reports it as taken) before calling alloc again, or wraparound
// may hand out a duplicate.
func (a *midAllocator) alloc() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	span := a.max - a.min + 1
	for i := uint32(0); i < span; i++ {
		id := a.next
		a.next++
		if a.next > a.max {
			a.next = a.min
		}
		if !a.inUse(id) {
			return id
		}
	}
	// Every id in range is live; hand out the next one anyway (the caller
	// will observe "id in use" from the peer, per spec §4.4). This only
	// happens when the full [min,max] span is saturated with live calls.
	id := a.next
	a.next++
	if a.next > a.max {
		a.next = a.min
	}
	return id
}
