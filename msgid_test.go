package wsmprpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMIDAllocatorSequential(t *testing.T) {
	inUse := map[uint32]bool{}
	a := newMIDAllocator(1, 5, func(id uint32) bool { return inUse[id] })
	for i := uint32(1); i <= 5; i++ {
		id := a.alloc()
		assert.Equal(t, i, id)
		inUse[id] = true
	}
}

func TestMIDAllocatorWrapsAndSkipsInUse(t *testing.T) {
	inUse := map[uint32]bool{1: true, 2: true}
	a := newMIDAllocator(1, 3, func(id uint32) bool { return inUse[id] })
	id := a.alloc()
	assert.Equal(t, uint32(3), id)
	inUse[3] = true
	delete(inUse, 1)
	id = a.alloc() // wraps back to 1, which is now free
	assert.Equal(t, uint32(1), id)
}

func TestMIDAllocatorZeroMinBecomesOne(t *testing.T) {
	a := newMIDAllocator(0, 2, func(uint32) bool { return false })
	assert.Equal(t, uint32(1), a.min)
}
