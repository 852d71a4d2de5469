package allocator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocator_Next_StartsAtOne(t *testing.T) {
	a := New()
	assert.Equal(t, uint32(1), a.Next())
	assert.Equal(t, uint32(2), a.Next())
	assert.Equal(t, uint32(3), a.Next())
}

func TestAllocator_Next_SkipsZeroOnWrap(t *testing.T) {
	a := New()
	a.next.Store(math.MaxUint32 - 1)
	assert.Equal(t, uint32(math.MaxUint32), a.Next())
	assert.Equal(t, uint32(1), a.Next())
}

func TestAllocator_Next_Unique(t *testing.T) {
	a := New()
	seen := make(map[uint32]bool)
	for i := 0; i < 1000; i++ {
		id := a.Next()
		assert.False(t, seen[id])
		seen[id] = true
	}
}
