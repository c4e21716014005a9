package engine

import "sync/atomic"

const (
	slotMask  = 0b011
	freshFlag = 0b100
)

// TripleBuffer passes values from one writer goroutine to one reader
// goroutine without locks. The writer never waits for the reader; the
// reader always gets the most recently published value.
type TripleBuffer[T any] struct {
	slots [3]T

	// index of the shared middle slot, plus freshFlag when it holds a value
	// the reader has not taken yet
	state atomic.Uint32

	back  int // writer owned
	front int // reader owned
}

// NewTripleBuffer returns an empty buffer.
func NewTripleBuffer[T any]() *TripleBuffer[T] {
	tb := &TripleBuffer[T]{back: 0, front: 2}
	tb.state.Store(1)
	return tb
}

// Publish makes v the latest value. Only one goroutine may call Publish.
func (tb *TripleBuffer[T]) Publish(v T) {
	tb.slots[tb.back] = v
	prev := tb.state.Swap(uint32(tb.back) | freshFlag)
	tb.back = int(prev & slotMask)
}

// Read returns the latest published value and whether it is new since the
// previous Read. Only one goroutine may call Read.
func (tb *TripleBuffer[T]) Read() (T, bool) {
	if tb.state.Load()&freshFlag == 0 {
		return tb.slots[tb.front], false
	}

	prev := tb.state.Swap(uint32(tb.front))
	tb.front = int(prev & slotMask)
	return tb.slots[tb.front], true
}
