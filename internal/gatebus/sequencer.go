package gatebus

import (
	"runtime"
	"sync/atomic"
)

// Sequencer coordinates access to the ring buffer using atomic CAS operations.
//
// Design:
// - Next() claims a sequence number for a producer
// - Publish() writes the request to the claimed slot
// - Multi-producer safe through CAS loop
// - Backpressure via spinning and eventual rejection
type Sequencer struct {
	rb *RingBuffer
}

// NewSequencer creates a new sequencer for the given ring buffer.
func NewSequencer(rb *RingBuffer) *Sequencer {
	return &Sequencer{
		rb: rb,
	}
}

// Next claims the next sequence number for writing.
//
// This method is lock-free and multi-producer safe using atomic CAS.
// If the buffer is full, it will spin briefly and then return ErrBufferFull.
func (s *Sequencer) Next() (uint64, error) {
	const maxSpins = 10000 // ~100us on modern CPU (10ns per iteration)

	for spins := 0; spins < maxSpins; spins++ {
		current := atomic.LoadUint64(&s.rb.cursor)
		next := current + 1

		cachedGatingSequence := atomic.LoadUint64(&s.rb.gatingSequence)
		availableSequence := cachedGatingSequence + s.rb.bufferSize

		if next > availableSequence {
			runtime.Gosched()
			continue
		}

		if atomic.CompareAndSwapUint64(&s.rb.cursor, current, next) {
			return next, nil
		}
	}

	return 0, ErrBufferFull
}

// Publish writes a request to the claimed sequence slot.
//
// This method must only be called after successfully claiming a sequence via Next().
// It writes the request and response channel to the slot, then updates the slot's
// sequence number to signal readiness to the consumer.
//
// Memory ordering:
// - All writes to the slot must complete before the sequence number update
// - The atomic store provides a release barrier ensuring visibility
func (s *Sequencer) Publish(seq uint64, request *CommandRequest, responseCh chan *CommandResponse) {
	index := seq & s.rb.indexMask
	slot := &s.rb.slots[index]

	slot.Request = request
	slot.ResponseCh = responseCh

	atomic.StoreUint64(&slot.SequenceNum, seq)
}
