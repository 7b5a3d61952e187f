package gatebus

import (
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishav/admission-gate/internal/command"
	"github.com/rishav/admission-gate/internal/plasma"
	"github.com/rishav/admission-gate/internal/resonator"
	"github.com/rishav/admission-gate/internal/telemetry"
	"github.com/rishav/admission-gate/internal/thyristor"
)

func TestRingBufferBasicOperations(t *testing.T) {
	rb := NewRingBuffer(DefaultConfig())

	assert.Equal(t, uint64(8192), rb.GetBufferSize())

	size := rb.bufferSize
	assert.Zero(t, size&(size-1), "buffer size must be a power of 2")
	assert.Equal(t, size-1, rb.indexMask)
}

func TestSequencerSingleProducer(t *testing.T) {
	rb := NewRingBuffer(Config{BufferSize: 1024})
	seq := NewSequencer(rb)

	for i := uint64(1); i <= 100; i++ {
		s, err := seq.Next()
		require.NoError(t, err)
		assert.Equal(t, i, s)
	}
}

func TestSequencerMultiProducer(t *testing.T) {
	rb := NewRingBuffer(Config{BufferSize: 4096})
	seq := NewSequencer(rb)

	const numProducers = 10
	const sequencesPerProducer = 100

	var wg sync.WaitGroup
	claimed := make(map[uint64]bool)
	var claimedMu sync.Mutex

	wg.Add(numProducers)
	for p := 0; p < numProducers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < sequencesPerProducer; i++ {
				s, err := seq.Next()
				require.NoError(t, err)

				claimedMu.Lock()
				assert.False(t, claimed[s], "duplicate sequence claimed: %d", s)
				claimed[s] = true
				claimedMu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, claimed, numProducers*sequencesPerProducer)
}

func TestSequencerBackpressure(t *testing.T) {
	rb := NewRingBuffer(Config{BufferSize: 16})
	seq := NewSequencer(rb)

	for i := uint64(1); i <= 16; i++ {
		_, err := seq.Next()
		require.NoError(t, err)
	}

	_, err := seq.Next()
	assert.ErrorIs(t, err, ErrBufferFull)
}

func TestGatebusIntegrationPublishConsume(t *testing.T) {
	rb := NewRingBuffer(Config{BufferSize: 1024})
	seq := NewSequencer(rb)

	const numCommands = 100
	responseChs := make([]chan *CommandResponse, numCommands)

	for i := 0; i < numCommands; i++ {
		s, err := seq.Next()
		require.NoError(t, err)

		responseChs[i] = make(chan *CommandResponse, 1)

		request := &CommandRequest{
			Family: command.FamilyOrbital,
			Command: &command.Command{
				ID:     uint64(i),
				Family: command.FamilyOrbital,
				Tick:   uint64(i),
			},
		}

		seq.Publish(s, request, responseChs[i])
	}

	var consumed uint64
	nextSeq := uint64(1)
	for nextSeq <= uint64(numCommands) {
		index := nextSeq & rb.indexMask
		slot := &rb.slots[index]

		for {
			available := atomic.LoadUint64(&slot.SequenceNum)
			if available == nextSeq {
				break
			}
			time.Sleep(10 * time.Microsecond)
		}

		require.NotNil(t, slot.Request)
		assert.Equal(t, command.FamilyOrbital, slot.Request.Family)

		atomic.StoreUint64(&rb.gatingSequence, nextSeq)
		nextSeq++
		consumed++
	}

	assert.Equal(t, uint64(numCommands), consumed)
}

// alwaysRing is a fixed-output resonator used to drive the processor
// deterministically.
type alwaysRing struct {
	ring float32
}

func (a alwaysRing) ResonatePayload(_ []byte, _ uint16) float32 { return a.ring }
func (a alwaysRing) DeltaClass(ring float32) resonator.DeltaClass {
	return resonator.ClassifyDegrees(ring * 360)
}

func TestGateProcessorEndToEnd(t *testing.T) {
	dir := t.TempDir()

	decisionLog, err := telemetry.NewDecisionLog(telemetry.DecisionLogConfig{
		Path: dir + string(os.PathSeparator) + "decisions.log",
	})
	require.NoError(t, err)
	defer decisionLog.Close()

	cfg := thyristor.Default()
	cells := Cells{
		States: map[command.Family]*plasma.PlasmaState{
			command.FamilyOrbital: plasma.New(),
		},
		Resonators: map[command.Family]resonator.Resonator{
			command.FamilyOrbital: alwaysRing{ring: cfg.GateThresh},
		},
		Thresholds: cfg,
	}

	rb := NewRingBuffer(Config{BufferSize: 1024})
	seq := NewSequencer(rb)
	proc := NewGateProcessor(rb, cells, decisionLog)
	proc.Start()
	defer proc.Shutdown()

	s, err := seq.Next()
	require.NoError(t, err)

	responseCh := make(chan *CommandResponse, 1)
	seq.Publish(s, &CommandRequest{
		Family: command.FamilyOrbital,
		Command: &command.Command{
			ID:     1,
			Family: command.FamilyOrbital,
			Tick:   1,
		},
	}, responseCh)

	select {
	case resp := <-responseCh:
		assert.True(t, resp.Admitted)
		assert.Equal(t, "CONDUCTING", resp.GateState)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for gate processor response")
	}
}

func BenchmarkSequencerSingleProducer(b *testing.B) {
	rb := NewRingBuffer(Config{BufferSize: 8192})
	seq := NewSequencer(rb)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s, err := seq.Next()
		if err != nil {
			b.Fatalf("failed to claim sequence: %v", err)
		}

		index := s & rb.indexMask
		atomic.StoreUint64(&rb.slots[index].SequenceNum, s)

		if i%100 == 0 {
			atomic.StoreUint64(&rb.gatingSequence, s-rb.bufferSize/2)
		}
	}
}

func BenchmarkSequencerMultiProducer(b *testing.B) {
	rb := NewRingBuffer(Config{BufferSize: 8192})
	seq := NewSequencer(rb)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			s, err := seq.Next()
			if err != nil {
				continue
			}
			index := s & rb.indexMask
			atomic.StoreUint64(&rb.slots[index].SequenceNum, s)
		}
	})
}
