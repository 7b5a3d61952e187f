package gatebus

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/rishav/admission-gate/internal/command"
	"github.com/rishav/admission-gate/internal/plasma"
	"github.com/rishav/admission-gate/internal/resonator"
	"github.com/rishav/admission-gate/internal/telemetry"
	"github.com/rishav/admission-gate/internal/thyristor"
)

// Cells maps a command family to the plasma cell and resonator that decide
// admission for it.
type Cells struct {
	States     map[command.Family]*plasma.PlasmaState
	Resonators map[command.Family]resonator.Resonator
	Thresholds thyristor.ThresholdConfig
}

// GateProcessor processes admission requests from the ring buffer in a
// single thread.
//
// Design:
// - Single goroutine for deterministic, sequential processing
// - Reads from ring buffer using spin-wait
// - Resonates each command against its family's plasma cell (no locks needed)
// - Queues decision events for batched async logging
// - Sends responses back to HTTP handlers via channels
type GateProcessor struct {
	rb              *RingBuffer
	cells           Cells
	decisionBatcher *telemetry.DecisionBatcher
	running         atomic.Bool
	shutdownCh      chan struct{}
	shutdownDone    chan struct{}
}

// NewGateProcessor creates a new gate processor.
func NewGateProcessor(rb *RingBuffer, cells Cells, decisionLog *telemetry.DecisionLog) *GateProcessor {
	return &GateProcessor{
		rb:              rb,
		cells:           cells,
		decisionBatcher: telemetry.NewDecisionBatcher(decisionLog, 1000, 10),
		shutdownCh:      make(chan struct{}),
		shutdownDone:    make(chan struct{}),
	}
}

// Start begins processing requests from the ring buffer.
func (p *GateProcessor) Start() {
	p.running.Store(true)
	go p.processLoop()
	go p.decisionBatcher.Start()
}

// processLoop is the main request processing loop (single goroutine).
//
// This loop maintains determinism by processing commands sequentially in
// sequence number order. It never uses locks, relying on the
// single-threaded nature for correctness.
func (p *GateProcessor) processLoop() {
	defer close(p.shutdownDone)

	nextSequence := uint64(1) // Start at 1 (0 is initial state)

	// The loop only ends from the spin-wait below, so after Shutdown every
	// request already published is still processed before it returns.
	for {
		index := nextSequence & p.rb.indexMask
		slot := &p.rb.slots[index]

		for {
			available := atomic.LoadUint64(&slot.SequenceNum)
			if available == nextSequence {
				break
			}

			select {
			case <-p.shutdownCh:
				return
			default:
				runtime.Gosched()
			}
		}

		p.processRequest(slot)

		atomic.StoreUint64(&p.rb.gatingSequence, nextSequence)

		nextSequence++
	}
}

// processRequest processes a single request from the ring buffer.
func (p *GateProcessor) processRequest(slot *RingBufferSlot) {
	req := slot.Request
	responseCh := slot.ResponseCh

	defer func() {
		if r := recover(); r != nil {
			select {
			case responseCh <- &CommandResponse{
				Admitted: false,
				Error:    fmt.Errorf("internal error: %v", r),
			}:
			default:
			}
		}
	}()

	cmd := req.Command
	cell, ok := p.cells.States[req.Family]
	if !ok {
		select {
		case responseCh <- &CommandResponse{
			Admitted: false,
			Error:    fmt.Errorf("unknown family: %s", req.Family),
		}:
		default:
		}
		return
	}
	r := p.cells.Resonators[req.Family]

	cell.SetDeltaAngleRaw(cmd.AngleHint)
	admitted := cell.Resonate(r, cmd.Payload, cmd.Tick, p.cells.Thresholds)

	snap := cell.Snapshot()

	p.decisionBatcher.QueueEvent(&telemetry.AdmitEvent{
		Event: telemetry.Event{
			Timestamp: command.Now(),
			Type:      telemetry.EventTypeAdmit,
		},
		CommandID:    cmd.ID,
		LineageID:    cmd.LineageID,
		Family:       req.Family.String(),
		Admitted:     admitted,
		RingStrength: snap.LastRingStrength,
		GateState:    snap.GateState.String(),
	})

	if admitted && snap.TriggerCount > 0 && snap.LastTriggerTick == cmd.Tick {
		p.decisionBatcher.QueueEvent(&telemetry.TriggerEvent{
			Event: telemetry.Event{
				Timestamp: command.Now(),
				Type:      telemetry.EventTypeTrigger,
			},
			CommandID: cmd.ID,
			Family:    req.Family.String(),
			GateState: snap.GateState.String(),
			Tick:      cmd.Tick,
		})
	}

	select {
	case responseCh <- &CommandResponse{
		Admitted:     admitted,
		GateState:    snap.GateState.String(),
		RingStrength: snap.LastRingStrength,
	}:
	default:
		// Handler timed out or channel closed, drop response.
	}
}

// Shutdown gracefully shuts down the gate processor.
//
// It stops accepting new requests, drains remaining requests from the
// ring buffer, and ensures all decisions are flushed to the decision log.
func (p *GateProcessor) Shutdown() {
	p.running.Store(false)
	close(p.shutdownCh)

	<-p.shutdownDone

	p.decisionBatcher.Shutdown()
}
