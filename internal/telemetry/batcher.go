package telemetry

import (
	"time"

	"github.com/sirupsen/logrus"
)

// DecisionBatcher batches decision events before writing to reduce I/O
// overhead.
//
// Design:
// - Async goroutine that receives events from the gate processor
// - Batches events until reaching batch size or timeout
// - Each flushed event is appended on its own; fsync follows the log's sync mode
type DecisionBatcher struct {
	decisionLog   *DecisionLog
	queue         chan interface{}
	batchSize     int
	flushInterval time.Duration
	shutdownCh    chan struct{}
	shutdownDone  chan struct{}
}

// NewDecisionBatcher creates a new decision batcher.
//
// Parameters:
// - decisionLog: the log to write batches to
// - batchSize: number of events to batch before flushing
// - flushIntervalMs: maximum time to wait before flushing
func NewDecisionBatcher(decisionLog *DecisionLog, batchSize int, flushIntervalMs int) *DecisionBatcher {
	if batchSize <= 0 {
		batchSize = 1000
	}
	if flushIntervalMs <= 0 {
		flushIntervalMs = 10
	}

	return &DecisionBatcher{
		decisionLog:   decisionLog,
		queue:         make(chan interface{}, batchSize*2), // 2x buffer for burst handling
		batchSize:     batchSize,
		flushInterval: time.Duration(flushIntervalMs) * time.Millisecond,
		shutdownCh:    make(chan struct{}),
		shutdownDone:  make(chan struct{}),
	}
}

// Start begins the batching loop.
func (b *DecisionBatcher) Start() {
	go b.batchLoop()
}

// batchLoop is the main batching goroutine.
func (b *DecisionBatcher) batchLoop() {
	defer close(b.shutdownDone)

	batch := make([]interface{}, 0, b.batchSize)
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-b.queue:
			batch = append(batch, event)
			if len(batch) >= b.batchSize {
				b.flush(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				b.flush(batch)
				batch = batch[:0]
			}

		case <-b.shutdownCh:
			if len(batch) > 0 {
				b.flush(batch)
			}

			for {
				select {
				case event := <-b.queue:
					b.decisionLog.Append(event)
				default:
					return
				}
			}
		}
	}
}

// flush writes a batch of events to the decision log.
func (b *DecisionBatcher) flush(batch []interface{}) {
	for _, event := range batch {
		if _, err := b.decisionLog.Append(event); err != nil {
			logrus.WithError(err).Error("failed to append decision event")
		}
	}
}

// QueueEvent queues an event for batched writing.
//
// This method is non-blocking. If the queue is full, the event is dropped.
func (b *DecisionBatcher) QueueEvent(event interface{}) {
	select {
	case b.queue <- event:
	default:
		logrus.WithField("type", eventTypeName(event)).Warn("decision queue full, dropping event")
	}
}

// Shutdown gracefully shuts down the batcher.
//
// It flushes all remaining events and waits for completion.
func (b *DecisionBatcher) Shutdown() {
	close(b.shutdownCh)
	<-b.shutdownDone
}

func eventTypeName(event interface{}) string {
	switch event.(type) {
	case *AdmitEvent:
		return "ADMIT"
	case *TriggerEvent:
		return "TRIGGER"
	case *AnodeDropEvent:
		return "ANODE_DROP"
	case *SupersessionEvent:
		return "SUPERSESSION"
	default:
		return "UNKNOWN"
	}
}
