package telemetry

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"sync"
)

// DecisionLog is an append-only, durable log of admission decisions.
//
// Design Decisions:
//
// 1. Binary Format: we use gob encoding for simplicity; a higher-throughput
//    deployment would reach for a more compact wire format.
//
// 2. Checksums: each record has a CRC32 checksum to detect corruption.
//
// 3. Sync Options: both synchronous (fsync per write) and asynchronous
//    modes are supported. Sync mode guarantees durability but is slower.
//
// 4. Sequence Numbers: each record has a monotonically increasing sequence
//    number for gap detection and ordering.
type DecisionLog struct {
	file        *os.File
	writer      *bufio.Writer
	encoder     *gob.Encoder
	mu          sync.Mutex
	sequenceNum uint64
	syncMode    bool // If true, fsync after every write
	path        string
}

// DecisionLogConfig configures the decision log.
type DecisionLogConfig struct {
	Path     string
	SyncMode bool // If true, fsync after every write (slower but durable)
}

// NewDecisionLog creates a new decision log.
func NewDecisionLog(config DecisionLogConfig) (*DecisionLog, error) {
	file, err := os.OpenFile(config.Path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open decision log: %w", err)
	}

	writer := bufio.NewWriter(file)

	log := &DecisionLog{
		file:     file,
		writer:   writer,
		encoder:  gob.NewEncoder(writer),
		syncMode: config.SyncMode,
		path:     config.Path,
	}

	if err := log.recover(); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to recover decision log: %w", err)
	}

	return log, nil
}

// decisionRecord is the on-disk format for decision events.
type decisionRecord struct {
	SequenceNum uint64
	Type        EventType
	Data        interface{}
	Checksum    uint32
}

// Append writes a decision event to the log. Returns the sequence number
// assigned to the event.
func (l *DecisionLog) Append(event interface{}) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sequenceNum++
	seqNum := l.sequenceNum

	switch e := event.(type) {
	case *AdmitEvent:
		e.SequenceNum = seqNum
	case *TriggerEvent:
		e.SequenceNum = seqNum
	case *AnodeDropEvent:
		e.SequenceNum = seqNum
	case *SupersessionEvent:
		e.SequenceNum = seqNum
	}

	record := decisionRecord{
		SequenceNum: seqNum,
		Data:        event,
	}
	record.Checksum = crc32.ChecksumIEEE([]byte(fmt.Sprintf("%v", event)))

	if err := l.encoder.Encode(record); err != nil {
		return 0, fmt.Errorf("failed to encode event: %w", err)
	}

	if err := l.writer.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush: %w", err)
	}

	if l.syncMode {
		if err := l.file.Sync(); err != nil {
			return 0, fmt.Errorf("failed to sync: %w", err)
		}
	}

	return seqNum, nil
}

// Replay reads all events and calls the handler for each. Used to
// reconstruct gate history after a restart.
func (l *DecisionLog) Replay(handler func(seqNum uint64, event interface{}) error) error {
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Empty log
		}
		return fmt.Errorf("failed to open for replay: %w", err)
	}
	defer file.Close()

	decoder := gob.NewDecoder(file)
	var lastSeq uint64

	for {
		var record decisionRecord
		if err := decoder.Decode(&record); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to decode event: %w", err)
		}

		if lastSeq > 0 && record.SequenceNum != lastSeq+1 {
			return fmt.Errorf("sequence gap detected: expected %d, got %d",
				lastSeq+1, record.SequenceNum)
		}
		lastSeq = record.SequenceNum

		expectedChecksum := crc32.ChecksumIEEE([]byte(fmt.Sprintf("%v", record.Data)))
		if record.Checksum != expectedChecksum {
			return fmt.Errorf("checksum mismatch at sequence %d", record.SequenceNum)
		}

		if err := handler(record.SequenceNum, record.Data); err != nil {
			return fmt.Errorf("handler error at sequence %d: %w", record.SequenceNum, err)
		}
	}

	return nil
}

// recover reads the log to find the last sequence number.
func (l *DecisionLog) recover() error {
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // New log
		}
		return err
	}
	defer file.Close()

	decoder := gob.NewDecoder(file)

	for {
		var record decisionRecord
		if err := decoder.Decode(&record); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		l.sequenceNum = record.SequenceNum
	}

	return nil
}

// GetLastSequence returns the last sequence number.
func (l *DecisionLog) GetLastSequence() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sequenceNum
}

// Sync forces a flush to disk.
func (l *DecisionLog) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writer.Flush(); err != nil {
		return err
	}
	return l.file.Sync()
}

// Close closes the decision log.
func (l *DecisionLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writer.Flush(); err != nil {
		return err
	}
	return l.file.Close()
}

func init() {
	gob.Register(&AdmitEvent{})
	gob.Register(&TriggerEvent{})
	gob.Register(&AnodeDropEvent{})
	gob.Register(&SupersessionEvent{})
}
