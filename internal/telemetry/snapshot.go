package telemetry

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/natefinch/atomic"
	"github.com/sirupsen/logrus"

	"github.com/rishav/admission-gate/internal/command"
	"github.com/rishav/admission-gate/internal/plasma"
)

// CellSnapshot pairs a family with its cell's point-in-time state, for
// whole-array periodic export.
type CellSnapshot struct {
	Family command.Family      `json:"family"`
	State  plasma.PlasmaSnapshot `json:"state"`
}

// SnapshotWriter periodically serializes every tracked cell's Snapshot() to
// a file, using an atomic rename so a reader never observes a half-written
// file.
type SnapshotWriter struct {
	path     string
	interval time.Duration
	cells    map[command.Family]*plasma.PlasmaState

	shutdownCh   chan struct{}
	shutdownDone chan struct{}
}

// NewSnapshotWriter creates a writer that exports cells to path every
// interval.
func NewSnapshotWriter(path string, interval time.Duration, cells map[command.Family]*plasma.PlasmaState) *SnapshotWriter {
	return &SnapshotWriter{
		path:         path,
		interval:     interval,
		cells:        cells,
		shutdownCh:   make(chan struct{}),
		shutdownDone: make(chan struct{}),
	}
}

// Start begins the periodic export loop.
func (w *SnapshotWriter) Start() {
	go w.loop()
}

func (w *SnapshotWriter) loop() {
	defer close(w.shutdownDone)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.WriteOnce(); err != nil {
				logrus.WithError(err).Error("failed to write cell snapshot")
			}
		case <-w.shutdownCh:
			return
		}
	}
}

// WriteOnce exports the current state of every cell immediately.
func (w *SnapshotWriter) WriteOnce() error {
	snaps := make([]CellSnapshot, 0, len(w.cells))
	for family, cell := range w.cells {
		snaps = append(snaps, CellSnapshot{Family: family, State: cell.Snapshot()})
	}

	data, err := json.MarshalIndent(snaps, "", "  ")
	if err != nil {
		return err
	}

	return atomic.WriteFile(w.path, bytes.NewReader(data))
}

// Shutdown stops the periodic export loop, flushing one final snapshot.
func (w *SnapshotWriter) Shutdown() {
	close(w.shutdownCh)
	<-w.shutdownDone
	if err := w.WriteOnce(); err != nil {
		logrus.WithError(err).Error("failed to write final cell snapshot")
	}
}
