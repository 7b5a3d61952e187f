package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishav/admission-gate/internal/command"
	"github.com/rishav/admission-gate/internal/plasma"
)

func TestDecisionLogAppendAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.log")

	log, err := NewDecisionLog(DecisionLogConfig{Path: path})
	require.NoError(t, err)

	seq1, err := log.Append(&AdmitEvent{
		Event:     Event{Timestamp: 1, Type: EventTypeAdmit},
		CommandID: 1,
		Family:    "ORBITAL",
		Admitted:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq1)

	seq2, err := log.Append(&TriggerEvent{
		Event:     Event{Timestamp: 2, Type: EventTypeTrigger},
		CommandID: 1,
		Family:    "ORBITAL",
		GateState: "CONDUCTING",
		Tick:      7,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq2)

	require.NoError(t, log.Close())

	log2, err := NewDecisionLog(DecisionLogConfig{Path: path})
	require.NoError(t, err)
	defer log2.Close()

	assert.Equal(t, uint64(2), log2.GetLastSequence())

	var replayed []interface{}
	err = log2.Replay(func(seqNum uint64, event interface{}) error {
		replayed = append(replayed, event)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, replayed, 2)

	admit, ok := replayed[0].(*AdmitEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(1), admit.CommandID)
	assert.True(t, admit.Admitted)

	trig, ok := replayed[1].(*TriggerEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(7), trig.Tick)

	wantAdmit := &AdmitEvent{
		Event:     Event{SequenceNum: 1, Timestamp: 1, Type: EventTypeAdmit},
		CommandID: 1,
		Family:    "ORBITAL",
		Admitted:  true,
	}
	if diff := cmp.Diff(wantAdmit, admit); diff != "" {
		t.Errorf("replayed AdmitEvent mismatch (-want +got):\n%s", diff)
	}

	wantTrig := &TriggerEvent{
		Event:     Event{SequenceNum: 2, Timestamp: 2, Type: EventTypeTrigger},
		CommandID: 1,
		Family:    "ORBITAL",
		GateState: "CONDUCTING",
		Tick:      7,
	}
	if diff := cmp.Diff(wantTrig, trig); diff != "" {
		t.Errorf("replayed TriggerEvent mismatch (-want +got):\n%s", diff)
	}
}

func TestDecisionBatcherFlushesOnShutdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.log")
	log, err := NewDecisionLog(DecisionLogConfig{Path: path})
	require.NoError(t, err)
	defer log.Close()

	batcher := NewDecisionBatcher(log, 1000, 10)
	batcher.Start()

	for i := 0; i < 5; i++ {
		batcher.QueueEvent(&AdmitEvent{
			Event:     Event{Timestamp: int64(i), Type: EventTypeAdmit},
			CommandID: uint64(i),
			Family:    "ORBITAL",
		})
	}

	batcher.Shutdown()

	assert.Equal(t, uint64(5), log.GetLastSequence())
}

func TestDecisionBatcherFlushesOnInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.log")
	log, err := NewDecisionLog(DecisionLogConfig{Path: path})
	require.NoError(t, err)
	defer log.Close()

	batcher := NewDecisionBatcher(log, 1000, 5)
	batcher.Start()
	defer batcher.Shutdown()

	batcher.QueueEvent(&AdmitEvent{Event: Event{Timestamp: 1, Type: EventTypeAdmit}, CommandID: 1})

	assert.Eventually(t, func() bool {
		return log.GetLastSequence() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSnapshotWriterWritesValidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")

	cell := plasma.New()
	cell.SetDeltaAngle(45)
	cell.SetEntropy(123)

	writer := NewSnapshotWriter(path, time.Hour, map[command.Family]*plasma.PlasmaState{
		command.FamilyOrbital: cell,
	})

	require.NoError(t, writer.WriteOnce())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"entropy\": 123")
}
