// Package telemetry defines the decision event types for the gate's event
// sourcing log.
//
// Event Sourcing Pattern:
// Instead of storing current state, we store every admission decision as
// an event. The cell states themselves can be reconstructed, for audit or
// debugging purposes, by replaying these events from the beginning.
//
// Benefits:
// 1. Audit Trail: a complete history of every admission decision.
// 2. Replay: rebuild a picture of gate history after a crash.
// 3. Debugging: reproduce any trigger/latch/anode-drop sequence.
package telemetry

// EventType identifies the type of decision event.
type EventType uint8

const (
	EventTypeAdmit EventType = iota + 1
	EventTypeTrigger
	EventTypeAnodeDrop
	EventTypeSupersession
)

func (t EventType) String() string {
	switch t {
	case EventTypeAdmit:
		return "ADMIT"
	case EventTypeTrigger:
		return "TRIGGER"
	case EventTypeAnodeDrop:
		return "ANODE_DROP"
	case EventTypeSupersession:
		return "SUPERSESSION"
	default:
		return "UNKNOWN"
	}
}

// Event is the base event structure. All decision events share these
// common fields.
type Event struct {
	SequenceNum uint64    // Global sequence number
	Timestamp   int64     // Nanoseconds since epoch
	Type        EventType // Event type
}

// AdmitEvent records a single admission decision against a family's cell.
type AdmitEvent struct {
	Event
	CommandID    uint64
	LineageID    uint64
	Family       string
	Admitted     bool
	RingStrength float32
	GateState    string
}

// TriggerEvent records a rising transition into an open gate state.
type TriggerEvent struct {
	Event
	CommandID uint64
	Family    string
	GateState string
	Tick      uint64
}

// AnodeDropEvent records a latched gate being torn down by entropy
// drought.
type AnodeDropEvent struct {
	Event
	Family  string
	Entropy uint32
}

// SupersessionEvent records a lineage-kill on a cell.
type SupersessionEvent struct {
	Event
	Family            string
	LineageID         uint64
	SupersessionCount uint32
}
