// Package thyristor implements the four-state hysteretic gate machine that
// decides, given a ring strength and a threshold configuration, whether an
// admission gate should be open.
//
// The machine is a pure, total function over (GateState, ring strength,
// ThresholdConfig) — see Next in transition.go. This package owns no
// mutable state of its own; internal/plasma is where the machine's output
// is published into a concurrently-readable cell.
package thyristor

// GateState is one of four discrete gate dispositions, encoded as a single
// byte so it can be stored in an atomic word (internal/plasma).
type GateState uint8

const (
	// Off: closed, no flow.
	Off GateState = 0
	// Primed: armed, awaiting trigger.
	Primed GateState = 1
	// Conducting: open.
	Conducting GateState = 2
	// Latched: open and sticky — requires positive reset or anode drop.
	Latched GateState = 3
)

func (s GateState) String() string {
	switch s {
	case Off:
		return "OFF"
	case Primed:
		return "PRIMED"
	case Conducting:
		return "CONDUCTING"
	case Latched:
		return "LATCHED"
	default:
		return "UNKNOWN"
	}
}

// IsOpen reports whether s admits commands (Conducting or Latched).
func (s GateState) IsOpen() bool {
	return s == Conducting || s == Latched
}

// FromByte decodes a raw byte into a GateState. Any value outside {0,1,2,3}
// is defensively normalized to Off — this is not an error path; it guards
// against memory corruption or versioning drift in the encoded byte, per
// spec.
func FromByte(b uint8) GateState {
	switch b {
	case uint8(Off), uint8(Primed), uint8(Conducting), uint8(Latched):
		return GateState(b)
	default:
		return Off
	}
}
