// Package command defines the payload envelope that flows through the
// admission gate.
//
// Key Design Decisions:
//
// 1. Opaque Payload: The gate never interprets Payload bytes itself; that is
//    the resonator's job (internal/resonator). The envelope only carries
//    enough metadata to route the payload to the right gate cell and to
//    stamp bookkeeping fields (tick, lineage) on the way through.
//
// 2. Lineage IDs: Commands that belong to the same logical stream share a
//    LineageID. The lineage-kill operation on a gate cell is
//    plasma.PlasmaState.Supersede; nothing in this module tracks in-flight
//    commands by lineage or calls Supersede on a Critical delta class.
//
// 3. Tick Representation: Tick is an opaque monotonic counter supplied by the
//    caller's clock source (out of scope for this module, per spec), not a
//    wall-clock timestamp. Timestamp is kept separately for observability.
package command

import (
	"fmt"
	"time"
)

// Family identifies which resonator family (and therefore which gate cell)
// a command belongs to.
type Family int

const (
	FamilyOrbital Family = iota
	FamilyGroundStation
	FamilyTarPit
	FamilySilent
)

func (f Family) String() string {
	switch f {
	case FamilyOrbital:
		return "ORBITAL"
	case FamilyGroundStation:
		return "GROUND_STATION"
	case FamilyTarPit:
		return "TAR_PIT"
	case FamilySilent:
		return "SILENT"
	default:
		return "UNKNOWN"
	}
}

// Command is a single admission request flowing through the gate.
type Command struct {
	// ID is the unique identifier assigned to this command by the caller.
	ID uint64

	// LineageID groups commands that a single supersession event should
	// kill together.
	LineageID uint64

	// Tick is the opaque monotonic counter at arrival time, forwarded
	// verbatim to plasma.PlasmaState.Resonate for trigger bookkeeping.
	Tick uint64

	// Timestamp is the wall-clock arrival time in nanoseconds since epoch,
	// kept only for observability — never consulted by the gate decision.
	Timestamp int64

	// Family selects which resonator (and gate cell) evaluates this command.
	Family Family

	// Payload is the opaque byte payload scored by the resonator.
	Payload []byte

	// AngleHint is the delta angle driving resonance for this command, in
	// the same raw encoding as plasma.PlasmaState's stored angle. The gate
	// processor writes it into the target cell before resonating.
	AngleHint uint16
}

// String returns a human-readable representation of the command.
func (c *Command) String() string {
	return fmt.Sprintf("Command{ID:%d, Lineage:%d, Family:%s, %dB}",
		c.ID, c.LineageID, c.Family, len(c.Payload))
}

// Now returns the current time in nanoseconds since epoch.
func Now() int64 {
	return time.Now().UnixNano()
}
