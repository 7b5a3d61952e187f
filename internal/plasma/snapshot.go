package plasma

import "github.com/rishav/admission-gate/internal/thyristor"

// PlasmaSnapshot is a non-atomic, point-in-time copy of a cell's fields. It
// is built from eight independent loads and therefore is not a consistent
// view in the presence of concurrent writers — it is meant for telemetry
// and inspection, not for decisions that need coherence.
type PlasmaSnapshot struct {
	DeltaAngleRaw     uint16              `json:"delta_angle_raw"`
	Entropy           uint32              `json:"entropy"`
	GateState         thyristor.GateState `json:"gate_state"`
	TriggerCount      uint32              `json:"trigger_count"`
	LastTriggerTick   uint64              `json:"last_trigger_tick"`
	LastRingStrength  float32             `json:"last_ring_strength"`
	SupersessionCount uint32              `json:"supersession_count"`
	Excited           bool                `json:"excited"`
}

// Snapshot takes a best-effort, non-atomic copy of every field.
func (p *PlasmaState) Snapshot() PlasmaSnapshot {
	return PlasmaSnapshot{
		DeltaAngleRaw:     p.DeltaAngleRaw(),
		Entropy:           p.Entropy(),
		GateState:         p.GateState(),
		TriggerCount:      p.TriggerCount(),
		LastTriggerTick:   p.LastTriggerTick(),
		LastRingStrength:  p.LastRingStrength(),
		SupersessionCount: p.SupersessionCount(),
		Excited:           p.IsExcited(),
	}
}
