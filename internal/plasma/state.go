// Package plasma implements the cache-line-sized atomic admission gate
// cell: PlasmaState. It fuses a resonance scorer (internal/resonator) with
// a four-state hysteretic conduction machine (internal/thyristor) into one
// lock-free, 64-byte record.
//
// Every field is an independent atomic word. Single reads use acquire,
// single writes use release, and read-modify-write counter updates use
// acquire-release — there is no compare-and-swap loop on the hot path and
// no mutex anywhere in this package (the small saturating-add loop in
// counters.go is the one deliberate exception, reserved for counter
// overflow clamping). Cross-field consistency is explicitly not
// guaranteed: two fields published by the same Resonate call may be
// observed by another goroutine in either order. Callers that need a
// coherent-enough view use Snapshot.
package plasma

import (
	"math"
	"sync/atomic"

	"github.com/rishav/admission-gate/internal/polycrystal"
	"github.com/rishav/admission-gate/internal/resonator"
	"github.com/rishav/admission-gate/internal/thyristor"
)

// cellSize is the cache line width this cell is padded to.
const cellSize = 64

// PlasmaState is a single admission-gate cell, aligned in intent (see
// padding below) to one 64-byte cache line so that an array of cells never
// shares a line between elements.
//
// Field order is chosen to avoid compiler-inserted padding: the one 8-byte
// field goes first, followed by seven 4-byte fields, followed by an
// explicit tail pad sized to bring the struct to exactly 64 bytes. See
// state_test.go for the static size assertion.
type PlasmaState struct {
	lastTriggerTick   atomic.Uint64 // tick of the last rising transition into Conducting/Latched
	deltaAngle        atomic.Uint32 // raw encoded angle; degrees = raw*360/65535
	entropy           atomic.Uint32 // ambient randomness reservoir
	sdtState          atomic.Uint32 // low byte holds the encoded GateState
	triggerCount      atomic.Uint32 // number of rising transitions into Conducting/Latched
	lastRingBits      atomic.Uint32 // f32 bits of the most recent ring strength
	supersessionCount atomic.Uint32 // number of supersede() calls
	excited           atomic.Bool   // crystal ringing above holding threshold

	_ [28]byte // pad to cellSize; see state_test.go
}

// New returns a cell in the Off state with all counters zero.
func New() *PlasmaState {
	return &PlasmaState{}
}

// ========================================================================
// Resonance + gate decision (the core)
// ========================================================================

// Resonate delegates ring-strength computation to r, publishes the result,
// advances the gate state machine, and reports whether the command should
// be admitted (gate now Conducting or Latched).
//
// This call is intentionally not atomic as a whole: the published ring
// strength and the published gate state may originate from different,
// interleaved callers. It is a best-effort publisher of the latest
// decision, matching spec's explicit non-guarantee of cross-field
// coherence.
func (p *PlasmaState) Resonate(r resonator.Resonator, payload []byte, tick uint64, cfg thyristor.ThresholdConfig) bool {
	angle := p.DeltaAngleRaw()

	ring := clampRing(r.ResonatePayload(payload, angle))
	excited := ring >= cfg.HoldingThresh
	return p.publishDecision(ring, excited, tick, cfg)
}

// ResonatePoly is the polycrystal variant of Resonate: member resonators
// vote, and the fused ring strength drives the same gate transition. The
// returned bool is poly.Passed && the new state is open; the PolyResult is
// returned verbatim for telemetry so callers can still distinguish a failed
// vote from a closed gate if they need to.
//
// Unlike Resonate, excited is published from the vote's pass/fail verdict
// rather than from the fused ring strength against HoldingThresh: a
// polycrystal can fuse to a ring above the holding band while still
// failing its weighted-majority vote (or the reverse), and the vote is the
// more meaningful signal for this variant.
func (p *PlasmaState) ResonatePoly(poly *polycrystal.Polycrystal, payload []byte, tick uint64, cfg thyristor.ThresholdConfig) (bool, polycrystal.Result) {
	angle := p.DeltaAngleRaw()

	result := poly.ResonatePayload(payload, angle)
	ring := clampRing(result.RingStrength)
	opened := p.publishDecision(ring, result.Passed, tick, cfg)
	return result.Passed && opened, result
}

// clampRing coerces a resonator's raw output into the cell's defensive
// band: NaN and out-of-range values are clamped to the nearest endpoint.
func clampRing(ring float32) float32 {
	if ring != ring { // NaN
		return 0
	}
	if ring < 0 {
		return 0
	}
	if ring > 1 {
		return 1
	}
	return ring
}

// publishDecision is the shared tail of Resonate/ResonatePoly: publish ring
// strength and excited, compute and publish the next gate state, and
// update trigger bookkeeping on a rising transition. ring must already be
// clamped; excited is published verbatim.
func (p *PlasmaState) publishDecision(ring float32, excited bool, tick uint64, cfg thyristor.ThresholdConfig) bool {
	p.lastRingBits.Store(math.Float32bits(ring))
	p.excited.Store(excited)

	current := p.sdtStateValue()
	next := thyristor.Next(current, ring, cfg)

	if next != current {
		p.sdtState.Store(uint32(next))

		if next.IsOpen() {
			p.lastTriggerTick.Store(tick)
			saturatingAddUint32(&p.triggerCount, 1)
		}
	}

	return next.IsOpen()
}

// CheckAnodeDrop tears a Latched gate down when entropy has fallen below
// cfg.EntropyDrought, reporting whether it did. Conducting gates are
// unaffected — anode drop only applies to a gate that has already latched.
func (p *PlasmaState) CheckAnodeDrop(cfg thyristor.ThresholdConfig) bool {
	if p.Entropy() < cfg.EntropyDrought && p.sdtStateValue() == thyristor.Latched {
		p.sdtState.Store(uint32(thyristor.Off))
		return true
	}
	return false
}

// Supersede is the lineage-kill path: it forces the gate to Off, clears
// excited, and increments SupersessionCount. Idempotent in its effect on
// state, strictly monotonic on the counter.
func (p *PlasmaState) Supersede() {
	p.sdtState.Store(uint32(thyristor.Off))
	p.excited.Store(false)
	saturatingAddUint32(&p.supersessionCount, 1)
}

// ========================================================================
// Delta angle
// ========================================================================

// DeltaAngle returns the current delta angle in degrees, in [0, 360]; the
// top raw value 65535 decodes to exactly 360.
func (p *PlasmaState) DeltaAngle() float32 {
	return decodeDegrees(uint16(p.deltaAngle.Load()))
}

// DeltaAngleRaw returns the raw 16-bit encoded angle.
func (p *PlasmaState) DeltaAngleRaw() uint16 {
	return uint16(p.deltaAngle.Load())
}

// SetDeltaAngle stores degrees as the encoded raw angle. Values outside
// [0, 360] are first wrapped modulo 360; 360 itself (and anything that
// rounds up to it) is stored as raw 65535.
func (p *PlasmaState) SetDeltaAngle(degrees float32) {
	p.deltaAngle.Store(uint32(encodeDegrees(degrees)))
}

// SetDeltaAngleRaw stores raw directly.
func (p *PlasmaState) SetDeltaAngleRaw(raw uint16) {
	p.deltaAngle.Store(uint32(raw))
}

// DeltaClass buckets the current delta angle into a resonator.DeltaClass.
func (p *PlasmaState) DeltaClass() resonator.DeltaClass {
	return resonator.ClassifyDegrees(p.DeltaAngle())
}

// ========================================================================
// Entropy
// ========================================================================

// Entropy returns the current entropy value.
func (p *PlasmaState) Entropy() uint32 {
	return p.entropy.Load()
}

// SetEntropy stores entropy directly.
func (p *PlasmaState) SetEntropy(v uint32) {
	p.entropy.Store(v)
}

// AddEntropy adds delta to entropy, saturating at the maximum uint32
// instead of wrapping.
func (p *PlasmaState) AddEntropy(delta uint32) {
	saturatingAddUint32(&p.entropy, delta)
}

// ========================================================================
// Excited
// ========================================================================

// IsExcited reports whether the cell is currently excited.
func (p *PlasmaState) IsExcited() bool {
	return p.excited.Load()
}

// SetExcited stores the excited flag directly.
func (p *PlasmaState) SetExcited(v bool) {
	p.excited.Store(v)
}

// Excite sets excited to true.
func (p *PlasmaState) Excite() {
	p.excited.Store(true)
}

// Relax sets excited to false.
func (p *PlasmaState) Relax() {
	p.excited.Store(false)
}

// ========================================================================
// Gate state
// ========================================================================

func (p *PlasmaState) sdtStateValue() thyristor.GateState {
	return thyristor.FromByte(uint8(p.sdtState.Load()))
}

// GateState returns the current gate state.
func (p *PlasmaState) GateState() thyristor.GateState {
	return p.sdtStateValue()
}

// SetGateState stores state directly.
func (p *PlasmaState) SetGateState(state thyristor.GateState) {
	p.sdtState.Store(uint32(state))
}

// IsConducting reports whether the gate is exactly Conducting.
func (p *PlasmaState) IsConducting() bool {
	return p.sdtStateValue() == thyristor.Conducting
}

// IsLatched reports whether the gate is exactly Latched.
func (p *PlasmaState) IsLatched() bool {
	return p.sdtStateValue() == thyristor.Latched
}

// Prime arms the gate unconditionally.
func (p *PlasmaState) Prime() {
	p.sdtState.Store(uint32(thyristor.Primed))
}

// Trigger transitions a Primed gate to Conducting and updates trigger
// bookkeeping, reporting whether the transition occurred. A no-op on any
// other current state.
func (p *PlasmaState) Trigger(tick uint64) bool {
	if p.sdtStateValue() != thyristor.Primed {
		return false
	}
	p.sdtState.Store(uint32(thyristor.Conducting))
	p.lastTriggerTick.Store(tick)
	saturatingAddUint32(&p.triggerCount, 1)
	return true
}

// Latch transitions a Conducting gate to Latched; a no-op otherwise.
func (p *PlasmaState) Latch() {
	if p.sdtStateValue() == thyristor.Conducting {
		p.sdtState.Store(uint32(thyristor.Latched))
	}
}

// Reset forces the gate to Off unconditionally.
func (p *PlasmaState) Reset() {
	p.sdtState.Store(uint32(thyristor.Off))
}

// LastTriggerTick returns the tick of the last rising transition into an
// open gate state.
func (p *PlasmaState) LastTriggerTick() uint64 {
	return p.lastTriggerTick.Load()
}

// TriggerCount returns the number of rising transitions into an open gate
// state observed so far.
func (p *PlasmaState) TriggerCount() uint32 {
	return p.triggerCount.Load()
}

// ========================================================================
// Ring strength / delta class / supersession
// ========================================================================

// LastRingStrength returns whatever ring strength was most recently stored.
func (p *PlasmaState) LastRingStrength() float32 {
	return math.Float32frombits(p.lastRingBits.Load())
}

// SupersessionCount returns the number of supersede() calls observed so
// far.
func (p *PlasmaState) SupersessionCount() uint32 {
	return p.supersessionCount.Load()
}

// CurrentDeltaClass classifies the most recently published ring strength
// using r's classifier.
func (p *PlasmaState) CurrentDeltaClass(r resonator.Resonator) resonator.DeltaClass {
	return r.DeltaClass(p.LastRingStrength())
}

// ========================================================================
// Combined operations
// ========================================================================

// UpdateFields publishes deltaAngleRaw, entropy, and excited in one call.
// Each field is still published independently (release); this does not
// provide cross-field atomicity any more than three separate calls would —
// it exists purely to save call sites that want to batch the three writes.
func (p *PlasmaState) UpdateFields(deltaAngleRaw uint16, entropy uint32, excited bool) {
	p.deltaAngle.Store(uint32(deltaAngleRaw))
	p.entropy.Store(entropy)
	p.excited.Store(excited)
}
