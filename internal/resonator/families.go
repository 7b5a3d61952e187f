package resonator

import "hash/fnv"

// The families below are illustrative fixtures for tests and the gatectl
// demo walkthrough. They stand in for the opaque, family-specific Crystal
// physics spec.md declares out of scope (§1) — none of them is a claim
// about what a production resonance function would compute.

// degreesOf converts a raw 16-bit encoded angle to degrees, matching the
// encoding plasma.PlasmaState uses (deg = raw * 360 / 65535).
func degreesOf(raw uint16) float32 {
	return float32(raw) * 360.0 / 65535.0
}

// payloadHashUnit hashes payload to a deterministic value in [0, 1).
func payloadHashUnit(payload []byte) float32 {
	h := fnv.New32a()
	_, _ = h.Write(payload)
	return float32(h.Sum32()%100000) / 100000.0
}

// Orbital rings strongest when the angle sits near a narrow band and the
// payload hash is large — modeling a satellite pass with a tight bore-sight
// window.
type Orbital struct{}

func (Orbital) ResonatePayload(payload []byte, rawAngle uint16) float32 {
	deg := degreesOf(rawAngle)
	// Band centered at 45 degrees, falling linearly to zero 30 degrees
	// either side.
	dist := deg - 45
	if dist < 0 {
		dist = -dist
	}
	band := float32(1.0)
	if dist < 30 {
		band = 1 - dist/30
	} else {
		band = 0
	}
	ring := band*0.7 + payloadHashUnit(payload)*0.3
	return clamp01(ring)
}

func (Orbital) DeltaClass(ring float32) DeltaClass {
	return ClassifyDegrees(ring * 360)
}

// GroundStation rings strongest at low angles (near boresight to a fixed
// terrestrial antenna) regardless of payload content.
type GroundStation struct{}

func (GroundStation) ResonatePayload(payload []byte, rawAngle uint16) float32 {
	deg := degreesOf(rawAngle)
	var ring float32
	switch {
	case deg < 10:
		ring = 1 - deg/10
	default:
		ring = 0
	}
	return clamp01(ring*0.9 + payloadHashUnit(payload)*0.1)
}

func (GroundStation) DeltaClass(ring float32) DeltaClass {
	return ClassifyDegrees(ring * 360)
}

// TarPit rings weakly almost everywhere — a deliberately low-resonance
// family used to exercise the gate's closed/holding paths in tests.
type TarPit struct{}

func (TarPit) ResonatePayload(payload []byte, _ uint16) float32 {
	return clamp01(payloadHashUnit(payload) * 0.4)
}

func (TarPit) DeltaClass(ring float32) DeltaClass {
	return ClassifyDegrees(ring * 360)
}

// Silent never rings: it always reports zero ring strength, used in tests
// to exercise the gate staying permanently closed.
type Silent struct{}

func (Silent) ResonatePayload(_ []byte, _ uint16) float32 {
	return 0
}

func (Silent) DeltaClass(float32) DeltaClass {
	return DeltaNone
}
