// Package polycrystal implements a weighted ensemble vote over multiple
// resonators, producing a single fused ring strength and pass/fail verdict
// for internal/plasma.ResonatePoly.
package polycrystal

import (
	"fmt"

	"github.com/rishav/admission-gate/internal/resonator"
)

// Member pairs a resonator with its voting weight.
type Member struct {
	Resonator resonator.Resonator
	Weight    float32
}

// Result is the outcome of a polycrystal vote.
type Result struct {
	// RingStrength is the weighted average of member ring strengths,
	// clamped to [0, 1].
	RingStrength float32

	// Passed is true iff the weighted majority of members individually
	// reported a ring strength at or above the pass threshold.
	Passed bool
}

// Polycrystal is an immutable, ordered ensemble of (resonator, weight)
// pairs plus a pass threshold. Members are evaluated in construction order,
// deterministically.
type Polycrystal struct {
	members       []Member
	totalWeight   float32
	passThreshold float32
}

// New constructs a Polycrystal. It rejects an empty member list or a
// non-positive total weight as an invalid configuration — a resonance
// ensemble with no voters, or one whose votes can never be weighed, cannot
// produce a meaningful ring strength.
func New(members []Member, passThreshold float32) (*Polycrystal, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("polycrystal: invalid configuration: no members")
	}

	var total float32
	for _, m := range members {
		total += m.Weight
	}
	if total <= 0 {
		return nil, fmt.Errorf("polycrystal: invalid configuration: total weight %v must be positive", total)
	}

	owned := make([]Member, len(members))
	copy(owned, members)

	return &Polycrystal{
		members:       owned,
		totalWeight:   total,
		passThreshold: passThreshold,
	}, nil
}

// ResonatePayload evaluates every member against payload and rawAngle and
// fuses their results into a single Result.
func (p *Polycrystal) ResonatePayload(payload []byte, rawAngle uint16) Result {
	var weightedSum float32
	var passWeight, failWeight float32

	for _, m := range p.members {
		ring := m.Resonator.ResonatePayload(payload, rawAngle)
		weightedSum += m.Weight * ring

		if ring >= p.passThreshold {
			passWeight += m.Weight
		} else {
			failWeight += m.Weight
		}
	}

	ring := weightedSum / p.totalWeight
	ring = clamp01(ring)

	// Ties resolve to false: strictly more pass-weight than fail-weight is
	// required.
	passed := passWeight > failWeight

	return Result{RingStrength: ring, Passed: passed}
}

// Len returns the number of member resonators.
func (p *Polycrystal) Len() int {
	return len(p.members)
}

func clamp01(v float32) float32 {
	if v != v {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
