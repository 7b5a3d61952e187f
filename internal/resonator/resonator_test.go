package resonator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDegreesBoundaries(t *testing.T) {
	cases := []struct {
		degrees float32
		want    DeltaClass
	}{
		{0, DeltaNone},
		{1.999, DeltaNone},
		{2, DeltaMicro},
		{9.999, DeltaMicro},
		{10, DeltaSoft},
		{24.999, DeltaSoft},
		{25, DeltaHard},
		{59.999, DeltaHard},
		{60, DeltaCritical},
		{359.999, DeltaCritical},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyDegrees(tc.degrees), "degrees=%v", tc.degrees)
	}
}

func TestDeltaClassString(t *testing.T) {
	cases := map[DeltaClass]string{
		DeltaNone:     "NONE",
		DeltaMicro:    "MICRO",
		DeltaSoft:     "SOFT",
		DeltaHard:     "HARD",
		DeltaCritical: "CRITICAL",
		DeltaClass(9): "UNKNOWN",
	}
	for d, want := range cases {
		assert.Equal(t, want, d.String())
	}
}

func TestOrbitalPeaksNearBoresight(t *testing.T) {
	o := Orbital{}
	// raw for 45 degrees: 45 * 65535 / 360
	raw45 := uint16(45.0 * 65535.0 / 360.0)
	ringAt45 := o.ResonatePayload([]byte("x"), raw45)

	raw0 := uint16(0)
	ringAt0 := o.ResonatePayload([]byte("x"), raw0)

	assert.Greater(t, ringAt45, ringAt0)
}

func TestGroundStationPeaksNearZero(t *testing.T) {
	g := GroundStation{}
	ringAt0 := g.ResonatePayload([]byte("x"), 0)
	raw180 := uint16(180.0 * 65535.0 / 360.0)
	ringAt180 := g.ResonatePayload([]byte("x"), raw180)

	assert.Greater(t, ringAt0, ringAt180)
}

func TestTarPitIsAlwaysWeak(t *testing.T) {
	tp := TarPit{}
	for _, raw := range []uint16{0, 1000, 32768, 65535} {
		ring := tp.ResonatePayload([]byte("payload"), raw)
		assert.LessOrEqual(t, ring, float32(0.4))
	}
}

func TestSilentNeverRings(t *testing.T) {
	s := Silent{}
	assert.Equal(t, float32(0), s.ResonatePayload([]byte("anything"), 12345))
	assert.Equal(t, DeltaNone, s.DeltaClass(0.9))
}

func TestFamiliesDeterministic(t *testing.T) {
	payload := []byte("deterministic-payload")
	o := Orbital{}
	a := o.ResonatePayload(payload, 8192)
	b := o.ResonatePayload(payload, 8192)
	assert.Equal(t, a, b)
}
