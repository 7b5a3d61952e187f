package plasma

import "math"

// Angle encoding packs a degree value in [0, 360) into a uint16: raw =
// round(degrees * 65535 / 360) mod 65536, decode = raw * 360 / 65535. The
// intermediate arithmetic is done in float64 even though the public values
// are float32: raw*360 can reach ~23.6e6, past float32's ~16.7e6 exact-
// integer ceiling, so a float32-only round trip would lose precision for
// large raw values.
const (
	anglesPerTurn  = 65535.0
	degreesPerTurn = 360.0
)

func encodeDegrees(degrees float32) uint16 {
	d := float64(degrees)

	// Only wrap values outside the canonical [0, 360] range. Wrapping
	// unconditionally would fold the exact top value 360.0 — the decode of
	// raw 65535 — down to 0.0, breaking the round trip for that one raw
	// value. 360.0 itself is left alone and handled below.
	if d < 0 || d > degreesPerTurn {
		d = math.Mod(d, degreesPerTurn)
		if d < 0 {
			d += degreesPerTurn
		}
	}

	if d == degreesPerTurn {
		return 65535
	}

	raw := math.Round(d * anglesPerTurn / degreesPerTurn)
	return uint16(uint64(raw) % 65536)
}

func decodeDegrees(raw uint16) float32 {
	d := float64(raw) * degreesPerTurn / anglesPerTurn
	return float32(d)
}
