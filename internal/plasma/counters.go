package plasma

import (
	"math"
	"sync/atomic"
)

// saturatingAddUint32 adds delta to *a, clamping at math.MaxUint32 instead
// of wrapping, and returns the resulting value. It is a small, bounded
// compare-and-swap loop reserved for counter saturation — distinct from the
// gate state machine's last-writer-wins publish path (resonate, trigger,
// latch, ...), which never loops or retries.
func saturatingAddUint32(a *atomic.Uint32, delta uint32) uint32 {
	for {
		old := a.Load()
		sum := old + delta
		if sum < old {
			sum = math.MaxUint32
		}
		if a.CompareAndSwap(old, sum) {
			return sum
		}
	}
}
