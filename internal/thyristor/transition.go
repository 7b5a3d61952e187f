package thyristor

// Next computes the next gate state from the current state, a ring
// strength, and a threshold config. It is deterministic, total, and
// side-effect-free.
//
// Rules are evaluated top-down; earlier rules win:
//
//  1. ring >= PerfectThresh             -> Latched, regardless of current.
//  2. Latched and ring < HoldingThresh  -> Off (anode drop by ring loss).
//  3. Latched                           -> Latched (sticky).
//  4. {Off,Primed} and ring >= GateThresh -> Conducting.
//  5. Off                               -> Off.
//  6. Primed                            -> Primed.
//  7. Conducting and ring < HoldingThresh -> Off (holding current lost).
//  8. Conducting                        -> Conducting.
func Next(current GateState, ring float32, cfg ThresholdConfig) GateState {
	if ring >= cfg.PerfectThresh {
		return Latched
	}

	switch current {
	case Latched:
		if ring < cfg.HoldingThresh {
			return Off
		}
		return Latched
	case Off:
		if ring >= cfg.GateThresh {
			return Conducting
		}
		return Off
	case Primed:
		if ring >= cfg.GateThresh {
			return Conducting
		}
		return Primed
	case Conducting:
		if ring < cfg.HoldingThresh {
			return Off
		}
		return Conducting
	default:
		// Defensive: an unrecognized current state behaves as Off.
		if ring >= cfg.GateThresh {
			return Conducting
		}
		return Off
	}
}
