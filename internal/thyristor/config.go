package thyristor

import "fmt"

// ThresholdConfig carries the four scalars that parameterize the gate
// transition function. It is immutable once constructed — New validates it
// so that Next never has to.
type ThresholdConfig struct {
	// GateThresh is the ring strength at or above which a closed gate may
	// open.
	GateThresh float32

	// HoldingThresh is the ring strength below which an open gate drops
	// closed. Must be strictly less than GateThresh (hysteresis).
	HoldingThresh float32

	// PerfectThresh is the ring strength at or above which the gate
	// latches unconditionally.
	PerfectThresh float32

	// EntropyDrought is the entropy level below which a latched gate is
	// torn down on an anode-drop check.
	EntropyDrought uint32
}

// Default returns the default threshold configuration.
func Default() ThresholdConfig {
	return ThresholdConfig{
		GateThresh:     0.50,
		HoldingThresh:  0.35,
		PerfectThresh:  0.98,
		EntropyDrought: 1000,
	}
}

// Strict is a higher-threshold, larger-drought-window preset for critical
// operations.
var Strict = ThresholdConfig{
	GateThresh:     0.75,
	HoldingThresh:  0.50,
	PerfectThresh:  0.995,
	EntropyDrought: 5000,
}

// Permissive is a lower-threshold, smaller-drought-window preset, suited to
// development and low-stakes traffic.
var Permissive = ThresholdConfig{
	GateThresh:     0.30,
	HoldingThresh:  0.20,
	PerfectThresh:  0.90,
	EntropyDrought: 100,
}

// New validates cfg and returns it unchanged, or an error describing the
// first violated invariant. Cell operations never produce this error
// because they only ever consume a config that has already passed New.
func New(cfg ThresholdConfig) (ThresholdConfig, error) {
	if err := validate(cfg); err != nil {
		return ThresholdConfig{}, err
	}
	return cfg, nil
}

func validate(cfg ThresholdConfig) error {
	for name, v := range map[string]float32{
		"gate_thresh":    cfg.GateThresh,
		"holding_thresh": cfg.HoldingThresh,
		"perfect_thresh": cfg.PerfectThresh,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("thyristor: invalid configuration: %s %v outside [0,1]", name, v)
		}
	}
	if cfg.HoldingThresh >= cfg.GateThresh {
		return fmt.Errorf("thyristor: invalid configuration: holding_thresh %v must be strictly less than gate_thresh %v (hysteresis)",
			cfg.HoldingThresh, cfg.GateThresh)
	}
	return nil
}
