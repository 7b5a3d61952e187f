package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/rishav/admission-gate/internal/thyristor"
)

// thresholdFile is the on-disk (human-JSON) shape of a threshold preset
// file, as loaded with --thresholds-file.
type thresholdFile struct {
	GateThresh     float32 `json:"gate_thresh"`
	HoldingThresh  float32 `json:"holding_thresh"`
	PerfectThresh  float32 `json:"perfect_thresh"`
	EntropyDrought uint32  `json:"entropy_drought"`
}

// loadThresholds reads a JSONC (human-JSON: comments and trailing commas
// allowed) threshold preset file and validates it.
func loadThresholds(path string) (thyristor.ThresholdConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return thyristor.ThresholdConfig{}, fmt.Errorf("failed to read thresholds file: %w", err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return thyristor.ThresholdConfig{}, fmt.Errorf("invalid JSONC in thresholds file: %w", err)
	}

	var tf thresholdFile
	if err := json.Unmarshal(standardized, &tf); err != nil {
		return thyristor.ThresholdConfig{}, fmt.Errorf("invalid JSON in thresholds file: %w", err)
	}

	cfg, err := thyristor.New(thyristor.ThresholdConfig{
		GateThresh:     tf.GateThresh,
		HoldingThresh:  tf.HoldingThresh,
		PerfectThresh:  tf.PerfectThresh,
		EntropyDrought: tf.EntropyDrought,
	})
	if err != nil {
		return thyristor.ThresholdConfig{}, err
	}

	return cfg, nil
}

// presetByName resolves one of the three built-in presets by name.
func presetByName(name string) (thyristor.ThresholdConfig, bool) {
	switch name {
	case "default":
		return thyristor.Default(), true
	case "strict":
		return thyristor.Strict, true
	case "permissive":
		return thyristor.Permissive, true
	default:
		return thyristor.ThresholdConfig{}, false
	}
}
