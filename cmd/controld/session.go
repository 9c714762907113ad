package main

import (
	"fmt"

	"github.com/kgkim70/openpilot/internal/config"
	"github.com/kgkim70/openpilot/internal/cycle"
	"github.com/kgkim70/openpilot/internal/gateway"
	"github.com/kgkim70/openpilot/internal/monitoring"
	"github.com/kgkim70/openpilot/internal/params"
)

// buildProfile resolves the variant, fingerprint and calibration
// overrides named by cfg.
func buildProfile(cfg *config.SessionConfig) (params.Profile, error) {
	variant := params.ParseVariant(cfg.GetVariant())
	if !variant.Known() {
		known := make([]string, 0, len(params.Variants()))
		for _, v := range params.Variants() {
			known = append(known, string(v))
		}
		monitoring.Logger.Warn().
			Str("variant", string(variant)).
			Strs("known", known).
			Msg("unknown variant, running with the base GM profile")
	}

	fp := params.NoFingerprint()
	if path := cfg.GetFingerprintFile(); path != "" {
		loaded, err := params.LoadFingerprint(path)
		if err != nil {
			return params.Profile{}, fmt.Errorf("failed to load fingerprint: %w", err)
		}
		fp = loaded
	}

	var overrides *params.Overrides
	if path := cfg.GetOverridesFile(); path != "" {
		loaded, err := params.LoadOverrides(path)
		if err != nil {
			return params.Profile{}, fmt.Errorf("failed to load overrides: %w", err)
		}
		overrides = loaded
	}

	return params.BuildWithOverrides(variant, fp, cfg.GetHasRelay(), overrides), nil
}

// newVehicle wires the gateway decoder and encoder into a control cycle.
func newVehicle(p params.Profile) (*cycle.Cycle, error) {
	return cycle.New(p, cycle.Config{
		Decoder:    gateway.NewStateDecoder(),
		Dispatcher: gateway.NewCommandEncoder(p),
	})
}
