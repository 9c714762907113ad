package params

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Fingerprint maps bus number to the message addresses observed on that
// bus and their payload lengths.
type Fingerprint map[int]map[uint32]int

// fingerprintBuses is the number of buses an empty fingerprint covers.
const fingerprintBuses = 4

// NoFingerprint returns a fresh, empty fingerprint. Each call allocates
// its own maps.
func NoFingerprint() Fingerprint {
	fp := make(Fingerprint, fingerprintBuses)
	for bus := 0; bus < fingerprintBuses; bus++ {
		fp[bus] = map[uint32]int{}
	}
	return fp
}

// Bus returns the observed addresses on bus, never nil.
func (f Fingerprint) Bus(bus int) map[uint32]int {
	if m, ok := f[bus]; ok && m != nil {
		return m
	}
	return map[uint32]int{}
}

// LoadFingerprint reads a JSON fingerprint of the form
// {"0": {"384": 4, "715": 8}, "1": {...}}.
func LoadFingerprint(path string) (Fingerprint, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("fingerprint file must have .json extension, got %q", ext)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read fingerprint file: %w", err)
	}
	fp := NoFingerprint()
	var parsed Fingerprint
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse fingerprint JSON: %w", err)
	}
	for bus, msgs := range parsed {
		fp[bus] = msgs
	}
	return fp, nil
}

// ECU names a bus-attached control unit whose presence matters.
type ECU string

const FwdCamera ECU = "fwdCamera"

// ecuFingerprint lists the addresses only the given ECU transmits.
// 384 is the camera's LKA steering command, 715 its gas/regen command.
var ecuFingerprint = map[ECU][]uint32{
	FwdCamera: {384, 715},
}

// ECUDisconnected reports whether the variant's stock ECU normally
// transmits on the bus but none of its messages appear in observed.
// An unknown variant is never considered disconnected.
func ECUDisconnected(observed map[uint32]int, v Variant, ecu ECU) bool {
	addrs := ecuFingerprint[ecu]
	inCar := false
	for _, ref := range referenceFingerprints[v] {
		for _, a := range addrs {
			if _, ok := ref[a]; ok {
				inCar = true
			}
		}
	}
	if !inCar {
		return false
	}
	for _, a := range addrs {
		if _, ok := observed[a]; ok {
			return false
		}
	}
	return true
}
