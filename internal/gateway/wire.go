package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kgkim70/openpilot/internal/car"
)

// ParseFrame decodes one gateway line.
func ParseFrame(line string) (car.Frame, error) {
	var f car.Frame
	line = strings.TrimSpace(line)
	if line == "" {
		return f, fmt.Errorf("empty frame line")
	}
	if err := json.Unmarshal([]byte(line), &f); err != nil {
		return f, fmt.Errorf("failed to parse frame: %w", err)
	}
	return f, nil
}

// FormatFrame encodes f as one gateway line without the trailing newline.
func FormatFrame(f car.Frame) (string, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("failed to encode frame 0x%x: %w", f.Address, err)
	}
	return string(b), nil
}
