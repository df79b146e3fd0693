package commands

import (
	"encoding/hex"
	"fmt"
)

func decodeFixed(s string, out []byte) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != len(out) {
		return fmt.Errorf("expected %d bytes, got %d", len(out), len(b))
	}
	copy(out, b)
	return nil
}
