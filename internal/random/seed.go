// Package random provides the entropy sources used for die rolls.
//
// Rolls draw raw bytes from either crypto/rand (live rolls) or a seeded
// ChaCha8 stream (replayable rolls) and convert them to die faces with
// rejection sampling, so no face is ever more likely than another.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return binary.LittleEndian.Uint64(b[:]), nil
}
