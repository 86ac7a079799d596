package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"math/rand/v2"
)

const (
	// SourceCSPRNG identifies the operating system's cryptographic generator.
	SourceCSPRNG = "CSPRNG"
	// SourceChaCha8 identifies a seeded ChaCha8 stream.
	SourceChaCha8 = "ChaCha8"
	// MethodRejectionSampling identifies the byte-to-face conversion.
	MethodRejectionSampling = "rejectionSampling"
)

// ErrInvalidSides indicates a die with fewer than one side was requested.
var ErrInvalidSides = errors.New("die must have at least 1 side")

// Provenance describes where the randomness for a roll came from.
type Provenance struct {
	Source string  `json:"source"`
	Method string  `json:"method"`
	Seed   *uint64 `json:"seed,omitempty"`
}

// Sampler draws uniformly distributed die faces from a byte stream.
//
// A Sampler keeps no state besides its reader; the crypto sampler can be
// shared freely, a seeded sampler belongs to the single evaluation it
// replays.
type Sampler struct {
	reader     io.Reader
	provenance Provenance
}

// NewCrypto returns a sampler backed by crypto/rand.
func NewCrypto() *Sampler {
	return &Sampler{
		reader:     crand.Reader,
		provenance: Provenance{Source: SourceCSPRNG, Method: MethodRejectionSampling},
	}
}

// NewSeeded returns a sampler backed by a ChaCha8 stream derived from seed.
// Two samplers created with the same seed produce the same faces.
func NewSeeded(seed uint64) *Sampler {
	var key [32]byte
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(key[i*8:], seed+uint64(i)*0x9e3779b97f4a7c15)
	}
	value := seed
	return &Sampler{
		reader:     rand.NewChaCha8(key),
		provenance: Provenance{Source: SourceChaCha8, Method: MethodRejectionSampling, Seed: &value},
	}
}

// NewFromReader returns a sampler over an arbitrary byte stream.
func NewFromReader(reader io.Reader, source string) *Sampler {
	return &Sampler{
		reader:     reader,
		provenance: Provenance{Source: source, Method: MethodRejectionSampling},
	}
}

// Provenance reports the source and method used by the sampler.
func (s *Sampler) Provenance() Provenance {
	return s.provenance
}

// Uniform returns an integer in [1, sides] with every face equally likely.
//
// # Termination
//
// The sample is drawn from width = ceil(bitlen(sides)/8) bytes, a range of
// 256^width values. Only samples below bound = floor(range/sides)*sides are
// accepted. Writing range = q*sides + r with q >= 1 and r < sides, a draw is
// rejected with probability r/range < r/(sides+r) < 1/2, so the chance of k
// consecutive rejections is below 2^-k and the expected number of draws is
// below 2. The loop has no cap because this bound holds for every sides.
func (s *Sampler) Uniform(sides int) (int, error) {
	if sides < 1 {
		return 0, ErrInvalidSides
	}
	if sides == 1 {
		return 1, nil
	}

	width := (bits.Len64(uint64(sides)) + 7) / 8
	n := uint64(sides)
	var bound uint64
	if width == 8 {
		// 2^64 does not fit; 2^64 mod n == (2^64 - n) mod n.
		bound = ^uint64(0) - (-n % n) + 1
	} else {
		span := uint64(1) << (8 * width)
		bound = (span / n) * n
	}

	buf := make([]byte, 8)
	for {
		if _, err := io.ReadFull(s.reader, buf[8-width:]); err != nil {
			return 0, fmt.Errorf("read random bytes: %w", err)
		}
		sample := binary.BigEndian.Uint64(buf)
		if bound == 0 || sample < bound {
			return int(sample%n) + 1, nil
		}
	}
}

// Fate returns -1, 0, or +1 with equal probability.
func (s *Sampler) Fate() (int, error) {
	value, err := s.Uniform(3)
	if err != nil {
		return 0, err
	}
	return value - 2, nil
}
