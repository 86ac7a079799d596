package random

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestUniformStaysInRange(t *testing.T) {
	sampler := NewCrypto()
	for _, sides := range []int{2, 3, 6, 20, 100, 255, 256, 257, 65536, 1_000_000_000} {
		for i := 0; i < 200; i++ {
			value, err := sampler.Uniform(sides)
			if err != nil {
				t.Fatalf("Uniform(%d) returned error: %v", sides, err)
			}
			if value < 1 || value > sides {
				t.Fatalf("Uniform(%d) = %d, out of range", sides, value)
			}
		}
	}
}

func TestUniformSingleSideSkipsEntropy(t *testing.T) {
	sampler := NewFromReader(bytes.NewReader(nil), "empty")
	value, err := sampler.Uniform(1)
	if err != nil {
		t.Fatalf("Uniform(1) returned error: %v", err)
	}
	if value != 1 {
		t.Fatalf("Uniform(1) = %d, want 1", value)
	}
}

func TestUniformRejectsInvalidSides(t *testing.T) {
	_, err := NewCrypto().Uniform(0)
	if !errors.Is(err, ErrInvalidSides) {
		t.Fatalf("Uniform(0) error = %v, want %v", err, ErrInvalidSides)
	}
}

// TestUniformRejectsSamplesAboveBound feeds bytes that land in the biased
// tail of a single byte range and checks they are skipped.
func TestUniformRejectsSamplesAboveBound(t *testing.T) {
	// sides=6: range 256, bound 252. 252..255 must be rejected.
	stream := []byte{255, 254, 253, 252, 13}
	sampler := NewFromReader(bytes.NewReader(stream), "scripted")

	value, err := sampler.Uniform(6)
	if err != nil {
		t.Fatalf("Uniform returned error: %v", err)
	}
	if want := 13%6 + 1; value != want {
		t.Fatalf("Uniform(6) = %d, want %d", value, want)
	}
}

func TestUniformUsesMultiByteWidth(t *testing.T) {
	// sides=1000 needs two bytes; 0x01 0x00 = 256.
	sampler := NewFromReader(bytes.NewReader([]byte{0x01, 0x00}), "scripted")
	value, err := sampler.Uniform(1000)
	if err != nil {
		t.Fatalf("Uniform returned error: %v", err)
	}
	if value != 257 {
		t.Fatalf("Uniform(1000) = %d, want 257", value)
	}
}

func TestUniformReportsReadFailure(t *testing.T) {
	sampler := NewFromReader(bytes.NewReader(nil), "empty")
	_, err := sampler.Uniform(6)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("Uniform error = %v, want EOF", err)
	}
}

// TestUniformChiSquare checks each face of a d6 and a d10 occurs with
// frequency close to 1/sides.
func TestUniformChiSquare(t *testing.T) {
	// Critical values at p=0.001 for 5 and 9 degrees of freedom.
	tcs := []struct {
		sides    int
		critical float64
	}{
		{sides: 6, critical: 20.515},
		{sides: 10, critical: 27.877},
	}

	sampler := NewCrypto()
	const samples = 60000
	for _, tc := range tcs {
		counts := make([]int, tc.sides+1)
		for i := 0; i < samples; i++ {
			value, err := sampler.Uniform(tc.sides)
			if err != nil {
				t.Fatalf("Uniform(%d) returned error: %v", tc.sides, err)
			}
			counts[value]++
		}

		expected := float64(samples) / float64(tc.sides)
		chi := 0.0
		for face := 1; face <= tc.sides; face++ {
			diff := float64(counts[face]) - expected
			chi += diff * diff / expected
		}
		if chi > tc.critical {
			t.Errorf("d%d chi-square = %.2f exceeds %.3f (counts %v)", tc.sides, chi, tc.critical, counts[1:])
		}
	}
}

func TestFateValues(t *testing.T) {
	sampler := NewCrypto()
	seen := map[int]bool{}
	for i := 0; i < 300; i++ {
		value, err := sampler.Fate()
		if err != nil {
			t.Fatalf("Fate returned error: %v", err)
		}
		if value < -1 || value > 1 {
			t.Fatalf("Fate = %d, out of range", value)
		}
		seen[value] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected all fate faces in 300 draws, saw %v", seen)
	}
}

func TestSeededSamplerIsDeterministic(t *testing.T) {
	first := NewSeeded(42)
	second := NewSeeded(42)
	for i := 0; i < 50; i++ {
		a, err := first.Uniform(20)
		if err != nil {
			t.Fatalf("Uniform returned error: %v", err)
		}
		b, err := second.Uniform(20)
		if err != nil {
			t.Fatalf("Uniform returned error: %v", err)
		}
		if a != b {
			t.Fatalf("draw %d differs: %d vs %d", i, a, b)
		}
	}
}

func TestProvenance(t *testing.T) {
	live := NewCrypto().Provenance()
	if live.Source != SourceCSPRNG || live.Method != MethodRejectionSampling || live.Seed != nil {
		t.Fatalf("unexpected crypto provenance: %+v", live)
	}

	replay := NewSeeded(7).Provenance()
	if replay.Source != SourceChaCha8 || replay.Seed == nil || *replay.Seed != 7 {
		t.Fatalf("unexpected seeded provenance: %+v", replay)
	}
}

func TestNewSeedVaries(t *testing.T) {
	a, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed returned error: %v", err)
	}
	b, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed returned error: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct seeds, got %d twice", a)
	}
}
