package dice

import (
	"errors"
	"testing"
)

// scriptedSource returns predetermined faces in order.
type scriptedSource struct {
	values []int
	calls  int
}

var errScriptExhausted = errors.New("scripted source exhausted")

func (s *scriptedSource) Uniform(int) (int, error) {
	return s.nextValue()
}

func (s *scriptedSource) Fate() (int, error) {
	return s.nextValue()
}

func (s *scriptedSource) nextValue() (int, error) {
	if s.calls >= len(s.values) {
		return 0, errScriptExhausted
	}
	value := s.values[s.calls]
	s.calls++
	return value, nil
}

// countingSource always rolls the same face and counts draws.
type countingSource struct {
	face  int
	calls int
}

func (s *countingSource) Uniform(int) (int, error) {
	s.calls++
	return s.face, nil
}

func (s *countingSource) Fate() (int, error) {
	s.calls++
	return s.face, nil
}

func script(values ...int) *scriptedSource {
	return &scriptedSource{values: values}
}

func mustRun(t *testing.T, expression string, source Source) Result {
	t.Helper()
	result, err := Run(Request{Expression: expression, Source: source})
	if err != nil {
		t.Fatalf("Run(%q) returned error: %v", expression, err)
	}
	return result
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", kind)
	}
	var diceErr *Error
	if !errors.As(err, &diceErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if diceErr.Kind != kind {
		t.Fatalf("error kind = %s, want %s (%v)", diceErr.Kind, kind, err)
	}
	return diceErr
}

func values(rolls []DieRoll) []int {
	out := make([]int, 0, len(rolls))
	for _, roll := range rolls {
		out = append(out, roll.Value)
	}
	return out
}
