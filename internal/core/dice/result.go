package dice

import (
	"encoding/json"
	"errors"

	"github.com/louisbranch/diceroller/internal/random"
)

// Version identifies the notation semantics reported in every record.
const Version = "dice-1.0.0"

// Request describes one evaluation.
type Request struct {
	Expression string
	// Limits defaults to DefaultLimits when zero.
	Limits Limits
	// Source defaults to a crypto/rand sampler when nil.
	Source Source
}

// Result is a successful evaluation.
type Result struct {
	Final  float64
	Type   ResultType
	Traces []TermTrace
	Limits Limits
}

// Run parses and evaluates the request's expression. Failures are always
// *Error values.
func Run(request Request) (Result, error) {
	limits := request.Limits.orDefault()
	source := request.Source
	if source == nil {
		source = random.NewCrypto()
	}

	root, err := Parse(request.Expression, limits)
	if err != nil {
		return Result{}, AsError(err, request.Expression)
	}
	evaluation, err := Evaluate(root, source, limits, request.Expression)
	if err != nil {
		return Result{}, AsError(err, request.Expression)
	}
	return Result{
		Final:  evaluation.Final,
		Type:   evaluation.Type,
		Traces: evaluation.Traces,
		Limits: limits,
	}, nil
}

// Roll evaluates the request and assembles the result record. It never
// returns an error: failures are carried in the record.
func Roll(request Request) Record {
	result, err := Run(request)
	if err != nil {
		return NewErrorRecord(AsError(err, request.Expression))
	}
	provenance := random.Provenance{Source: random.SourceCSPRNG, Method: random.MethodRejectionSampling}
	if described, ok := request.Source.(interface{ Provenance() random.Provenance }); ok {
		provenance = described.Provenance()
	}
	return NewRecord(result, provenance)
}

// Record is the externally observed result of one evaluation: either a
// success (OK true) or an error, never both.
type Record struct {
	OK      bool
	Final   float64
	Type    ResultType
	Trace   []TraceRecord
	RNG     random.Provenance
	Limits  Limits
	Version string
	Error   *ErrorRecord
}

// TraceRecord is the wire form of a TermTrace.
type TraceRecord struct {
	Term       string       `json:"term"`
	Type       ResultType   `json:"type"`
	Rolls      []RollRecord `json:"rolls"`
	KeptValues []int        `json:"keptValues,omitempty"`
	Sum        *int         `json:"sum,omitempty"`
	Successes  *int         `json:"successes,omitempty"`
	Threshold  string       `json:"threshold,omitempty"`
}

// RollRecord is the wire form of one pool entry.
type RollRecord struct {
	Value         int    `json:"value"`
	Success       *bool  `json:"success,omitempty"`
	Explodes      bool   `json:"explodes,omitempty"`
	FromExplosion bool   `json:"fromExplosion,omitempty"`
	Dropped       bool   `json:"dropped,omitempty"`
	RerolledFrom  []int  `json:"rerolledFrom,omitempty"`
	RerollTrigger string `json:"rerollTrigger,omitempty"`
	Compounded    []int  `json:"compounded,omitempty"`
}

// ErrorRecord is the wire form of an *Error.
type ErrorRecord struct {
	Type     Kind   `json:"type"`
	Message  string `json:"message"`
	Position int    `json:"position"`
	Input    string `json:"input"`
}

// NewRecord assembles a success record.
func NewRecord(result Result, provenance random.Provenance) Record {
	traces := make([]TraceRecord, 0, len(result.Traces))
	for _, trace := range result.Traces {
		traces = append(traces, newTraceRecord(trace))
	}
	return Record{
		OK:      true,
		Final:   result.Final,
		Type:    result.Type,
		Trace:   traces,
		RNG:     provenance,
		Limits:  result.Limits,
		Version: Version,
	}
}

// NewErrorRecord assembles a failure record.
func NewErrorRecord(err *Error) Record {
	return Record{
		Error: &ErrorRecord{
			Type:     err.Kind,
			Message:  err.Message,
			Position: err.Position,
			Input:    err.Input,
		},
	}
}

func newTraceRecord(trace TermTrace) TraceRecord {
	rolls := make([]RollRecord, 0, len(trace.Rolls))
	for _, die := range trace.Rolls {
		roll := RollRecord{
			Value:         die.Value,
			Success:       die.Success,
			Explodes:      die.Explodes,
			FromExplosion: die.FromExplosion,
			Dropped:       die.Dropped,
		}
		for _, step := range die.Rerolls {
			roll.RerolledFrom = append(roll.RerolledFrom, step.From)
			roll.RerollTrigger = step.Trigger
		}
		if die.Compound {
			for _, child := range die.Explosions {
				roll.Compounded = append(roll.Compounded, child.Value)
			}
		}
		rolls = append(rolls, roll)
	}
	return TraceRecord{
		Term:       trace.Term,
		Type:       trace.Type,
		Rolls:      rolls,
		KeptValues: trace.KeptValues,
		Sum:        trace.Sum,
		Successes:  trace.Successes,
		Threshold:  trace.Threshold,
	}
}

type successRecord struct {
	OK      bool              `json:"ok"`
	Final   float64           `json:"final"`
	Type    ResultType        `json:"type"`
	Trace   []TraceRecord     `json:"trace"`
	RNG     random.Provenance `json:"rng"`
	Limits  Limits            `json:"limits"`
	Version string            `json:"version"`
}

type failureRecord struct {
	OK    bool         `json:"ok"`
	Error *ErrorRecord `json:"error"`
}

// MarshalJSON renders the success or failure shape.
func (r Record) MarshalJSON() ([]byte, error) {
	if !r.OK {
		return json.Marshal(failureRecord{OK: false, Error: r.Error})
	}
	trace := r.Trace
	if trace == nil {
		trace = []TraceRecord{}
	}
	return json.Marshal(successRecord{
		OK:      true,
		Final:   r.Final,
		Type:    r.Type,
		Trace:   trace,
		RNG:     r.RNG,
		Limits:  r.Limits,
		Version: r.Version,
	})
}

// UnmarshalJSON reads either record shape, so records received from a
// remote roller can be handled like local ones.
func (r *Record) UnmarshalJSON(data []byte) error {
	var probe struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if !probe.OK {
		var failure failureRecord
		if err := json.Unmarshal(data, &failure); err != nil {
			return err
		}
		if failure.Error == nil {
			return errors.New("failure record has no error")
		}
		*r = Record{Error: failure.Error}
		return nil
	}
	var success successRecord
	if err := json.Unmarshal(data, &success); err != nil {
		return err
	}
	*r = Record{
		OK:      true,
		Final:   success.Final,
		Type:    success.Type,
		Trace:   success.Trace,
		RNG:     success.RNG,
		Limits:  success.Limits,
		Version: success.Version,
	}
	return nil
}
