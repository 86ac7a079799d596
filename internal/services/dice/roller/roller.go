// Package roller evaluates dice expressions for the transports: it owns the
// active limits profile, picks the random source for each roll, and traces
// every evaluation.
package roller

import (
	"context"
	"fmt"

	"github.com/louisbranch/diceroller/internal/core/dice"
	platformotel "github.com/louisbranch/diceroller/internal/platform/otel"
	"github.com/louisbranch/diceroller/internal/random"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Request is one roll.
type Request struct {
	Expression string
	// Seed replays a roll with a ChaCha8 stream. Nil uses crypto/rand
	// unless the roller always seeds.
	Seed *uint64
}

// Roller evaluates expressions under a fixed limits profile. It is safe for
// concurrent use.
type Roller struct {
	limits     dice.Limits
	tracer     trace.Tracer
	alwaysSeed bool
	newSeed    func() (uint64, error)
}

// Option configures a Roller.
type Option func(*Roller)

// WithTracer replaces the module tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Roller) {
		r.tracer = tracer
	}
}

// WithReplayableSeeds makes unseeded rolls draw a fresh seed so every
// record carries the seed needed to replay it.
func WithReplayableSeeds() Option {
	return func(r *Roller) {
		r.alwaysSeed = true
	}
}

// New returns a roller for limits, which must be valid.
func New(limits dice.Limits, opts ...Option) (*Roller, error) {
	if err := limits.Validate(); err != nil {
		return nil, fmt.Errorf("roller limits: %w", err)
	}
	r := &Roller{
		limits:  limits,
		tracer:  platformotel.Tracer(),
		newSeed: random.NewSeed,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Limits returns the active limits profile.
func (r *Roller) Limits() dice.Limits {
	return r.limits
}

// Roll evaluates the request. Evaluation failures are carried in the
// record; Roll itself never fails.
func (r *Roller) Roll(ctx context.Context, request Request) dice.Record {
	_, span := r.tracer.Start(ctx, "dice.Roll", trace.WithAttributes(
		attribute.String("dice.expression", request.Expression),
		attribute.Bool("dice.seeded", request.Seed != nil),
	))
	defer span.End()

	source, err := r.source(request.Seed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "seed")
		return dice.NewErrorRecord(dice.AsError(err, request.Expression))
	}

	record := dice.Roll(dice.Request{
		Expression: request.Expression,
		Limits:     r.limits,
		Source:     source,
	})

	if !record.OK {
		span.SetAttributes(
			attribute.String("dice.error.type", string(record.Error.Type)),
			attribute.Int("dice.error.position", record.Error.Position),
		)
		span.SetStatus(codes.Error, record.Error.Message)
		return record
	}
	span.SetAttributes(
		attribute.Float64("dice.final", record.Final),
		attribute.String("dice.type", string(record.Type)),
		attribute.Int("dice.terms", len(record.Trace)),
	)
	if record.RNG.Seed != nil {
		span.SetAttributes(attribute.String("dice.seed", fmt.Sprint(*record.RNG.Seed)))
	}
	return record
}

func (r *Roller) source(seed *uint64) (*random.Sampler, error) {
	if seed != nil {
		return random.NewSeeded(*seed), nil
	}
	if !r.alwaysSeed {
		return random.NewCrypto(), nil
	}
	fresh, err := r.newSeed()
	if err != nil {
		return nil, fmt.Errorf("generate seed: %w", err)
	}
	return random.NewSeeded(fresh), nil
}
