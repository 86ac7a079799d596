package domain

import (
	"context"
	"fmt"

	dicecore "github.com/louisbranch/diceroller/internal/core/dice"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
)

// DiceClient is the subset of the DiceService client used by the tools.
type DiceClient interface {
	Roll(ctx context.Context, expression string, seed *uint64, opts ...grpc.CallOption) (dicecore.Record, error)
	GetLimits(ctx context.Context, opts ...grpc.CallOption) (dicecore.Limits, error)
}

// RollDiceInput represents the MCP tool input for rolling a dice expression.
type RollDiceInput struct {
	Expression string  `json:"expression" jsonschema:"dice expression such as 4d6kh3+2, 10d10>=7 or 4dF"`
	Seed       *uint64 `json:"seed,omitempty" jsonschema:"optional seed that replays a previous roll"`
}

// RollDiceResult represents the MCP tool output for a roll. It carries
// either the evaluation fields (ok true) or error (ok false).
type RollDiceResult struct {
	OK      bool          `json:"ok" jsonschema:"true when the expression was evaluated"`
	Final   *float64      `json:"final,omitempty" jsonschema:"final value of the expression"`
	Type    string        `json:"type,omitempty" jsonschema:"sum or success_count"`
	Trace   []TermResult  `json:"trace,omitempty" jsonschema:"per dice term breakdown in evaluation order"`
	Rng     *RngResult    `json:"rng,omitempty" jsonschema:"random source details"`
	Limits  *LimitsResult `json:"limits,omitempty" jsonschema:"limits applied to the evaluation"`
	Version string        `json:"version,omitempty" jsonschema:"notation semantics version"`
	Error   *ErrorResult  `json:"error,omitempty" jsonschema:"evaluation failure"`
}

// TermResult is the breakdown of one dice term.
type TermResult struct {
	Term       string       `json:"term" jsonschema:"canonical notation of the term"`
	Type       string       `json:"type" jsonschema:"sum or success_count"`
	Rolls      []RollResult `json:"rolls" jsonschema:"every die rolled, including explosions and dropped dice"`
	KeptValues []int        `json:"keptValues,omitempty" jsonschema:"values of the dice that were kept"`
	Sum        *int         `json:"sum,omitempty" jsonschema:"sum of kept dice"`
	Successes  *int         `json:"successes,omitempty" jsonschema:"number of kept dice meeting the threshold"`
	Threshold  string       `json:"threshold,omitempty" jsonschema:"success threshold such as >=7"`
}

// RollResult is one die in a term.
type RollResult struct {
	Value         int    `json:"value" jsonschema:"face value"`
	Success       *bool  `json:"success,omitempty" jsonschema:"whether the die met the threshold"`
	Explodes      bool   `json:"explodes,omitempty" jsonschema:"whether the die triggered an explosion"`
	FromExplosion bool   `json:"fromExplosion,omitempty" jsonschema:"whether the die was added by an explosion"`
	Dropped       bool   `json:"dropped,omitempty" jsonschema:"whether keep or drop discarded the die"`
	RerolledFrom  []int  `json:"rerolledFrom,omitempty" jsonschema:"values replaced by rerolls, oldest first"`
	RerollTrigger string `json:"rerollTrigger,omitempty" jsonschema:"predicate that caused the rerolls such as <3"`
	Compounded    []int  `json:"compounded,omitempty" jsonschema:"extra rolls folded into a compounding die"`
}

// RngResult describes the random source of a roll.
type RngResult struct {
	Source string  `json:"source" jsonschema:"entropy source"`
	Method string  `json:"method" jsonschema:"sampling method"`
	Seed   *uint64 `json:"seed,omitempty" jsonschema:"seed that replays the roll"`
}

// LimitsResult represents the safety limits of the dice service.
type LimitsResult struct {
	MaxDice       int `json:"maxDice" jsonschema:"maximum dice per term"`
	MaxSides      int `json:"maxSides" jsonschema:"maximum sides per die"`
	MaxExplosions int `json:"maxExplosions" jsonschema:"maximum explosions per term"`
	MaxRerolls    int `json:"maxRerolls" jsonschema:"maximum rerolls per term"`
	MaxRecursion  int `json:"maxRecursion" jsonschema:"maximum nesting depth"`
}

// ErrorResult describes why an expression could not be evaluated.
type ErrorResult struct {
	Type     string `json:"type" jsonschema:"ParseError, SemanticError, LimitError or RuntimeError"`
	Message  string `json:"message" jsonschema:"human readable reason"`
	Position int    `json:"position" jsonschema:"character offset in the input"`
	Input    string `json:"input" jsonschema:"expression that failed"`
}

// DiceLimitsInput represents the MCP tool input for reading limits.
type DiceLimitsInput struct{}

// RollDiceTool defines the MCP tool schema for rolling dice.
func RollDiceTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "roll_dice",
		Description: "Evaluates a dice notation expression and returns the total with a per term breakdown",
	}
}

// DiceLimitsTool defines the MCP tool schema for the active limits.
func DiceLimitsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "dice_limits",
		Description: "Describes the safety limits the dice service enforces",
	}
}

// RollDiceHandler evaluates a dice expression. Invalid expressions produce
// an error tool result that still carries the structured failure.
func RollDiceHandler(client DiceClient) mcp.ToolHandlerFor[RollDiceInput, RollDiceResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RollDiceInput) (*mcp.CallToolResult, RollDiceResult, error) {
		if client == nil {
			return nil, RollDiceResult{}, fmt.Errorf("dice client is not configured")
		}

		runCtx, cancel := context.WithTimeout(ctx, grpcCallTimeout)
		defer cancel()

		record, err := client.Roll(runCtx, input.Expression, input.Seed)
		if err != nil {
			return nil, RollDiceResult{}, fmt.Errorf("dice roll failed: %w", err)
		}

		result := rollDiceResultFromRecord(record)
		return &mcp.CallToolResult{IsError: !result.OK}, result, nil
	}
}

// DiceLimitsHandler reports the limits of the dice service.
func DiceLimitsHandler(client DiceClient) mcp.ToolHandlerFor[DiceLimitsInput, LimitsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ DiceLimitsInput) (*mcp.CallToolResult, LimitsResult, error) {
		if client == nil {
			return nil, LimitsResult{}, fmt.Errorf("dice client is not configured")
		}

		runCtx, cancel := context.WithTimeout(ctx, grpcCallTimeout)
		defer cancel()

		limits, err := client.GetLimits(runCtx)
		if err != nil {
			return nil, LimitsResult{}, fmt.Errorf("get dice limits failed: %w", err)
		}
		return nil, limitsResult(limits), nil
	}
}

func rollDiceResultFromRecord(record dicecore.Record) RollDiceResult {
	if !record.OK {
		result := RollDiceResult{OK: false}
		if record.Error != nil {
			result.Error = &ErrorResult{
				Type:     string(record.Error.Type),
				Message:  record.Error.Message,
				Position: record.Error.Position,
				Input:    record.Error.Input,
			}
		}
		return result
	}

	final := record.Final
	limits := limitsResult(record.Limits)
	trace := make([]TermResult, 0, len(record.Trace))
	for _, term := range record.Trace {
		rolls := make([]RollResult, 0, len(term.Rolls))
		for _, roll := range term.Rolls {
			rolls = append(rolls, RollResult{
				Value:         roll.Value,
				Success:       roll.Success,
				Explodes:      roll.Explodes,
				FromExplosion: roll.FromExplosion,
				Dropped:       roll.Dropped,
				RerolledFrom:  roll.RerolledFrom,
				RerollTrigger: roll.RerollTrigger,
				Compounded:    roll.Compounded,
			})
		}
		trace = append(trace, TermResult{
			Term:       term.Term,
			Type:       string(term.Type),
			Rolls:      rolls,
			KeptValues: term.KeptValues,
			Sum:        term.Sum,
			Successes:  term.Successes,
			Threshold:  term.Threshold,
		})
	}

	return RollDiceResult{
		OK:    true,
		Final: &final,
		Type:  string(record.Type),
		Trace: trace,
		Rng: &RngResult{
			Source: record.RNG.Source,
			Method: record.RNG.Method,
			Seed:   record.RNG.Seed,
		},
		Limits:  &limits,
		Version: record.Version,
	}
}

func limitsResult(limits dicecore.Limits) LimitsResult {
	return LimitsResult{
		MaxDice:       limits.MaxDice,
		MaxSides:      limits.MaxSides,
		MaxExplosions: limits.MaxExplosions,
		MaxRerolls:    limits.MaxRerolls,
		MaxRecursion:  limits.MaxRecursion,
	}
}
