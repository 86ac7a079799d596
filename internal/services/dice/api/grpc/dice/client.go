package dice

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	dicecore "github.com/louisbranch/diceroller/internal/core/dice"
	apperrors "github.com/louisbranch/diceroller/internal/platform/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls a remote dice.v1.DiceService.
type Client struct {
	conn   grpc.ClientConnInterface
	locale string
}

// NewClient creates a client over conn. A non-empty locale is sent as the
// caller's accept-language preference.
func NewClient(conn grpc.ClientConnInterface, locale string) *Client {
	return &Client{conn: conn, locale: locale}
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	if c.locale == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, apperrors.LocaleMetadataKey, c.locale)
}

// Roll evaluates expression remotely. Evaluation failures reported by the
// server are returned as failure records; the error is reserved for
// transport and encoding problems.
func (c *Client) Roll(ctx context.Context, expression string, seed *uint64, opts ...grpc.CallOption) (dicecore.Record, error) {
	fields := map[string]any{fieldExpression: expression}
	if seed != nil {
		fields[fieldSeed] = strconv.FormatUint(*seed, 10)
	}
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return dicecore.Record{}, fmt.Errorf("encode roll request: %w", err)
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(c.outgoing(ctx), RollFullMethod, in, out, opts...); err != nil {
		if record, ok := RecordFromError(err); ok {
			return record, nil
		}
		return dicecore.Record{}, err
	}
	return decodeRecord(out)
}

// GetLimits returns the server's active limits profile.
func (c *Client) GetLimits(ctx context.Context, opts ...grpc.CallOption) (dicecore.Limits, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(c.outgoing(ctx), GetLimitsFullMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return dicecore.Limits{}, err
	}
	data, err := json.Marshal(out.AsMap())
	if err != nil {
		return dicecore.Limits{}, fmt.Errorf("decode limits: %w", err)
	}
	var limits dicecore.Limits
	if err := json.Unmarshal(data, &limits); err != nil {
		return dicecore.Limits{}, fmt.Errorf("decode limits: %w", err)
	}
	return limits, nil
}

// RecordFromError rebuilds the failure record carried by a DiceService
// status. ok is false for errors that are not evaluation failures.
func RecordFromError(err error) (dicecore.Record, bool) {
	details, ok := apperrors.FromStatus(err)
	if !ok {
		return dicecore.Record{}, false
	}
	kind := dicecore.Kind(details.Metadata[MetadataType])
	if kind == "" {
		return dicecore.Record{}, false
	}
	position, _ := strconv.Atoi(details.Metadata[MetadataPosition])
	return dicecore.NewErrorRecord(&dicecore.Error{
		Kind:     kind,
		Message:  details.Metadata[MetadataDetail],
		Position: position,
		Input:    details.Metadata[MetadataInput],
	}), true
}

func decodeRecord(payload *structpb.Struct) (dicecore.Record, error) {
	fields := payload.AsMap()
	if rng, ok := fields["rng"].(map[string]any); ok {
		if text, ok := rng["seed"].(string); ok {
			seed, err := strconv.ParseUint(text, 10, 64)
			if err != nil {
				return dicecore.Record{}, fmt.Errorf("decode seed %q: %w", text, err)
			}
			rng["seed"] = seed
		}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return dicecore.Record{}, fmt.Errorf("decode record: %w", err)
	}
	var record dicecore.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return dicecore.Record{}, fmt.Errorf("decode record: %w", err)
	}
	return record, nil
}
