// Package dice exposes the dice roller as the dice.v1.DiceService gRPC API.
package dice

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	dicecore "github.com/louisbranch/diceroller/internal/core/dice"
	apperrors "github.com/louisbranch/diceroller/internal/platform/errors"
	"github.com/louisbranch/diceroller/internal/services/dice/roller"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Request field names.
const (
	fieldExpression = "expression"
	fieldSeed       = "seed"
)

// maxExactSeed is the largest seed a Struct number holds without loss.
const maxExactSeed = 1 << 53

// Service exposes dice.v1 gRPC operations.
type Service struct {
	roller *roller.Roller
}

var _ DiceServiceServer = (*Service)(nil)

// NewService creates a dice service backed by r.
func NewService(r *roller.Roller) *Service {
	return &Service{roller: r}
}

// Roll evaluates one expression. Evaluation failures become gRPC errors
// carrying ErrorInfo and a localized message.
func (s *Service) Roll(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "roll request is required")
	}
	if s == nil || s.roller == nil {
		return nil, status.Error(codes.Internal, "dice roller is not configured")
	}
	locale := apperrors.LocaleFromContext(ctx)

	request, err := parseRollRequest(in)
	if err != nil {
		return nil, apperrors.HandleError(err, locale)
	}

	record := s.roller.Roll(ctx, request)
	if !record.OK {
		return nil, apperrors.HandleError(domainError(record.Error), locale)
	}
	payload, err := recordStruct(record)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode record: %v", err)
	}
	return payload, nil
}

// GetLimits returns the active limits profile.
func (s *Service) GetLimits(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	if s == nil || s.roller == nil {
		return nil, status.Error(codes.Internal, "dice roller is not configured")
	}
	payload, err := toStruct(s.roller.Limits())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode limits: %v", err)
	}
	return payload, nil
}

func parseRollRequest(in *structpb.Struct) (roller.Request, error) {
	fields := in.GetFields()
	expression, ok := fields[fieldExpression].GetKind().(*structpb.Value_StringValue)
	if !ok || strings.TrimSpace(expression.StringValue) == "" {
		return roller.Request{}, invalidRequest("expression must be a non-empty string")
	}
	seed, err := parseSeed(fields[fieldSeed])
	if err != nil {
		return roller.Request{}, err
	}
	return roller.Request{Expression: expression.StringValue, Seed: seed}, nil
}

// parseSeed accepts a whole number up to 2^53 or a decimal string for the
// full uint64 range. Absent and null mean unseeded.
func parseSeed(value *structpb.Value) (*uint64, error) {
	switch kind := value.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n < 0 || n > maxExactSeed || n != math.Trunc(n) {
			return nil, invalidRequest(fmt.Sprintf("seed %v must be a whole number between 0 and 2^53", n))
		}
		seed := uint64(n)
		return &seed, nil
	case *structpb.Value_StringValue:
		seed, err := strconv.ParseUint(strings.TrimSpace(kind.StringValue), 10, 64)
		if err != nil {
			return nil, invalidRequest(fmt.Sprintf("seed %q is not an unsigned 64-bit integer", kind.StringValue))
		}
		return &seed, nil
	default:
		return nil, invalidRequest("seed must be a number or a decimal string")
	}
}

func invalidRequest(detail string) *apperrors.Error {
	return apperrors.WrapWithMetadata(apperrors.CodeInvalidRequest, detail, map[string]string{"detail": detail}, nil)
}

var kindCodes = map[dicecore.Kind]apperrors.Code{
	dicecore.KindParse:    apperrors.CodeDiceParse,
	dicecore.KindSemantic: apperrors.CodeDiceSemantic,
	dicecore.KindLimit:    apperrors.CodeDiceLimit,
	dicecore.KindRuntime:  apperrors.CodeDiceRuntime,
}

// Metadata keys of the ErrorInfo attached to evaluation failures.
const (
	MetadataType     = "type"
	MetadataPosition = "position"
	MetadataInput    = "input"
	MetadataDetail   = "detail"
)

func domainError(rec *dicecore.ErrorRecord) *apperrors.Error {
	code, ok := kindCodes[rec.Type]
	if !ok {
		code = apperrors.CodeDiceRuntime
	}
	return apperrors.WrapWithMetadata(code,
		fmt.Sprintf("%s at %d: %s", rec.Type, rec.Position, rec.Message),
		map[string]string{
			MetadataType:     string(rec.Type),
			MetadataPosition: strconv.Itoa(rec.Position),
			MetadataInput:    rec.Input,
			MetadataDetail:   rec.Message,
		}, nil)
}

// recordStruct renders the JSON record as a Struct. Seeds beyond 2^53 are
// sent as decimal strings.
func recordStruct(record dicecore.Record) (*structpb.Struct, error) {
	payload, err := toMap(record)
	if err != nil {
		return nil, err
	}
	if seed := record.RNG.Seed; seed != nil && *seed > maxExactSeed {
		if rng, ok := payload["rng"].(map[string]any); ok {
			rng["seed"] = strconv.FormatUint(*seed, 10)
		}
	}
	return structpb.NewStruct(payload)
}

func toStruct(v any) (*structpb.Struct, error) {
	payload, err := toMap(v)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(payload)
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
