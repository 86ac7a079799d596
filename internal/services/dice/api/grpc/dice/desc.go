package dice

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Service and method names of dice.v1.DiceService.
const (
	ServiceName           = "dice.v1.DiceService"
	RollFullMethod        = "/dice.v1.DiceService/Roll"
	GetLimitsFullMethod   = "/dice.v1.DiceService/GetLimits"
	serviceDescriptorFile = "dice/v1/dice.proto"
)

// DiceServiceServer is the server API for dice.v1.DiceService. Messages are
// well-known types: a Roll request is a Struct {expression, seed?} and every
// response is the JSON result record as a Struct.
type DiceServiceServer interface {
	Roll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetLimits(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterDiceServiceServer registers srv on registrar.
func RegisterDiceServiceServer(registrar grpc.ServiceRegistrar, srv DiceServiceServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes dice.v1.DiceService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DiceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Roll",
			Handler:    rollHandler,
		},
		{
			MethodName: "GetLimits",
			Handler:    getLimitsHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: serviceDescriptorFile,
}

func rollHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DiceServiceServer).Roll(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RollFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DiceServiceServer).Roll(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getLimitsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DiceServiceServer).GetLimits(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetLimitsFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DiceServiceServer).GetLimits(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
