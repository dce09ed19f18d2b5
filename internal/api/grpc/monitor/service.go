package monitor

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "thermal.v1.MonitorService"

// Full method names.
const (
	MethodGetStatus        = "/" + ServiceName + "/GetStatus"
	MethodTriggerCapture   = "/" + ServiceName + "/TriggerCapture"
	MethodAcknowledgeAlarm = "/" + ServiceName + "/AcknowledgeAlarm"
	MethodListEvents       = "/" + ServiceName + "/ListEvents"
)

// ActorMetadataKey carries the acting operator (user@host) in request metadata.
const ActorMetadataKey = "x-thermal-actor"

// MonitorServer is the server API of MonitorService.
type MonitorServer interface {
	// GetStatus returns the monitor.Status document.
	GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	// TriggerCapture starts a manual capture and returns the monitor.TriggerResult document.
	TriggerCapture(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	// AcknowledgeAlarm acknowledges the alarm with the given id.
	AcknowledgeAlarm(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error)
	// ListEvents returns up to limit recent alarm events; zero means all.
	ListEvents(ctx context.Context, req *wrapperspb.UInt32Value) (*structpb.ListValue, error)
}

// ServiceDesc describes MonitorService for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MonitorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStatus", Handler: getStatusHandler},
		{MethodName: "TriggerCapture", Handler: triggerCaptureHandler},
		{MethodName: "AcknowledgeAlarm", Handler: acknowledgeAlarmHandler},
		{MethodName: "ListEvents", Handler: listEventsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "thermal/v1/monitor.proto",
}

// RegisterMonitorServer registers srv on s.
func RegisterMonitorServer(s grpc.ServiceRegistrar, srv MonitorServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func getStatusHandler(
	srv any,
	ctx context.Context, //nolint:revive // Signature fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(MonitorServer).GetStatus(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetStatus}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MonitorServer).GetStatus(ctx, req.(*emptypb.Empty))
	}

	return interceptor(ctx, in, info, handler)
}

func triggerCaptureHandler(
	srv any,
	ctx context.Context, //nolint:revive // Signature fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(MonitorServer).TriggerCapture(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodTriggerCapture}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MonitorServer).TriggerCapture(ctx, req.(*emptypb.Empty))
	}

	return interceptor(ctx, in, info, handler)
}

func acknowledgeAlarmHandler(
	srv any,
	ctx context.Context, //nolint:revive // Signature fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(MonitorServer).AcknowledgeAlarm(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodAcknowledgeAlarm}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MonitorServer).AcknowledgeAlarm(ctx, req.(*wrapperspb.Int64Value))
	}

	return interceptor(ctx, in, info, handler)
}

func listEventsHandler(
	srv any,
	ctx context.Context, //nolint:revive // Signature fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(wrapperspb.UInt32Value)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(MonitorServer).ListEvents(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodListEvents}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MonitorServer).ListEvents(ctx, req.(*wrapperspb.UInt32Value))
	}

	return interceptor(ctx, in, info, handler)
}

// MonitorClient calls MonitorService.
type MonitorClient struct {
	// cc is the client connection.
	cc grpc.ClientConnInterface
}

// NewMonitorClient creates a client on cc.
func NewMonitorClient(cc grpc.ClientConnInterface) *MonitorClient {
	return &MonitorClient{cc: cc}
}

// GetStatus calls MonitorService.GetStatus.
func (c *MonitorClient) GetStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetStatus, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// TriggerCapture calls MonitorService.TriggerCapture.
func (c *MonitorClient) TriggerCapture(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodTriggerCapture, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// AcknowledgeAlarm calls MonitorService.AcknowledgeAlarm.
func (c *MonitorClient) AcknowledgeAlarm(
	ctx context.Context,
	in *wrapperspb.Int64Value,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, MethodAcknowledgeAlarm, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// ListEvents calls MonitorService.ListEvents.
func (c *MonitorClient) ListEvents(
	ctx context.Context,
	in *wrapperspb.UInt32Value,
	opts ...grpc.CallOption,
) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, MethodListEvents, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
