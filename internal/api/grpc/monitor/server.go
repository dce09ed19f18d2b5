package monitor

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
	model "github.com/oshokin/thermal-monitor/internal/domain/monitor"
	"github.com/oshokin/thermal-monitor/internal/logger"
	alarmsvc "github.com/oshokin/thermal-monitor/internal/service/alarm"
)

// unknownActor is recorded when a request carries no actor metadata.
const unknownActor = "unknown"

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Status(ctx context.Context) *model.Status
	TriggerCapture(ctx context.Context) model.TriggerResult
	AcknowledgeAlarm(ctx context.Context, alarmID int64, actor string) (*domain.Config, error)
	Events(ctx context.Context, limit int) []domain.Event
}

// Server implements MonitorServer on top of a Service.
type Server struct {
	// service provides the monitor operations.
	service Service
}

var _ MonitorServer = (*Server)(nil)

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// GetStatus returns the monitor status.
func (s *Server) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	result, err := ToStruct(s.service.Status(ctx))
	if err != nil {
		logger.ErrorKV(ctx, "Failed to encode status", "error", err)

		return nil, status.Error(codes.Internal, "unable to encode status")
	}

	return result, nil
}

// TriggerCapture starts a manual capture.
func (s *Server) TriggerCapture(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	res := s.service.TriggerCapture(ctx)

	logger.InfoKV(ctx, "Manual capture requested", "event_id", res.EventID, "started", res.Started, "actor", actorFrom(ctx))

	result, err := ToStruct(res)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode trigger result")
	}

	return result, nil
}

// AcknowledgeAlarm acknowledges one alarm on behalf of the calling actor.
func (s *Server) AcknowledgeAlarm(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	if req == nil || req.GetValue() <= 0 {
		return nil, status.Error(codes.InvalidArgument, "positive alarm id is required")
	}

	_, err := s.service.AcknowledgeAlarm(ctx, req.GetValue(), actorFrom(ctx))

	switch {
	case err == nil:
		return new(emptypb.Empty), nil
	case errors.Is(err, alarmsvc.ErrAlarmNotFound):
		return nil, status.Errorf(codes.NotFound, "alarm %d not found", req.GetValue())
	default:
		logger.ErrorKV(ctx, "Failed to acknowledge alarm", "alarm_id", req.GetValue(), "error", err)

		return nil, status.Error(codes.Internal, "unable to persist acknowledgement")
	}
}

// ListEvents returns recent alarm events, oldest first.
func (s *Server) ListEvents(ctx context.Context, req *wrapperspb.UInt32Value) (*structpb.ListValue, error) {
	events := s.service.Events(ctx, int(req.GetValue()))
	if events == nil {
		events = []domain.Event{}
	}

	result, err := ToList(events)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode events")
	}

	return result, nil
}

// actorFrom reads the acting operator from request metadata.
func actorFrom(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return unknownActor
	}

	if values := md.Get(ActorMetadataKey); len(values) > 0 && values[0] != "" {
		return values[0]
	}

	return unknownActor
}
