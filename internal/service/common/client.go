//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	api "github.com/oshokin/thermal-monitor/internal/api/grpc/monitor"
	"github.com/oshokin/thermal-monitor/internal/config"
	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
	model "github.com/oshokin/thermal-monitor/internal/domain/monitor"
)

// Client wraps the MonitorService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection; nil when the client was built on a foreign connection.
	conn *grpc.ClientConn
	// api is the MonitorService client.
	api *api.MonitorClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errActorRequired is returned when an actor is not provided but is required for the operation.
	errActorRequired = errors.New("actor must be provided")
)

// Dial establishes a gRPC connection to the thermal monitor.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial thermal monitor: %w", err)
	}

	client := NewClient(conn, opts...)
	client.conn = conn

	return client, nil
}

// NewClient builds a client on an existing connection. Close does not close cc.
func NewClient(cc grpc.ClientConnInterface, opts ...Option) *Client {
	client := &Client{
		api:         api.NewMonitorClient(cc),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// GetStatus retrieves the monitor status.
func (c *Client) GetStatus(ctx context.Context) (*model.Status, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetStatus(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	status := new(model.Status)
	if err = api.FromStruct(resp, status); err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	return status, nil
}

// TriggerCapture asks the monitor to start a manual capture.
func (c *Client) TriggerCapture(ctx context.Context, actor *domain.Actor) (model.TriggerResult, error) {
	var result model.TriggerResult

	callCtx, cancel := c.callContext(withActor(ctx, actor))
	defer cancel()

	resp, err := c.api.TriggerCapture(callCtx, new(emptypb.Empty))
	if err != nil {
		return result, fmt.Errorf("trigger capture: %w", err)
	}

	if err = api.FromStruct(resp, &result); err != nil {
		return result, fmt.Errorf("trigger capture: %w", err)
	}

	return result, nil
}

// AcknowledgeAlarm acknowledges an alarm on behalf of actor.
func (c *Client) AcknowledgeAlarm(ctx context.Context, actor *domain.Actor, alarmID int64) error {
	if actor == nil {
		return errActorRequired
	}

	callCtx, cancel := c.callContext(withActor(ctx, actor))
	defer cancel()

	if _, err := c.api.AcknowledgeAlarm(callCtx, wrapperspb.Int64(alarmID)); err != nil {
		return fmt.Errorf("acknowledge alarm %d: %w", alarmID, err)
	}

	return nil
}

// ListEvents returns up to limit recent alarm events, oldest first. Zero means all.
func (c *Client) ListEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ListEvents(callCtx, wrapperspb.UInt32(clampLimit(limit)))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	var events []domain.Event
	if err = api.FromList(resp, &events); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	return events, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

// withActor attaches the actor to the outgoing request metadata.
func withActor(ctx context.Context, actor *domain.Actor) context.Context {
	if actor == nil {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx, api.ActorMetadataKey, actor.String())
}

func clampLimit(limit int) uint32 {
	switch {
	case limit <= 0:
		return 0
	case limit > math.MaxUint32:
		return math.MaxUint32
	default:
		return uint32(limit)
	}
}
