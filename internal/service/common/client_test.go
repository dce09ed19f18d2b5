//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	api "github.com/oshokin/thermal-monitor/internal/api/grpc/monitor"
	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
	model "github.com/oshokin/thermal-monitor/internal/domain/monitor"
)

// stubService is a minimal monitor behind the real transport.
type stubService struct {
	// actor records the actor of the last acknowledgement.
	actor string
	// limit records the last requested event limit.
	limit int
	// mu protects actor and limit.
	mu sync.Mutex
}

// Status returns an idle monitor.
func (s *stubService) Status(context.Context) *model.Status {
	return &model.Status{
		Capture:        model.Capture{Buffered: 3},
		LastFrameAt:    time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
		MaxTemperature: 33.5,
	}
}

// TriggerCapture reports a started capture.
func (s *stubService) TriggerCapture(context.Context) model.TriggerResult {
	return model.TriggerResult{EventID: "manual-1", Started: true}
}

// AcknowledgeAlarm records the actor.
func (s *stubService) AcknowledgeAlarm(_ context.Context, id int64, actor string) (*domain.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.actor = actor

	return &domain.Config{ID: id, Acknowledged: true}, nil
}

// Events returns one event and records the limit.
func (s *stubService) Events(_ context.Context, limit int) []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.limit = limit

	return []domain.Event{{ID: "evt-1", AlarmID: 1, ZoneID: 2, Temperature: 41, Threshold: 40, Type: domain.EventTypeThreshold}}
}

func newBufClient(t *testing.T, svc api.Service) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	api.RegisterMonitorServer(srv, api.NewServer(svc))

	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		srv.Stop()
	})

	return NewClient(conn, WithCallTimeout(time.Second))
}

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, c)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// TestAcknowledgeAlarm_NilActor asserts that a nil actor is rejected by the client.
func TestAcknowledgeAlarm_NilActor(t *testing.T) {
	t.Parallel()

	c := new(Client)

	err := c.AcknowledgeAlarm(context.Background(), nil, 1)
	require.ErrorIs(t, err, errActorRequired)
}

// TestClient_RoundTrip decodes every response into the read models.
func TestClient_RoundTrip(t *testing.T) {
	t.Parallel()

	svc := new(stubService)
	c := newBufClient(t, svc)
	ctx := context.Background()

	status, err := c.GetStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, status.Capture.Buffered)
	require.InDelta(t, 33.5, status.MaxTemperature, 1e-9)
	require.True(t, status.LastFrameAt.Equal(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)))

	result, err := c.TriggerCapture(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, model.TriggerResult{EventID: "manual-1", Started: true}, result)

	require.NoError(t, c.AcknowledgeAlarm(ctx, &domain.Actor{Hostname: "plc-01", Username: "ops"}, 4))

	svc.mu.Lock()
	require.Equal(t, "ops@plc-01", svc.actor)
	svc.mu.Unlock()

	events, err := c.ListEvents(ctx, 25)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "evt-1", events[0].ID)
	require.Equal(t, int64(2), events[0].ZoneID)

	svc.mu.Lock()
	require.Equal(t, 25, svc.limit)
	svc.mu.Unlock()
}

// TestClampLimit keeps limits inside the wire range.
func TestClampLimit(t *testing.T) {
	t.Parallel()

	require.Equal(t, uint32(0), clampLimit(-5))
	require.Equal(t, uint32(10), clampLimit(10))
}
