package integration

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/thermal-monitor/internal/config"
	"github.com/oshokin/thermal-monitor/internal/domain/zone"
	"github.com/oshokin/thermal-monitor/internal/service/monitor"
)

// hotBase is above the alarm threshold so the simulated sensor fires immediately.
const (
	hotBase   = 45
	threshold = 40
)

// instance describes a running monitor.
type instance struct {
	// grpcAddr is the gRPC address clients dial.
	grpcAddr string
	// httpAddr is the HTTP API address.
	httpAddr string
	// configPath is the settings file the monitor was started with.
	configPath string
}

// reservePort returns a free loopback address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return addr
}

// startMonitor runs the monitor with a simulated hot sensor until the test ends.
func startMonitor(t *testing.T) *instance {
	t.Helper()

	dir := t.TempDir()
	inst := &instance{
		grpcAddr:   reservePort(t),
		httpAddr:   reservePort(t),
		configPath: filepath.Join(dir, "thermal-monitor.yaml"),
	}

	settings := &config.Config{
		Log: config.LogConfig{Level: "error"},
		Sensor: config.SensorConfig{
			Source:          config.SensorMock,
			RefreshInterval: 20 * time.Millisecond,
			BaseTemperature: hotBase,
		},
		Capture: config.CaptureConfig{BufferCapacity: 5, PostEventFrames: 3},
		Zones:   []zone.Zone{{ID: 1, Width: 4, Height: 4, Name: "Motor"}},
		Alarms: config.AlarmsConfig{
			File:        filepath.Join(dir, "alarms.yaml"),
			Definitions: []config.AlarmDefinition{{ID: 1, ZoneID: 1, Threshold: threshold}},
		},
		Server:  config.ServerConfig{GRPCAddress: inst.grpcAddr, HTTPAddress: inst.httpAddr},
		Timeout: 3 * time.Second,
	}
	require.NoError(t, config.Save(inst.configPath, settings))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- monitor.Run(ctx, &monitor.Options{ConfigPath: inst.configPath})
	}()

	t.Cleanup(func() {
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("monitor did not stop")
		}
	})

	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", inst.grpcAddr, 100*time.Millisecond)
		if err != nil {
			return false
		}

		_ = conn.Close()

		return true
	}, 5*time.Second, 20*time.Millisecond)

	return inst
}
