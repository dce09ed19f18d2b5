package sensor

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/oshokin/thermal-monitor/internal/domain/thermal"
)

// MockReader generates frames with Gaussian noise around a base temperature.
type MockReader struct {
	// base is the mean reading in °C.
	base float64
	// noise is the standard deviation in °C.
	noise float64
	// rnd is the noise source.
	rnd *rand.Rand
	// mu protects rnd.
	mu sync.Mutex
}

// NewMockReader creates a mock sensor with a deterministic seed.
func NewMockReader(base, noise float64, seed uint64) *MockReader {
	return &MockReader{
		base:  base,
		noise: noise,
		rnd:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), //nolint:gosec // Simulated readings.
	}
}

// SetBase changes the mean reading, which lets tests and demos push a zone over a threshold.
func (m *MockReader) SetBase(base float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.base = base
}

// ReadFrame implements Reader.
func (m *MockReader) ReadFrame(ctx context.Context) (thermal.Frame, error) {
	var frame thermal.Frame

	if err := ctx.Err(); err != nil {
		return frame, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range frame {
		frame[i] = float32(m.base + m.rnd.NormFloat64()*m.noise)
	}

	return frame, nil
}
