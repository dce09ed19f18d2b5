package sensor

import (
	"context"
	"errors"

	"github.com/oshokin/thermal-monitor/internal/domain/thermal"
)

var (
	// ErrReadFailed is returned when every read attempt failed.
	ErrReadFailed = errors.New("failed to read thermal frame")
	// ErrNoFrame is returned when no frame arrived within the read timeout.
	ErrNoFrame = errors.New("no frame received")
)

// Reader produces thermal frames.
type Reader interface {
	ReadFrame(ctx context.Context) (thermal.Frame, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(ctx context.Context) (thermal.Frame, error)

// ReadFrame implements Reader.
func (f ReaderFunc) ReadFrame(ctx context.Context) (thermal.Frame, error) {
	return f(ctx)
}
