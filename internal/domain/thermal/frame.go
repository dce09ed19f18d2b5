package thermal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// Columns is the sensor width in pixels.
	Columns = 32
	// Rows is the sensor height in pixels.
	Rows = 24
	// FrameSize is the number of readings in one frame.
	FrameSize = Columns * Rows
	// FrameByteLength is the size of a packed frame: one float32 per reading.
	FrameByteLength = FrameSize * 4
)

// ErrFrameLength is returned when a payload or slice does not match FrameSize.
var ErrFrameLength = errors.New("unexpected frame length")

// Frame holds one full sensor reading in degrees Celsius, row-major.
type Frame [FrameSize]float32

// Entry is a frame paired with its capture timestamp.
type Entry struct {
	// Timestamp is when the frame was captured.
	Timestamp time.Time
	// Frame is the captured reading.
	Frame Frame
}

// Phase tells whether a persisted frame belongs to the pre-event window or the post-event tail.
type Phase string

const (
	// PhasePreEvent marks frames flushed from the buffer when the event fired.
	PhasePreEvent Phase = "pre"
	// PhasePostEvent marks frames persisted one by one after the event fired.
	PhasePostEvent Phase = "post"
)

// Record is a serialized frame handed to a frame store.
type Record struct {
	// EventID links the frame to the capture it belongs to.
	EventID string
	// Phase is the capture phase the frame was persisted in.
	Phase Phase
	// CapturedAt is the original capture timestamp.
	CapturedAt time.Time
	// Payload is the packed frame (see Frame.MarshalBinary).
	Payload []byte
	// ByteLength is len(Payload), stored for integrity checks by readers.
	ByteLength int
}

// NewRecord packs an entry into a Record.
func NewRecord(eventID string, phase Phase, entry Entry) Record {
	payload := entry.Frame.Pack()

	return Record{
		EventID:    eventID,
		Phase:      phase,
		CapturedAt: entry.Timestamp,
		Payload:    payload,
		ByteLength: len(payload),
	}
}

// FromSlice converts sensor readings into a Frame.
func FromSlice(values []float64) (Frame, error) {
	var f Frame

	if len(values) != FrameSize {
		return f, fmt.Errorf("%w: got %d values, want %d", ErrFrameLength, len(values), FrameSize)
	}

	for i, v := range values {
		f[i] = float32(v)
	}

	return f, nil
}

// Fill returns a frame with every reading set to v.
func Fill(v float32) Frame {
	var f Frame
	for i := range f {
		f[i] = v
	}

	return f
}

// At returns the reading at column x, row y.
func (f *Frame) At(x, y int) float32 {
	return f[y*Columns+x]
}

// Max returns the hottest reading of the frame.
func (f *Frame) Max() float32 {
	peak := f[0]
	for _, v := range f[1:] {
		if v > peak {
			peak = v
		}
	}

	return peak
}

// Values returns the readings as float64, the representation used by the HTTP surface.
func (f *Frame) Values() []float64 {
	out := make([]float64, FrameSize)
	for i, v := range f {
		out[i] = float64(v)
	}

	return out
}

// Pack encodes the frame as little-endian IEEE-754 float32 values, row-major, without a header.
func (f *Frame) Pack() []byte {
	buf := make([]byte, FrameByteLength)
	for i, v := range f {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}

	return buf
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (f Frame) MarshalBinary() ([]byte, error) {
	return f.Pack(), nil
}

// UnmarshalFrame decodes a packed frame. The payload must be exactly FrameByteLength bytes.
func UnmarshalFrame(payload []byte) (Frame, error) {
	var f Frame

	if len(payload) != FrameByteLength {
		return f, fmt.Errorf("%w: got %d bytes, want %d", ErrFrameLength, len(payload), FrameByteLength)
	}

	for i := range f {
		f[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:]))
	}

	return f, nil
}
