package zone

import (
	"errors"
	"fmt"

	"github.com/oshokin/thermal-monitor/internal/domain/thermal"
)

// DefaultColor is the display color assigned when none is configured.
const DefaultColor = "#FF0000"

// ErrInvalidZone is returned when a zone has a non-positive id or an empty region.
var ErrInvalidZone = errors.New("invalid zone")

// Zone is a named rectangle of the sensor grid.
type Zone struct {
	// ID uniquely identifies the zone.
	ID int64 `yaml:"id" json:"id"`
	// X is the left column of the region.
	X int `yaml:"x" json:"x"`
	// Y is the top row of the region.
	Y int `yaml:"y" json:"y"`
	// Width is the number of columns covered.
	Width int `yaml:"width" json:"width"`
	// Height is the number of rows covered.
	Height int `yaml:"height" json:"height"`
	// Name is a human-readable label.
	Name string `yaml:"name,omitempty" json:"name"`
	// Color is the display color of the zone overlay.
	Color string `yaml:"color,omitempty" json:"color"`
}

// Normalize fills the optional display fields with defaults.
func (z *Zone) Normalize() {
	if z.Name == "" {
		z.Name = fmt.Sprintf("Zone (%d,%d)", z.X, z.Y)
	}

	if z.Color == "" {
		z.Color = DefaultColor
	}
}

// Validate checks the identifier and the region size.
func (z *Zone) Validate() error {
	if z.ID <= 0 || z.Width <= 0 || z.Height <= 0 || z.X < 0 || z.Y < 0 {
		return fmt.Errorf("%w: id=%d region=(%d,%d %dx%d)", ErrInvalidZone, z.ID, z.X, z.Y, z.Width, z.Height)
	}

	return nil
}

// Average returns the mean reading of the zone pixels that fall inside the grid.
// The second result is false when the zone covers no valid pixel.
func (z *Zone) Average(frame *thermal.Frame) (float64, bool) {
	var (
		sum   float64
		count int
	)

	for row := z.Y; row < z.Y+z.Height && row < thermal.Rows; row++ {
		for col := z.X; col < z.X+z.Width && col < thermal.Columns; col++ {
			sum += float64(frame.At(col, row))
			count++
		}
	}

	if count == 0 {
		return 0, false
	}

	return sum / float64(count), true
}
