package zone

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// MaxZones is the number of zones a single sensor supports.
const MaxZones = 2

var (
	// ErrZoneLimit is returned when adding a zone beyond MaxZones.
	ErrZoneLimit = errors.New("zone limit reached")
	// ErrZoneNotFound is returned for unknown zone ids.
	ErrZoneNotFound = errors.New("zone not found")
	// ErrZoneInUse is returned when removing a zone that an alarm still watches.
	ErrZoneInUse = errors.New("zone in use")
)

// Registry holds the configured zones.
type Registry struct {
	// zones maps zone id to zone.
	zones map[int64]Zone
	// mu protects zones.
	mu sync.RWMutex
}

// NewRegistry builds a registry from the initial zone list.
func NewRegistry(initial ...Zone) (*Registry, error) {
	r := &Registry{
		zones: make(map[int64]Zone, MaxZones),
	}

	for _, z := range initial {
		if err := r.Add(z); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Add inserts or replaces a zone. Replacing an existing id never hits the limit.
func (r *Registry) Add(z Zone) error {
	if err := z.Validate(); err != nil {
		return err
	}

	z.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.zones[z.ID]; !exists && len(r.zones) >= MaxZones {
		return fmt.Errorf("%w: maximum of %d zones allowed", ErrZoneLimit, MaxZones)
	}

	r.zones[z.ID] = z

	return nil
}

// Remove deletes a zone.
func (r *Registry) Remove(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.zones[id]; !ok {
		return fmt.Errorf("%w: %d", ErrZoneNotFound, id)
	}

	delete(r.zones, id)

	return nil
}

// Get returns a zone by id.
func (r *Registry) Get(id int64) (Zone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	z, ok := r.zones[id]
	if !ok {
		return Zone{}, fmt.Errorf("%w: %d", ErrZoneNotFound, id)
	}

	return z, nil
}

// Exists reports whether a zone with the id is configured.
func (r *Registry) Exists(id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.zones[id]

	return ok
}

// List returns the zones ordered by id.
func (r *Registry) List() []Zone {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Zone, 0, len(r.zones))
	for _, z := range r.zones {
		out = append(out, z)
	}

	slices.SortFunc(out, func(a, b Zone) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})

	return out
}
