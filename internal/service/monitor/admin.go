package monitor

import (
	"context"
	"fmt"

	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
	"github.com/oshokin/thermal-monitor/internal/domain/zone"
	"github.com/oshokin/thermal-monitor/internal/logger"
	alarmsvc "github.com/oshokin/thermal-monitor/internal/service/alarm"
)

// Zones returns the configured zones ordered by id.
func (p *Pipeline) Zones() []zone.Zone {
	return p.deps.Zones.List()
}

// AddZone inserts or replaces a zone and returns it with display defaults applied.
func (p *Pipeline) AddZone(ctx context.Context, z zone.Zone) (zone.Zone, error) {
	p.admin.Lock()
	defer p.admin.Unlock()

	if err := p.deps.Zones.Add(z); err != nil {
		return zone.Zone{}, err
	}

	stored, err := p.deps.Zones.Get(z.ID)
	if err != nil {
		return zone.Zone{}, err
	}

	logger.InfoKV(ctx, "Zone configured",
		"zone_id", stored.ID, "x", stored.X, "y", stored.Y,
		"width", stored.Width, "height", stored.Height)

	return stored, nil
}

// RemoveZone deletes a zone. A zone watched by an alarm is kept and ErrZoneInUse is returned.
func (p *Pipeline) RemoveZone(ctx context.Context, id int64) error {
	p.admin.Lock()
	defer p.admin.Unlock()

	if !p.deps.Zones.Exists(id) {
		return fmt.Errorf("%w: %d", zone.ErrZoneNotFound, id)
	}

	for _, cfg := range p.deps.Evaluator.Alarms() {
		if cfg.ZoneID == id {
			return fmt.Errorf("%w: zone %d is watched by alarm %d", zone.ErrZoneInUse, id, cfg.ID)
		}
	}

	if err := p.deps.Zones.Remove(id); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Zone removed", "zone_id", id)

	return nil
}

// Alarms returns every alarm configuration ordered by id.
func (p *Pipeline) Alarms() []*domain.Config {
	return p.deps.Evaluator.Alarms()
}

// ConfigureAlarm creates or replaces an alarm on an existing zone.
func (p *Pipeline) ConfigureAlarm(
	ctx context.Context,
	id, zoneID int64,
	threshold float64,
	opts ...alarmsvc.AlarmOption,
) (*domain.Config, error) {
	p.admin.Lock()
	defer p.admin.Unlock()

	return p.deps.Evaluator.AddAlarm(ctx, id, zoneID, threshold, opts...)
}

// RemoveAlarm deletes an alarm.
func (p *Pipeline) RemoveAlarm(ctx context.Context, id int64) error {
	p.admin.Lock()
	defer p.admin.Unlock()

	return p.deps.Evaluator.RemoveAlarm(ctx, id)
}

// ReloadAlarms replaces the cached alarms with the contents of the alarm store.
func (p *Pipeline) ReloadAlarms(ctx context.Context) error {
	p.admin.Lock()
	defer p.admin.Unlock()

	return p.deps.Evaluator.Reload(ctx)
}
