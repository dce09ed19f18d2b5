package alarm

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
	"github.com/oshokin/thermal-monitor/internal/logger"
	"github.com/oshokin/thermal-monitor/internal/metrics"
	repo "github.com/oshokin/thermal-monitor/internal/repository/alarmconfig"
)

// DefaultEventLogSize bounds the in-process event log when no size is configured.
const DefaultEventLogSize = 1000

var (
	// ErrAlarmNotFound is returned for unknown alarm ids.
	ErrAlarmNotFound = errors.New("alarm not found")
	// ErrUnknownZone is returned when an alarm references a zone that is not configured.
	ErrUnknownZone = errors.New("unknown zone")
	// ErrInvalidAlarm is returned for configurations that fail validation.
	ErrInvalidAlarm = errors.New("invalid alarm")
)

// ZoneValidator reports whether a zone id is configured.
type ZoneValidator interface {
	Exists(id int64) bool
}

// Evaluator checks readings against the alarm configurations.
type Evaluator struct {
	// repo is the durable alarm configuration store.
	repo repo.Repository
	// zones rejects alarms on unknown zones when set.
	zones ZoneValidator
	// now supplies timestamps for acknowledgements.
	now func() time.Time
	// alarms caches the configurations keyed by id.
	alarms map[int64]*domain.Config
	// order holds the alarm ids ascending; evaluation follows it.
	order []int64
	// events is the bounded log of fired events, oldest first.
	events []domain.Event
	// eventLogSize caps len(events).
	eventLogSize int
	// enforceCooldown skips alarms that fired within their cooldown window.
	enforceCooldown bool
	// mu protects alarms, order and events.
	mu sync.RWMutex
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithZoneValidator rejects alarms on zones unknown to v.
func WithZoneValidator(v ZoneValidator) Option {
	return func(e *Evaluator) {
		e.zones = v
	}
}

// WithCooldownEnforcement toggles cooldown windows. Enabled by default.
func WithCooldownEnforcement(enabled bool) Option {
	return func(e *Evaluator) {
		e.enforceCooldown = enabled
	}
}

// WithEventLogSize bounds the event log.
func WithEventLogSize(size int) Option {
	return func(e *Evaluator) {
		if size > 0 {
			e.eventLogSize = size
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// AlarmOption customizes an alarm created by AddAlarm.
type AlarmOption func(*domain.Config)

// WithEnabled sets whether the alarm takes part in evaluation.
func WithEnabled(enabled bool) AlarmOption {
	return func(c *domain.Config) {
		c.Enabled = enabled
	}
}

// WithCooldown sets the minimum time between two events of the alarm.
func WithCooldown(cooldown time.Duration) AlarmOption {
	return func(c *domain.Config) {
		c.Cooldown = cooldown
	}
}

// NewEvaluator loads the configurations from repository.
func NewEvaluator(ctx context.Context, repository repo.Repository, opts ...Option) (*Evaluator, error) {
	e := &Evaluator{
		repo:            repository,
		now:             time.Now,
		alarms:          make(map[int64]*domain.Config),
		eventLogSize:    DefaultEventLogSize,
		enforceCooldown: true,
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := e.Reload(ctx); err != nil {
		return nil, err
	}

	return e, nil
}

// Reload replaces the cached configurations with the store contents.
func (e *Evaluator) Reload(ctx context.Context) error {
	if e.repo == nil {
		return nil
	}

	configs, err := e.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load alarms: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.alarms = make(map[int64]*domain.Config, len(configs))
	for id, cfg := range configs {
		e.alarms[id] = cfg.Clone()
	}

	e.reorder()

	logger.DebugKV(ctx, "Alarm configuration loaded", "alarms", len(e.alarms))

	return nil
}

// AddAlarm creates or replaces an alarm. New alarms are enabled with the default cooldown.
// Replacing an alarm keeps its last trigger time and acknowledgement, so an update
// does not restart the cooldown window.
func (e *Evaluator) AddAlarm(
	ctx context.Context,
	id, zoneID int64,
	threshold float64,
	opts ...AlarmOption,
) (*domain.Config, error) {
	cfg := &domain.Config{
		ID:        id,
		ZoneID:    zoneID,
		Threshold: threshold,
		Enabled:   true,
		Cooldown:  domain.DefaultCooldown,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: id=%d zone=%d", ErrInvalidAlarm, id, zoneID)
	}

	if e.zones != nil && !e.zones.Exists(zoneID) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownZone, zoneID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if prev, ok := e.alarms[id]; ok {
		cfg.LastTriggered = prev.LastTriggered
		cfg.Acknowledged = prev.Acknowledged
		cfg.AcknowledgedAt = prev.AcknowledgedAt
		cfg.AcknowledgedBy = prev.AcknowledgedBy
	}

	if err := e.persist(ctx, cfg); err != nil {
		return nil, err
	}

	e.alarms[id] = cfg
	e.reorder()

	logger.InfoKV(ctx, "Alarm configured",
		"alarm_id", id, "zone_id", zoneID, "threshold", threshold,
		"enabled", cfg.Enabled, "cooldown", cfg.Cooldown)

	return cfg.Clone(), nil
}

// RemoveAlarm deletes an alarm.
func (e *Evaluator) RemoveAlarm(ctx context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.alarms[id]; !ok {
		return fmt.Errorf("%w: %d", ErrAlarmNotFound, id)
	}

	if e.repo != nil {
		if err := e.repo.Delete(ctx, id); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("delete alarm %d: %w", id, err)
		}
	}

	delete(e.alarms, id)
	e.reorder()

	logger.InfoKV(ctx, "Alarm removed", "alarm_id", id)

	return nil
}

// Check evaluates a zone reading and returns the event of the first alarm it
// breaches, or nil. Alarms are visited in ascending id order.
func (e *Evaluator) Check(ctx context.Context, zoneID int64, temperature float64, ts time.Time) *domain.Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, id := range e.order {
		cfg := e.alarms[id]
		if !cfg.Matches(zoneID, temperature) {
			continue
		}

		if e.enforceCooldown && cfg.CoolingDown(ts) {
			logger.DebugKV(ctx, "Alarm cooling down", "alarm_id", id, "last_triggered", cfg.LastTriggered)

			continue
		}

		event := domain.Event{
			ID:           uuid.NewString(),
			AlarmID:      cfg.ID,
			ZoneID:       zoneID,
			Temperature:  temperature,
			Threshold:    cfg.Threshold,
			Timestamp:    ts,
			Type:         domain.EventTypeThreshold,
			Acknowledged: cfg.Acknowledged,
		}

		updated := cfg.Clone()
		updated.LastTriggered = ts

		// The event stands even when the timestamp cannot be stored.
		if err := e.persist(ctx, updated); err != nil {
			logger.WarnKV(ctx, "Failed to persist alarm trigger time", "alarm_id", id, "error", err)
		}

		e.alarms[id] = updated
		e.appendEvent(event)

		metrics.IncAlarmEvent(zoneID)
		logger.WarnKV(ctx, "Alarm triggered",
			"alarm_id", id, "zone_id", zoneID, "temperature", temperature,
			"threshold", cfg.Threshold, "event_id", event.ID)

		return &event
	}

	return nil
}

// Acknowledge marks an alarm as acknowledged by actor.
func (e *Evaluator) Acknowledge(ctx context.Context, id int64, actor string) (*domain.Config, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg, ok := e.alarms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrAlarmNotFound, id)
	}

	updated := cfg.Clone()
	updated.Acknowledged = true
	updated.AcknowledgedAt = e.now()
	updated.AcknowledgedBy = actor

	if err := e.persist(ctx, updated); err != nil {
		return nil, err
	}

	e.alarms[id] = updated

	logger.InfoKV(ctx, "Alarm acknowledged", "alarm_id", id, "actor", actor)

	return updated.Clone(), nil
}

// Alarm returns a copy of one configuration.
func (e *Evaluator) Alarm(id int64) (*domain.Config, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cfg, ok := e.alarms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrAlarmNotFound, id)
	}

	return cfg.Clone(), nil
}

// Alarms returns copies of every configuration ordered by id.
func (e *Evaluator) Alarms() []*domain.Config {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*domain.Config, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.alarms[id].Clone())
	}

	return out
}

// Events returns up to limit most recent events, oldest first. A non-positive limit returns all.
func (e *Evaluator) Events(limit int) []domain.Event {
	e.mu.RLock()
	defer e.mu.RUnlock()

	start := 0
	if limit > 0 && limit < len(e.events) {
		start = len(e.events) - limit
	}

	return slices.Clone(e.events[start:])
}

// persist writes cfg to the store. Caller holds mu.
func (e *Evaluator) persist(ctx context.Context, cfg *domain.Config) error {
	if e.repo == nil {
		return nil
	}

	if err := e.repo.Save(ctx, cfg); err != nil {
		return fmt.Errorf("save alarm %d: %w", cfg.ID, err)
	}

	return nil
}

// appendEvent adds to the log and trims the oldest entries. Caller holds mu.
func (e *Evaluator) appendEvent(event domain.Event) {
	e.events = append(e.events, event)

	if overflow := len(e.events) - e.eventLogSize; overflow > 0 {
		e.events = slices.Delete(e.events, 0, overflow)
	}
}

// reorder rebuilds the ascending id list. Caller holds mu.
func (e *Evaluator) reorder() {
	e.order = slices.Sorted(maps.Keys(e.alarms))
}
