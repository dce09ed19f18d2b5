package logger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrUnknownLevel is returned for a level name ParseLogLevel does not recognize.
var ErrUnknownLevel = errors.New("unknown log level")

// overrideCore replaces the level check of the wrapped core, so a component can be
// more or less verbose than the global logger.
type overrideCore struct {
	zapcore.Core

	// level decides which entries reach the wrapped core.
	level zapcore.LevelEnabler
}

// Enabled reports whether the override lets entries of level l through.
func (c *overrideCore) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l)
}

// Check adds the core to the checked entry when the override enables its level.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *overrideCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}

	return ce
}

// With keeps the override on the derived core.
//
//nolint:ireturn,nolintlint // Returning zapcore.Core is intended for zap integration.
func (c *overrideCore) With(fields []zapcore.Field) zapcore.Core {
	return &overrideCore{
		Core:  c.Core.With(fields),
		level: c.level,
	}
}

// WithLevel returns a zap option that gates the logger at lvl instead of its own level.
//
//nolint:ireturn,nolintlint // Returning zap.Option is intended for zap integration.
func WithLevel(lvl zapcore.LevelEnabler) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &overrideCore{Core: core, level: lvl}
	})
}

// ComponentLevels maps a component name to the level its logger is gated at.
type ComponentLevels map[string]zapcore.Level

// ParseComponentLevels converts name to level-name pairs, as found in the log.components setting.
func ParseComponentLevels(raw map[string]string) (ComponentLevels, error) {
	levels := make(ComponentLevels, len(raw))

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		lvl, ok := ParseLogLevel(raw[name])
		if !ok {
			return nil, fmt.Errorf("%w: %q for component %q", ErrUnknownLevel, raw[name], name)
		}

		levels[name] = lvl
	}

	return levels, nil
}

// Apply returns ctx with the level override of component, or ctx unchanged
// when the component has none.
func (l ComponentLevels) Apply(ctx context.Context, component string) context.Context {
	lvl, ok := l[component]
	if !ok {
		return ctx
	}

	return WithLevelOverride(ctx, lvl)
}
