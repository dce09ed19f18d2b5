package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/thermal-monitor/internal/config"
	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
	model "github.com/oshokin/thermal-monitor/internal/domain/monitor"
	"github.com/oshokin/thermal-monitor/internal/logger"
	"github.com/oshokin/thermal-monitor/internal/service/common"
)

// Action selects the operation performed by Run.
type Action string

const (
	// ActionAcknowledge acknowledges Options.AlarmID.
	ActionAcknowledge Action = "acknowledge"
	// ActionTrigger starts a manual capture.
	ActionTrigger Action = "trigger"
)

// Options configures one operator action.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// Action is the operation to perform.
	Action Action

	// AlarmID is the alarm to acknowledge.
	AlarmID int64
}

// defaultPushInterval defines the retry delay between two failed attempts.
const defaultPushInterval = 1 * time.Second

var (
	// errUnknownAction is returned for an unsupported Options.Action.
	errUnknownAction = errors.New("unknown action")
	// errInvalidAlarmID is returned when an acknowledgement names no alarm.
	errInvalidAlarmID = errors.New("alarm id must be positive")
)

// operator is the part of the client the actions need.
type operator interface {
	AcknowledgeAlarm(ctx context.Context, actor *domain.Actor, alarmID int64) error
	TriggerCapture(ctx context.Context, actor *domain.Actor) (model.TriggerResult, error)
}

// Run performs the requested action with retry logic until success or cancellation.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "thermal-"+string(opts.Action))

	if err := validate(opts); err != nil {
		return err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	serverAddress := cfg.Server.GRPCAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Sending operator action",
		"server_address", serverAddress,
		"action", opts.Action,
		"alarm_id", opts.AlarmID,
		"actor", actor.String(),
	)

	return retry(ctx, defaultPushInterval, func() error {
		return perform(ctx, client, actor, opts)
	})
}

func validate(opts *Options) error {
	switch opts.Action {
	case ActionAcknowledge:
		if opts.AlarmID <= 0 {
			return errInvalidAlarmID
		}
	case ActionTrigger:
	default:
		return fmt.Errorf("%w: %q", errUnknownAction, opts.Action)
	}

	return nil
}

// perform runs the action once.
func perform(ctx context.Context, client operator, actor *domain.Actor, opts *Options) error {
	switch opts.Action {
	case ActionAcknowledge:
		if err := client.AcknowledgeAlarm(ctx, actor, opts.AlarmID); err != nil {
			return err
		}

		logger.Infof(ctx, "Alarm %d acknowledged by %s", opts.AlarmID, actor)
	case ActionTrigger:
		result, err := client.TriggerCapture(ctx, actor)
		if err != nil {
			return err
		}

		if !result.Started {
			logger.Infof(ctx, "Capture already running, request %s ignored", result.EventID)

			return nil
		}

		logger.Infof(ctx, "Capture %s started", result.EventID)
	default:
		return fmt.Errorf("%w: %q", errUnknownAction, opts.Action)
	}

	return nil
}

// retry calls attempt immediately and then on every tick until it succeeds,
// fails permanently or ctx is canceled.
func retry(ctx context.Context, interval time.Duration, attempt func() error) error {
	err := attempt()
	if err == nil || permanent(err) {
		return err
	}

	logger.ErrorKV(ctx, "Operator action failed, retrying", "error", err)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			err = attempt()
			if err == nil || permanent(err) {
				return err
			}

			logger.ErrorKV(ctx, "Operator action failed, retrying", "error", err)
		}
	}
}

// permanent reports whether retrying cannot change the outcome.
func permanent(err error) bool {
	switch status.Code(err) {
	case codes.InvalidArgument, codes.NotFound, codes.Unimplemented:
		return true
	default:
		return errors.Is(err, errUnknownAction)
	}
}
