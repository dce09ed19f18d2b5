package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "thermal_"

	// ResultSuccess labels a successful operation.
	ResultSuccess = "success"
	// ResultError labels a failed operation.
	ResultError = "error"
	// ResultDropped labels work discarded because a queue was full.
	ResultDropped = "dropped"

	// TriggerStarted labels a trigger that opened a new capture.
	TriggerStarted = "started"
	// TriggerIgnored labels a trigger swallowed by an active capture.
	TriggerIgnored = "ignored"
)

var (
	registerOnce sync.Once

	framesCaptured  prometheus.Counter
	framesPersisted *prometheus.CounterVec
	captureTriggers *prometheus.CounterVec
	alarmEvents     *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	sensorErrors    prometheus.Counter

	bufferSize    prometheus.Gauge
	captureActive prometheus.Gauge
)

// Init creates the collectors and registers them with registerer.
// A nil registerer means prometheus.DefaultRegisterer. Only the first call has an effect.
func Init(registerer prometheus.Registerer) {
	registerOnce.Do(func() {
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}

		framesCaptured = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "frames_captured_total",
				Help: "Total frames received from the sensor",
			},
		)
		framesPersisted = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "frames_persisted_total",
				Help: "Total frame writes by capture phase and result",
			},
			[]string{"phase", "result"},
		)
		captureTriggers = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "capture_triggers_total",
				Help: "Total capture triggers by outcome",
			},
			[]string{"outcome"},
		)
		alarmEvents = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alarm_events_total",
				Help: "Total alarm events by zone",
			},
			[]string{"zone"},
		)
		notifications = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_total",
				Help: "Total notification attempts by channel and result",
			},
			[]string{"channel", "result"},
		)
		sensorErrors = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "sensor_read_errors_total",
				Help: "Total sensor reads that failed after retries",
			},
		)
		bufferSize = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "frame_buffer_size",
				Help: "Frames currently held in the pre-event buffer",
			},
		)
		captureActive = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "capture_active",
				Help: "1 while a post-event capture is in progress",
			},
		)

		registerer.MustRegister(
			framesCaptured,
			framesPersisted,
			captureTriggers,
			alarmEvents,
			notifications,
			sensorErrors,
			bufferSize,
			captureActive,
		)
	})
}

// IncFrameCaptured counts a frame received from the sensor.
func IncFrameCaptured() {
	if framesCaptured != nil {
		framesCaptured.Inc()
	}
}

// IncFramePersisted counts a frame write attempt.
func IncFramePersisted(phase, result string) {
	if result == "" {
		result = ResultSuccess
	}
	if framesPersisted != nil {
		framesPersisted.WithLabelValues(phase, result).Inc()
	}
}

// IncCaptureTrigger counts a trigger by outcome.
func IncCaptureTrigger(outcome string) {
	if captureTriggers != nil {
		captureTriggers.WithLabelValues(outcome).Inc()
	}
}

// IncAlarmEvent counts an alarm event for the zone.
func IncAlarmEvent(zoneID int64) {
	if alarmEvents != nil {
		alarmEvents.WithLabelValues(strconv.FormatInt(zoneID, 10)).Inc()
	}
}

// IncNotification counts a notification attempt.
func IncNotification(channel, result string) {
	if channel == "" {
		channel = "unknown"
	}
	if notifications != nil {
		notifications.WithLabelValues(channel, result).Inc()
	}
}

// IncSensorError counts a hard sensor read failure.
func IncSensorError() {
	if sensorErrors != nil {
		sensorErrors.Inc()
	}
}

// SetBufferSize records the current pre-event buffer size.
func SetBufferSize(size int) {
	if bufferSize != nil {
		bufferSize.Set(float64(size))
	}
}

// SetCaptureActive records whether a capture is in progress.
func SetCaptureActive(active bool) {
	if captureActive == nil {
		return
	}
	if active {
		captureActive.Set(1)
		return
	}
	captureActive.Set(0)
}
