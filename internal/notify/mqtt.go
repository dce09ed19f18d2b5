package notify

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
)

// Publisher publishes MQTT messages; *mqtt.Client implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error
}

// MQTTPublisher sends events as JSON to a topic.
type MQTTPublisher struct {
	// publisher is the connected broker client.
	publisher Publisher
	// topic receives the messages.
	topic string
	// qos is the publish quality of service.
	qos byte
}

// NewMQTTPublisher creates an MQTT channel.
func NewMQTTPublisher(publisher Publisher, topic string, qos byte) *MQTTPublisher {
	return &MQTTPublisher{
		publisher: publisher,
		topic:     topic,
		qos:       qos,
	}
}

// Name implements Channel.
func (m *MQTTPublisher) Name() string {
	return "mqtt"
}

// Send implements Channel.
func (m *MQTTPublisher) Send(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(eventPayload{Event: event, Message: Summary(event)})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return m.publisher.Publish(ctx, m.topic, m.qos, false, payload)
}
