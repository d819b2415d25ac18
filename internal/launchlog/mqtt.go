package launchlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/terrain-web/internal/infrastructure/mqtt"
)

// Publisher is the part of mqtt.Client the MQTT sink needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTPublisher announces launches on terrainweb/launch/{page_id}.
type MQTTPublisher struct {
	pub Publisher
	qos byte
}

// NewMQTTPublisher creates a sink publishing with the given QoS.
func NewMQTTPublisher(pub Publisher, qos byte) *MQTTPublisher {
	return &MQTTPublisher{pub: pub, qos: qos}
}

// Record publishes ev as JSON. Launch events are not retained.
func (p *MQTTPublisher) Record(ctx context.Context, ev *Event) error {
	if err := ev.prepare(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("publishing launch: %w", err)
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshalling launch: %w", err)
	}

	if err := p.pub.Publish(mqtt.Topics{}.Launch(ev.PageID), payload, p.qos, false); err != nil {
		return fmt.Errorf("publishing launch %s: %w", ev.ID, err)
	}
	return nil
}
