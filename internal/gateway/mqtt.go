package gateway

import (
	"context"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/metrics"
)

const mqttName = "mqtt"

// PressPayload is published to the press topic of an actuator.
const PressPayload = "PRESS"

// Publisher is the part of mqtt.Client the MQTT gateway uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT presses buttons by publishing to a per-actuator topic, for IR
// blasters that listen on MQTT.
type MQTT struct {
	client Publisher
	topic  string
	qos    byte
}

// NewMQTT creates an MQTT gateway. topic is a fmt template whose %s is
// replaced with the actuator id.
func NewMQTT(client Publisher, topic string, qos byte) *MQTT {
	return &MQTT{client: client, topic: topic, qos: qos}
}

// Topic returns the topic a press of actuatorID is published to.
func (g *MQTT) Topic(actuatorID string) string {
	return fmt.Sprintf(g.topic, actuatorID)
}

// Activate publishes a press without waiting for the broker.
func (g *MQTT) Activate(ctx context.Context, actuatorID string) {
	topic := g.Topic(actuatorID)
	t := g.client.Publish(topic, g.qos, false, PressPayload)

	go func() {
		if t.Wait() && t.Error() != nil {
			log.Error().Err(t.Error()).Str("topic", topic).Msg("MQTT press publish failed")
			metrics.RecordGatewayError(mqttName)
		}
	}()
}

// Close does nothing; the MQTT connection is owned by the caller.
func (g *MQTT) Close(ctx context.Context) {}
