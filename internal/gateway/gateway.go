// Package gateway delivers button presses to the devices that emit the IR
// codes. Every gateway is fire-and-forget: Activate never blocks on
// delivery and never reports failure to the caller.
package gateway

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/config"
)

// Gateway is a light.Gateway that can be shut down.
type Gateway interface {
	Activate(ctx context.Context, actuatorID string)
	// Close waits for queued presses to be delivered or ctx to expire.
	Close(ctx context.Context)
}

// New builds the gateway selected in cfg. The MQTT gateway needs a
// connected publisher; other gateways ignore it.
func New(cfg *config.Config, publisher Publisher) (Gateway, error) {
	switch cfg.Gateway.Type {
	case config.GatewayHomeAssistant:
		ha := cfg.Gateway.HomeAssistant
		return NewHomeAssistant(HomeAssistantOptions{
			URL:          ha.URL,
			Token:        ha.Token,
			Timeout:      ha.Timeout.Duration(),
			RateLimitRPS: ha.RateLimitRPS,
			QueueSize:    ha.QueueSize,
		}), nil
	case config.GatewayMQTT:
		if publisher == nil {
			return nil, fmt.Errorf("mqtt gateway requires an mqtt connection")
		}
		return NewMQTT(publisher, cfg.Gateway.MQTTTopic, cfg.MQTT.QoS), nil
	case config.GatewayLog:
		return NewLog(), nil
	default:
		return nil, fmt.Errorf("unknown gateway type %q", cfg.Gateway.Type)
	}
}

// Log only logs presses. Useful for dry runs.
type Log struct{}

// NewLog creates a log-only gateway.
func NewLog() *Log {
	return &Log{}
}

// Activate logs the press.
func (g *Log) Activate(ctx context.Context, actuatorID string) {
	log.Info().Str("actuator", actuatorID).Msg("Press (dry run)")
}

// Close does nothing.
func (g *Log) Close(ctx context.Context) {}
