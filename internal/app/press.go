package app

import (
	"context"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/config"
	"github.com/dokzlo13/irlightd/internal/gateway"
	"github.com/dokzlo13/irlightd/internal/light"
)

// FindLight looks a configured light up by id or by name.
func FindLight(cfg *config.Config, ref string) (config.LightConfig, bool) {
	for _, lc := range cfg.Lights {
		if lc.ID() == ref || strings.EqualFold(lc.Name, ref) {
			return lc, true
		}
	}
	return config.LightConfig{}, false
}

// ResolveTarget maps an action key ("bright_up") or a color name ("red")
// to the light's actuator.
func ResolveTarget(lc config.LightConfig, target string) (string, error) {
	lcfg := LightConfig(lc)

	if key, ok := light.ParseActionKey(target); ok {
		actuator, ok := lcfg.Buttons.Resolve(key)
		if !ok {
			return "", fmt.Errorf("light %q has no button for %s", lc.Name, key)
		}
		return actuator, nil
	}

	name := light.ColorName(strings.ToLower(strings.TrimSpace(target)))
	if actuator, ok := lcfg.Colors[name]; ok {
		return actuator, nil
	}
	return "", fmt.Errorf("light %q has no button or color %q", lc.Name, target)
}

// Press sends a single button press through the configured gateway without
// touching any light's modeled state.
func Press(ctx context.Context, cfg *config.Config, lightRef, target string) error {
	lc, ok := FindLight(cfg, lightRef)
	if !ok {
		return fmt.Errorf("unknown light %q", lightRef)
	}
	actuator, err := ResolveTarget(lc, target)
	if err != nil {
		return err
	}

	var publisher gateway.Publisher
	if cfg.Gateway.Type == config.GatewayMQTT {
		client := newMQTTClient(cfg.MQTT, "", "", func(mqtt.Client) {})
		if err := connectMQTT(client, cfg.MQTT.Broker); err != nil {
			return err
		}
		defer client.Disconnect(250)
		publisher = client
	}

	gw, err := gateway.New(cfg, publisher)
	if err != nil {
		return err
	}

	log.Info().Str("light", lc.ID()).Str("target", target).Str("actuator", actuator).Msg("Pressing button")
	gw.Activate(ctx, actuator)

	closeCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout.Duration())
	defer cancel()
	gw.Close(closeCtx)
	return nil
}
