package app

import (
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/config"
	"github.com/dokzlo13/irlightd/internal/light"
	"github.com/dokzlo13/irlightd/internal/state"
)

// StateKind is the state store kind under which light snapshots are saved.
const StateKind = "ir_light"

// LightConfig converts one configured light into the machine's static
// configuration.
func LightConfig(lc config.LightConfig) light.Config {
	b := lc.Buttons
	buttons := light.ButtonMap{
		light.ActionOn:           b.On,
		light.ActionOff:          b.Off,
		light.ActionBrightUp:     b.BrightUp,
		light.ActionBrightDown:   b.BrightDown,
		light.ActionEffectFlash:  b.EffectFlash,
		light.ActionEffectSmooth: b.EffectSmooth,
	}

	colors := make(light.ColorMap, len(lc.Colors))
	for name, actuator := range lc.Colors {
		if actuator == "" {
			continue
		}
		colors[light.ColorName(name)] = actuator
	}

	return light.Config{
		ID:      lc.ID(),
		Name:    lc.Name,
		Levels:  lc.BrightnessLevels,
		Buttons: buttons,
		Colors:  colors,
	}
}

// BuildLights creates one machine per configured light. With a non-nil
// store, each machine starts from its persisted state when one exists.
func BuildLights(cfg *config.Config, gw light.Gateway, store *state.TypedStore[light.State], opts ...light.Option) (*light.Registry, error) {
	machines := make([]*light.Machine, 0, len(cfg.Lights))
	for _, lc := range cfg.Lights {
		lightOpts := append([]light.Option{light.WithSettleDelay(cfg.SettleDelay.Duration())}, opts...)

		if store != nil {
			saved, ok, err := store.Get(lc.ID())
			if err != nil {
				log.Warn().Err(err).Str("light", lc.ID()).Msg("Failed to load saved state, using defaults")
			} else if ok {
				log.Debug().Str("light", lc.ID()).Bool("on", saved.On).Int("brightness", saved.Brightness).Msg("Restored light state")
				lightOpts = append(lightOpts, light.WithInitialState(saved))
			}
		}

		machines = append(machines, light.NewMachine(LightConfig(lc), gw, lightOpts...))
	}

	return light.NewRegistry(machines...)
}
