package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/eventbus"
	"github.com/dokzlo13/irlightd/internal/ledger"
	"github.com/dokzlo13/irlightd/internal/light"
	"github.com/dokzlo13/irlightd/internal/metrics"
	"github.com/dokzlo13/irlightd/internal/state"
)

// stateSink persists and fans out every state a light settles in.
// Failures are logged and never reach the light.
type stateSink struct {
	store  *state.TypedStore[light.State]
	ledger *ledger.Ledger
	bus    *eventbus.Bus
}

func (s *stateSink) StateChanged(_ context.Context, snap light.Snapshot) {
	metrics.RecordState(snap)

	if s.store != nil {
		if _, err := s.store.Set(snap.ID, snap.State); err != nil {
			log.Error().Err(err).Str("light", snap.ID).Msg("Failed to save light state")
		}
	}

	if s.ledger != nil {
		payload := map[string]any{
			"on":         snap.State.On,
			"brightness": snap.State.Brightness,
		}
		if snap.State.Color != nil {
			payload["hs_color"] = []float64{snap.State.Color.Hue, snap.State.Color.Sat}
		}
		if snap.State.Effect != "" {
			payload["effect"] = snap.State.Effect
		}
		if err := s.ledger.Append(ledger.EventStateApplied, snap.ID, snap.ApplyID, payload); err != nil {
			log.Error().Err(err).Str("light", snap.ID).Msg("Failed to record applied state")
		}
	}

	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.EventTypeStateChanged, Light: snap})
	}
}

// pressObserver records presses and unmapped actions.
type pressObserver struct {
	ledger *ledger.Ledger
}

func (o *pressObserver) Pressed(_ context.Context, p light.Press) {
	metrics.RecordPress(p.Light, p.Action)

	if o.ledger == nil {
		return
	}
	payload := map[string]any{
		"light":    p.Light,
		"action":   p.Action,
		"actuator": p.Actuator,
	}
	if err := o.ledger.Append(ledger.EventButtonPressed, p.Light, p.ApplyID, payload); err != nil {
		log.Error().Err(err).Str("light", p.Light).Msg("Failed to record press")
	}
}

func (o *pressObserver) Unmapped(_ context.Context, lightID, action, applyID string) {
	metrics.RecordUnmapped(lightID, action)

	if o.ledger == nil {
		return
	}
	if err := o.ledger.Append(ledger.EventUnmapped, lightID, applyID, map[string]any{"action": action}); err != nil {
		log.Error().Err(err).Str("light", lightID).Msg("Failed to record unmapped action")
	}
}
