// Package light translates continuous light requests (power, brightness,
// hue/saturation, effect) into sequences of one-shot button presses and
// keeps the believed state of lights that give no feedback.
package light

import "strings"

// ActionKey names one of the fixed buttons of an IR light.
type ActionKey string

const (
	ActionOn           ActionKey = "ON"
	ActionOff          ActionKey = "OFF"
	ActionBrightUp     ActionKey = "BRIGHT_UP"
	ActionBrightDown   ActionKey = "BRIGHT_DOWN"
	ActionEffectFlash  ActionKey = "EFFECT_FLASH"
	ActionEffectSmooth ActionKey = "EFFECT_SMOOTH"
)

// ActionKeys lists every action key in a stable order.
var ActionKeys = []ActionKey{
	ActionOn,
	ActionOff,
	ActionBrightUp,
	ActionBrightDown,
	ActionEffectFlash,
	ActionEffectSmooth,
}

// Effect names exposed to callers.
const (
	EffectFlash  = "Flash"
	EffectSmooth = "Smooth"
)

// ParseActionKey accepts both "bright_up" and "BRIGHT_UP" spellings.
func ParseActionKey(s string) (ActionKey, bool) {
	key := ActionKey(strings.ToUpper(strings.TrimSpace(s)))
	for _, k := range ActionKeys {
		if k == key {
			return k, true
		}
	}
	return "", false
}

// EffectKey returns the action key that triggers the named effect.
// Unknown effects map to a key that no ButtonMap carries.
func EffectKey(effect string) ActionKey {
	return ActionKey("EFFECT_" + strings.ToUpper(effect))
}

// ButtonMap maps action keys to actuator identifiers.
// A missing or empty entry means the button is not configured.
type ButtonMap map[ActionKey]string

// Resolve returns the actuator for key, if configured.
func (m ButtonMap) Resolve(key ActionKey) (string, bool) {
	id, ok := m[key]
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// EffectList returns the effects this map supports, Flash before Smooth.
func (m ButtonMap) EffectList() []string {
	var effects []string
	if _, ok := m.Resolve(ActionEffectFlash); ok {
		effects = append(effects, EffectFlash)
	}
	if _, ok := m.Resolve(ActionEffectSmooth); ok {
		effects = append(effects, EffectSmooth)
	}
	return effects
}

// canonicalEffect returns the configured spelling of effect when it matches
// a known effect case-insensitively.
func canonicalEffect(effect string) string {
	for _, known := range []string{EffectFlash, EffectSmooth} {
		if strings.EqualFold(known, effect) {
			return known
		}
	}
	return effect
}
