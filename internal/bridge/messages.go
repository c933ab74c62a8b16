package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dokzlo13/irlightd/internal/light"
)

// lightConfiguration is the retained Home Assistant discovery payload
type lightConfiguration struct {
	Name                string      `json:"name"`
	UniqueID            string      `json:"unique_id"`
	CommandTopic        string      `json:"command_topic"`
	StateTopic          string      `json:"state_topic"`
	AvailabilityTopic   string      `json:"availability_topic"`
	Schema              string      `json:"schema"`
	Brightness          bool        `json:"brightness"`
	BrightnessScale     int         `json:"brightness_scale"`
	SupportedColorModes []string    `json:"supported_color_modes"`
	Effect              bool        `json:"effect"`
	EffectList          []string    `json:"effect_list,omitempty"`
	Device              deviceEntry `json:"device"`
}

type deviceEntry struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
}

// lightCommand is a JSON schema command from Home Assistant
type lightCommand struct {
	State      string        `json:"state"`
	Brightness *int          `json:"brightness,omitempty"`
	Color      *commandColor `json:"color,omitempty"`
	Effect     *string       `json:"effect,omitempty"`
}

// commandColor carries either hue/saturation or RGB
type commandColor struct {
	H *float64 `json:"h,omitempty"`
	S *float64 `json:"s,omitempty"`
	R *int     `json:"r,omitempty"`
	G *int     `json:"g,omitempty"`
	B *int     `json:"b,omitempty"`
}

// lightState is published retained on the state topic
type lightState struct {
	State      string    `json:"state"`
	Brightness int       `json:"brightness"`
	ColorMode  string    `json:"color_mode"`
	Color      *light.HS `json:"color,omitempty"`
	Effect     *string   `json:"effect"`
}

var errInvalidColor = errors.New("color needs h and s, or r, g and b")

// parseCommand decodes a command. off is true for {"state":"OFF"}.
func parseCommand(payload []byte) (off bool, intent light.Intent, err error) {
	var cmd lightCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return false, intent, fmt.Errorf("invalid command: %w", err)
	}

	switch strings.ToUpper(cmd.State) {
	case "OFF":
		return true, intent, nil
	case "ON":
	default:
		return false, intent, fmt.Errorf("invalid command state %q", cmd.State)
	}

	intent.Brightness = cmd.Brightness
	intent.Effect = cmd.Effect
	if cmd.Color != nil {
		hs, err := cmd.Color.toHS()
		if err != nil {
			return false, intent, err
		}
		intent.Color = &hs
	}

	if err := light.ValidateIntent(intent); err != nil {
		return false, intent, err
	}
	return false, intent, nil
}

func (c *commandColor) toHS() (light.HS, error) {
	if c.H != nil && c.S != nil {
		hue := *c.H
		// Home Assistant sends hues in [0,360].
		if hue == 360 {
			hue = 0
		}
		return light.HS{Hue: hue, Sat: *c.S}, nil
	}
	if c.R != nil && c.G != nil && c.B != nil {
		return RGBToHS(*c.R, *c.G, *c.B), nil
	}
	return light.HS{}, errInvalidColor
}

// RGBToHS converts an 8-bit RGB color to hue in degrees and saturation in
// percent.
func RGBToHS(r, g, b int) light.HS {
	c := colorful.Color{R: channel(r), G: channel(g), B: channel(b)}
	h, s, _ := c.Hsv()
	return light.HS{Hue: h, Sat: s * 100}
}

func channel(v int) float64 {
	return float64(max(0, min(255, v))) / 255
}

func stateMessage(snap light.Snapshot) lightState {
	msg := lightState{
		State:      "OFF",
		Brightness: snap.State.Brightness,
		ColorMode:  "hs",
		Color:      snap.State.Color,
	}
	if snap.State.On {
		msg.State = "ON"
	}
	if snap.State.Effect != "" {
		effect := snap.State.Effect
		msg.Effect = &effect
	}
	return msg
}
