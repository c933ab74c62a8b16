package light

import (
	"errors"
	"testing"
)

func TestValidateIntent(t *testing.T) {
	tests := []struct {
		name   string
		intent Intent
		want   error
	}{
		{"empty", Intent{}, nil},
		{"brightness_bounds", Intent{Brightness: intPtr(255)}, nil},
		{"brightness_zero", Intent{Brightness: intPtr(0)}, nil},
		{"brightness_high", Intent{Brightness: intPtr(256)}, ErrInvalidBrightness},
		{"brightness_negative", Intent{Brightness: intPtr(-1)}, ErrInvalidBrightness},
		{"color_ok", Intent{Color: &HS{Hue: 359.9, Sat: 100}}, nil},
		{"hue_360", Intent{Color: &HS{Hue: 360, Sat: 50}}, ErrInvalidHue},
		{"hue_negative", Intent{Color: &HS{Hue: -1, Sat: 50}}, ErrInvalidHue},
		{"sat_high", Intent{Color: &HS{Hue: 10, Sat: 100.5}}, ErrInvalidSaturation},
		{"effect_any_name", Intent{Effect: strPtr("Rainbow")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIntent(tt.intent)
			if tt.want == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestIntentIsEmpty(t *testing.T) {
	if !(Intent{}).IsEmpty() {
		t.Error("zero intent should be empty")
	}
	if (Intent{Effect: strPtr("Flash")}).IsEmpty() {
		t.Error("intent with effect should not be empty")
	}
}
