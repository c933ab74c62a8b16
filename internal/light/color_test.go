package light

import (
	"fmt"
	"testing"
)

func fullColorMap() ColorMap {
	m := ColorMap{}
	for _, name := range ColorNames() {
		m[name] = "button.color_" + string(name)
	}
	return m
}

func TestResolveColor_Centers(t *testing.T) {
	colors := fullColorMap()
	for _, h := range Palette {
		for _, offset := range []float64{-14.9, 0, 14.9} {
			hue := h.Center + offset
			if hue < 0 {
				hue += 360
			}
			t.Run(fmt.Sprintf("%s/%g", h.Name, hue), func(t *testing.T) {
				match, ok := ResolveColor(hue, 100, colors)
				if !ok {
					t.Fatal("expected a match")
				}
				if match.Color != h.Name {
					t.Errorf("ResolveColor(%g) = %s, want %s", hue, match.Color, h.Name)
				}
				if match.Actuator != colors[h.Name] {
					t.Errorf("Actuator = %q, want %q", match.Actuator, colors[h.Name])
				}
			})
		}
	}
}

func TestResolveColor_NearestOverFullCircle(t *testing.T) {
	colors := fullColorMap()
	for hue := 0.0; hue < 360; hue += 0.5 {
		match, ok := ResolveColor(hue, 50, colors)
		if !ok {
			t.Fatalf("no match for hue %g", hue)
		}
		for _, h := range Palette {
			if d := HueDistance(hue, h.Center); d < match.Distance {
				t.Fatalf("hue %g resolved to %s (distance %g) but %s is closer (%g)",
					hue, match.Color, match.Distance, h.Name, d)
			}
		}
	}
}

func TestResolveColor_TiesPickFirstInPalette(t *testing.T) {
	colors := fullColorMap()
	tests := []struct {
		hue  float64
		want ColorName
	}{
		{15, ColorRed},
		{45, ColorOrange},
		{135, ColorGreen},
		{225, ColorAzure},
		{315, ColorMagenta},
		{345, ColorRed}, // Red at 0 precedes Rose at 330
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%g", tt.hue), func(t *testing.T) {
			match, ok := ResolveColor(tt.hue, 80, colors)
			if !ok || match.Color != tt.want {
				t.Errorf("ResolveColor(%g) = %s, %v; want %s", tt.hue, match.Color, ok, tt.want)
			}
			if match.Distance != 15 {
				t.Errorf("Distance = %g, want 15", match.Distance)
			}
		})
	}
}

func TestResolveColor_LowSaturationSelectsWhite(t *testing.T) {
	colors := fullColorMap()
	for _, hue := range []float64{0, 120, 200, 359} {
		match, ok := ResolveColor(hue, 9.99, colors)
		if !ok || match.Color != ColorWhite {
			t.Errorf("ResolveColor(%g, 9.99) = %s, %v; want white", hue, match.Color, ok)
		}
	}

	// Saturation exactly at the threshold uses hue matching.
	if match, _ := ResolveColor(0, WhiteSaturation, colors); match.Color != ColorRed {
		t.Errorf("ResolveColor(0, 10) = %s, want red", match.Color)
	}
}

func TestResolveColor_WhiteMissing(t *testing.T) {
	colors := fullColorMap()
	delete(colors, ColorWhite)

	if match, ok := ResolveColor(0, 5, colors); ok {
		t.Errorf("expected no match without white, got %s", match.Color)
	}
}

func TestResolveColor_Sparse(t *testing.T) {
	colors := ColorMap{
		ColorWhite: "w",
		ColorRed:   "r",
		ColorGreen: "g",
		ColorBlue:  "b",
	}

	match, _ := ResolveColor(200, 80, colors)
	if match.Color != ColorBlue {
		t.Errorf("hue 200 without azure = %s, want blue", match.Color)
	}

	colors[ColorAzure] = "a"
	match, _ = ResolveColor(200, 80, colors)
	if match.Color != ColorAzure || match.Distance != 10 {
		t.Errorf("hue 200 with azure = %s (%g), want azure (10)", match.Color, match.Distance)
	}

	// Wraparound: 350 is 10 from red and far from everything else.
	if match, _ := ResolveColor(350, 80, colors); match.Color != ColorRed {
		t.Errorf("hue 350 = %s, want red", match.Color)
	}
}

func TestResolveColor_NoColors(t *testing.T) {
	if _, ok := ResolveColor(100, 50, ColorMap{}); ok {
		t.Error("expected no match with an empty color map")
	}
	if _, ok := ResolveColor(100, 50, ColorMap{ColorRed: ""}); ok {
		t.Error("expected no match when only empty actuators are configured")
	}
}

func TestHueDistance(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{0, 0, 0},
		{10, 350, 20},
		{350, 10, 20},
		{0, 180, 180},
		{90, 300, 150},
	}
	for _, tt := range tests {
		if got := HueDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("HueDistance(%g, %g) = %g, want %g", tt.a, tt.b, got, tt.want)
		}
	}
}
