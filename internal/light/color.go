package light

import "math"

// ColorName names one entry of the fixed color palette.
type ColorName string

const (
	ColorWhite      ColorName = "white"
	ColorRed        ColorName = "red"
	ColorOrange     ColorName = "orange"
	ColorYellow     ColorName = "yellow"
	ColorChartreuse ColorName = "chartreuse"
	ColorGreen      ColorName = "green"
	ColorSpring     ColorName = "spring"
	ColorCyan       ColorName = "cyan"
	ColorAzure      ColorName = "azure"
	ColorBlue       ColorName = "blue"
	ColorViolet     ColorName = "violet"
	ColorMagenta    ColorName = "magenta"
	ColorRose       ColorName = "rose"
)

// WhiteSaturation is the saturation below which a color is treated as white.
const WhiteSaturation = 10.0

// Hue is a palette entry with its center on the hue circle.
type Hue struct {
	Name   ColorName
	Center float64
}

// Palette holds the chromatic colors in resolution order. When an input hue
// is equally far from two centers, the one listed first wins.
var Palette = []Hue{
	{ColorRed, 0},
	{ColorOrange, 30},
	{ColorYellow, 60},
	{ColorChartreuse, 90},
	{ColorGreen, 120},
	{ColorSpring, 150},
	{ColorCyan, 180},
	{ColorAzure, 210},
	{ColorBlue, 240},
	{ColorViolet, 270},
	{ColorMagenta, 300},
	{ColorRose, 330},
}

// ColorNames lists white followed by the palette.
func ColorNames() []ColorName {
	names := []ColorName{ColorWhite}
	for _, h := range Palette {
		names = append(names, h.Name)
	}
	return names
}

// RequiredColors must be configured for every light.
var RequiredColors = []ColorName{ColorWhite, ColorRed, ColorGreen, ColorBlue}

// ColorMap maps palette colors to actuator identifiers.
// A missing or empty entry means the color button is not configured.
type ColorMap map[ColorName]string

func (m ColorMap) get(name ColorName) (string, bool) {
	id, ok := m[name]
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// ColorMatch is the result of a successful color resolution.
type ColorMatch struct {
	Color    ColorName
	Actuator string
	Distance float64
}

// ResolveColor finds the configured color button closest to hue.
// Saturation below WhiteSaturation selects white and never falls back to
// hue matching.
func ResolveColor(hue, sat float64, colors ColorMap) (ColorMatch, bool) {
	if sat < WhiteSaturation {
		id, ok := colors.get(ColorWhite)
		if !ok {
			return ColorMatch{}, false
		}
		return ColorMatch{Color: ColorWhite, Actuator: id}, true
	}

	var best ColorMatch
	found := false
	for _, h := range Palette {
		id, ok := colors.get(h.Name)
		if !ok {
			continue
		}
		d := HueDistance(hue, h.Center)
		if !found || d < best.Distance {
			best = ColorMatch{Color: h.Name, Actuator: id, Distance: d}
			found = true
		}
	}
	return best, found
}

// HueDistance is the distance between two hues on the 360 degree circle.
func HueDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}
