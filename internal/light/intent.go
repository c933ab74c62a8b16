package light

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidBrightness = errors.New("brightness out of range [0,255]")
	ErrInvalidHue        = errors.New("hue out of range [0,360)")
	ErrInvalidSaturation = errors.New("saturation out of range [0,100]")
)

// HS is a hue/saturation color. Hue is in degrees, saturation in percent.
type HS struct {
	Hue float64 `json:"h"`
	Sat float64 `json:"s"`
}

// Intent is one caller request. Nil fields are not requested; an empty
// intent means "turn on".
type Intent struct {
	Color      *HS
	Effect     *string
	Brightness *int
}

// IsEmpty reports whether no attribute is requested.
func (i Intent) IsEmpty() bool {
	return i.Color == nil && i.Effect == nil && i.Brightness == nil
}

// ValidateIntent rejects out-of-range values before they reach a Machine.
func ValidateIntent(i Intent) error {
	if i.Brightness != nil && (*i.Brightness < 0 || *i.Brightness > MaxBrightness) {
		return fmt.Errorf("%w: %d", ErrInvalidBrightness, *i.Brightness)
	}
	if i.Color != nil {
		if i.Color.Hue < 0 || i.Color.Hue >= 360 {
			return fmt.Errorf("%w: %g", ErrInvalidHue, i.Color.Hue)
		}
		if i.Color.Sat < 0 || i.Color.Sat > 100 {
			return fmt.Errorf("%w: %g", ErrInvalidSaturation, i.Color.Sat)
		}
	}
	return nil
}
