package light

import "math"

// MaxBrightness is the top of the caller-facing brightness scale.
const MaxBrightness = 255

// Direction is the direction of a brightness pulse sequence.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionUp
	DirectionDown
)

// String returns a human-readable name for the direction.
func (d Direction) String() string {
	switch d {
	case DirectionNone:
		return "none"
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "unknown"
	}
}

// Key returns the button that moves brightness in this direction.
func (d Direction) Key() (ActionKey, bool) {
	switch d {
	case DirectionUp:
		return ActionBrightUp, true
	case DirectionDown:
		return ActionBrightDown, true
	default:
		return "", false
	}
}

// StepPlan describes how to move from the current to the requested
// brightness with relative up/down presses.
type StepPlan struct {
	TargetLevel  int
	CurrentLevel int
	Direction    Direction
	Pulses       int
}

// TurnsOff reports whether the request lands on the lowest level. The
// machine handles that as a power off instead of a pulse sequence.
func (p StepPlan) TurnsOff() bool {
	return p.TargetLevel == 0
}

// PlanBrightness converts a [0,255] brightness request into pulses on a
// device with the given number of levels.
func PlanBrightness(requested, current, levels int) StepPlan {
	plan := StepPlan{
		TargetLevel:  ToLevel(requested, levels),
		CurrentLevel: ToLevel(current, levels),
	}

	diff := plan.TargetLevel - plan.CurrentLevel
	switch {
	case diff > 0:
		plan.Direction = DirectionUp
		plan.Pulses = diff
	case diff < 0:
		plan.Direction = DirectionDown
		plan.Pulses = -diff
	}
	return plan
}

// ToLevel maps a [0,255] brightness onto [0,levels].
func ToLevel(brightness, levels int) int {
	if levels <= 0 {
		return 0
	}
	level := int(math.Round(float64(brightness) / MaxBrightness * float64(levels)))
	return max(0, min(levels, level))
}
