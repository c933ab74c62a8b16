package light

import (
	"math"
	"testing"
)

func TestPlanBrightness(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		current   int
		levels    int
		want      StepPlan
	}{
		{
			name:      "down_two_levels",
			requested: 128, current: 255, levels: 5,
			want: StepPlan{TargetLevel: 3, CurrentLevel: 5, Direction: DirectionDown, Pulses: 2},
		},
		{
			name:      "up_from_bottom",
			requested: 255, current: 51, levels: 5,
			want: StepPlan{TargetLevel: 5, CurrentLevel: 1, Direction: DirectionUp, Pulses: 4},
		},
		{
			name:      "same_level",
			requested: 250, current: 255, levels: 5,
			want: StepPlan{TargetLevel: 5, CurrentLevel: 5, Direction: DirectionNone},
		},
		{
			name:      "zero_turns_off",
			requested: 20, current: 255, levels: 5,
			want: StepPlan{TargetLevel: 0, CurrentLevel: 5, Direction: DirectionDown, Pulses: 5},
		},
		{
			name:      "twenty_levels",
			requested: 100, current: 200, levels: 20,
			want: StepPlan{TargetLevel: 8, CurrentLevel: 16, Direction: DirectionDown, Pulses: 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanBrightness(tt.requested, tt.current, tt.levels)
			if got != tt.want {
				t.Errorf("PlanBrightness(%d, %d, %d) = %+v, want %+v",
					tt.requested, tt.current, tt.levels, got, tt.want)
			}
			if got.TurnsOff() != (tt.want.TargetLevel == 0) {
				t.Errorf("TurnsOff() = %v", got.TurnsOff())
			}
		})
	}
}

func TestPlanBrightness_Properties(t *testing.T) {
	for levels := 2; levels <= 20; levels++ {
		for requested := 0; requested <= MaxBrightness; requested += 3 {
			for current := 0; current <= MaxBrightness; current += 17 {
				plan := PlanBrightness(requested, current, levels)

				target := int(math.Round(float64(requested) / 255 * float64(levels)))
				cur := int(math.Round(float64(current) / 255 * float64(levels)))
				diff := target - cur

				if plan.TargetLevel < 0 || plan.TargetLevel > levels {
					t.Fatalf("target level %d out of [0,%d]", plan.TargetLevel, levels)
				}
				if plan.Pulses != int(math.Abs(float64(diff))) {
					t.Fatalf("PlanBrightness(%d, %d, %d).Pulses = %d, want %d",
						requested, current, levels, plan.Pulses, diff)
				}
				if (plan.Direction == DirectionUp) != (diff > 0) {
					t.Fatalf("PlanBrightness(%d, %d, %d).Direction = %s, diff %d",
						requested, current, levels, plan.Direction, diff)
				}
				if (plan.Direction == DirectionNone) != (plan.Pulses == 0) {
					t.Fatalf("direction %s with %d pulses", plan.Direction, plan.Pulses)
				}
			}
		}
		if p := PlanBrightness(200, 200, levels); p.Pulses != 0 {
			t.Errorf("PlanBrightness(x, x, %d).Pulses = %d, want 0", levels, p.Pulses)
		}
	}
}

func TestToLevel(t *testing.T) {
	tests := []struct {
		brightness, levels, want int
	}{
		{0, 5, 0},
		{255, 5, 5},
		{25, 5, 0},
		{26, 5, 1},
		{300, 5, 5},
		{-10, 5, 0},
		{100, 0, 0},
	}
	for _, tt := range tests {
		if got := ToLevel(tt.brightness, tt.levels); got != tt.want {
			t.Errorf("ToLevel(%d, %d) = %d, want %d", tt.brightness, tt.levels, got, tt.want)
		}
	}
}

func TestDirectionString(t *testing.T) {
	if DirectionUp.String() != "up" || DirectionDown.String() != "down" || DirectionNone.String() != "none" {
		t.Error("unexpected direction names")
	}
	if _, ok := DirectionNone.Key(); ok {
		t.Error("DirectionNone should have no button")
	}
}
