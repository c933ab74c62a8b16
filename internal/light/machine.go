package light

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultSettleDelay is the pause after a press that must register on the
// device before the next one is sent.
const DefaultSettleDelay = 500 * time.Millisecond

// Gateway activates one actuator. It is fire-and-forget: there is no
// acknowledgment and no error.
type Gateway interface {
	Activate(ctx context.Context, actuatorID string)
}

// StateSink receives the modeled state once per Apply or ApplyOff.
type StateSink interface {
	StateChanged(ctx context.Context, snap Snapshot)
}

// Press describes one actuation issued by a Machine.
type Press struct {
	Light    string
	Action   string
	Actuator string
	ApplyID  string
}

// Observer is notified about presses and about actions that have no
// configured actuator.
type Observer interface {
	Pressed(ctx context.Context, p Press)
	Unmapped(ctx context.Context, light, action, applyID string)
}

// State is the believed state of a light. It is never confirmed by the
// device.
type State struct {
	On         bool   `json:"on"`
	Brightness int    `json:"brightness"`
	Color      *HS    `json:"hs_color,omitempty"`
	Effect     string `json:"effect,omitempty"`
}

// DefaultState is the state of a freshly constructed light.
func DefaultState() State {
	return State{Brightness: MaxBrightness}
}

// Snapshot is a copy of a light's state together with its identity.
type Snapshot struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	State      State    `json:"state"`
	EffectList []string `json:"effect_list,omitempty"`
	ApplyID    string   `json:"apply_id,omitempty"`
}

// Config is the static configuration of one light.
type Config struct {
	ID      string
	Name    string
	Levels  int
	Buttons ButtonMap
	Colors  ColorMap
}

// Option configures a Machine.
type Option func(*Machine)

// WithSettleDelay overrides DefaultSettleDelay.
func WithSettleDelay(d time.Duration) Option {
	return func(m *Machine) {
		m.settle = d
	}
}

// WithSleep replaces time.Sleep for settle delays.
func WithSleep(sleep func(time.Duration)) Option {
	return func(m *Machine) {
		m.sleep = sleep
	}
}

// WithSink sets where state is published after each call.
func WithSink(sink StateSink) Option {
	return func(m *Machine) {
		m.sink = sink
	}
}

// WithObserver sets the press observer.
func WithObserver(o Observer) Option {
	return func(m *Machine) {
		m.observer = o
	}
}

// WithInitialState starts the machine from a previously saved state.
func WithInitialState(s State) Option {
	return func(m *Machine) {
		m.state = s
		if !m.state.On {
			m.state.Effect = ""
		}
	}
}

// Machine drives one IR light. Apply and ApplyOff are serialized so that
// press sequences of concurrent callers never interleave.
type Machine struct {
	cfg      Config
	gateway  Gateway
	settle   time.Duration
	sleep    func(time.Duration)
	sink     StateSink
	observer Observer
	logger   zerolog.Logger

	applyMu sync.Mutex

	mu    sync.RWMutex
	state State
}

// NewMachine creates a machine in DefaultState.
func NewMachine(cfg Config, gateway Gateway, opts ...Option) *Machine {
	m := &Machine{
		cfg:     cfg,
		gateway: gateway,
		settle:  DefaultSettleDelay,
		sleep:   time.Sleep,
		state:   DefaultState(),
		logger:  log.With().Str("light", cfg.ID).Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ID returns the light's unique id.
func (m *Machine) ID() string { return m.cfg.ID }

// Name returns the light's display name.
func (m *Machine) Name() string { return m.cfg.Name }

// Levels returns the number of hardware brightness steps.
func (m *Machine) Levels() int { return m.cfg.Levels }

// EffectList returns the effects with a configured button.
func (m *Machine) EffectList() []string {
	return m.cfg.Buttons.EffectList()
}

// IsOn returns the believed power state.
func (m *Machine) IsOn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.On
}

// Brightness returns the believed brightness in [0,255].
func (m *Machine) Brightness() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Brightness
}

// HSColor returns the believed color, if any color was ever set.
func (m *Machine) HSColor() (HS, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.Color == nil {
		return HS{}, false
	}
	return *m.state.Color, true
}

// Effect returns the believed active effect, or "".
func (m *Machine) Effect() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Effect
}

// State returns a copy of the believed state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyState(m.state)
}

// Snapshot returns the light's identity and state.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		ID:         m.cfg.ID,
		Name:       m.cfg.Name,
		State:      m.State(),
		EffectList: m.EffectList(),
	}
}

// call carries the per-invocation context of Apply and ApplyOff.
type call struct {
	ctx     context.Context
	intent  Intent
	applyID string
	logger  zerolog.Logger
}

// step is one stage of Apply. It returns false to stop processing.
type step struct {
	name string
	want func(Intent) bool
	run  func(*call) bool
}

func (m *Machine) steps() []step {
	return []step{
		{"color", func(i Intent) bool { return i.Color != nil }, m.applyColor},
		{"effect", func(i Intent) bool { return i.Effect != nil }, m.applyEffect},
		{"brightness", func(i Intent) bool { return i.Brightness != nil }, m.applyBrightness},
		{"power", func(Intent) bool { return true }, m.applyPower},
	}
}

// Apply turns the light on and applies the requested attributes in the
// order color, effect, brightness, power. Input is expected to have passed
// ValidateIntent. A started sequence always runs to completion, even if
// ctx is cancelled.
func (m *Machine) Apply(ctx context.Context, intent Intent) {
	m.applyMu.Lock()
	defer m.applyMu.Unlock()

	c := m.newCall(ctx, intent)
	c.logger.Debug().
		Bool("color", intent.Color != nil).
		Bool("effect", intent.Effect != nil).
		Bool("brightness", intent.Brightness != nil).
		Msg("Applying intent")

	// A brightness that lands on level zero turns the light off and drops
	// every other requested attribute.
	if intent.Brightness != nil {
		plan := PlanBrightness(*intent.Brightness, m.Brightness(), m.cfg.Levels)
		if plan.TurnsOff() {
			c.logger.Debug().Int("requested", *intent.Brightness).Msg("Brightness maps to level 0, turning off")
			m.powerOff(c)
			m.publish(c)
			return
		}
	}

	for _, s := range m.steps() {
		if !s.want(intent) {
			continue
		}
		if !s.run(c) {
			c.logger.Debug().Str("step", s.name).Msg("Apply stopped early")
			break
		}
	}

	m.publish(c)
}

// ApplyOff presses OFF and marks the light off.
func (m *Machine) ApplyOff(ctx context.Context) {
	m.applyMu.Lock()
	defer m.applyMu.Unlock()

	c := m.newCall(ctx, Intent{})
	m.powerOff(c)
	m.publish(c)
}

func (m *Machine) newCall(ctx context.Context, intent Intent) *call {
	applyID := uuid.NewString()
	return &call{
		ctx:     context.WithoutCancel(ctx),
		intent:  intent,
		applyID: applyID,
		logger:  m.logger.With().Str("apply_id", applyID).Logger(),
	}
}

func (m *Machine) applyColor(c *call) bool {
	hs := *c.intent.Color
	m.ensureOn(c)

	match, ok := ResolveColor(hs.Hue, hs.Sat, m.cfg.Colors)
	if !ok {
		c.logger.Warn().
			Float64("hue", hs.Hue).
			Float64("sat", hs.Sat).
			Msg("No color button matches requested color")
		m.unmapped(c, "COLOR")
		return true
	}

	c.logger.Debug().
		Float64("hue", hs.Hue).
		Str("color", string(match.Color)).
		Float64("distance", match.Distance).
		Msg("Closest color button")
	m.activate(c, "COLOR_"+string(match.Color), match.Actuator)

	m.update(func(s *State) { s.Color = &hs })
	return true
}

func (m *Machine) applyEffect(c *call) bool {
	effect := canonicalEffect(*c.intent.Effect)
	m.ensureOn(c)

	if !m.press(c, EffectKey(effect)) {
		return true
	}
	m.update(func(s *State) { s.Effect = effect })
	return true
}

func (m *Machine) applyBrightness(c *call) bool {
	requested := *c.intent.Brightness
	plan := PlanBrightness(requested, m.Brightness(), m.cfg.Levels)
	m.ensureOn(c)

	c.logger.Debug().
		Int("requested", requested).
		Int("current_level", plan.CurrentLevel).
		Int("target_level", plan.TargetLevel).
		Stringer("direction", plan.Direction).
		Int("pulses", plan.Pulses).
		Msg("Brightness plan")

	if key, ok := plan.Direction.Key(); ok {
		for i := 0; i < plan.Pulses; i++ {
			if !m.press(c, key) {
				return true
			}
			m.sleep(m.settle)
		}
	}

	m.update(func(s *State) { s.Brightness = requested })
	return true
}

func (m *Machine) applyPower(c *call) bool {
	if !c.intent.IsEmpty() && m.IsOn() {
		return true
	}
	if m.press(c, ActionOn) {
		m.update(func(s *State) { s.On = true })
	}
	return true
}

// ensureOn presses ON and waits for it to settle unless the light is
// already believed on.
func (m *Machine) ensureOn(c *call) {
	if m.IsOn() {
		return
	}
	if !m.press(c, ActionOn) {
		return
	}
	m.update(func(s *State) { s.On = true })
	m.sleep(m.settle)
}

func (m *Machine) powerOff(c *call) {
	m.press(c, ActionOff)
	m.update(func(s *State) {
		s.On = false
		s.Effect = ""
	})
}

// press activates the button for key. It reports false when the key has
// no actuator.
func (m *Machine) press(c *call, key ActionKey) bool {
	id, ok := m.cfg.Buttons.Resolve(key)
	if !ok {
		c.logger.Warn().Str("action", string(key)).Msg("IR button for action not configured")
		m.unmapped(c, string(key))
		return false
	}
	m.activate(c, string(key), id)
	return true
}

func (m *Machine) activate(c *call, action, actuator string) {
	c.logger.Debug().Str("action", action).Str("actuator", actuator).Msg("Pressing button")
	m.gateway.Activate(c.ctx, actuator)
	if m.observer != nil {
		m.observer.Pressed(c.ctx, Press{
			Light:    m.cfg.ID,
			Action:   action,
			Actuator: actuator,
			ApplyID:  c.applyID,
		})
	}
}

func (m *Machine) unmapped(c *call, action string) {
	if m.observer != nil {
		m.observer.Unmapped(c.ctx, m.cfg.ID, action, c.applyID)
	}
}

func (m *Machine) update(modify func(s *State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	modify(&m.state)
}

func (m *Machine) publish(c *call) {
	if m.sink == nil {
		return
	}
	snap := m.Snapshot()
	snap.ApplyID = c.applyID
	m.sink.StateChanged(c.ctx, snap)
}

func copyState(s State) State {
	if s.Color != nil {
		hs := *s.Color
		s.Color = &hs
	}
	return s
}
