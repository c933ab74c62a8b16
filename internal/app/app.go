package app

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/config"
	"github.com/dokzlo13/irlightd/internal/light"
)

// Options tune how the app starts.
type Options struct {
	// ResetState forgets persisted light state before lights are built, so
	// every light starts from the default state even with restore_state.
	ResetState bool
}

// App runs irlightd. Lights never report their real state, so the app logs
// what it believes about each light when it starts and when it stops.
type App struct {
	cfg      *config.Config
	services *Services
	ctx      context.Context
	cancel   context.CancelFunc
}

// New builds every service and light without starting any surface.
func New(cfg *config.Config, opts Options) (*App, error) {
	services, err := NewServices(cfg, opts.ResetState)
	if err != nil {
		return nil, err
	}
	return &App{cfg: cfg, services: services}, nil
}

// Lights returns the configured lights.
func (a *App) Lights() *light.Registry {
	return a.services.Lights
}

// Start connects to the broker and starts the bridge, API and ledger
// cleanup. A surface failing later cancels the app.
func (a *App) Start(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)

	if err := a.services.Start(a.ctx, a.fatal); err != nil {
		return err
	}

	a.logLights("Light ready")
	log.Info().
		Str("gateway", a.cfg.Gateway.Type).
		Bool("mqtt_bridge", a.services.Bridge != nil).
		Bool("http_api", a.services.API != nil).
		Bool("restore_state", a.cfg.RestoreState).
		Int("lights", len(a.services.Lights.All())).
		Msg("irlightd started")
	return nil
}

func (a *App) fatal(err error) {
	log.Error().Err(err).Msg("Fatal error, initiating shutdown")
	a.cancel()
}

// Stop waits for in-flight press sequences, flushes queued presses and
// releases every service.
func (a *App) Stop() error {
	log.Info().Msg("Shutting down...")

	if a.cancel != nil {
		a.cancel()
	}
	err := a.services.Stop()
	a.logLights("Light state at shutdown")
	return err
}

// Wait blocks until the app is cancelled.
func (a *App) Wait() {
	if a.ctx != nil {
		<-a.ctx.Done()
	}
}

func (a *App) logLights(msg string) {
	for _, m := range a.services.Lights.All() {
		s := m.State()
		e := log.Info().Str("light", m.ID()).Bool("on", s.On).Int("brightness", s.Brightness)
		if s.Color != nil {
			e = e.Float64("hue", s.Color.Hue).Float64("sat", s.Color.Sat)
		}
		if s.Effect != "" {
			e = e.Str("effect", s.Effect)
		}
		e.Msg(msg)
	}
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
