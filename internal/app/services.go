package app

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/api"
	"github.com/dokzlo13/irlightd/internal/bridge"
	"github.com/dokzlo13/irlightd/internal/config"
	"github.com/dokzlo13/irlightd/internal/db"
	"github.com/dokzlo13/irlightd/internal/eventbus"
	"github.com/dokzlo13/irlightd/internal/gateway"
	"github.com/dokzlo13/irlightd/internal/ledger"
	"github.com/dokzlo13/irlightd/internal/light"
	"github.com/dokzlo13/irlightd/internal/state"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	DB     *db.DB
	Ledger *ledger.Ledger
	Store  *state.Store
	States *state.TypedStore[light.State]
	Bus    *eventbus.Bus

	// Actuation and lights
	MQTT    mqtt.Client
	Gateway gateway.Gateway
	Lights  *light.Registry

	// Surfaces
	Bridge *bridge.Bridge
	API    *api.Server
}

// NewServices creates all services with proper dependency injection.
// resetState clears persisted light state before the lights are built.
func NewServices(cfg *config.Config, resetState bool) (*Services, error) {
	s := &Services{cfg: cfg}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	s.DB = database

	s.Ledger = ledger.New(database.DB)
	s.Store = state.NewStore(database.DB)
	s.States = state.NewTypedStore[light.State](s.Store, StateKind)
	s.Bus = eventbus.NewWithConfig(cfg.EventBus.GetWorkers(), cfg.EventBus.GetQueueSize())

	if resetState {
		log.Info().Msg("Clearing stored light state")
		if err := s.ClearState(); err != nil {
			s.Close()
			return nil, err
		}
	}

	bridgeOpts := bridge.Options{
		DiscoveryPrefix: cfg.MQTT.DiscoveryPrefix,
		TopicPrefix:     cfg.MQTT.TopicPrefix,
		QoS:             cfg.MQTT.QoS,
	}

	// The MQTT connection is shared by the bridge and the MQTT gateway.
	if cfg.MQTT.Enabled || cfg.Gateway.Type == config.GatewayMQTT {
		var willTopic string
		if cfg.MQTT.Enabled {
			willTopic = bridgeOpts.TopicPrefix + "/status"
		}
		s.MQTT = newMQTTClient(cfg.MQTT, willTopic, bridge.AvailabilityOffline, s.onMQTTConnect)
	}

	var publisher gateway.Publisher
	if s.MQTT != nil {
		publisher = s.MQTT
	}
	s.Gateway, err = gateway.New(cfg, publisher)
	if err != nil {
		s.Close()
		return nil, err
	}

	var restore *state.TypedStore[light.State]
	if cfg.RestoreState {
		restore = s.States
	}
	s.Lights, err = BuildLights(cfg, s.Gateway, restore,
		light.WithSink(&stateSink{store: s.States, ledger: s.Ledger, bus: s.Bus}),
		light.WithObserver(&pressObserver{ledger: s.Ledger}),
	)
	if err != nil {
		s.Close()
		return nil, err
	}

	if cfg.MQTT.Enabled {
		s.Bridge = bridge.New(s.MQTT, s.Lights, bridgeOpts)
	}

	if cfg.HTTP.Enabled {
		s.API = api.NewServer(cfg.HTTP.Addr(), s.Lights, s.Ledger)
	}

	return s, nil
}

// onMQTTConnect runs on every (re)connect. paho calls it on its own
// goroutine, so waiting on tokens here is fine.
func (s *Services) onMQTTConnect(_ mqtt.Client) {
	if s.Bridge == nil {
		return
	}
	if err := s.Bridge.Announce(); err != nil {
		log.Error().Err(err).Msg("Failed to announce lights to Home Assistant")
	}
}

// Start starts all services in the correct order.
// The onFatalError callback is called when a service cannot keep running.
func (s *Services) Start(ctx context.Context, onFatalError func(error)) error {
	if s.Bridge != nil {
		s.Bridge.Start(ctx, s.Bus)
	}

	if s.MQTT != nil {
		if err := connectMQTT(s.MQTT, s.cfg.MQTT.Broker); err != nil {
			return err
		}
	}

	if s.API != nil {
		go func() {
			if err := s.API.Run(ctx, s.cfg.ShutdownTimeout.Duration()); err != nil {
				onFatalError(err)
			}
		}()
	}

	go s.runLedgerCleanup(ctx)

	return nil
}

// runLedgerCleanup periodically cleans up old ledger entries.
func (s *Services) runLedgerCleanup(ctx context.Context) {
	retention := time.Duration(s.cfg.Ledger.RetentionDays) * 24 * time.Hour
	interval := s.cfg.Ledger.CleanupInterval.Duration()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.Ledger.DeleteOlderThan(retention)
			if err != nil {
				log.Error().Err(err).Msg("Failed to cleanup old ledger entries")
			} else if deleted > 0 {
				log.Info().Int64("deleted", deleted).Dur("retention", retention).Msg("Cleaned up old ledger entries")
			}
		}
	}
}

// ClearState clears the persisted state of all lights.
func (s *Services) ClearState() error {
	return s.States.Clear()
}

// Stop gracefully stops all services. The surrounding context must already
// be cancelled.
func (s *Services) Stop() error {
	if s.Bridge != nil {
		s.Bridge.Wait()
	}
	s.Close()
	return nil
}

// Close releases all resources.
func (s *Services) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Duration())
	defer cancel()

	if s.Gateway != nil {
		s.Gateway.Close(ctx)
	}
	if s.Bus != nil {
		s.Bus.Close(ctx)
	}
	if s.MQTT != nil && s.MQTT.IsConnected() {
		if s.Bridge != nil {
			s.MQTT.Publish(s.Bridge.AvailabilityTopic(), s.cfg.MQTT.QoS, true, bridge.AvailabilityOffline).WaitTimeout(time.Second)
		}
		s.MQTT.Disconnect(250)
	}
	if s.DB != nil {
		s.DB.Close()
	}
}
