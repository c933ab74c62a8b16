// Package bridge exposes IR lights to Home Assistant over MQTT using the
// JSON light schema with discovery.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/eventbus"
	"github.com/dokzlo13/irlightd/internal/light"
)

// commandQueueSize bounds pending commands per light.
const commandQueueSize = 16

// Availability payloads
const (
	AvailabilityOnline  = "online"
	AvailabilityOffline = "offline"
)

// Client is the part of mqtt.Client the bridge uses.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// Options configures topics and QoS.
type Options struct {
	DiscoveryPrefix string
	TopicPrefix     string
	QoS             byte
}

type command struct {
	off    bool
	intent light.Intent
}

// Bridge subscribes to per-light command topics and publishes state.
// Commands for one light are executed in arrival order by one worker.
type Bridge struct {
	client   Client
	registry *light.Registry
	opts     Options

	queues map[string]chan command
	wg     sync.WaitGroup
}

// New creates a bridge for every light in the registry.
func New(client Client, registry *light.Registry, opts Options) *Bridge {
	return &Bridge{
		client:   client,
		registry: registry,
		opts:     opts,
		queues:   make(map[string]chan command),
	}
}

// ConfigTopic returns the discovery topic of a light.
func (b *Bridge) ConfigTopic(id string) string {
	return fmt.Sprintf("%s/light/%s/config", b.opts.DiscoveryPrefix, id)
}

// CommandTopic returns the topic Home Assistant sends commands to.
func (b *Bridge) CommandTopic(id string) string {
	return fmt.Sprintf("%s/light/%s/set", b.opts.TopicPrefix, id)
}

// AvailabilityTopic carries "online" while the bridge is connected. It is
// meant to be used as the connection's last will with "offline".
func (b *Bridge) AvailabilityTopic() string {
	return b.opts.TopicPrefix + "/status"
}

// StateTopic returns the topic state is published on.
func (b *Bridge) StateTopic(id string) string {
	return fmt.Sprintf("%s/light/%s/state", b.opts.TopicPrefix, id)
}

// Start launches the per-light command workers and republishes state on
// every change. Workers stop when ctx is cancelled. Announce must be called
// once connected.
func (b *Bridge) Start(ctx context.Context, bus *eventbus.Bus) {
	for _, m := range b.registry.All() {
		queue := make(chan command, commandQueueSize)
		b.queues[m.ID()] = queue
		b.wg.Add(1)
		go b.worker(ctx, m, queue)
	}

	bus.Subscribe(eventbus.EventTypeStateChanged, func(e eventbus.Event) {
		if err := b.PublishState(e.Light); err != nil {
			log.Error().Err(err).Str("light", e.Light.ID).Msg("Failed to publish light state")
		}
	})
}

// Announce publishes discovery configs and current state, and subscribes
// to command topics. It is safe to call again after a reconnect.
func (b *Bridge) Announce() error {
	for _, m := range b.registry.All() {
		if err := b.register(m); err != nil {
			return err
		}
		if err := b.PublishState(m.Snapshot()); err != nil {
			return err
		}
	}

	if t := b.client.Publish(b.AvailabilityTopic(), b.opts.QoS, true, AvailabilityOnline); t.Wait() && t.Error() != nil {
		return fmt.Errorf("MQTT publish failed: %w", t.Error())
	}
	return nil
}

// Wait blocks until all command workers have stopped.
func (b *Bridge) Wait() {
	b.wg.Wait()
}

func (b *Bridge) register(m *light.Machine) error {
	id := m.ID()
	effects := m.EffectList()
	cfg := lightConfiguration{
		Name:                m.Name(),
		UniqueID:            id,
		CommandTopic:        b.CommandTopic(id),
		StateTopic:          b.StateTopic(id),
		AvailabilityTopic:   b.AvailabilityTopic(),
		Schema:              "json",
		Brightness:          true,
		BrightnessScale:     light.MaxBrightness,
		SupportedColorModes: []string{"hs"},
		Effect:              len(effects) > 0,
		EffectList:          effects,
		Device: deviceEntry{
			Identifiers:  []string{id},
			Name:         m.Name(),
			Manufacturer: "irlightd",
			Model:        fmt.Sprintf("IR light (%d levels)", m.Levels()),
		},
	}

	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshalling light configuration: %w", err)
	}
	if t := b.client.Publish(b.ConfigTopic(id), b.opts.QoS, true, payload); t.Wait() && t.Error() != nil {
		return fmt.Errorf("MQTT publish failed: %w", t.Error())
	}

	if t := b.client.Subscribe(b.CommandTopic(id), b.opts.QoS, b.handler(id)); t.Wait() && t.Error() != nil {
		return fmt.Errorf("MQTT subscribe failed: %w", t.Error())
	}

	log.Info().Str("light", id).Str("name", m.Name()).Msg("Registered light with Home Assistant")
	return nil
}

func (b *Bridge) handler(id string) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		off, intent, err := parseCommand(msg.Payload())
		if err != nil {
			log.Warn().Err(err).Str("light", id).Str("payload", string(msg.Payload())).Msg("Dropping invalid command")
			return
		}

		select {
		case b.queues[id] <- command{off: off, intent: intent}:
		default:
			log.Warn().Str("light", id).Msg("Command queue full, dropping command")
		}
	}
}

func (b *Bridge) worker(ctx context.Context, m *light.Machine, queue <-chan command) {
	defer b.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-queue:
			if cmd.off {
				log.Info().Str("light", m.ID()).Msg("Turning off")
				m.ApplyOff(ctx)
			} else {
				log.Info().Str("light", m.ID()).Msg("Turning on")
				m.Apply(ctx, cmd.intent)
			}
		}
	}
}

// PublishState publishes a light's state retained.
func (b *Bridge) PublishState(snap light.Snapshot) error {
	payload, err := json.Marshal(stateMessage(snap))
	if err != nil {
		return fmt.Errorf("error marshalling light state: %w", err)
	}

	topic := b.StateTopic(snap.ID)
	if t := b.client.Publish(topic, b.opts.QoS, true, payload); t.Wait() && t.Error() != nil {
		return fmt.Errorf("[%s] publish error: %w", topic, t.Error())
	}
	return nil
}
