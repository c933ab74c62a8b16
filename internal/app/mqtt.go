package app

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/config"
)

const mqttConnectTimeout = 10 * time.Second

// newMQTTClient builds an auto-reconnecting client. willTopic, when set,
// receives a retained "offline" if the connection drops.
func newMQTTClient(cfg config.MQTTConfig, willTopic, willPayload string, onConnect mqtt.OnConnectHandler) mqtt.Client {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOnConnectHandler(onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn().Err(err).Msg("MQTT connection lost")
		}).
		SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
			log.Info().Msg("MQTT reconnecting")
		})

	if willTopic != "" {
		opts.SetWill(willTopic, willPayload, cfg.QoS, true)
	}

	return mqtt.NewClient(opts)
}

func connectMQTT(client mqtt.Client, broker string) error {
	t := client.Connect()
	if !t.WaitTimeout(mqttConnectTimeout) {
		// ConnectRetry keeps trying in the background.
		log.Warn().Str("broker", broker).Msg("MQTT broker not reachable yet, retrying in background")
		return nil
	}
	if t.Error() != nil {
		return fmt.Errorf("MQTT connection failed: %w", t.Error())
	}
	log.Info().Str("broker", broker).Msg("Connected to MQTT broker")
	return nil
}
