package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dokzlo13/irlightd/internal/light"
)

// Gateway types
const (
	GatewayHomeAssistant = "homeassistant"
	GatewayMQTT          = "mqtt"
	GatewayLog           = "log"
)

// Config represents the application configuration
type Config struct {
	Log             LogConfig      `yaml:"log"`
	Database        DatabaseConfig `yaml:"database"`
	Ledger          LedgerConfig   `yaml:"ledger"`
	Gateway         GatewayConfig  `yaml:"gateway"`
	MQTT            MQTTConfig     `yaml:"mqtt"`
	HTTP            HTTPConfig     `yaml:"http"`
	EventBus        EventBusConfig `yaml:"eventbus"`
	Lights          []LightConfig  `yaml:"lights"`
	SettleDelay     Duration       `yaml:"settle_delay"`     // Pause after each press that changes physical state
	RestoreState    bool           `yaml:"restore_state"`    // Load modeled state from the database on startup
	ShutdownTimeout Duration       `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	Colors  bool   `yaml:"colors"`
	UseJSON bool   `yaml:"use_json"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LedgerConfig contains press ledger settings
type LedgerConfig struct {
	CleanupInterval Duration `yaml:"cleanup_interval"`
	RetentionDays   int      `yaml:"retention_days"`
}

// GatewayConfig selects how button presses reach the hardware
type GatewayConfig struct {
	Type          string              `yaml:"type"`
	HomeAssistant HomeAssistantConfig `yaml:"homeassistant"`
	MQTTTopic     string              `yaml:"mqtt_topic"` // fmt template, %s is the actuator id
}

// HomeAssistantConfig contains Home Assistant REST API settings
type HomeAssistantConfig struct {
	URL          string   `yaml:"url"`
	Token        string   `yaml:"token"`
	Timeout      Duration `yaml:"timeout"`
	RateLimitRPS float64  `yaml:"rate_limit_rps"`
	QueueSize    int      `yaml:"queue_size"`
}

// MQTTConfig contains broker settings shared by the bridge and the MQTT gateway
type MQTTConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Broker          string `yaml:"broker"`
	ClientID        string `yaml:"client_id"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	DiscoveryPrefix string `yaml:"discovery_prefix"`
	TopicPrefix     string `yaml:"topic_prefix"`
	QoS             byte   `yaml:"qos"`
}

// HTTPConfig contains control API settings
type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// EventBusConfig contains event bus settings
type EventBusConfig struct {
	Workers   int `yaml:"workers"`    // Number of worker goroutines (default: 4)
	QueueSize int `yaml:"queue_size"` // Event queue size (default: 100)
}

// LightConfig describes one IR light
type LightConfig struct {
	Name             string            `yaml:"name"`
	BrightnessLevels int               `yaml:"brightness_levels"`
	Buttons          ButtonsConfig     `yaml:"buttons"`
	Colors           map[string]string `yaml:"colors"`
}

// ButtonsConfig holds the actuator ids of the fixed buttons
type ButtonsConfig struct {
	On           string `yaml:"on"`
	Off          string `yaml:"off"`
	BrightUp     string `yaml:"bright_up"`
	BrightDown   string `yaml:"bright_down"`
	EffectFlash  string `yaml:"effect_flash"`
	EffectSmooth string `yaml:"effect_smooth"`
}

// Brightness level bounds
const (
	MinBrightnessLevels     = 2
	MaxBrightnessLevels     = 20
	DefaultBrightnessLevels = 5
)

// nameReserved are characters that would break the MQTT topics derived
// from a light's id.
const nameReserved = "/+#"

// ID returns the light's unique id derived from its name.
func (l LightConfig) ID() string {
	return "ir_light_" + strings.ReplaceAll(strings.ToLower(l.Name), " ", "_")
}

// GetWorkers returns worker count with default
func (c *EventBusConfig) GetWorkers() int {
	if c.Workers <= 0 {
		return 4
	}
	return c.Workers
}

// GetQueueSize returns queue size with default
func (c *EventBusConfig) GetQueueSize() int {
	if c.QueueSize <= 0 {
		return 100
	}
	return c.QueueSize
}

// Addr returns the HTTP listen address
func (c *HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses configuration data, applies defaults and validates the result
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) setDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./irlightd.sqlite"
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = Duration(500 * time.Millisecond)
	}

	// Ledger defaults
	if cfg.Ledger.CleanupInterval == 0 {
		cfg.Ledger.CleanupInterval = Duration(24 * time.Hour)
	}
	if cfg.Ledger.RetentionDays == 0 {
		cfg.Ledger.RetentionDays = 30
	}

	// Gateway defaults
	if cfg.Gateway.Type == "" {
		cfg.Gateway.Type = GatewayLog
	}
	if cfg.Gateway.MQTTTopic == "" {
		cfg.Gateway.MQTTTopic = "irlightd/press/%s"
	}
	if cfg.Gateway.HomeAssistant.Timeout == 0 {
		cfg.Gateway.HomeAssistant.Timeout = Duration(10 * time.Second)
	}
	if cfg.Gateway.HomeAssistant.RateLimitRPS == 0 {
		cfg.Gateway.HomeAssistant.RateLimitRPS = 10.0
	}
	if cfg.Gateway.HomeAssistant.QueueSize == 0 {
		cfg.Gateway.HomeAssistant.QueueSize = 64
	}

	// MQTT defaults
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "irlightd"
	}
	if cfg.MQTT.DiscoveryPrefix == "" {
		cfg.MQTT.DiscoveryPrefix = "homeassistant"
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "irlightd"
	}

	// HTTP defaults
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}

	for i := range cfg.Lights {
		if cfg.Lights[i].BrightnessLevels == 0 {
			cfg.Lights[i].BrightnessLevels = DefaultBrightnessLevels
		}
	}

	// General shutdown timeout
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}
}

// Validate checks the configuration and reports every problem found
func (cfg *Config) Validate() error {
	var errs []error

	switch cfg.Gateway.Type {
	case GatewayLog:
	case GatewayHomeAssistant:
		if cfg.Gateway.HomeAssistant.URL == "" || cfg.Gateway.HomeAssistant.Token == "" {
			errs = append(errs, errors.New("gateway.homeassistant: url and token are required"))
		}
	case GatewayMQTT:
		if cfg.MQTT.Broker == "" {
			errs = append(errs, errors.New("gateway mqtt: mqtt.broker is required"))
		}
		if !strings.Contains(cfg.Gateway.MQTTTopic, "%s") {
			errs = append(errs, errors.New("gateway.mqtt_topic must contain %s"))
		}
	default:
		errs = append(errs, fmt.Errorf("gateway.type: unknown gateway %q", cfg.Gateway.Type))
	}

	if cfg.MQTT.Enabled && cfg.MQTT.Broker == "" {
		errs = append(errs, errors.New("mqtt.broker is required when mqtt is enabled"))
	}
	if cfg.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", cfg.MQTT.QoS))
	}

	if len(cfg.Lights) == 0 {
		errs = append(errs, errors.New("at least one light is required"))
	}

	seen := make(map[string]bool)
	for i, l := range cfg.Lights {
		if err := l.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("lights[%d]: %w", i, err))
			continue
		}
		if seen[l.ID()] {
			errs = append(errs, fmt.Errorf("lights[%d]: duplicate light %q", i, l.ID()))
		}
		seen[l.ID()] = true
	}

	return errors.Join(errs...)
}

// Validate checks one light against the configuration contract
func (l LightConfig) Validate() error {
	var errs []error

	if strings.TrimSpace(l.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if strings.ContainsAny(l.Name, nameReserved) {
		errs = append(errs, fmt.Errorf("name %q must not contain any of %q", l.Name, nameReserved))
	}
	if l.BrightnessLevels < MinBrightnessLevels || l.BrightnessLevels > MaxBrightnessLevels {
		errs = append(errs, fmt.Errorf("brightness_levels must be in [%d,%d], got %d",
			MinBrightnessLevels, MaxBrightnessLevels, l.BrightnessLevels))
	}

	required := map[string]string{
		"on":          l.Buttons.On,
		"off":         l.Buttons.Off,
		"bright_up":   l.Buttons.BrightUp,
		"bright_down": l.Buttons.BrightDown,
	}
	for _, key := range []string{"on", "off", "bright_up", "bright_down"} {
		if required[key] == "" {
			errs = append(errs, fmt.Errorf("buttons.%s is required", key))
		}
	}

	for _, name := range light.RequiredColors {
		if l.Colors[string(name)] == "" {
			errs = append(errs, fmt.Errorf("colors.%s is required", name))
		}
	}
	for key := range l.Colors {
		if !slices.Contains(light.ColorNames(), light.ColorName(key)) {
			errs = append(errs, fmt.Errorf("colors.%s: unknown color", key))
		}
	}

	return errors.Join(errs...)
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
