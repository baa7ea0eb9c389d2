// Package config loads the daemon configuration from a YAML file and
// DCF77_* environment variables, then validates it.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"

	"github.com/sweeney/dcf77-emitter/internal/gpio"
)

//go:embed schema/config-v1.json
var schemaJSON string

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Switch modes.
const (
	SwitchGPIO = "gpio" // physical switch on a GPIO input
	SwitchMQTT = "mqtt" // ON/OFF commands on <prefix>/sync/set
	SwitchOn   = "on"   // always armed
)

type Config struct {
	Zone        string       `mapstructure:"zone" json:"zone"`
	RequireSync bool         `mapstructure:"require_sync" json:"require_sync"`
	GPIO        GPIOConfig   `mapstructure:"gpio" json:"gpio"`
	Switch      SwitchConfig `mapstructure:"switch" json:"switch"`
	Timing      TimingConfig `mapstructure:"timing" json:"timing"`
	MQTT        MQTTConfig   `mapstructure:"mqtt" json:"mqtt"`
	HTTP        HTTPConfig   `mapstructure:"http" json:"http"`
	Log         LogConfig    `mapstructure:"log" json:"log"`

	location *time.Location
}

type GPIOConfig struct {
	Chip             string `mapstructure:"chip" json:"chip"`
	AntennaPin       int    `mapstructure:"antenna_pin" json:"antenna_pin"`
	LEDPin           int    `mapstructure:"led_pin" json:"led_pin"`
	AntennaActiveLow bool   `mapstructure:"antenna_active_low" json:"antenna_active_low"`
}

type SwitchConfig struct {
	Mode      string `mapstructure:"mode" json:"mode"`
	Pin       int    `mapstructure:"pin" json:"pin"`
	ActiveLow bool   `mapstructure:"active_low" json:"active_low"`
	// Initial is the position of an MQTT switch before the first command.
	Initial bool `mapstructure:"initial" json:"initial"`
}

type TimingConfig struct {
	PollInterval     time.Duration `mapstructure:"poll_interval" json:"poll_interval"`
	StaleAfter       time.Duration `mapstructure:"stale_after" json:"stale_after"`
	OverrunThreshold time.Duration `mapstructure:"overrun_threshold" json:"overrun_threshold"`
	Heartbeat        time.Duration `mapstructure:"heartbeat" json:"heartbeat"`
}

type MQTTConfig struct {
	Enabled    bool   `mapstructure:"enabled" json:"enabled"`
	Broker     string `mapstructure:"broker" json:"broker"`
	ClientID   string `mapstructure:"client_id" json:"client_id"`
	Username   string `mapstructure:"username" json:"username"`
	Password   string `mapstructure:"password" json:"password"`
	Prefix     string `mapstructure:"prefix" json:"prefix"`
	BufferSize int    `mapstructure:"buffer_size" json:"buffer_size"`
}

type HTTPConfig struct {
	// Addr is the listen address; empty disables the status server.
	Addr string `mapstructure:"addr" json:"addr"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" json:"level"`
	Development bool   `mapstructure:"development" json:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("zone", "Europe/Berlin")
	v.SetDefault("require_sync", true)

	v.SetDefault("gpio.chip", gpio.DefaultChip)
	v.SetDefault("gpio.antenna_pin", gpio.DefaultAntennaPin)
	v.SetDefault("gpio.led_pin", gpio.DefaultLEDPin)
	v.SetDefault("gpio.antenna_active_low", false)

	v.SetDefault("switch.mode", SwitchGPIO)
	v.SetDefault("switch.pin", gpio.DefaultSwitchPin)
	v.SetDefault("switch.active_low", false)
	v.SetDefault("switch.initial", false)

	v.SetDefault("timing.poll_interval", "20ms")
	v.SetDefault("timing.stale_after", "30s")
	v.SetDefault("timing.overrun_threshold", "1100ms")
	v.SetDefault("timing.heartbeat", "15m")

	v.SetDefault("mqtt.enabled", true)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.prefix", "dcf77/emitter")
	v.SetDefault("mqtt.buffer_size", 256)

	v.SetDefault("http.addr", ":8077")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads the file at path (YAML), applies DCF77_* environment overrides
// (DCF77_GPIO_ANTENNA_PIN, DCF77_MQTT_BROKER, ...), and validates the
// result. An empty path uses defaults and the environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DCF77")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: defaults invalid: %v", err))
	}
	return cfg
}

var (
	schemaOnce sync.Once
	compiled   *jsonschema.Schema
	compileErr error
)

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("config-v1.json", strings.NewReader(schemaJSON)); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile("config-v1.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// Validate checks c against the schema, then checks what the schema cannot
// express. On success the time zone is loaded.
func (c *Config) Validate() error {
	s, err := schema()
	if err != nil {
		return err
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	loc, err := time.LoadLocation(c.Zone)
	if err != nil {
		return fmt.Errorf("%w: zone %q: %v", ErrInvalid, c.Zone, err)
	}

	if c.GPIO.AntennaPin == c.GPIO.LEDPin {
		return fmt.Errorf("%w: antenna and LED share pin %d", ErrInvalid, c.GPIO.AntennaPin)
	}
	if c.Switch.Mode == SwitchGPIO && (c.Switch.Pin == c.GPIO.AntennaPin || c.Switch.Pin == c.GPIO.LEDPin) {
		return fmt.Errorf("%w: switch pin %d is already an output", ErrInvalid, c.Switch.Pin)
	}
	if c.Switch.Mode == SwitchMQTT && !c.MQTT.Enabled {
		return fmt.Errorf("%w: switch mode mqtt needs mqtt.enabled", ErrInvalid)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("%w: mqtt.broker required when mqtt is enabled", ErrInvalid)
	}
	if c.Timing.StaleAfter <= c.Timing.OverrunThreshold {
		return fmt.Errorf("%w: stale_after (%v) must exceed overrun_threshold (%v)",
			ErrInvalid, c.Timing.StaleAfter, c.Timing.OverrunThreshold)
	}

	c.location = loc
	return nil
}

// Location returns the configured time zone. It is nil until Validate succeeds.
func (c *Config) Location() *time.Location {
	return c.location
}
