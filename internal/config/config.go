// Package config loads the service configuration from configs/config.yml,
// environment variables (HEATER_*) and an optional .env file.
package config

import (
	"strings"
	"time"

	"heater_controller/internal/control"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix         = "HEATER"
	defaultConfigDir  = "configs"
	defaultConfigName = "config"
)

type AppConfig struct {
	Port     string `mapstructure:"port" yaml:"port"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	Timezone string `mapstructure:"timezone" yaml:"timezone"`

	DB      DBConfig      `mapstructure:"db" yaml:"db"`
	Auth    AuthConfig    `mapstructure:"auth" yaml:"auth"`
	Loops   LoopsConfig   `mapstructure:"loops" yaml:"loops"`
	Safety  SafetyConfig  `mapstructure:"safety" yaml:"safety"`
	Relays  RelayConfig   `mapstructure:"relays" yaml:"relays"`
	Sensors SensorsConfig `mapstructure:"sensors" yaml:"sensors"`
	MQTT    MQTTConfig    `mapstructure:"mqtt" yaml:"mqtt"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
}

type DBConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type AuthConfig struct {
	SigningKey  string        `mapstructure:"signing_key" yaml:"-"`
	TokenTTL    time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
	AllowSignUp bool          `mapstructure:"allow_sign_up" yaml:"allow_sign_up"`
}

// LoopsConfig holds the period of every background loop.
type LoopsConfig struct {
	Actuator  time.Duration `mapstructure:"actuator_period" yaml:"actuator_period"`
	Control   time.Duration `mapstructure:"control_period" yaml:"control_period"`
	Sensor    time.Duration `mapstructure:"sensor_period" yaml:"sensor_period"`
	Broadcast time.Duration `mapstructure:"broadcast_period" yaml:"broadcast_period"`
}

type SafetyConfig struct {
	InternalCeiling float64 `mapstructure:"internal_ceiling" yaml:"internal_ceiling"`
	OuterCeiling    float64 `mapstructure:"outer_ceiling" yaml:"outer_ceiling"`
	// Latch is "per_cycle" or "latched".
	Latch        string `mapstructure:"latch" yaml:"latch"`
	VerifyRelays bool   `mapstructure:"verify_relays" yaml:"verify_relays"`
}

type RelayConfig struct {
	// Driver is "gpio" or "fake".
	Driver    string `mapstructure:"driver" yaml:"driver"`
	Chip      string `mapstructure:"chip" yaml:"chip"`
	PinOne    int    `mapstructure:"pin_one" yaml:"pin_one"`
	PinTwo    int    `mapstructure:"pin_two" yaml:"pin_two"`
	ActiveLow bool   `mapstructure:"active_low" yaml:"active_low"`
}

// SensorsConfig maps probe slots to one-wire device IDs. An empty ID leaves
// the slot absent.
type SensorsConfig struct {
	OneWireDir   string        `mapstructure:"onewire_dir" yaml:"onewire_dir"`
	Fnt          string        `mapstructure:"fnt" yaml:"fnt"`
	Bck          string        `mapstructure:"bck" yaml:"bck"`
	Top          string        `mapstructure:"top" yaml:"top"`
	Bot          string        `mapstructure:"bot" yaml:"bot"`
	ChipPath     string        `mapstructure:"chip_path" yaml:"chip_path"`
	RemoteMaxAge time.Duration `mapstructure:"remote_max_age" yaml:"remote_max_age"`
}

type MQTTConfig struct {
	Enabled      bool                     `mapstructure:"enabled" yaml:"enabled"`
	Broker       string                   `mapstructure:"broker" yaml:"broker"`
	ClientID     string                   `mapstructure:"client_id" yaml:"client_id"`
	Username     string                   `mapstructure:"username" yaml:"username"`
	Password     string                   `mapstructure:"password" yaml:"-"`
	StatusTopic  string                   `mapstructure:"status_topic" yaml:"status_topic"`
	CommandTopic string                   `mapstructure:"command_topic" yaml:"command_topic"`
	Bindings     map[string]BindingConfig `mapstructure:"bindings" yaml:"bindings"`
}

// BindingConfig feeds one status field from an MQTT topic. The payload is a
// plain number, or a JSON object when JSONEntry names the field to use.
type BindingConfig struct {
	Topic     string  `mapstructure:"topic" yaml:"topic"`
	JSONEntry string  `mapstructure:"json_entry" yaml:"json_entry,omitempty"`
	Scale     float64 `mapstructure:"scale" yaml:"scale"`
	Offset    float64 `mapstructure:"offset" yaml:"offset"`
}

type HistoryConfig struct {
	Interval  time.Duration `mapstructure:"interval" yaml:"interval"`
	Retention time.Duration `mapstructure:"retention" yaml:"retention"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("timezone", "Local")

	v.SetDefault("db.path", "heater.db")

	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("auth.allow_sign_up", true)

	v.SetDefault("loops.actuator_period", 200*time.Millisecond)
	v.SetDefault("loops.control_period", 500*time.Millisecond)
	v.SetDefault("loops.sensor_period", time.Second)
	v.SetDefault("loops.broadcast_period", 300*time.Millisecond)

	v.SetDefault("safety.internal_ceiling", control.DefaultInternalCeiling)
	v.SetDefault("safety.outer_ceiling", control.DefaultOuterCeiling)
	v.SetDefault("safety.latch", string(control.LatchPerCycle))
	v.SetDefault("safety.verify_relays", true)

	v.SetDefault("relays.driver", "gpio")
	v.SetDefault("relays.chip", "gpiochip0")
	v.SetDefault("relays.pin_one", 17)
	v.SetDefault("relays.pin_two", 27)
	v.SetDefault("relays.active_low", false)

	v.SetDefault("sensors.onewire_dir", "/sys/bus/w1/devices")
	v.SetDefault("sensors.fnt", "")
	v.SetDefault("sensors.bck", "")
	v.SetDefault("sensors.top", "")
	v.SetDefault("sensors.bot", "")
	v.SetDefault("sensors.chip_path", "/sys/class/thermal/thermal_zone0/temp")
	v.SetDefault("sensors.remote_max_age", 5*time.Minute)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://127.0.0.1:1883")
	v.SetDefault("mqtt.client_id", "heater-controller")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.status_topic", "heater/status")
	v.SetDefault("mqtt.command_topic", "heater/command")

	v.SetDefault("history.interval", time.Minute)
	v.SetDefault("history.retention", 24*time.Hour)
}

// Load reads the configuration. An empty path searches configs/config.yml
// and tolerates its absence; an explicit path must exist.
func Load(path string) (*AppConfig, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(defaultConfigDir)
		v.SetConfigName(defaultConfigName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrapf(err, "read config %q", path)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) fillDefaults() {
	for name, b := range c.MQTT.Bindings {
		if b.Scale == 0 {
			b.Scale = 1
		}
		c.MQTT.Bindings[name] = b
	}
}

// Validate checks values that cannot be clamped into something sensible.
func (c *AppConfig) Validate() error {
	if _, err := control.ParseLatch(c.Safety.Latch); err != nil {
		return errors.Wrap(err, "safety.latch")
	}
	if c.Safety.InternalCeiling <= 0 || c.Safety.OuterCeiling <= 0 {
		return errors.New("safety ceilings must be positive")
	}
	for name, d := range map[string]time.Duration{
		"loops.actuator_period":  c.Loops.Actuator,
		"loops.control_period":   c.Loops.Control,
		"loops.sensor_period":    c.Loops.Sensor,
		"loops.broadcast_period": c.Loops.Broadcast,
		"history.interval":       c.History.Interval,
	} {
		if d <= 0 {
			return errors.Errorf("%s must be positive, got %v", name, d)
		}
	}
	switch c.Relays.Driver {
	case "gpio", "fake":
	default:
		return errors.Errorf("relays.driver must be gpio or fake, got %q", c.Relays.Driver)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the timezone the schedule runs in.
func (c *AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "timezone %q", c.Timezone)
	}
	return loc, nil
}

// Ceilings returns the safety limits for the control cycle.
func (c *AppConfig) Ceilings() control.Ceilings {
	return control.Ceilings{Internal: c.Safety.InternalCeiling, Outer: c.Safety.OuterCeiling}
}

// Latch returns the parsed safety latch mode. Validate has already checked it.
func (c *AppConfig) Latch() control.Latch {
	l, _ := control.ParseLatch(c.Safety.Latch)
	return l
}

// Dump renders the effective configuration as YAML, without secrets.
func (c *AppConfig) Dump() string {
	d, err := yaml.Marshal(c)
	if err != nil {
		return "<unprintable config: " + err.Error() + ">"
	}
	return string(d)
}
