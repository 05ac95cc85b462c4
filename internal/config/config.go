package config

import (
	"os"
	"strings"

	"codeberg.org/varken/sensorbridge/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultInterval = 2
	DefaultListen   = ":4840"
	DefaultLogLevel = "info"

	// BCM pin numbers matching the reference wiring
	DefaultDHTPin     = 4
	DefaultTriggerPin = 23
	DefaultEchoPin    = 24

	DefaultINA219Addr = 0x40
)

type Config struct {
	Interval   int    `mapstructure:"interval"`
	Listen     string `mapstructure:"listen"`
	DHTPin     int    `mapstructure:"dht_pin"`
	TriggerPin int    `mapstructure:"trigger_pin"`
	EchoPin    int    `mapstructure:"echo_pin"`
	I2CBus     string `mapstructure:"i2c_bus"`
	INA219Addr int    `mapstructure:"ina219_addr"`
	LogLevel   string `mapstructure:"log_level"`
	Debug      bool   `mapstructure:"debug"`
	Verbose    bool   `mapstructure:"verbose"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("listen", DefaultListen)
	v.SetDefault("dht_pin", DefaultDHTPin)
	v.SetDefault("trigger_pin", DefaultTriggerPin)
	v.SetDefault("echo_pin", DefaultEchoPin)
	v.SetDefault("i2c_bus", "")
	v.SetDefault("ina219_addr", DefaultINA219Addr)
	v.SetDefault("log_level", DefaultLogLevel)

	flags := pflag.NewFlagSet("sensorbridge", pflag.ContinueOnError)
	flags.Int("interval", DefaultInterval, "Seconds between synchronization cycles")
	flags.String("listen", DefaultListen, "Address the state tree is served on")
	flags.Int("dht-pin", DefaultDHTPin, "BCM pin of the DHT11 data line")
	flags.Int("trigger-pin", DefaultTriggerPin, "BCM pin of the HC-SR04 trigger line")
	flags.Int("echo-pin", DefaultEchoPin, "BCM pin of the HC-SR04 echo line")
	flags.String("i2c-bus", "", "I2C bus of the INA219 (empty selects the first available)")
	flags.String("log-level", DefaultLogLevel, "Log level (debug, info, warn, error)")
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errors.Wrap(errors.ErrBindFlags, err)
	}

	// Flag names use dashes, config keys use underscores
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if f.Changed {
			v.Set(key, f.Value.String())
		}
	})

	if path := os.Getenv("SENSORBRIDGE_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sensorbridge")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(errors.ErrReadConfig, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return errors.New(errors.ErrInvalidInterval)
	}

	for _, pin := range []int{c.DHTPin, c.TriggerPin, c.EchoPin} {
		if pin < 0 {
			return errors.New(errors.ErrInvalidPin)
		}
	}

	switch c.LogLevel {
	case "warning":
		// zerolog only knows the short form
		c.LogLevel = "warn"
	case "debug", "info", "warn", "error":
	default:
		return errors.WithMessage(errors.ErrInvalidLogLevel,
			"invalid_log_level: "+c.LogLevel)
	}

	return nil
}
