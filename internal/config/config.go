package config

import (
	"os"

	"codeberg.org/mutker/smartmon/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultInterval = 300
	defaultItemType = "device_name"
	defaultSmartctl = "smartctl"
	defaultTempWarn = 35.0
	defaultTempCrit = 40.0
)

type Config struct {
	Interval int     `mapstructure:"interval"`
	ItemType string  `mapstructure:"item_type"`
	Database string  `mapstructure:"database"`
	Smartctl string  `mapstructure:"smartctl"`
	Input    string  `mapstructure:"input"`
	Monitor  bool    `mapstructure:"monitor"`
	LogLevel string  `mapstructure:"log_level"`
	TempWarn float64 `mapstructure:"temp_warn"`
	TempCrit float64 `mapstructure:"temp_crit"`
}

func Load() (*Config, error) {
	errFactory := errors.New()

	flags := pflag.NewFlagSet("smartmon", pflag.ContinueOnError)
	flags.Int("interval", defaultInterval, "Seconds between check cycles")
	flags.String("item-type", defaultItemType, "Service naming scheme: device_name or model_serial")
	flags.String("database", "", "Path to the value store database (empty keeps state in memory)")
	flags.String("smartctl", defaultSmartctl, "Path to the smartctl binary")
	flags.String("input", "", "Read smartctl JSON lines from a file instead of scanning devices")
	flags.Bool("monitor", false, "Log every check result, including OK states")
	flags.String("log-level", DefaultLogLevel, "Log level: debug, info, warning or error")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	v.SetDefault("interval", defaultInterval)
	v.SetDefault("item_type", defaultItemType)
	v.SetDefault("smartctl", defaultSmartctl)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("temp_warn", defaultTempWarn)
	v.SetDefault("temp_crit", defaultTempCrit)

	// Load configuration from file, an explicit SMARTMON_CONFIG path
	// taking precedence over the search path.
	if path := os.Getenv("SMARTMON_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("smartmon")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	// Command line flags override config file values
	bindings := map[string]string{
		"interval":  "interval",
		"item_type": "item-type",
		"database":  "database",
		"smartctl":  "smartctl",
		"input":     "input",
		"monitor":   "monitor",
		"log_level": "log-level",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}

	switch c.ItemType {
	case "device_name", "model_serial":
	default:
		return errFactory.WithData(errors.ErrInvalidItemType, c.ItemType)
	}

	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	if c.TempWarn > c.TempCrit {
		return errFactory.WithData(errors.ErrInvalidLevels, []float64{c.TempWarn, c.TempCrit})
	}

	return nil
}
