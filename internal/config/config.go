package config

import (
	"fmt"
	"time"

	"prowl/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load reads the YAML config at path, applies defaults and validates.
func Load(path string) (*Config, error) {
	v, err := read(path)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

// Watch reloads the config whenever the file changes and hands the new
// strategy section to apply. Invalid edits are logged and ignored, the
// running configuration stays untouched.
func Watch(path string, apply func(StrategyConfig)) error {
	v, err := read(path)
	if err != nil {
		return err
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			logger.Warnf("config: reload of %s rejected: %v", e.Name, err)
			return
		}
		logger.Infof("config: strategy tunables reloaded from %s", e.Name)
		apply(cfg.Strategy)
	})
	v.WatchConfig()
	return nil
}

func read(path string) (*viper.Viper, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PollInterval returns the monitor poll cadence as a duration.
func (s StrategyConfig) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSeconds * float64(time.Second))
}

// ErrorBackoff returns the post-failure retry delay as a duration.
func (s StrategyConfig) ErrorBackoff() time.Duration {
	return time.Duration(s.ErrorBackoffSeconds * float64(time.Second))
}

// MaxDuration returns the forced-close horizon as a duration.
func (s StrategyConfig) MaxDuration() time.Duration {
	return time.Duration(s.MaxDurationSeconds) * time.Second
}

// LoopInterval returns the controller cooldown as a duration.
func (s StrategyConfig) LoopInterval() time.Duration {
	return time.Duration(s.LoopIntervalSeconds) * time.Second
}
