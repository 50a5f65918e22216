// Package config loads apicompat settings from defaults, an optional
// .apicompat.yaml file, APICOMPAT_* environment variables and command-line
// flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/emenda-labs/apicompat/core/breakage"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds the resolved settings of one run.
type Config struct {
	IncludePrivate bool   `mapstructure:"include_private"`
	FailOn         string `mapstructure:"fail_on"`
	Format         string `mapstructure:"format"`
	Color          string `mapstructure:"color"`

	Log   LogConfig   `mapstructure:"log"`
	Proxy ProxyConfig `mapstructure:"proxy"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ProxyConfig controls access to the Go module proxy.
type ProxyConfig struct {
	// URL is a GOPROXY-style list; empty falls back to $GOPROXY.
	URL     string        `mapstructure:"url"`
	Retries uint64        `mapstructure:"retries"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		FailOn: "",
		Format: FormatText,
		Color:  ColorAuto,
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Proxy: ProxyConfig{
			Retries: 3,
			Timeout: 30 * time.Second,
		},
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"include-private": "include_private",
	"fail-on":         "fail_on",
	"format":          "format",
	"color":           "color",
	"log-level":       "log.level",
	"log-format":      "log.format",
	"proxy":           "proxy.url",
}

// Load resolves the configuration. file names an explicit config file; when
// empty, .apicompat.yaml is looked up in the working directory and then in
// $HOME, and a missing file is not an error. flags may be nil; flags that
// were set on the command line override every other source.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("APICOMPAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(".apicompat")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("include_private", d.IncludePrivate)
	v.SetDefault("fail_on", d.FailOn)
	v.SetDefault("format", d.Format)
	v.SetDefault("color", d.Color)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("proxy.url", d.Proxy.URL)
	v.SetDefault("proxy.retries", d.Proxy.Retries)
	v.SetDefault("proxy.timeout", d.Proxy.Timeout)
}

// FailThreshold returns the severity at which breakages fail the run, and
// false when the run never fails.
func (c *Config) FailThreshold() (breakage.Severity, bool) {
	if c.FailOn == "" {
		return 0, false
	}
	s, err := breakage.ParseSeverity(c.FailOn)
	if err != nil {
		return 0, false
	}
	return s, true
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	if c.FailOn != "" {
		if _, err := breakage.ParseSeverity(c.FailOn); err != nil {
			return &ConfigError{Field: "fail_on", Message: err.Error()}
		}
	}
	if !slices.Contains([]string{FormatText, FormatJSON, FormatYAML}, c.Format) {
		return &ConfigError{Field: "format", Message: fmt.Sprintf("unknown format %q", c.Format)}
	}
	if !slices.Contains([]string{ColorAuto, ColorAlways, ColorNever}, c.Color) {
		return &ConfigError{Field: "color", Message: fmt.Sprintf("unknown color mode %q", c.Color)}
	}
	if !slices.Contains([]string{"text", "json"}, c.Log.Format) {
		return &ConfigError{Field: "log.format", Message: fmt.Sprintf("unknown log format %q", c.Log.Format)}
	}
	if c.Proxy.Timeout < 0 {
		return &ConfigError{Field: "proxy.timeout", Message: "must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
