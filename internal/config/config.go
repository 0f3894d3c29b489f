// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. Config file (~/.todonow/config.toml, $TODONOW_ROOT/config.toml or --config)
// 3. Environment variables (TODONOW_*)
// 4. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultTodoFile         = "~/todo.txt"
	DefaultStateDir         = "~/.todonow"
	DefaultLogLevel         = "warn"
	DefaultLogFormat        = "text"
	DefaultBedtimeStart     = 23
	DefaultBedtimeEnd       = 8
	DefaultSplitDelay       = "48h"
	DefaultSplitUrgentDelay = "2h"

	configFileName = "config.toml"
)

// Source records where a configuration value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceFile    Source = "file"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

type Config struct {
	TodoFile  string   `toml:"todo_file" json:"todo_file"`
	StateDir  string   `toml:"state_dir" json:"state_dir"`
	LogLevel  string   `toml:"log_level" json:"log_level"`
	LogFormat string   `toml:"log_format" json:"log_format"`
	Contexts  Contexts `toml:"contexts" json:"contexts"`
	Orders    Orders   `toml:"orders" json:"orders"`

	// Path of the config file that was read, empty if none.
	File    string            `toml:"-" json:"-"`
	Sources map[string]Source `toml:"-" json:"-"`
}

// Contexts configures automatic location tags.
type Contexts struct {
	HomeWifi    []string `toml:"home_wifi" json:"home_wifi"`
	WorkWifi    []string `toml:"work_wifi" json:"work_wifi"`
	WifiCommand string   `toml:"wifi_command" json:"wifi_command"`
}

type Orders struct {
	BedtimeStart     int    `toml:"bedtime_start" json:"bedtime_start"`
	BedtimeEnd       int    `toml:"bedtime_end" json:"bedtime_end"`
	SplitDelay       string `toml:"split_delay" json:"split_delay"`
	SplitUrgentDelay string `toml:"split_urgent_delay" json:"split_urgent_delay"`
}

// Overrides carries values set on the command line. Empty fields are unset.
type Overrides struct {
	ConfigFile string
	TodoFile   string
	LogLevel   string
}

// Load builds the configuration. A missing default config file is not an
// error; a missing file named explicitly is.
func Load(o Overrides) (*Config, error) {
	cfg := &Config{Sources: map[string]Source{}}
	setDefaults(cfg)

	path, explicit := configPath(o.ConfigFile)
	if err := loadConfigFile(cfg, path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || explicit {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	} else {
		cfg.File = path
	}

	loadFromEnv(cfg)
	applyOverrides(cfg, o)

	if err := finalizeConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.TodoFile = DefaultTodoFile
	cfg.StateDir = DefaultStateDir
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.Contexts.WifiCommand = defaultWifiCommand()
	cfg.Orders = Orders{
		BedtimeStart:     DefaultBedtimeStart,
		BedtimeEnd:       DefaultBedtimeEnd,
		SplitDelay:       DefaultSplitDelay,
		SplitUrgentDelay: DefaultSplitUrgentDelay,
	}
	for _, field := range configFields() {
		cfg.Sources[field] = SourceDefault
	}
}

func configFields() []string {
	return []string{
		"todo_file",
		"state_dir",
		"log_level",
		"log_format",
		"contexts.home_wifi",
		"contexts.work_wifi",
		"contexts.wifi_command",
		"orders.bedtime_start",
		"orders.bedtime_end",
		"orders.split_delay",
		"orders.split_urgent_delay",
	}
}

func configPath(flagValue string) (string, bool) {
	if flagValue != "" {
		return expandPath(flagValue), true
	}
	if root := os.Getenv("TODONOW_ROOT"); root != "" {
		return filepath.Join(expandPath(root), configFileName), false
	}
	return filepath.Join(expandPath(DefaultStateDir), configFileName), false
}

func loadConfigFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	for _, key := range md.Keys() {
		cfg.Sources[key.String()] = SourceFile
	}
	return nil
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TODONOW_ROOT"); v != "" {
		cfg.StateDir = v
		cfg.Sources["state_dir"] = SourceEnv
	}
	if v := os.Getenv("TODONOW_FILE"); v != "" {
		cfg.TodoFile = v
		cfg.Sources["todo_file"] = SourceEnv
	}
	if v := os.Getenv("TODONOW_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
		cfg.Sources["log_level"] = SourceEnv
	}
}

func applyOverrides(cfg *Config, o Overrides) {
	if o.TodoFile != "" {
		cfg.TodoFile = o.TodoFile
		cfg.Sources["todo_file"] = SourceFlag
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
		cfg.Sources["log_level"] = SourceFlag
	}
}

func finalizeConfig(cfg *Config) error {
	cfg.TodoFile = expandPath(cfg.TodoFile)
	cfg.StateDir = expandPath(cfg.StateDir)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	if h := cfg.Orders.BedtimeStart; h < 0 || h > 23 {
		return fmt.Errorf("orders.bedtime_start must be an hour 0-23, got %d", h)
	}
	if h := cfg.Orders.BedtimeEnd; h < 0 || h > 23 {
		return fmt.Errorf("orders.bedtime_end must be an hour 0-23, got %d", h)
	}
	if _, err := cfg.SplitDelay(); err != nil {
		return err
	}
	if _, err := cfg.SplitUrgentDelay(); err != nil {
		return err
	}
	return nil
}

// SplitDelay is how long a split todo is put aside.
func (c *Config) SplitDelay() (time.Duration, error) {
	return parseDelay("orders.split_delay", c.Orders.SplitDelay)
}

// SplitUrgentDelay is SplitDelay for @URGENT todos.
func (c *Config) SplitUrgentDelay() (time.Duration, error) {
	return parseDelay("orders.split_urgent_delay", c.Orders.SplitUrgentDelay)
}

func parseDelay(field, v string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", field, v)
	}
	return d, nil
}
