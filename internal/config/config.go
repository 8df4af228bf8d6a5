// Package config handles configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Wayland connection settings
	Wayland WaylandConfig `mapstructure:"wayland"`

	// Command dispatch settings
	Commands CommandsConfig `mapstructure:"commands"`

	// Authentication settings
	Auth AuthConfig `mapstructure:"auth"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// WaylandConfig contains compositor connection settings
type WaylandConfig struct {
	Display     string `mapstructure:"display"`      // Socket name or path, empty means $WAYLAND_DISPLAY
	RequireSeat bool   `mapstructure:"require_seat"` // Session is only valid when a wl_seat is bound
}

// CommandsConfig contains settings for the command dispatcher front end
type CommandsConfig struct {
	Timeout int `mapstructure:"timeout"` // Seconds the CLI waits for a reply, 0 waits forever
}

// AuthConfig contains PAM settings
type AuthConfig struct {
	PAMService string `mapstructure:"pam_service"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

// CommandTimeout returns the configured reply deadline, zero meaning none
func (c CommandsConfig) CommandTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 0
	}
	return time.Duration(c.Timeout) * time.Second
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Wayland: WaylandConfig{
			Display:     "",
			RequireSeat: true,
		},
		Commands: CommandsConfig{
			Timeout: 5,
		},
		Auth: AuthConfig{
			PAMService: "riverbridge",
		},
		Logging: LoggingConfig{
			LogLevel: "", // Empty means use LOG_LEVEL env var
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("riverbridge")
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		// Add config paths in order of precedence
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			viper.AddConfigPath(filepath.Join(xdg, "riverbridge"))
		}
		if home := os.Getenv("HOME"); home != "" {
			viper.AddConfigPath(filepath.Join(home, ".config", "riverbridge"))
		}
		viper.AddConfigPath(".") // Current directory (lowest priority)
	}

	viper.SetEnvPrefix("RIVERBRIDGE")
	viper.AutomaticEnv()

	// Set defaults - need to set individual fields for proper merging
	viper.SetDefault("wayland.display", DefaultConfig.Wayland.Display)
	viper.SetDefault("wayland.require_seat", DefaultConfig.Wayland.RequireSeat)
	viper.SetDefault("commands.timeout", DefaultConfig.Commands.Timeout)
	viper.SetDefault("auth.pam_service", DefaultConfig.Auth.PAMService)
	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit --config path that does not exist yet reports a
		// path error instead
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	loaded := &Config{}
	if err := viper.Unmarshal(loaded); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	cfg = loaded

	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		defaults := DefaultConfig
		return &defaults
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// Save writes the current configuration to the config path
func Save() error {
	configPath := GetConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	current := Get()
	viper.Set("wayland", map[string]interface{}{
		"display":      current.Wayland.Display,
		"require_seat": current.Wayland.RequireSeat,
	})
	viper.Set("commands.timeout", current.Commands.Timeout)
	viper.Set("auth.pam_service", current.Auth.PAMService)
	viper.Set("logging.log_level", current.Logging.LogLevel)

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}

	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "riverbridge", "riverbridge.toml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "riverbridge.toml"
	}

	return filepath.Join(home, ".config", "riverbridge", "riverbridge.toml")
}
