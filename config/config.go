// Package config loads application settings for the osr tools from
// files, environment variables and flags through viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/gogpu/osr/backend"
)

// EnvPrefix prefixes environment overrides, e.g. OSR_BROWSER_WIDTH.
const EnvPrefix = "OSR"

// Config is the full application configuration.
type Config struct {
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Render  RenderConfig  `mapstructure:"render" yaml:"render"`
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
}

// BrowserConfig controls the page and the engine process.
type BrowserConfig struct {
	HomePage    string   `mapstructure:"home_page" yaml:"home_page"`
	Transparent bool     `mapstructure:"transparent" yaml:"transparent"`
	Width       int      `mapstructure:"width" yaml:"width"`
	Height      int      `mapstructure:"height" yaml:"height"`
	ScaleFactor float64  `mapstructure:"scale_factor" yaml:"scale_factor"`
	Headless    bool     `mapstructure:"headless" yaml:"headless"`
	ExecPath    string   `mapstructure:"exec_path" yaml:"exec_path"`
	DebugPort   int      `mapstructure:"debug_port" yaml:"debug_port"`
	EngineArgs  []string `mapstructure:"engine_args" yaml:"engine_args"`
	JPEGQuality int      `mapstructure:"jpeg_quality" yaml:"jpeg_quality"`
}

// RenderConfig controls texture upload and the tick loop.
type RenderConfig struct {
	// Backend names a texture backend. Empty selects the best available.
	Backend       string `mapstructure:"backend" yaml:"backend"`
	FPS           int    `mapstructure:"fps" yaml:"fps"`
	TrackTextures bool   `mapstructure:"track_textures" yaml:"track_textures"`
}

// LoggerConfig controls log output. File output is JSON and rotated.
type LoggerConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("browser.home_page", "about:blank")
	v.SetDefault("browser.transparent", false)
	v.SetDefault("browser.width", 1280)
	v.SetDefault("browser.height", 720)
	v.SetDefault("browser.scale_factor", 1.0)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.debug_port", 0)
	v.SetDefault("browser.engine_args", []string{})
	v.SetDefault("browser.jpeg_quality", 0)

	v.SetDefault("render.backend", "")
	v.SetDefault("render.fps", 60)
	v.SetDefault("render.track_textures", false)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
}

// BindEnv makes every key overridable from OSR_* environment variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// NewDefaultConfig returns the configuration made of defaults only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: unmarshal defaults: %v", err))
	}
	return &cfg
}

// NewFromViper decodes and validates the configuration held by v.
func NewFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Load reads path (if not empty) on top of defaults and environment.
// A missing default config file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	BindEnv(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("osr")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}
	return NewFromViper(v)
}

// Validate checks that values are usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Browser.Width <= 0 || c.Browser.Height <= 0 {
		errs = append(errs, fmt.Errorf("browser.width and browser.height must be positive, got %dx%d",
			c.Browser.Width, c.Browser.Height))
	}
	if c.Browser.ScaleFactor <= 0 {
		errs = append(errs, fmt.Errorf("browser.scale_factor must be positive, got %g", c.Browser.ScaleFactor))
	}
	if c.Browser.DebugPort < 0 || c.Browser.DebugPort > 65535 {
		errs = append(errs, fmt.Errorf("browser.debug_port out of range: %d", c.Browser.DebugPort))
	}
	if c.Browser.JPEGQuality < 0 || c.Browser.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("browser.jpeg_quality must be within 0-100, got %d", c.Browser.JPEGQuality))
	}
	if c.Render.FPS <= 0 || c.Render.FPS > 1000 {
		errs = append(errs, fmt.Errorf("render.fps must be within 1-1000, got %d", c.Render.FPS))
	}
	if b := c.Render.Backend; b != "" && b != backend.BackendSoftware && b != backend.BackendWGPU {
		errs = append(errs, fmt.Errorf("render.backend: unknown backend %q", b))
	}
	if _, err := c.Logger.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Logger.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logger.format must be text or json, got %q", c.Logger.Format))
	}
	return errors.Join(errs...)
}

// SlogLevel parses Level.
func (l LoggerConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("logger.level: %w", err)
	}
	return lvl, nil
}
