package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Strategy names a frame extraction implementation
const (
	StrategyDecoder = "decoder"
	StrategyCommand = "command"
)

// Config holds all application configuration
type Config struct {
	// Output settings
	OutputDir  string `yaml:"output_dir"`
	Prefix     string `yaml:"prefix"`
	Format     string `yaml:"format"`
	Quality    int    `yaml:"quality"`
	ScaleWidth int    `yaml:"scale_width"`

	// Extraction settings
	Strategy string `yaml:"strategy"`
	Resample string `yaml:"resample"`
	Progress bool   `yaml:"progress"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Catalog settings
	Catalog CatalogConfig `yaml:"catalog"`
}

type FFmpegConfig struct {
	BinaryPath      string `yaml:"binary_path"`
	ProbeBinaryPath string `yaml:"probe_binary_path"`
	Threads         int    `yaml:"threads"`
}

// CatalogConfig enables the SQLite run catalog when Path is set
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values that have a fixed set of choices
func (c *Config) Validate() error {
	switch c.Strategy {
	case StrategyDecoder, StrategyCommand:
	default:
		return fmt.Errorf("unknown strategy %q (want %s or %s)", c.Strategy, StrategyDecoder, StrategyCommand)
	}
	switch c.Format {
	case "jpg", "jpeg", "png":
	default:
		return fmt.Errorf("unsupported format %q", c.Format)
	}
	if c.ScaleWidth < 0 {
		return fmt.Errorf("scale_width must not be negative")
	}
	return nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Marshal renders the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Default returns the built-in configuration
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		OutputDir:  "keyframes",
		Prefix:     "keyFrame",
		Format:     "jpg",
		Quality:    2,
		ScaleWidth: 0,
		Strategy:   StrategyDecoder,
		Resample:   "bicubic",
		Progress:   true,
		FFmpeg: FFmpegConfig{
			BinaryPath:      "ffmpeg",
			ProbeBinaryPath: "ffprobe",
			Threads:         0,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./keyframer.yaml",
		"./keyframer.yml",
		filepath.Join(os.Getenv("HOME"), ".keyframer", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
