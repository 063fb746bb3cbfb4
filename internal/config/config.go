// Package config loads option profiles for the CLI and MCP server. A profile
// is a YAML file; environment variables override individual settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/fuabioo/xlcodec/internal/codec"
)

// Error types
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrInvalidConfig  = errors.New("invalid config")
	ErrInvalidEnv     = errors.New("invalid environment override")
)

// Environment variables read by ApplyEnv.
const (
	EnvSharedStrings = "XLCODEC_SHARED_STRINGS"
	EnvCompression   = "XLCODEC_COMPRESSION"
	EnvMaxRows       = "XLCODEC_MAX_ROWS"
	EnvAccelerate    = "XLCODEC_ACCELERATE"
	EnvLogLevel      = "XLCODEC_LOG_LEVEL"
)

// Config is one option profile.
type Config struct {
	Export     codec.ExportOptions `yaml:"export"`
	Import     codec.ImportOptions `yaml:"import"`
	Accelerate bool                `yaml:"accelerate"`
	LogLevel   string              `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
}

// Default returns the profile used when no file is given.
func Default() *Config {
	return &Config{
		Accelerate: true,
		LogLevel:   "warn",
	}
}

var validate = validator.New()

// Load reads a YAML profile on top of the defaults. An empty path yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ApplyEnv overrides settings from the environment. lookup is normally
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvSharedStrings); ok {
		b, err := cast.ToBoolE(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvSharedStrings, v)
		}
		c.Export.InlineStrings = !b
	}
	if v, ok := lookup(EnvCompression); ok {
		n, err := cast.ToIntE(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvCompression, v)
		}
		c.Export.CompressionLevel = n
	}
	if v, ok := lookup(EnvMaxRows); ok {
		n, err := cast.ToIntE(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvMaxRows, v)
		}
		c.Import.MaxRows = n
	}
	if v, ok := lookup(EnvAccelerate); ok {
		b, err := cast.ToBoolE(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvAccelerate, v)
		}
		c.Accelerate = b
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	return nil
}

// Validate checks every setting, including the nested codec options.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
	}
	return nil
}

// Resolve loads path, applies the process environment and validates the
// result.
func Resolve(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Level returns the configured logrus level.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.WarnLevel
	}
	return lvl
}
