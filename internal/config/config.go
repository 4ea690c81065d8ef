// Package config loads sdtt settings from an optional YAML file and the
// environment. The file is checked against an embedded JSON Schema before it
// is decoded, so typos in keys fail loudly instead of being ignored.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leofalp/sdtt/core/preset"
	"github.com/leofalp/sdtt/core/schema"
	"github.com/leofalp/sdtt/providers/fetch"
	"github.com/leofalp/sdtt/providers/observability/slogobs"
)

// ErrInvalidConfig is wrapped by every error caused by config content.
var ErrInvalidConfig = errors.New("sdtt: invalid config")

// EnvConfigPath names the config file when no path is given explicitly.
const EnvConfigPath = "SDTT_CONFIG"

const (
	DefaultAddr           = ":8080"
	DefaultMaxConcurrency = 4
)

// Config is the full sdtt configuration.
type Config struct {
	Fetch   FetchConfig    `yaml:"fetch"`
	Match   MatchConfig    `yaml:"match"`
	Log     LogConfig      `yaml:"log"`
	Server  ServerConfig   `yaml:"server"`
	Schemas []SchemaConfig `yaml:"schemas"`
	Presets []PresetConfig `yaml:"presets"`
}

// FetchConfig configures document loading.
type FetchConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	UserAgent   string        `yaml:"user_agent"`
	MaxBodySize int64         `yaml:"max_body_size"`
	// Render loads URLs through headless Chrome.
	Render bool `yaml:"render"`
	// BrowserURL is the DevTools URL of a running Chrome. Empty launches one.
	BrowserURL string `yaml:"browser_url"`
}

// MatchConfig configures the matcher.
type MatchConfig struct {
	StrictTypes bool `yaml:"strict_types"`
}

// LogConfig overrides the SDTT_LOG_LEVEL and SDTT_LOG_FORMAT environment.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxConcurrency int    `yaml:"max_concurrency"`
}

// SchemaConfig is a user-defined schema definition.
type SchemaConfig struct {
	Format      string             `yaml:"format"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Fields      []schema.FieldSpec `yaml:"fields"`
}

// PresetConfig is a user-defined preset. Schemas are "format:name" tokens.
type PresetConfig struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Schemas     []string `yaml:"schemas"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.defaults()
	return c
}

func (c *Config) defaults() {
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = fetch.DefaultTimeout
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = fetch.DefaultUserAgent
	}
	if c.Fetch.MaxBodySize <= 0 {
		c.Fetch.MaxBodySize = fetch.DefaultMaxBodySize
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.MaxConcurrency <= 0 {
		c.Server.MaxConcurrency = DefaultMaxConcurrency
	}
}

// Load reads path, or the file named by SDTT_CONFIG when path is empty, then
// applies environment overrides and defaults. With neither a path nor
// SDTT_CONFIG it returns the defaults plus environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	c := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		parsed, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		c = parsed
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	c.defaults()
	return c, nil
}

// Parse validates and decodes YAML config content. Defaults are not applied.
func Parse(data []byte) (*Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return &Config{}, nil
	}
	if err := validate(data); err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	c := &Config{}
	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return c, nil
}

// applyEnv overrides file values with SDTT_* variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv("SDTT_FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: SDTT_FETCH_TIMEOUT: %v", ErrInvalidConfig, err)
		}
		c.Fetch.Timeout = d
	}
	if v := os.Getenv("SDTT_USER_AGENT"); v != "" {
		c.Fetch.UserAgent = v
	}
	if v := os.Getenv("SDTT_MAX_BODY_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: SDTT_MAX_BODY_SIZE: %v", ErrInvalidConfig, err)
		}
		c.Fetch.MaxBodySize = n
	}
	if v := os.Getenv("SDTT_BROWSER_URL"); v != "" {
		c.Fetch.BrowserURL = v
	}
	for name, target := range map[string]*bool{
		"SDTT_RENDER":       &c.Fetch.Render,
		"SDTT_STRICT_TYPES": &c.Match.StrictTypes,
	} {
		if v := os.Getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
			}
			*target = b
		}
	}
	if v := os.Getenv("SDTT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SDTT_MAX_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: SDTT_MAX_CONCURRENCY: %v", ErrInvalidConfig, err)
		}
		c.Server.MaxConcurrency = n
	}
	return nil
}

// Registries builds the schema and preset registries: the builtin ones plus
// the definitions and presets of the config.
func (c *Config) Registries() (*schema.Registry, *preset.Registry, error) {
	defs := make([]schema.Definition, 0, len(c.Schemas))
	for _, s := range c.Schemas {
		format, err := schema.ParseFormat(s.Format)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: schema %q: %v", ErrInvalidConfig, s.Name, err)
		}
		defs = append(defs, schema.Definition{
			Format:      format,
			Name:        strings.TrimSpace(s.Name),
			Description: s.Description,
			Fields:      s.Fields,
		})
	}
	schemas, err := schema.NewBuiltinRegistry(defs...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	presets := make([]preset.Preset, 0, len(c.Presets))
	for _, p := range c.Presets {
		ids := make([]schema.ID, 0, len(p.Schemas))
		for _, token := range p.Schemas {
			id, err := schema.ParseID(token)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: preset %q: %v", ErrInvalidConfig, p.Name, err)
			}
			ids = append(ids, id)
		}
		presets = append(presets, preset.Preset{
			Name:        strings.TrimSpace(p.Name),
			Description: p.Description,
			Schemas:     ids,
		})
	}
	presetReg, err := preset.NewBuiltinRegistry(schemas, presets...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return schemas, presetReg, nil
}

// LogOptions turns the log section into slogobs options. Unset values leave
// the environment defaults in place.
func (c *Config) LogOptions() []slogobs.Option {
	var opts []slogobs.Option
	if c.Log.Level != "" {
		if level, ok := slogobs.ParseLogLevel(c.Log.Level); ok {
			opts = append(opts, slogobs.WithLevel(level))
		}
	}
	if c.Log.Format != "" {
		opts = append(opts, slogobs.WithFormat(slogobs.ParseFormat(c.Log.Format)))
	}
	return opts
}
