// Package config loads gpeek settings from defaults, an optional YAML file and
// GPEEK_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/leslie2050/gpeek/parser"
)

type Server struct {
	Addr        string        `mapstructure:"addr"`
	Multicore   bool          `mapstructure:"multicore"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	Tick        time.Duration `mapstructure:"tick"`
}

type Pool struct {
	Size int `mapstructure:"size"`
}

type Parser struct {
	BufferSize int `mapstructure:"buffer_size"`
}

type Handler struct {
	StrictHeaders bool `mapstructure:"strict_headers"`
}

type Log struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type Stats struct {
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisKey      string `mapstructure:"redis_key"`
}

// Config is the full gpeek configuration.
type Config struct {
	Server  Server  `mapstructure:"server"`
	Pool    Pool    `mapstructure:"pool"`
	Parser  Parser  `mapstructure:"parser"`
	Handler Handler `mapstructure:"handler"`
	Log     Log     `mapstructure:"log"`
	Stats   Stats   `mapstructure:"stats"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":7001")
	v.SetDefault("server.multicore", true)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.tick", time.Second)
	v.SetDefault("pool.size", 4)
	v.SetDefault("parser.buffer_size", parser.DefaultBufferSize)
	v.SetDefault("handler.strict_headers", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("stats.redis_addr", "")
	v.SetDefault("stats.redis_password", "")
	v.SetDefault("stats.redis_db", 0)
	v.SetDefault("stats.redis_key", "gpeek:outcomes")
}

// New returns a viper instance with gpeek defaults and environment binding.
// path may be empty, in which case only defaults and environment apply.
func New(path string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("gpeek")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
	}
	return v
}

// Load reads the file configured on v, if any, and decodes the result.
func Load(v *viper.Viper) (*Config, error) {
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return fmt.Errorf("config: server.addr is empty")
	case c.Server.ReadTimeout <= 0:
		return fmt.Errorf("config: server.read_timeout must be positive, got %s", c.Server.ReadTimeout)
	case c.Server.Tick <= 0:
		return fmt.Errorf("config: server.tick must be positive, got %s", c.Server.Tick)
	case c.Pool.Size <= 0:
		return fmt.Errorf("config: pool.size must be positive, got %d", c.Pool.Size)
	case c.Parser.BufferSize <= 0:
		return fmt.Errorf("config: parser.buffer_size must be positive, got %d", c.Parser.BufferSize)
	}
	return nil
}

// Watch re-decodes the file whenever it changes and hands the result to fn.
// Invalid revisions are reported through fn's error argument and otherwise
// ignored.
func Watch(v *viper.Viper, fn func(c *Config, ev fsnotify.Event, err error)) {
	v.OnConfigChange(func(ev fsnotify.Event) {
		c, err := decode(v)
		fn(c, ev, err)
	})
	v.WatchConfig()
}
