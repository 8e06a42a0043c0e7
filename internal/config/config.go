// Package config holds the runtime settings of the table server and the
// terminal client.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// ErrInvalidConfig indicates invalid configuration values.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	// Listen address of the table server.
	Addr string

	// Origins allowed by CORS and by the websocket upgrader.
	AllowOrigins []string

	// One of trace, debug, info, warn, error.
	LogLevel string

	ReadBufferSize  int
	WriteBufferSize int

	// Tables nobody touched or watched for this long are dropped. Zero
	// disables eviction.
	IdleTableTTL time.Duration
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Addr:            "127.0.0.1:3000",
		AllowOrigins:    []string{"http://localhost:5173"},
		LogLevel:        "info",
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		IdleTableTTL:    2 * time.Hour,
	}
}

// Load returns the defaults overlaid with CHESS_* environment variables.
func Load() (*Config, error) {
	return loadFrom(os.LookupEnv)
}

func loadFrom(lookup func(string) (string, bool)) (*Config, error) {
	cfg := NewConfig()

	if v, ok := lookup("CHESS_ADDR"); ok {
		cfg.Addr = v
	}
	if v, ok := lookup("CHESS_ALLOW_ORIGINS"); ok {
		cfg.AllowOrigins = splitList(v)
	}
	if v, ok := lookup("CHESS_LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup("CHESS_READ_BUFFER_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: CHESS_READ_BUFFER_SIZE: %v", ErrInvalidConfig, err)
		}
		cfg.ReadBufferSize = n
	}
	if v, ok := lookup("CHESS_WRITE_BUFFER_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: CHESS_WRITE_BUFFER_SIZE: %v", ErrInvalidConfig, err)
		}
		cfg.WriteBufferSize = n
	}
	if v, ok := lookup("CHESS_IDLE_TABLE_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%w: CHESS_IDLE_TABLE_TTL: %v", ErrInvalidConfig, err)
		}
		cfg.IdleTableTTL = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var logLevels = map[string]log.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: empty listen address", ErrInvalidConfig)
	}
	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.ReadBufferSize <= 0 || c.WriteBufferSize <= 0 {
		return fmt.Errorf("%w: websocket buffer sizes must be positive", ErrInvalidConfig)
	}
	if c.IdleTableTTL < 0 {
		return fmt.Errorf("%w: negative idle table TTL", ErrInvalidConfig)
	}
	return nil
}

// Level returns the fiber log level for LogLevel, info when unknown.
func (c *Config) Level() log.Level {
	if level, ok := logLevels[c.LogLevel]; ok {
		return level
	}
	return log.LevelInfo
}

// CORSOrigins joins AllowOrigins the way fiber's cors middleware expects.
func (c *Config) CORSOrigins() string {
	return strings.Join(c.AllowOrigins, ", ")
}
