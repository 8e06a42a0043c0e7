package config

import (
	"errors"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/go-cmp/cmp"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := loadFrom(lookupFrom(nil))
	if err != nil {
		t.Fatalf("loadFrom(empty) error: %v", err)
	}
	if diff := cmp.Diff(NewConfig(), cfg); diff != "" {
		t.Errorf("config without env differs from defaults (-want +got):\n%s", diff)
	}
	if cfg.Level() != log.LevelInfo {
		t.Errorf("Level() = %v; want info", cfg.Level())
	}
}

func TestLoadFromEnv(t *testing.T) {
	cfg, err := loadFrom(lookupFrom(map[string]string{
		"CHESS_ADDR":              ":8080",
		"CHESS_ALLOW_ORIGINS":     "http://a.test, ,http://b.test",
		"CHESS_LOG_LEVEL":         " DEBUG ",
		"CHESS_READ_BUFFER_SIZE":  "2048",
		"CHESS_WRITE_BUFFER_SIZE": "4096",
		"CHESS_IDLE_TABLE_TTL":    "0",
	}))
	if err != nil {
		t.Fatalf("loadFrom error: %v", err)
	}

	want := &Config{
		Addr:            ":8080",
		AllowOrigins:    []string{"http://a.test", "http://b.test"},
		LogLevel:        "debug",
		ReadBufferSize:  2048,
		WriteBufferSize: 4096,
		IdleTableTTL:    0,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("loadFrom (-want +got):\n%s", diff)
	}
	if cfg.CORSOrigins() != "http://a.test, http://b.test" {
		t.Errorf("CORSOrigins() = %q", cfg.CORSOrigins())
	}
	if cfg.Level() != log.LevelDebug {
		t.Errorf("Level() = %v; want debug", cfg.Level())
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]map[string]string{
		"ttl not a duration":  {"CHESS_IDLE_TABLE_TTL": "soon"},
		"negative ttl":        {"CHESS_IDLE_TABLE_TTL": "-1m"},
		"buffer not a number": {"CHESS_READ_BUFFER_SIZE": "big"},
		"zero buffer":         {"CHESS_WRITE_BUFFER_SIZE": "0"},
		"unknown level":       {"CHESS_LOG_LEVEL": "loud"},
		"empty addr":          {"CHESS_ADDR": ""},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := loadFrom(lookupFrom(env)); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("loadFrom(%v) error = %v; want ErrInvalidConfig", env, err)
			}
		})
	}
}

func TestValidateTTL(t *testing.T) {
	cfg := NewConfig()
	cfg.IdleTableTTL = 30 * time.Second
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v; want nil", err)
	}
}
