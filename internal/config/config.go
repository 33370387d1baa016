package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	yaml "gopkg.in/yaml.v3"
)

type AppConfig struct {
	// Host is the mchess server host[:port]; the socket lives at <scheme>://<Host><WSPath>.
	Host   string `env:"MCHESS_HOST" envDefault:"localhost:8001" yaml:"host"`
	Secure bool   `env:"MCHESS_SECURE" yaml:"secure"`
	WSPath string `env:"MCHESS_WS_PATH" envDefault:"/ws" yaml:"ws_path"`

	Actor          string `env:"MCHESS_ACTOR" envDefault:"WebAgent" yaml:"actor"`
	PositionSource string `env:"MCHESS_POSITION_SOURCE" envDefault:"ChessLinkAgent" yaml:"position_source"`

	ReconnectDelay time.Duration `env:"MCHESS_RECONNECT_DELAY" envDefault:"1s" yaml:"reconnect_delay"`
	PingInterval   time.Duration `env:"MCHESS_PING_INTERVAL" envDefault:"30s" yaml:"ping_interval"`

	HTTPAddr string `env:"MCHESS_HTTP_ADDR" yaml:"http_addr"`

	RedisURL     string        `env:"REDIS_URL" yaml:"redis_url"`
	RedisChannel string        `env:"MCHESS_REDIS_CHANNEL" envDefault:"mchess:view" yaml:"redis_channel"`
	RedisViewKey string        `env:"MCHESS_REDIS_VIEW_KEY" envDefault:"mchess:view:latest" yaml:"redis_view_key"`
	ViewTTL      time.Duration `env:"MCHESS_VIEW_TTL" envDefault:"10m" yaml:"view_ttl"`

	Console     bool   `env:"MCHESS_CONSOLE" envDefault:"true" yaml:"console"`
	HistoryFile string `env:"MCHESS_HISTORY_FILE" envDefault:".mchess_history" yaml:"history_file"`
}

// Load reads MCHESS_* variables, applies the optional YAML file named by MCHESS_CONFIG
// on top, and validates the result.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if path := strings.TrimSpace(os.Getenv("MCHESS_CONFIG")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) Validate() error {
	c.Host = strings.TrimSpace(c.Host)
	c.Actor = strings.TrimSpace(c.Actor)
	if c.Host == "" {
		return errors.New("MCHESS_HOST is required")
	}
	if strings.Contains(c.Host, "://") {
		return fmt.Errorf("MCHESS_HOST must be host[:port], got %q", c.Host)
	}
	if c.Actor == "" {
		return errors.New("MCHESS_ACTOR must not be empty")
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("MCHESS_RECONNECT_DELAY must be positive, got %s", c.ReconnectDelay)
	}
	if c.PingInterval <= 0 {
		return fmt.Errorf("MCHESS_PING_INTERVAL must be positive, got %s", c.PingInterval)
	}
	if !strings.HasPrefix(c.WSPath, "/") {
		c.WSPath = "/" + c.WSPath
	}
	return nil
}

// WSURL is the socket address; the scheme is secure iff the front end is served securely.
func (c *AppConfig) WSURL() string {
	scheme := "ws"
	if c.Secure {
		scheme = "wss"
	}
	return scheme + "://" + c.Host + c.WSPath
}
