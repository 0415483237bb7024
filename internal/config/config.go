// Package config handles configuration for the chat server and client pool:
// defaults, an optional JSON overlay, and environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// ServerEntry describes one known chat server for the client pool.
type ServerEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Config holds runtime settings.
//
// Fields:
//   - ListenURL: bind address for the server, host:port or a ws:// URL.
//   - BufferSize: WebSocket read/write buffer size in bytes.
//   - GeneralRoomName: display name of the bootstrap room.
//   - EnableAuth: whether the handshake requires credentials.
//   - DatabaseDSN: PostgreSQL DSN for the credential store; empty keeps
//     accounts in memory.
//   - JWTSecret: HMAC secret for HTTP API tokens. Override outside dev.
//   - Servers: known server descriptors seeded into the client pool.
type Config struct {
	ListenURL       string        `json:"listenUrl"`
	BufferSize      int           `json:"bufferSize"`
	GeneralRoomName string        `json:"generalRoomName"`
	EnableAuth      bool          `json:"enableAuth"`
	DatabaseDSN     string        `json:"databaseDsn"`
	JWTSecret       string        `json:"jwtSecret"`
	Servers         []ServerEntry `json:"servers"`
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.ListenURL = "127.0.0.1:8080"
	c.BufferSize = 4096
	c.GeneralRoomName = "LairnanChat General"
	c.EnableAuth = false
	c.DatabaseDSN = ""
	c.JWTSecret = "secretKey"
	c.Servers = nil
}

// Load builds a Config by applying defaults, then overlaying an optional
// JSON file, then environment variables.
func Load(jsonPath string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := cfg.applyJSON(jsonPath); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.sanitize()
	return cfg, nil
}

func (c *Config) applyJSON(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LISTEN_URL"); v != "" {
		c.ListenURL = v
	}
	if v := os.Getenv("BUFFER_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil && size > 0 {
			c.BufferSize = size
		}
	}
	if v := os.Getenv("GENERAL_ROOM_NAME"); v != "" {
		c.GeneralRoomName = v
	}
	if v := os.Getenv("ENABLE_AUTH"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.EnableAuth = enabled
		}
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.DatabaseDSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
}

func (c *Config) sanitize() {
	if c.ListenURL == "" {
		c.ListenURL = "127.0.0.1:8080"
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 4096
	}
	if c.GeneralRoomName == "" {
		c.GeneralRoomName = "General"
	}
}
