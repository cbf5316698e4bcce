package config

import (
	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Addr is the listen address for the HTTP and websocket server.
	Addr string `env:"RELAY_ADDR" envDefault:":8080"`

	// DataDir is the pebble store location. Empty selects the in-memory
	// store; messages then do not survive a restart.
	DataDir string `env:"RELAY_DATA_DIR"`

	// SocketURL is the relay address handed to client sessions. Empty
	// disables real-time delivery without being an error.
	SocketURL string `env:"PUBLIC_SOCKET_URL"`

	// APIBaseURL is the send/history endpoint base used by the client
	// binary.
	APIBaseURL string `env:"RELAY_API_URL" envDefault:"http://localhost:8080"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
