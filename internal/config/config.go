// Package config holds the two configuration surfaces: infrastructure
// settings read from the environment and game tunables read from an
// optional JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
)

// Env is the infrastructure configuration, parsed from the environment.
type Env struct {
	Addr          string `env:"ADDR" envDefault:":8080"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"0"`
	TunablesPath  string `env:"TUNABLES_PATH"`
}

// ParseEnv reads infrastructure settings from the process environment.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return e, nil
}

// Tunables are the game knobs. Every field has a sensible default so the
// server runs without a tunables file.
type Tunables struct {
	HandSize     int `json:"hand_size"`
	PingTTLMS    int `json:"ping_ttl_ms"`
	RoomTTLMin   int `json:"room_ttl_minutes"`
	StatsTTLDays int `json:"stats_ttl_days"`
}

// PingTTL returns the ping lifetime as a duration.
func (t Tunables) PingTTL() time.Duration { return time.Duration(t.PingTTLMS) * time.Millisecond }

// RoomTTL returns the room retention window as a duration.
func (t Tunables) RoomTTL() time.Duration { return time.Duration(t.RoomTTLMin) * time.Minute }

// StatsTTL returns the stats retention window as a duration.
func (t Tunables) StatsTTL() time.Duration { return time.Duration(t.StatsTTLDays) * 24 * time.Hour }

func defaultTunables() Tunables {
	return Tunables{
		HandSize:     6,
		PingTTLMS:    4000,
		RoomTTLMin:   24 * 60,
		StatsTTLDays: 30,
	}
}

var (
	tunables Tunables
	loadOnce sync.Once
	loadErr  error
)

// LoadTunables loads the game tunables from the given path. An empty path
// keeps the defaults. Missing fields keep their default values.
func LoadTunables(path string) error {
	loadOnce.Do(func() {
		tunables = defaultTunables()
		if path == "" {
			return
		}

		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read tunables: %w", err)
			return
		}
		if err := json.Unmarshal(data, &tunables); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal tunables: %w", err)
		}
	})
	return loadErr
}

// GetTunables returns the loaded game tunables.
func GetTunables() Tunables {
	if tunables == (Tunables{}) {
		return defaultTunables()
	}
	return tunables
}
