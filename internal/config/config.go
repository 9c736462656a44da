package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel string `yaml:"log-level" env-default:"info"`

	// AppDomain prefixes the game tag; every participant must agree on it.
	AppDomain string `yaml:"app-domain" env-default:"unite4.luvnft.com"`

	// GameID scopes a match; participants joining the same match pass the
	// same id. Overridable on the command line.
	GameID string `yaml:"game-id" env-default:"/"`

	// Relays is the comma-separated fallback relay list, used when the
	// settings store holds none.
	Relays string `yaml:"relays" env-default:"localhost:6379"`

	SettingsPath string `yaml:"settings-path" env-default:"unite4.db"`

	BacklogTimeout time.Duration `yaml:"backlog-timeout" env-default:"10s"`
	QueueCapacity  int           `yaml:"queue-capacity" env-default:"1000"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}
