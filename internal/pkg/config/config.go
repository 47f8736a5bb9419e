package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Server     Server     `yaml:"server"`
	Logger     Logger     `yaml:"logger"`
	PostgresDB PostgresDB `yaml:"db"`
	Auth       Auth       `yaml:"auth"`
}

type Server struct {
	Addr         string        `env:"SERVER_ADDR" env-default:":8080" yaml:"addr"`
	ReadTimeout  time.Duration `env-default:"10s"                     yaml:"readTimeout"`
	IdleTimeout  time.Duration `env-default:"30s"                     yaml:"idleTimeout"`
	WriteTimeout time.Duration `env-default:"10s"                     yaml:"writeTimeout"`
}

type Logger struct {
	Level     string   `env:"LOG_LEVEL" env-default:"info" yaml:"level"`
	Output    []string `env-default:"stdout"               yaml:"output"`
	ErrOutput []string `env-default:"stderr"               yaml:"errOutput"`
}

type PostgresDB struct {
	URL     string `env:"PG_DATABASE_URL" env-required:"true" yaml:"url"`
	Reload  bool   `yaml:"reload"`
	Version int64  `env-default:"1" yaml:"version"`
}

type Auth struct {
	Secret        string `env:"SECRET_KEY"                  env-required:"true" yaml:"secret"`
	Algorithm     string `env:"ALGORITHM"                   env-required:"true" yaml:"algorithm"`
	ExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" env-required:"true" yaml:"expireMinutes"`
}

// TTL is the access token lifetime.
func (a Auth) TTL() time.Duration {
	return time.Duration(a.ExpireMinutes) * time.Minute
}

// New loads configuration from configPath when given, otherwise from the
// environment alone. The auth and database settings always come from the
// environment and have no defaults.
func New(configPath string) (Config, error) {
	var cfg Config

	if configPath != "" {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config error: %w", err)
		}

		return cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env config error: %w", err)
	}

	return cfg, nil
}
