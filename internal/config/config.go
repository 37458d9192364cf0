package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Storage  string `yaml:"storage" env:"STORAGE" env-default:"memory"`
	Redis    Redis  `yaml:"redis"`
	Bot      Bot    `yaml:"bot"`
	Rules    Rules  `yaml:"rules"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	// TTL of a stored game, zero keeps it forever.
	TTL time.Duration `yaml:"ttl" env:"REDIS_TTL"`
}

type Bot struct {
	HardDepth         int    `yaml:"hard-depth" env:"BOT_HARD_DEPTH" env-default:"4"`
	DefaultDifficulty string `yaml:"default-difficulty" env:"BOT_DEFAULT_DIFFICULTY" env-default:"easy"`
}

// Rules flags are opt-in so that a zero value from the file is never
// overridden by a default.
type Rules struct {
	// KeepFailedPiece returns a piece the board rejected to the reserve
	// instead of discarding it.
	KeepFailedPiece bool `yaml:"keep-failed-piece" env:"RULES_KEEP_FAILED_PIECE"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	if err := config.Validate(); err != nil {
		panic(err)
	}

	return config
}

// MustLoadEnv - load configuration from environment variables and defaults only.
func MustLoadEnv() *Config {
	config := &Config{}

	if err := cleanenv.ReadEnv(config); err != nil {
		panic(fmt.Errorf("unable to read env: %w", err))
	}

	if err := config.Validate(); err != nil {
		panic(err)
	}

	return config
}

func (that *Config) Validate() error {
	switch that.Storage {
	case StorageMemory, StorageRedis:
	default:
		return fmt.Errorf("%w: unknown storage %q", ErrInvalidConfig, that.Storage)
	}

	switch that.Bot.DefaultDifficulty {
	case "easy", "hard":
	default:
		return fmt.Errorf("%w: unsupported default difficulty %q", ErrInvalidConfig, that.Bot.DefaultDifficulty)
	}

	if that.Bot.HardDepth < 1 {
		return fmt.Errorf("%w: hard depth must be positive, got %d", ErrInvalidConfig, that.Bot.HardDepth)
	}

	if that.Redis.TTL < 0 {
		return fmt.Errorf("%w: negative redis ttl", ErrInvalidConfig)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
