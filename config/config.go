package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration. The encryption secret and IV are
// required: stored rows are unreadable without them, so refusing to start is
// better than running with a wrong key.
type Config struct {
	Port   string `env:"PORT" envDefault:"8081"`
	DBPath string `env:"DB_PATH" envDefault:"messenger.db"`

	JWTSecret      string `env:"JWT_SECRET,required"`
	JWTExpiryHours int    `env:"JWT_EXPIRY_HOURS" envDefault:"4"`

	EncryptionKey string `env:"ENC_KEY,required"`
	EncryptionIV  string `env:"ENC_IV,required"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	MaxMessageLength int `env:"MAX_MESSAGE_LENGTH" envDefault:"2000"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present, for local development.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("loading .env file: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	return cfg, nil
}
