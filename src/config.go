package src

import (
	"fmt"
	"strings"

	"memoria_chatbot/src/model"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

type Config struct {
	LogConfig    model.LogConfig    `envconfig:""`
	HTTPConfig   model.HTTPConfig   `envconfig:""`
	MemoryConfig model.MemoryConfig `envconfig:""`
	WikiConfig   model.WikiConfig   `envconfig:""`
	PersonaFile  string             `envconfig:"PERSONA_FILE" default:"config.yaml"`
}

// LoadEnvFile loads variables from path into the environment. A missing
// file only produces a warning.
func LoadEnvFile(path string) {
	if err := godotenv.Load(path); err != nil {
		log.Warn().Str("file", path).Msg("No .env file loaded, using environment only")
	}
}

func LoadConfig() (*Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the values envconfig cannot
func (c *Config) Validate() error {
	switch strings.ToLower(c.MemoryConfig.Backend) {
	case "file":
	case "redis":
		if c.MemoryConfig.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when MEMORY_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown MEMORY_BACKEND %q (want file or redis)", c.MemoryConfig.Backend)
	}

	switch strings.ToLower(c.LogConfig.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q (want json or console)", c.LogConfig.Format)
	}

	if c.WikiConfig.MaxRetries < 0 {
		return fmt.Errorf("WIKI_MAX_RETRIES must not be negative")
	}
	return nil
}
