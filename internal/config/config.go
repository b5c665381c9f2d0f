package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken  string
	DatabaseURL    string
	LLMEndpoint    string
	LLMModel       string
	DigestInterval time.Duration
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken:  strings.TrimSpace(os.Getenv("TASKBOT_TELEGRAM_TOKEN")),
		DatabaseURL:    strings.TrimSpace(os.Getenv("TASKBOT_DATABASE_URL")),
		LLMEndpoint:    strings.TrimSpace(os.Getenv("TASKBOT_LLM_ENDPOINT")),
		LLMModel:       strings.TrimSpace(os.Getenv("TASKBOT_LLM_MODEL")),
		DigestInterval: parseInterval(strings.TrimSpace(os.Getenv("TASKBOT_DIGEST_INTERVAL_HOURS"))),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "db/tasks.db"
	}

	if cfg.LLMModel == "" {
		cfg.LLMModel = "gemma3:latest"
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TASKBOT_TELEGRAM_TOKEN is required")
	}

	if cfg.LLMEndpoint == "" {
		return cfg, fmt.Errorf("TASKBOT_LLM_ENDPOINT is required")
	}

	return cfg, nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
