// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port  int
	DB    DBConfig
	Kafka KafkaConfig
	Log   LogConfig
}

type DBConfig struct {
	// Driver selects the store implementation: "postgres" (default) or
	// "memory" for running without a database.
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	// Schema is the namespace every data access operates in.
	Schema string
}

type KafkaConfig struct {
	// Brokers empty disables event publishing.
	Brokers []string
	Topic   string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment. A missing .env file is not
// an error; deployments set real environment variables.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port: envInt("PORT", 8080),
		DB: DBConfig{
			Driver:   envStr("DB_DRIVER", "postgres"),
			Host:     envStr("DB_HOST", "localhost"),
			Port:     envInt("DB_PORT", 5432),
			User:     envStr("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     envStr("DB_NAME", "finance"),
			SSLMode:  envStr("DB_SSLMODE", "disable"),
			Schema:   envStr("DB_SCHEMA", "finance_app"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   envStr("KAFKA_TOPIC", "transaction.recorded"),
		},
		Log: LogConfig{
			Level:  envStr("LOG_LEVEL", "info"),
			Format: envStr("LOG_FORMAT", "json"),
		},
	}

	switch cfg.DB.Driver {
	case "postgres", "memory":
	default:
		return Config{}, fmt.Errorf("unknown DB_DRIVER %q", cfg.DB.Driver)
	}
	return cfg, nil
}

// DSN builds the lib/pq connection string. search_path rides along as a
// session runtime parameter, so every pooled connection operates inside the
// application schema from the moment it is established.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s search_path=%s,public",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Schema,
	)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
