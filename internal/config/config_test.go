package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.DB.Schema != "finance_app" {
		t.Errorf("schema = %q, want finance_app", cfg.DB.Schema)
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Errorf("brokers = %v, want none by default", cfg.Kafka.Brokers)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown DB_DRIVER")
	}
}

func TestDSNCarriesSearchPath(t *testing.T) {
	db := DBConfig{
		Host:    "db.internal",
		Port:    5432,
		User:    "ledger",
		Name:    "finance",
		SSLMode: "require",
		Schema:  "finance_app",
	}
	dsn := db.DSN()
	if !strings.Contains(dsn, "search_path=finance_app,public") {
		t.Errorf("dsn %q missing search_path", dsn)
	}
	if !strings.Contains(dsn, "host=db.internal") || !strings.Contains(dsn, "sslmode=require") {
		t.Errorf("dsn %q missing connection fields", dsn)
	}
}

func TestBrokerListParsing(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("brokers = %v, want two trimmed entries", cfg.Kafka.Brokers)
	}
}
