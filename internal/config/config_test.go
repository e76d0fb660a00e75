package config

import "testing"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/dropnote_test")
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("RABBITMQ_URL", "amqp://localhost")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, expected 8080", cfg.ServerPort)
	}
	if cfg.DailyTokenLimit != DefaultDailyTokenLimit {
		t.Errorf("DailyTokenLimit = %d, expected %d", cfg.DailyTokenLimit, DefaultDailyTokenLimit)
	}
	if cfg.SessionTTLHours != 72 {
		t.Errorf("SessionTTLHours = %d, expected 72", cfg.SessionTTLHours)
	}
	if cfg.RabbitMQPrefetch != 1 {
		t.Errorf("RabbitMQPrefetch = %d, expected 1", cfg.RabbitMQPrefetch)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"missing database url", "DATABASE_URL"},
		{"missing session secret", "SESSION_SECRET"},
		{"missing rabbitmq url", "RABBITMQ_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.unset, "")

			if _, err := Load(); err == nil {
				t.Errorf("Load() succeeded without %s", tt.unset)
			}
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("AI_DAILY_TOKEN_LIMIT", "1000")
	t.Setenv("SERVER_DEBUG_MODE", "true")
	t.Setenv("AI_MODEL", "gpt-4o-mini")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.DailyTokenLimit != 1000 {
		t.Errorf("DailyTokenLimit = %d, expected 1000", cfg.DailyTokenLimit)
	}
	if !cfg.ServerDebugMode {
		t.Error("ServerDebugMode = false, expected true")
	}
	if cfg.AIModel != "gpt-4o-mini" {
		t.Errorf("AIModel = %q, expected gpt-4o-mini", cfg.AIModel)
	}
}

func TestLoadNonPositiveTokenLimitFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("AI_DAILY_TOKEN_LIMIT", "-5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.DailyTokenLimit != DefaultDailyTokenLimit {
		t.Errorf("DailyTokenLimit = %d, expected default %d", cfg.DailyTokenLimit, DefaultDailyTokenLimit)
	}
}
