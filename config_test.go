package habits

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Store != "default" {
		t.Errorf("expected store \"default\", got %q", cfg.Store)
	}
	if cfg.LocalPath == "" {
		t.Error("expected LocalPath to be derived")
	}
	if !strings.Contains(cfg.LocalPath, "default") {
		t.Errorf("LocalPath %q not derived from store id", cfg.LocalPath)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("HABITS_DB_PATH", "/tmp/custom.db")
	t.Setenv("HABITS_STORE", "club/rapid")
	t.Setenv("CHESSCOM_USER_AGENT", "habits-test (test@example.com)")
	t.Setenv("HABITS_DEBUG", "1")
	t.Setenv("HABITS_DEBUG_LOG", "/tmp/debug.log")

	cfg := ConfigFromEnv()
	if cfg.LocalPath != "/tmp/custom.db" {
		t.Errorf("LocalPath = %q", cfg.LocalPath)
	}
	if cfg.Store != "club/rapid" {
		t.Errorf("Store = %q", cfg.Store)
	}
	if cfg.UserAgent != "habits-test (test@example.com)" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if !cfg.Debug {
		t.Error("Debug not enabled")
	}
	if cfg.DebugLogPath != "/tmp/debug.log" {
		t.Errorf("DebugLogPath = %q", cfg.DebugLogPath)
	}
}

func TestConfigFromEnv_Empty(t *testing.T) {
	t.Setenv("HABITS_DB_PATH", "")
	t.Setenv("HABITS_STORE", "")
	t.Setenv("HABITS_DEBUG", "")

	cfg := ConfigFromEnv()
	if cfg.LocalPath != "" || cfg.Store != "" || cfg.Debug {
		t.Errorf("expected zero config, got %+v", cfg)
	}
}

func TestConfigWithDefaults_FillsStoreAndPath(t *testing.T) {
	t.Setenv("HABITS_STORE", "")

	cfg := Config{}.WithDefaults()
	if cfg.Store != "default" {
		t.Errorf("expected store \"default\", got %q", cfg.Store)
	}
	if cfg.LocalPath == "" {
		t.Error("LocalPath not derived")
	}
}

func TestConfigWithDefaults_EnvStoreWins(t *testing.T) {
	t.Setenv("HABITS_STORE", "blitz")

	cfg := Config{}.WithDefaults()
	if cfg.Store != "blitz" {
		t.Errorf("expected store from env, got %q", cfg.Store)
	}
	if !strings.Contains(cfg.LocalPath, "blitz") {
		t.Errorf("LocalPath %q not derived from env store", cfg.LocalPath)
	}
}

func TestConfigWithDefaults_ExplicitFieldsKept(t *testing.T) {
	cfg := Config{Store: "club/rapid", LocalPath: "/tmp/x.db"}.WithDefaults()
	if cfg.Store != "club/rapid" || cfg.LocalPath != "/tmp/x.db" {
		t.Errorf("explicit fields changed: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		field   string
	}{
		{"valid", Config{LocalPath: "/tmp/x.db", Store: "default"}, false, ""},
		{"valid path store", Config{LocalPath: "/tmp/x.db", Store: "club/rapid"}, false, ""},
		{"missing path", Config{Store: "default"}, true, "LocalPath"},
		{"bad store id", Config{LocalPath: "/tmp/x.db", Store: "Club Rapid"}, true, "Store"},
		{"uppercase store", Config{LocalPath: "/tmp/x.db", Store: "BLITZ"}, true, "Store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if verr.Field != tt.field {
					t.Errorf("expected field %q, got %q", tt.field, verr.Field)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
