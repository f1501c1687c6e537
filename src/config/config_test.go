package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv() unexpected error: %v", err)
		}
		if cfg.Store.Capacity != 10000 {
			t.Errorf("Store.Capacity = %d, want 10000", cfg.Store.Capacity)
		}
		if cfg.Store.AnalyticsWindow != 1000 {
			t.Errorf("Store.AnalyticsWindow = %d, want 1000", cfg.Store.AnalyticsWindow)
		}
		if cfg.Broker.Topic != "opslens.logs.raw" {
			t.Errorf("Broker.Topic = %q", cfg.Broker.Topic)
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("OPSLENS_ADDR", ":9999")
		t.Setenv("OPSLENS_STORE_CAPACITY", "50")
		t.Setenv("OPSLENS_BROKERS", "localhost:19092, redpanda:9092,")
		t.Setenv("OPSLENS_JENKINS_URL", "http://jenkins:8080")
		t.Setenv("OPSLENS_COLLECT_RATE", "0.5")

		cfg, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv() unexpected error: %v", err)
		}
		if cfg.Server.Addr != ":9999" {
			t.Errorf("Server.Addr = %q, want :9999", cfg.Server.Addr)
		}
		if cfg.Store.Capacity != 50 {
			t.Errorf("Store.Capacity = %d, want 50", cfg.Store.Capacity)
		}
		if len(cfg.Broker.Brokers) != 2 || cfg.Broker.Brokers[1] != "redpanda:9092" {
			t.Errorf("Broker.Brokers = %v", cfg.Broker.Brokers)
		}
		if cfg.Jenkins.BaseURL != "http://jenkins:8080" {
			t.Errorf("Jenkins.BaseURL = %q", cfg.Jenkins.BaseURL)
		}
		if cfg.Server.CollectRate != 0.5 {
			t.Errorf("Server.CollectRate = %v, want 0.5", cfg.Server.CollectRate)
		}
	})

	t.Run("invalid integer", func(t *testing.T) {
		t.Setenv("OPSLENS_STORE_CAPACITY", "lots")

		_, err := LoadFromEnv()
		if err == nil {
			t.Error("LoadFromEnv() expected error for non-integer capacity, got nil")
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		t.Setenv("OPSLENS_LOG_LEVEL", "loud")

		_, err := LoadFromEnv()
		if err == nil || !strings.Contains(err.Error(), "log.level") {
			t.Errorf("LoadFromEnv() error = %v, want log.level error", err)
		}
	})
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "opslens.yaml")
	content := `
server:
  addr: ":7000"
log:
  level: debug
  format: json
store:
  capacity: 200
cloudwatch:
  region: eu-west-1
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OPSLENS_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("Server.Addr = %q, want :7000", cfg.Server.Addr)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want env override warn", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}
	if cfg.Store.Capacity != 200 {
		t.Errorf("Store.Capacity = %d, want 200", cfg.Store.Capacity)
	}
	if cfg.Store.QueryLimit != 1000 {
		t.Errorf("Store.QueryLimit = %d, want default 1000", cfg.Store.QueryLimit)
	}
	if got := cfg.CollectorDefaults("cloud-log")["region"]; got != "eu-west-1" {
		t.Errorf("CollectorDefaults(cloud-log)[region] = %v", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("store: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for malformed YAML")
	}
}

func TestMustLoad_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustLoad() did not panic on invalid configuration")
		}
	}()
	t.Setenv("OPSLENS_STORE_CAPACITY", "0")
	MustLoad("")
}

func TestCollectorDefaults(t *testing.T) {
	cfg := Default()
	cfg.Jenkins.BaseURL = "http://ci"
	cfg.Jenkins.Token = "secret"

	ci := cfg.CollectorDefaults("ci")
	if ci["baseUrl"] != "http://ci" || ci["apiToken"] != "secret" {
		t.Errorf("CollectorDefaults(ci) = %v", ci)
	}
	if _, ok := ci["username"]; ok {
		t.Error("CollectorDefaults(ci) included empty username")
	}

	if got := cfg.CollectorDefaults("orchestrator")["namespace"]; got != "default" {
		t.Errorf("CollectorDefaults(orchestrator)[namespace] = %v, want default", got)
	}
	if len(cfg.CollectorDefaults("unknown")) != 0 {
		t.Error("CollectorDefaults(unknown) not empty")
	}
}
