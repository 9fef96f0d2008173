package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("CONFIG_ENV", "missing")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != "release" {
		t.Errorf("mode=%q, want release", cfg.Mode)
	}
	if cfg.ControlPort != 8080 {
		t.Errorf("control_port=%d, want 8080", cfg.ControlPort)
	}
	if !cfg.PublishOnConnect {
		t.Error("publish_on_connect should default to true")
	}
	if cfg.DialTimeout != 10*time.Second {
		t.Errorf("dial_timeout=%s, want 10s", cfg.DialTimeout)
	}
	if cfg.PingPeriod != 25*time.Second {
		t.Errorf("ping_period=%s, want 25s", cfg.PingPeriod)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := []byte("mode: debug\ncontrol_port: 9090\nlocal_name: Tester\npublish_on_connect: false\n")
	if err := os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), yaml, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_ENV", "test")
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != "debug" {
		t.Errorf("mode=%q, want debug", cfg.Mode)
	}
	if cfg.ControlPort != 9090 {
		t.Errorf("control_port=%d, want 9090", cfg.ControlPort)
	}
	if cfg.LocalName != "Tester" {
		t.Errorf("local_name=%q", cfg.LocalName)
	}
	if cfg.PublishOnConnect {
		t.Error("publish_on_connect should be false")
	}
}

func TestSecretsComeFromEnvironment(t *testing.T) {
	t.Setenv("CONFIG_ENV", "missing")
	t.Setenv("VISAGE_API_KEY", "sk-test")
	t.Setenv("VISAGE_AGENT_ID", "agent-7")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "sk-test" {
		t.Errorf("api_key=%q", cfg.APIKey)
	}
	if cfg.AgentID != "agent-7" {
		t.Errorf("agent_id=%q", cfg.AgentID)
	}
}
