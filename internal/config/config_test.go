package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.Store.Backend != StoreMemory {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedsim.yaml")
	content := `
addr: ":9090"
default_quantum: 4
store:
  backend: sqlite
  db_path: /tmp/schedsim.db
telemetry:
  otlp_endpoint: collector:4317
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultServerConfig()
	if err := LoadFile(path, &cfg); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.DefaultQuantum != 4 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Store.Backend != StoreSQLite || cfg.Store.DBPath != "/tmp/schedsim.db" {
		t.Errorf("store = %+v", cfg.Store)
	}
	// Untouched fields keep their defaults.
	if cfg.LogLevel != "info" || cfg.Store.RedisPrefix != "schedsim:" {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if cfg.Telemetry.OTLPEndpoint != "collector:4317" || cfg.Telemetry.ServiceName != "schedsim" {
		t.Errorf("telemetry = %+v", cfg.Telemetry)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("store:\n  backend: postgres\n"), 0o644)
	cfg := DefaultServerConfig()
	if err := LoadFile(bad, &cfg); err == nil || !strings.Contains(err.Error(), "postgres") {
		t.Errorf("LoadFile(bad backend) = %v, want backend error", err)
	}

	if err := LoadFile(filepath.Join(dir, "missing.yaml"), &cfg); err == nil {
		t.Error("LoadFile(missing) = nil, want error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SCHEDSIM_ADDR", ":7000")
	t.Setenv("SCHEDSIM_STORE", "redis")
	t.Setenv("SCHEDSIM_REDIS_ADDR", "cache:6379")
	t.Setenv("SCHEDSIM_DEFAULT_QUANTUM", "3")
	t.Setenv("SCHEDSIM_MAX_SLICES", "500")

	cfg := DefaultServerConfig()
	ApplyEnv(&cfg)
	if cfg.Addr != ":7000" || cfg.Store.Backend != StoreRedis || cfg.Store.RedisAddr != "cache:6379" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.DefaultQuantum != 3 {
		t.Errorf("DefaultQuantum = %d, want 3", cfg.DefaultQuantum)
	}
	if cfg.MaxSlices != 500 {
		t.Errorf("MaxSlices = %d, want 500", cfg.MaxSlices)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.DefaultQuantum = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate(quantum=0) = nil, want error")
	}

	cfg = DefaultServerConfig()
	cfg.MaxSlices = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Validate(max_slices=-1) = nil, want error")
	}
	cfg.MaxSlices = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate(max_slices=0) = %v, want nil", err)
	}

	cfg = DefaultServerConfig()
	cfg.Telemetry.SamplingRatio = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("Validate(sampling=1.5) = nil, want error")
	}
}
