package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"LogLevel", cfg.LogLevel, "info"},
		{"Resolver.Timeout", cfg.Resolver.Timeout, 30 * time.Second},
		{"Alignment.GuiderBright", cfg.Alignment.GuiderBright, true},
		{"Observer.Name", cfg.Observer.Name, "Mauna Kea"},
		{"Serve.Addr", cfg.Serve.Addr, ":8080"},
		{"Tracing.Exporter", cfg.Tracing.Exporter, "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("LSODL_LOG_LEVEL", "debug")
	t.Setenv("LSODL_RESOLVER_TIMEOUT", "5s")
	t.Setenv("LSODL_ALIGNMENT_GUIDER_BRIGHT", "false")
	t.Chdir(t.TempDir())

	if err := Init(""); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Resolver.Timeout != 5*time.Second {
		t.Errorf("Resolver.Timeout = %v, want 5s", cfg.Resolver.Timeout)
	}
	if cfg.Alignment.GuiderBright {
		t.Error("Alignment.GuiderBright = true, want false")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	viper.Reset()
	path := filepath.Join(t.TempDir(), "odl.yaml")
	data := "instrument: NIRES\nserve:\n  addr: 127.0.0.1:9000\nobserver:\n  lat_deg: -30.24\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Init(path); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Instrument != "NIRES" || cfg.Serve.Addr != "127.0.0.1:9000" || cfg.Observer.LatDeg != -30.24 {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.Observer.LonDeg != -155.4747 {
		t.Errorf("Observer.LonDeg = %v, want default", cfg.Observer.LonDeg)
	}
}

func TestInit_MissingExplicitFile(t *testing.T) {
	viper.Reset()
	if err := Init(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Init() error = nil for missing explicit file")
	}
}

func TestLoad_Invalid(t *testing.T) {
	viper.Reset()
	viper.Set("tracing.sample_ratio", 2.0)
	if _, err := Load(); err == nil {
		t.Error("Load() error = nil for sample_ratio 2")
	}
}
