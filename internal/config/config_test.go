package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"kwdetect/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "kwdetect", "config.toml"); resolved != want {
		t.Fatalf("resolved path = %q, want %q", resolved, want)
	}

	if want := filepath.Join(tempHome, ".local", "share", "kwdetect"); cfg.Paths.DataDir != want {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, want)
	}
	if want := filepath.Join(cfg.Paths.DataDir, "snapshots.db"); cfg.Store.Path != want {
		t.Fatalf("unexpected store path: got %q want %q", cfg.Store.Path, want)
	}
	if cfg.Dispatch.Mode != config.DispatchModePool {
		t.Fatalf("unexpected dispatch mode: %q", cfg.Dispatch.Mode)
	}
	if cfg.Metrics.Enabled {
		t.Fatal("expected metrics disabled by default")
	}
	if cfg.Report.IntervalSeconds != config.Default().Report.IntervalSeconds {
		t.Fatalf("unexpected report interval: %d", cfg.Report.IntervalSeconds)
	}
	if got := cfg.LogFile(); got != filepath.Join(cfg.Paths.LogDir, "kwdetect.log") {
		t.Fatalf("unexpected log file: %q", got)
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("KWDETECT_METRICS_BIND", "")

	cfgPath := filepath.Join(t.TempDir(), "kwdetect.toml")
	content := `[paths]
data_dir = "~/kw"

[dispatch]
mode = "SPAWN"

[store]
path = "~/db/kw.db"
keep = 5

[metrics]
enabled = true
bind = "0.0.0.0:9100"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != cfgPath {
		t.Fatalf("expected %q to be read, got %q (exists=%v)", cfgPath, resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "kw") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Store.Path != filepath.Join(tempHome, "db", "kw.db") || cfg.Store.Keep != 5 {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Dispatch.Mode != config.DispatchModeSpawn {
		t.Fatalf("mode not normalized: %q", cfg.Dispatch.Mode)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging not normalized: %+v", cfg.Logging)
	}
	if cfg.Metrics.Bind != "0.0.0.0:9100" {
		t.Fatalf("unexpected metrics bind: %q", cfg.Metrics.Bind)
	}
}

func TestMetricsBindFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("KWDETECT_METRICS_BIND", "127.0.0.1:9999")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Metrics.Bind != "127.0.0.1:9999" {
		t.Fatalf("expected env bind, got %q", cfg.Metrics.Bind)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"dispatch mode", "[dispatch]\nmode = \"threads\"\n", "dispatch.mode"},
		{"pool workers", "[dispatch]\nworkers = -1\n", "dispatch.workers"},
		{"interval", "[report]\ninterval_seconds = -5\n", "report.interval_seconds"},
		{"log format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"metrics bind", "[metrics]\nenabled = true\nbind = \"nonsense\"\n", "metrics.bind"},
		{"unknown key", "[store]\nstopwords = [\"x\"]\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			t.Setenv("KWDETECT_METRICS_BIND", "")
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("KWDETECT_METRICS_BIND", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Store.Path = filepath.Join(base, "db", "snapshots.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, filepath.Join(base, "db")} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
