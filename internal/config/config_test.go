package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Port)
	}
	if cfg.Analyzer != AnalyzerSimulated {
		t.Errorf("Expected simulated analyzer, got %s", cfg.Analyzer)
	}
	if cfg.MaxUploadBytes() != 16<<20 {
		t.Errorf("Expected 16MB upload limit, got %d", cfg.MaxUploadBytes())
	}
	if cfg.AuthEnabled() {
		t.Error("Auth should be disabled without a password")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("IMAGE_DELAY_MS", "5")
	t.Setenv("ENFORCE_MEDIA_FILTER", "false")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("PROCESSING_WORKERS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Port)
	}
	if cfg.ImageDelay().Milliseconds() != 5 {
		t.Errorf("Expected 5ms image delay, got %v", cfg.ImageDelay())
	}
	if cfg.EnforceMediaFilter {
		t.Error("Expected media filter to be advisory")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("Unexpected origins: %v", cfg.AllowedOrigins)
	}
	if cfg.ProcessingWorkers != 3 {
		t.Errorf("Invalid int should keep default, got %d", cfg.ProcessingWorkers)
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "deepfake.yaml")
	content := "port: 7000\nanalyzer: remote\nremote_url: http://detector.local\nframe_samples: 4\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 7001 {
		t.Errorf("Env should win over YAML, got port %d", cfg.Port)
	}
	if cfg.Analyzer != AnalyzerRemote || cfg.RemoteURL != "http://detector.local" {
		t.Errorf("YAML analyzer settings not applied: %s %s", cfg.Analyzer, cfg.RemoteURL)
	}
	if cfg.FrameSamples != 4 {
		t.Errorf("Expected 4 frame samples, got %d", cfg.FrameSamples)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	unsetEnv(t, "LOG_LEVEL")

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\n"), 0644); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level from .env, got %s", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"model without path", func(c *Config) { c.Analyzer = AnalyzerModel }, true},
		{"model with path", func(c *Config) { c.Analyzer = AnalyzerModel; c.ModelPath = "m.onnx" }, false},
		{"remote without url", func(c *Config) { c.Analyzer = AnalyzerRemote }, true},
		{"unknown analyzer", func(c *Config) { c.Analyzer = "oracle" }, true},
		{"no workers", func(c *Config) { c.ProcessingWorkers = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// unsetEnv removes key for the duration of the test, including any value a
// .env file loaded during it.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	orig, had := os.LookupEnv(key)
	os.Unsetenv(key)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, orig)
		} else {
			os.Unsetenv(key)
		}
	})
}
