package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Analyzer backends selectable with ANALYZER.
const (
	AnalyzerSimulated = "simulated"
	AnalyzerModel     = "model"
	AnalyzerRemote    = "remote"
)

type Config struct {
	Port                int    `yaml:"port"`
	Host                string `yaml:"host"`
	Password            string `yaml:"password"`
	UploadDirectory     string `yaml:"upload_dir"`
	MaxUploadSize       int64  `yaml:"max_upload_mb"`         // MB
	MaxUploadDirSize    int64  `yaml:"max_upload_dir_mb"`     // MB, 0 disables pruning
	UploadPruneInterval int    `yaml:"upload_prune_interval"` // seconds
	DatabasePath        string `yaml:"db_path"`
	LogDirectory        string `yaml:"log_dir"`
	LogLevel            string `yaml:"log_level"`

	ProcessingWorkers int `yaml:"processing_workers"`
	QueueSize         int `yaml:"queue_size"`

	Analyzer        string `yaml:"analyzer"`
	ImageDelayMs    int    `yaml:"image_delay_ms"`
	VideoDelayMs    int    `yaml:"video_delay_ms"`
	FrameSamples    int    `yaml:"frame_samples"`
	ModelPath       string `yaml:"model_path"`
	ModelConfigPath string `yaml:"model_config_path"`
	FrameInterval   int    `yaml:"frame_interval"` // classify every Nth video frame
	RemoteURL       string `yaml:"remote_url"`
	RemoteTimeout   int    `yaml:"remote_timeout"` // seconds, 0 = no timeout

	EnforceMediaFilter bool     `yaml:"enforce_media_filter"`
	SessionTTLMinutes  int      `yaml:"session_ttl_min"`
	AllowedOrigins     []string `yaml:"allowed_origins"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:                8080,
		Host:                "",
		UploadDirectory:     filepath.Join(".", "static", "uploads"),
		MaxUploadSize:       16,
		MaxUploadDirSize:    1024,
		UploadPruneInterval: 60,
		DatabasePath:        filepath.Join(".", "data", "analyses.db"),
		LogDirectory:        filepath.Join(".", "logs"),
		LogLevel:            "info",
		ProcessingWorkers:   3,
		QueueSize:           100,
		Analyzer:            AnalyzerSimulated,
		ImageDelayMs:        2000,
		VideoDelayMs:        3000,
		FrameSamples:        10,
		FrameInterval:       10,
		EnforceMediaFilter:  true,
		SessionTTLMinutes:   60,
		AllowedOrigins:      []string{"*"},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, a .env file in the working directory and the environment.
func Load() (*Config, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnvAsInt("PORT", cfg.Port)
	cfg.Host = getEnv("HOST", cfg.Host)
	cfg.Password = getEnv("PASSWORD", cfg.Password)
	cfg.UploadDirectory = getEnv("UPLOAD_DIR", cfg.UploadDirectory)
	cfg.MaxUploadSize = getEnvAsInt64("MAX_UPLOAD_MB", cfg.MaxUploadSize)
	cfg.MaxUploadDirSize = getEnvAsInt64("MAX_UPLOAD_DIR_MB", cfg.MaxUploadDirSize)
	cfg.UploadPruneInterval = getEnvAsInt("UPLOAD_PRUNE_INTERVAL", cfg.UploadPruneInterval)
	cfg.DatabasePath = getEnv("DB_PATH", cfg.DatabasePath)
	cfg.LogDirectory = getEnv("LOG_DIR", cfg.LogDirectory)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.ProcessingWorkers = getEnvAsInt("PROCESSING_WORKERS", cfg.ProcessingWorkers)
	cfg.QueueSize = getEnvAsInt("QUEUE_SIZE", cfg.QueueSize)
	cfg.Analyzer = strings.ToLower(getEnv("ANALYZER", cfg.Analyzer))
	cfg.ImageDelayMs = getEnvAsInt("IMAGE_DELAY_MS", cfg.ImageDelayMs)
	cfg.VideoDelayMs = getEnvAsInt("VIDEO_DELAY_MS", cfg.VideoDelayMs)
	cfg.FrameSamples = getEnvAsInt("FRAME_SAMPLES", cfg.FrameSamples)
	cfg.ModelPath = getEnv("MODEL_PATH", cfg.ModelPath)
	cfg.ModelConfigPath = getEnv("MODEL_CONFIG_PATH", cfg.ModelConfigPath)
	cfg.FrameInterval = getEnvAsInt("FRAME_INTERVAL", cfg.FrameInterval)
	cfg.RemoteURL = getEnv("REMOTE_URL", cfg.RemoteURL)
	cfg.RemoteTimeout = getEnvAsInt("REMOTE_TIMEOUT", cfg.RemoteTimeout)
	cfg.EnforceMediaFilter = getEnvAsBool("ENFORCE_MEDIA_FILTER", cfg.EnforceMediaFilter)
	cfg.SessionTTLMinutes = getEnvAsInt("SESSION_TTL_MIN", cfg.SessionTTLMinutes)
	cfg.AllowedOrigins = getEnvAsList("ALLOWED_ORIGINS", cfg.AllowedOrigins)
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Analyzer {
	case AnalyzerSimulated:
	case AnalyzerModel:
		if c.ModelPath == "" {
			return fmt.Errorf("ANALYZER=model requires MODEL_PATH")
		}
	case AnalyzerRemote:
		if c.RemoteURL == "" {
			return fmt.Errorf("ANALYZER=remote requires REMOTE_URL")
		}
	default:
		return fmt.Errorf("unknown analyzer %q", c.Analyzer)
	}
	if c.ProcessingWorkers <= 0 {
		return fmt.Errorf("PROCESSING_WORKERS must be positive, got %d", c.ProcessingWorkers)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadSize)
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MaxUploadBytes is the per-request upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadSize << 20
}

// MaxUploadDirBytes is the upload directory budget in bytes.
func (c *Config) MaxUploadDirBytes() int64 {
	return c.MaxUploadDirSize << 20
}

func (c *Config) ImageDelay() time.Duration {
	return time.Duration(c.ImageDelayMs) * time.Millisecond
}

func (c *Config) VideoDelay() time.Duration {
	return time.Duration(c.VideoDelayMs) * time.Millisecond
}

// PruneInterval is how often the upload directory is checked against its budget.
func (c *Config) PruneInterval() time.Duration {
	return time.Duration(c.UploadPruneInterval) * time.Second
}

func (c *Config) RemoteTimeoutDuration() time.Duration {
	return time.Duration(c.RemoteTimeout) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c *Config) AuthEnabled() bool {
	return c.Password != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
