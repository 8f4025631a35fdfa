// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type TTSConfig struct {
	DefaultProvider string                       `yaml:"default_provider"` // dashscope|openai|gemini|exec|noop
	ModelProviders  map[string]string            `yaml:"model_providers"`  // model -> provider
	VoiceMap        map[string]map[string]string `yaml:"voice_map"`        // provider -> catalog voice -> provider voice
	MaxConcurrent   int                          `yaml:"max_concurrent"`   // global cap across jobs, 0 = unlimited

	DashScopeKey    string        `yaml:"dashscope_key"`
	DashScopeURL    string        `yaml:"dashscope_url"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`

	OpenAIKey   string `yaml:"openai_key"`
	OpenAIModel string `yaml:"openai_model"`

	GeminiKey   string `yaml:"gemini_key"`
	GeminiURL   string `yaml:"gemini_url"`
	GeminiModel string `yaml:"gemini_model"`

	ExecCommand string `yaml:"exec_command"`
	SampleRate  int    `yaml:"sample_rate"`
	Channels    int    `yaml:"channels"`
}

type BatchConfig struct {
	Concurrency        int           `yaml:"concurrency"`
	MaxSegments        int           `yaml:"max_segments"`
	DefaultMaxLength   int           `yaml:"default_max_length"`
	MaxSegmentLength   int           `yaml:"max_segment_length"`
	DefaultSplitPolicy string        `yaml:"default_split_policy"`
	SegmentTimeout     time.Duration `yaml:"segment_timeout"`
}

type StorageConfig struct {
	Driver     string        `yaml:"driver"` // fs|redis
	Dir        string        `yaml:"dir"`
	StagingDir string        `yaml:"staging_dir"`
	StagingTTL time.Duration `yaml:"staging_ttl"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type BusConfig struct {
	URL           string        `yaml:"url"`
	SubjectPrefix string        `yaml:"subject_prefix"`
	Timeout       time.Duration `yaml:"timeout"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Config struct {
	Log     LogConfig     `yaml:"log"`
	HTTP    HTTPConfig    `yaml:"http"`
	TTS     TTSConfig     `yaml:"tts"`
	Batch   BatchConfig   `yaml:"batch"`
	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Bus     BusConfig     `yaml:"bus"`
	Metrics MetricsConfig `yaml:"metrics"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path (a missing file is fine, defaults
// apply), loads .env, applies environment overrides and validates.
func LoadConfig(path string, dev bool) (*Config, error) {
	// .env values override the process environment.
	if err := godotenv.Overload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
			// defaults only
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8000
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		cfg.HTTP.ShutdownTimeout = 15 * time.Second
	}

	if cfg.TTS.DefaultProvider == "" {
		cfg.TTS.DefaultProvider = "dashscope"
	}
	if cfg.TTS.DashScopeURL == "" {
		cfg.TTS.DashScopeURL = "https://dashscope.aliyuncs.com/api/v1"
	}
	if cfg.TTS.RequestTimeout <= 0 {
		cfg.TTS.RequestTimeout = 30 * time.Second
	}
	if cfg.TTS.DownloadTimeout <= 0 {
		cfg.TTS.DownloadTimeout = 60 * time.Second
	}
	if cfg.TTS.OpenAIModel == "" {
		cfg.TTS.OpenAIModel = "gpt-4o-mini-tts"
	}
	if cfg.TTS.GeminiModel == "" {
		cfg.TTS.GeminiModel = "gemini-2.5-flash-preview-tts"
	}
	if cfg.TTS.SampleRate <= 0 {
		cfg.TTS.SampleRate = 24000
	}
	if cfg.TTS.Channels <= 0 {
		cfg.TTS.Channels = 1
	}

	if cfg.Batch.Concurrency <= 0 {
		cfg.Batch.Concurrency = 3
	}
	if cfg.Batch.MaxSegments <= 0 {
		cfg.Batch.MaxSegments = 100
	}
	if cfg.Batch.MaxSegmentLength <= 0 {
		cfg.Batch.MaxSegmentLength = 1000
	}
	if cfg.Batch.DefaultMaxLength <= 0 || cfg.Batch.DefaultMaxLength > cfg.Batch.MaxSegmentLength {
		cfg.Batch.DefaultMaxLength = cfg.Batch.MaxSegmentLength
	}
	if cfg.Batch.DefaultSplitPolicy == "" {
		cfg.Batch.DefaultSplitPolicy = "paragraph"
	}
	if cfg.Batch.SegmentTimeout <= 0 {
		cfg.Batch.SegmentTimeout = cfg.TTS.RequestTimeout + cfg.TTS.DownloadTimeout
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "fs"
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "audio_output"
	}
	if cfg.Storage.StagingDir == "" {
		cfg.Storage.StagingDir = os.TempDir()
	}
	if cfg.Storage.StagingTTL <= 0 {
		cfg.Storage.StagingTTL = time.Hour
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	if cfg.Bus.SubjectPrefix == "" {
		cfg.Bus.SubjectPrefix = "tts.batch.progress"
	}
	if cfg.Bus.Timeout <= 0 {
		cfg.Bus.Timeout = 2 * time.Second
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.TTS.DashScopeKey, "DASHSCOPE_API_KEY")
	overrideString(&cfg.TTS.OpenAIKey, "OPENAI_API_KEY")
	overrideString(&cfg.TTS.GeminiKey, "GEMINI_API_KEY")
	overrideString(&cfg.TTS.DefaultProvider, "TTS_BATCH_PROVIDER")
	overrideString(&cfg.TTS.ExecCommand, "TTS_BATCH_EXEC_COMMAND")
	overrideString(&cfg.Redis.URL, "REDIS_URL")
	overrideString(&cfg.Bus.URL, "NATS_URL")
	overrideString(&cfg.Log.Level, "TTS_BATCH_LOG_LEVEL")
	overrideString(&cfg.Storage.Driver, "TTS_BATCH_STORAGE_DRIVER")
	overrideString(&cfg.Storage.Dir, "TTS_BATCH_STORAGE_DIR")
	overrideInt(&cfg.HTTP.Port, "TTS_BATCH_HTTP_PORT")
	overrideInt(&cfg.Batch.Concurrency, "TTS_BATCH_CONCURRENCY")
	overrideInt(&cfg.Batch.MaxSegments, "TTS_BATCH_MAX_SEGMENTS")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg *Config) error {
	switch cfg.TTS.DefaultProvider {
	case "dashscope", "openai", "gemini", "exec", "noop":
	default:
		return errors.New("tts.default_provider must be one of dashscope|openai|gemini|exec|noop")
	}
	if cfg.TTS.DefaultProvider == "dashscope" && cfg.TTS.DashScopeKey == "" && !cfg.Runtime.Dev {
		return errors.New("DASHSCOPE_API_KEY (tts.dashscope_key) is required")
	}
	if cfg.TTS.DefaultProvider == "exec" && cfg.TTS.ExecCommand == "" {
		return errors.New("tts.exec_command must be set when default_provider=exec")
	}
	switch cfg.Batch.DefaultSplitPolicy {
	case "paragraph", "sentence", "chapter":
	default:
		return errors.New("batch.default_split_policy must be one of paragraph|sentence|chapter")
	}
	switch cfg.Storage.Driver {
	case "fs":
	case "redis":
		if cfg.Redis.URL == "" {
			return errors.New("redis.url is required when storage.driver=redis")
		}
	default:
		return errors.New("storage.driver must be one of fs|redis")
	}
	if cfg.TTS.MaxConcurrent < 0 {
		return errors.New("tts.max_concurrent must be >= 0")
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
