package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"claim-prediction-api/inference"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig   `yaml:"server"`
	Artifacts ArtifactConfig `yaml:"artifacts"`
	Log       LogConfig      `yaml:"log"`
	CORS      CORSConfig     `yaml:"cors"`
	Cache     CacheConfig    `yaml:"cache"`
	Redis     RedisConfig    `yaml:"redis"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type ArtifactConfig struct {
	Dir        string `yaml:"dir"`
	Preprocess string `yaml:"preprocess"`
	Model      string `yaml:"model"`
	Threshold  string `yaml:"threshold"`
}

// Paths resolves each artifact, falling back to the default file name
// under Dir.
func (a ArtifactConfig) Paths() inference.Paths {
	p := inference.DefaultPaths(a.Dir)
	if a.Preprocess != "" {
		p.Preprocess = a.Preprocess
	}
	if a.Model != "" {
		p.Model = a.Model
	}
	if a.Threshold != "" {
		p.Threshold = a.Threshold
	}
	return p
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins"`
}

// Origins splits the comma-separated list, dropping blank entries.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// AllowAll reports whether the list is the single wildcard.
func (c CORSConfig) AllowAll() bool {
	origins := c.Origins()
	return len(origins) == 1 && origins[0] == "*"
}

func (c CORSConfig) validate() error {
	origins := c.Origins()
	if len(origins) == 0 {
		return errors.New("cors allowed origins is empty")
	}
	if c.AllowAll() {
		return nil
	}
	for _, o := range origins {
		if o == "*" {
			return errors.New("cors wildcard \"*\" cannot be combined with other origins")
		}
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("cors origin %q must start with http:// or https://", o)
		}
	}
	return nil
}

type CacheConfig struct {
	Size   int `yaml:"size"`
	TTLSec int `yaml:"ttl_sec"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

func defaults() *Config {
	return &Config{
		Server:    ServerConfig{Port: 8501},
		Artifacts: ArtifactConfig{Dir: "artifacts"},
		Log:       LogConfig{Level: "info", Format: "json"},
		CORS:      CORSConfig{AllowedOrigins: "*"},
		Cache:     CacheConfig{Size: 0, TTLSec: 300},
	}
}

// LoadConfig starts from defaults, applies CONFIG_FILE when set, then lets
// environment variables override.
func LoadConfig() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(filepath.Clean(path), cfg); err != nil {
			return nil, err
		}
	}

	var err error
	if cfg.Server.Port, err = getIntEnv("SERVER_PORT", cfg.Server.Port); err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	if cfg.Cache.Size, err = getIntEnv("SCORE_CACHE_SIZE", cfg.Cache.Size); err != nil {
		return nil, fmt.Errorf("invalid SCORE_CACHE_SIZE: %w", err)
	}
	if cfg.Cache.TTLSec, err = getIntEnv("SCORE_CACHE_TTL_SEC", cfg.Cache.TTLSec); err != nil {
		return nil, fmt.Errorf("invalid SCORE_CACHE_TTL_SEC: %w", err)
	}

	cfg.Artifacts.Dir = getEnv("ARTIFACT_DIR", cfg.Artifacts.Dir)
	cfg.Artifacts.Preprocess = getEnv("PREPROCESS_PATH", cfg.Artifacts.Preprocess)
	cfg.Artifacts.Model = getEnv("MODEL_PATH", cfg.Artifacts.Model)
	cfg.Artifacts.Threshold = getEnv("THRESHOLD_PATH", cfg.Artifacts.Threshold)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
	cfg.CORS.AllowedOrigins = getEnv("CORS_ALLOWED_ORIGINS", cfg.CORS.AllowedOrigins)
	cfg.Redis.URL = getEnv("REDIS_URL", cfg.Redis.URL)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("score cache size %d is negative", c.Cache.Size)
	}
	if c.Cache.TTLSec <= 0 {
		return fmt.Errorf("score cache ttl %ds must be positive", c.Cache.TTLSec)
	}
	return c.CORS.validate()
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer file.Close()

	// an empty file leaves the defaults in place
	if err := yaml.NewDecoder(file).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}
