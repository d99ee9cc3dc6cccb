// Package config loads service configuration from an optional YAML file
// overlaid by environment variables. A .env file is honored when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pcubed/gradeboard/pkg/logger"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	GCP       GCPConfig       `yaml:"gcp"`
	Functions FunctionsConfig `yaml:"functions"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       logger.Config   `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type GCPConfig struct {
	ProjectID       string `yaml:"projectId"`
	CredentialsFile string `yaml:"credentialsFile"`
	UploadBucket    string `yaml:"uploadBucket"`
}

type FunctionsConfig struct {
	FormatURL string        `yaml:"formatUrl"`
	Timeout   time.Duration `yaml:"-"`
}

// UnmarshalYAML accepts the timeout as a duration string ("10s", "1m").
func (f *FunctionsConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		FormatURL string `yaml:"formatUrl"`
		Timeout   string `yaml:"timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.FormatURL != "" {
		f.FormatURL = raw.FormatURL
	}
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("parse functions timeout: %w", err)
		}
		f.Timeout = d
	}
	return nil
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

type AuthConfig struct {
	Audience string `yaml:"audience"`
}

// Load reads path (when non-empty and present) and then applies environment
// overrides. Missing optional values fall back to defaults.
func Load(path string) (*Config, error) {
	// Best effort; explicit environment variables win over .env contents.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{Addr: ":8080"},
		Functions: FunctionsConfig{
			Timeout: 30 * time.Second,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Log: logger.Config{
			Level:       "info",
			Encoding:    "json",
			OutputPaths: []string{"stdout"},
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)

	if cfg.GCP.ProjectID == "" {
		return nil, fmt.Errorf("GCP project id must be set (GRADEBOARD_PROJECT_ID)")
	}
	if cfg.Functions.FormatURL == "" {
		return nil, fmt.Errorf("format function URL must be set (GRADEBOARD_FORMAT_URL)")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "GRADEBOARD_ADDR")
	setString(&cfg.GCP.ProjectID, "GRADEBOARD_PROJECT_ID")
	setString(&cfg.GCP.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setString(&cfg.GCP.UploadBucket, "GRADEBOARD_UPLOAD_BUCKET")
	setString(&cfg.Functions.FormatURL, "GRADEBOARD_FORMAT_URL")
	setString(&cfg.Redis.Addr, "GRADEBOARD_REDIS_ADDR")
	setString(&cfg.Auth.Audience, "GRADEBOARD_AUTH_AUDIENCE")
	setString(&cfg.Log.Level, "GRADEBOARD_LOG_LEVEL")

	if v := os.Getenv("GRADEBOARD_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	if v := os.Getenv("GRADEBOARD_FUNCTION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Functions.Timeout = d
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
