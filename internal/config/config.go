// Package config loads the treetrim service configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aretw0/treetrim/pkg/domain"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the root of the configuration file.
type Config struct {
	// Listen is the HTTP address of the serve command.
	Listen string `yaml:"listen" validate:"required"`
	// Model keys the hyperparameters of the tree being trimmed.
	Model string `yaml:"model" validate:"required"`

	Trainer Trainer `yaml:"trainer"`
	Store   Store   `yaml:"store"`
	Catalog Catalog `yaml:"catalog"`
	Log     Log     `yaml:"log"`

	// Hyperparameters seed the parameter store for Model.
	Hyperparameters domain.Hyperparameters `yaml:"hyperparameters"`
}

// Trainer configures the training backend client.
type Trainer struct {
	URL            string        `yaml:"url" validate:"omitempty,url"`
	Timeout        time.Duration `yaml:"timeout" validate:"gte=0"`
	RetrainTimeout time.Duration `yaml:"retrain_timeout" validate:"gte=0"`
	// RateLimit is the minimum interval between training requests. Zero disables it.
	RateLimit time.Duration `yaml:"rate_limit" validate:"gte=0"`
	Burst     int           `yaml:"burst" validate:"gte=0"`
}

// Store selects where sessions and hyperparameters live.
type Store struct {
	Kind  string `yaml:"kind" validate:"oneof=memory file redis"`
	Path  string `yaml:"path"`
	Redis Redis  `yaml:"redis"`
	// LockTTL bounds how long a session lock is held (redis only).
	LockTTL time.Duration `yaml:"lock_ttl" validate:"gte=0"`
}

// Redis holds the connection settings of the redis store.
type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" validate:"gte=0"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl" validate:"gte=0"`
}

// Catalog points at reason display text overrides.
type Catalog struct {
	DisplayText string `yaml:"display_text"`
}

// Log configures the application logger.
type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen: ":8080",
		Model:  "default",
		Trainer: Trainer{
			Timeout:        30 * time.Second,
			RetrainTimeout: 2 * time.Minute,
		},
		Store: Store{
			Kind:    "memory",
			LockTTL: 30 * time.Second,
			Redis: Redis{
				Addr: "localhost:6379",
			},
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Hyperparameters: domain.DefaultHyperparameters(),
	}
}

// Load reads path over Default. Environment variables in the file
// (e.g. ${REDIS_PASSWORD}) are expanded before parsing.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes YAML over Default and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the initial hyperparameters.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Store.Kind == "redis" && c.Store.Redis.Addr == "" {
		return errors.New("invalid config: store.redis.addr is required for the redis store")
	}
	if err := c.Hyperparameters.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
