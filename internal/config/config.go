package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

const (
	STTModeGoogle = "google"
	STTModeMock   = "mock"
)

// Config holds process configuration read from the environment.
type Config struct {
	Host string `env:"HOST" envDefault:"127.0.0.1"`
	Port int    `env:"PORT" envDefault:"8080"`

	CredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	STTMode         string `env:"STT_MODE" envDefault:"google"`
	LanguageCode    string `env:"LANGUAGE_CODE" envDefault:"es-ES"`

	MinChunkBytes         int           `env:"MIN_CHUNK_BYTES" envDefault:"100"`
	MaxMessageBytes       int64         `env:"MAX_MESSAGE_BYTES" envDefault:"10485760"`
	RecognizeTimeout      time.Duration `env:"RECOGNIZE_TIMEOUT" envDefault:"30s"`
	RecognizerConcurrency int           `env:"RECOGNIZER_CONCURRENCY" envDefault:"8"`

	StaticDir         string        `env:"STATIC_DIR" envDefault:"static"`
	ClientTokenSecret string        `env:"CLIENT_TOKEN_SECRET"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads an optional .env file and parses the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		// A missing .env is normal outside local development.
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	switch c.STTMode {
	case STTModeGoogle, STTModeMock:
	default:
		return fmt.Errorf("invalid STT_MODE %q: expected %q or %q", c.STTMode, STTModeGoogle, STTModeMock)
	}
	if c.LanguageCode == "" {
		return errors.New("LANGUAGE_CODE must not be empty")
	}
	if c.MinChunkBytes < 0 {
		return fmt.Errorf("invalid MIN_CHUNK_BYTES %d", c.MinChunkBytes)
	}
	if c.MaxMessageBytes <= 0 {
		return fmt.Errorf("invalid MAX_MESSAGE_BYTES %d", c.MaxMessageBytes)
	}
	if c.RecognizeTimeout < 0 {
		return fmt.Errorf("invalid RECOGNIZE_TIMEOUT %s", c.RecognizeTimeout)
	}
	if c.RecognizerConcurrency < 1 {
		return fmt.Errorf("invalid RECOGNIZER_CONCURRENCY %d", c.RecognizerConcurrency)
	}
	return nil
}

// Address is the host:port the HTTP server binds to.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
