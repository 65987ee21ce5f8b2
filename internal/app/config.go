package app

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/specialistvlad/modkernel/internal/kernel"
)

// Loader kinds.
const (
	LoaderFile     = "file"
	LoaderSocketIO = "socketio"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Modules []string // module paths to require
	Root    string   // manifest directory for the file loader
	All     bool     // require every manifest under Root

	Loader          string
	SocketURL       string
	SocketNamespace string
	SocketInsecure  bool
	FetchTimeout    time.Duration
	Policy          string
	Hold            bool
	HealthcheckPort int
	LogFormat       string
	LogLevel        string
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Root:         ".",
		Loader:       LoaderFile,
		FetchTimeout: 10 * time.Second,
		Policy:       "most-children",
		LogFormat:    "json",
		LogLevel:     "info",
	}
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	switch cfg.Loader {
	case LoaderFile:
		if cfg.Root == "" {
			return nil, errors.New("root is required for the file loader")
		}
	case LoaderSocketIO:
		if cfg.SocketURL == "" {
			return nil, errors.New("socket-url is required for the socketio loader")
		}
		if cfg.All {
			return nil, errors.New("--all is only supported by the file loader")
		}
	default:
		return nil, fmt.Errorf("invalid loader '%s': must be '%s' or '%s'", cfg.Loader, LoaderFile, LoaderSocketIO)
	}

	if len(cfg.Modules) == 0 && !cfg.All {
		return nil, errors.New("at least one module path is required")
	}
	if slices.Contains(cfg.Modules, "") {
		return nil, errors.New("module paths cannot be empty")
	}
	if cfg.FetchTimeout <= 0 {
		return nil, errors.New("fetch-timeout must be positive")
	}
	if _, err := kernel.PolicyByName(cfg.Policy); err != nil {
		return nil, err
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, errors.New("invalid log-format: must be 'text' or 'json'")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck-port %d", cfg.HealthcheckPort)
	}

	cfg.Modules = slices.Clone(cfg.Modules)
	return &cfg, nil
}
