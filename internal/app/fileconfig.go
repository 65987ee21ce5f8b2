package app

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// FileConfig is the on-disk TOML form of Config. Zero values leave the
// corresponding Config field untouched.
type FileConfig struct {
	Modules         []string     `toml:"modules"`
	Root            string       `toml:"root"`
	All             *bool        `toml:"all"`
	Loader          string       `toml:"loader"`
	Policy          string       `toml:"policy"`
	Hold            *bool        `toml:"hold"`
	HealthcheckPort int          `toml:"healthcheck_port"`
	Socket          SocketConfig `toml:"socket"`
	Log             LogConfig    `toml:"log"`
}

// SocketConfig is the [socket] table.
type SocketConfig struct {
	URL                string `toml:"url"`
	Namespace          string `toml:"namespace"`
	FetchTimeout       string `toml:"fetch_timeout"`
	InsecureSkipVerify *bool  `toml:"insecure_skip_verify"`
}

// LogConfig is the [log] table.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// LoadFileConfig reads a TOML config file.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	var fc FileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if fc.Socket.FetchTimeout != "" {
		if _, err := time.ParseDuration(fc.Socket.FetchTimeout); err != nil {
			return nil, fmt.Errorf("config parse failed (%s): socket.fetch_timeout: %w", path, err)
		}
	}
	return &fc, nil
}

// Apply copies every value set in the file onto cfg, except for the fields
// named in skip. Field names match the CLI flags.
func (fc *FileConfig) Apply(cfg *Config, skip func(flag string) bool) {
	if skip == nil {
		skip = func(string) bool { return false }
	}
	setString := func(flag, v string, dst *string) {
		if v != "" && !skip(flag) {
			*dst = v
		}
	}
	setBool := func(flag string, v *bool, dst *bool) {
		if v != nil && !skip(flag) {
			*dst = *v
		}
	}

	if len(fc.Modules) > 0 && len(cfg.Modules) == 0 {
		cfg.Modules = append([]string(nil), fc.Modules...)
	}
	setString("root", fc.Root, &cfg.Root)
	setBool("all", fc.All, &cfg.All)
	setString("loader", fc.Loader, &cfg.Loader)
	setString("policy", fc.Policy, &cfg.Policy)
	setBool("hold", fc.Hold, &cfg.Hold)
	if fc.HealthcheckPort != 0 && !skip("healthcheck-port") {
		cfg.HealthcheckPort = fc.HealthcheckPort
	}
	setString("socket-url", fc.Socket.URL, &cfg.SocketURL)
	setString("socket-namespace", fc.Socket.Namespace, &cfg.SocketNamespace)
	setBool("socket-insecure", fc.Socket.InsecureSkipVerify, &cfg.SocketInsecure)
	if fc.Socket.FetchTimeout != "" && !skip("fetch-timeout") {
		// Validated by LoadFileConfig.
		if d, err := time.ParseDuration(fc.Socket.FetchTimeout); err == nil {
			cfg.FetchTimeout = d
		}
	}
	setString("log-level", fc.Log.Level, &cfg.LogLevel)
	setString("log-format", fc.Log.Format, &cfg.LogFormat)
}
