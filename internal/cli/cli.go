package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/modkernel/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Flags given explicitly override values from the --config file.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("modkernel", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
modkernel - A dynamic module loader with dependency-ordered lifecycles.

Usage:
  modkernel [options] MODULE...

Arguments:
  MODULE
    Path of a module manifest, relative to --root for the file loader or
    as known to the module server for the socketio loader.

Options:
`)
		flagSet.PrintDefaults()
	}

	def := app.DefaultConfig()
	configFlag := flagSet.String("config", "", "Path to a TOML config file. Explicit flags override its values.")
	rootFlag := flagSet.String("root", def.Root, "Directory containing module manifests (file loader).")
	allFlag := flagSet.Bool("all", false, "Require every manifest found under --root.")
	loaderFlag := flagSet.String("loader", def.Loader, "Module source. Options: 'file' or 'socketio'.")
	socketURLFlag := flagSet.String("socket-url", "", "Module server URL for the socketio loader.")
	socketNSFlag := flagSet.String("socket-namespace", "", "Socket.IO namespace of the module server.")
	socketInsecureFlag := flagSet.Bool("socket-insecure", false, "Skip TLS certificate verification for the module server.")
	fetchTimeoutFlag := flagSet.Duration("fetch-timeout", def.FetchTimeout, "How long to wait for the module server to answer a fetch.")
	policyFlag := flagSet.String("policy", def.Policy, "Fetch order. Options: 'most-children' or 'fifo'.")
	holdFlag := flagSet.Bool("hold", false, "Keep modules initialized until interrupted.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", def.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", def.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	cfg := app.Config{
		Modules:         flagSet.Args(),
		Root:            *rootFlag,
		All:             *allFlag,
		Loader:          *loaderFlag,
		SocketURL:       *socketURLFlag,
		SocketNamespace: *socketNSFlag,
		SocketInsecure:  *socketInsecureFlag,
		FetchTimeout:    *fetchTimeoutFlag,
		Policy:          *policyFlag,
		Hold:            *holdFlag,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       *logFormatFlag,
		LogLevel:        *logLevelFlag,
	}

	if *configFlag != "" {
		fileCfg, err := app.LoadFileConfig(*configFlag)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		explicit := make(map[string]bool)
		flagSet.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		fileCfg.Apply(&cfg, func(name string) bool { return explicit[name] })
		slog.Debug("Config file applied.", "path", *configFlag)
	}

	if len(cfg.Modules) == 0 && !cfg.All {
		slog.Debug("No module paths provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
