// Package main provides the camconsole binary: the operator console for the
// camera and a firmware simulator for development.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saniflush/camconsole/internal/config"
	"github.com/saniflush/camconsole/internal/console"
	"github.com/saniflush/camconsole/internal/eventloop"
	"github.com/saniflush/camconsole/internal/simulator"
)

const (
	appName           = "camconsole"
	defaultConfigFile = "config.yaml"
)

type options struct {
	configPath string
	logLevel   string
	addr       string
	device     string
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Operator console for the Sani Flush camera",
		Long: `camconsole serves the camera's operator pages: a live preview, the
activity log, a WiFi signal indicator and the sensor settings panel.

Run "camconsole simulate" to start a stand-in camera for development.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.addr, "addr", "", "Listen address host:port")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the operator console",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	serve.Flags().StringVar(&opts.device, "device", "", "Camera base URL, e.g. http://192.168.4.1")

	simulate := &cobra.Command{
		Use:   "simulate",
		Short: "Run the camera firmware simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd.Context(), opts)
		},
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, console.Version)
		},
	}

	initConfig := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write a config file with the default settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = defaultConfigFile
			}
			return writeDefaultConfig(path, cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(serve, simulate, initConfig, version)
	return cmd
}

// setup loads the configuration, applies flag overrides and builds the logger
func setup(opts *options) (*config.Config, *slog.Logger, *slog.LevelVar, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		if opts.configPath != "" || !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil, fmt.Errorf("load config: %w", err)
		}
		cfg = config.Default()
	}

	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.device != "" {
		cfg.Device.BaseURL = opts.device
	}

	logger, level := config.NewLogger(os.Stderr, cfg.Logging.Level)
	slog.SetDefault(logger)

	if cfg.ConfigPath == "" {
		logger.Info("No config file found, using defaults")
	} else {
		logger.Info("Loaded configuration", "path", cfg.ConfigPath)
	}
	return cfg, logger, level, nil
}

// writeDefaultConfig writes the defaults to path. An existing file is left
// alone.
func writeDefaultConfig(path string, out io.Writer) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := config.Default().Save(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Fprintf(out, "Wrote default configuration to %s\n", path)
	return nil
}

// parseAddr splits host:port
func parseAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("parse addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("parse port %q: %w", portStr, err)
	}
	return host, port, nil
}

// watchLevel follows the config file and applies log level changes. A level
// given on the command line wins over the file.
func watchLevel(ctx context.Context, cfg *config.Config, opts *options, logger *slog.Logger, level *slog.LevelVar) {
	if cfg.ConfigPath == "" || opts.logLevel != "" {
		return
	}
	go func() {
		err := config.Watch(ctx, cfg.ConfigPath, logger, func(next *config.Config) {
			level.Set(config.ParseLevel(next.Logging.Level))
			logger.Info("Log level reloaded", "level", next.Logging.Level)
		})
		if err != nil {
			logger.Warn("Config watch stopped", "error", err)
		}
	}()
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runServe(parent context.Context, opts *options) error {
	cfg, logger, level, err := setup(opts)
	if err != nil {
		return err
	}
	if opts.addr != "" {
		if cfg.Server.Host, cfg.Server.Port, err = parseAddr(opts.addr); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signalContext(parent)
	defer stop()

	watchLevel(ctx, cfg, opts, logger, level)

	loop := eventloop.New(logger.With("component", "loop"))
	go loop.Run(ctx)
	defer func() {
		loop.Stop()
		loop.Wait()
	}()

	srv, err := console.NewServer(cfg, loop, logger)
	if err != nil {
		return err
	}

	logger.Info("Camera console starting", "version", console.Version, "device", cfg.Device.BaseURL)
	return srv.Start(ctx)
}

func runSimulate(parent context.Context, opts *options) error {
	cfg, logger, level, err := setup(opts)
	if err != nil {
		return err
	}
	if opts.addr != "" {
		if cfg.Simulator.Host, cfg.Simulator.Port, err = parseAddr(opts.addr); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signalContext(parent)
	defer stop()

	watchLevel(ctx, cfg, opts, logger, level)

	sim := simulator.NewServer(cfg.Simulator, logger.With("component", "simulator"))
	return sim.Start(ctx)
}
