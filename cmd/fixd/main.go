// Fixd is the hybrid remediation dispatcher daemon.
//
// It routes fault-fix tasks between a local pattern engine and a remote
// model engine and serves the dispatcher over HTTP.
//
// Configuration is loaded from ~/.config/fixd/config.yaml (or the path given
// by -config) and overridden by FIXD_* environment variables.
//
// Usage:
//
//	# Start with defaults
//	fixd
//
//	# Override via environment
//	FIXD_SERVER_HTTP_PORT=9191 FIXD_ORCHESTRATOR_DEFAULT_STRATEGY=parallel fixd
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/fixd/internal/classifier"
	"github.com/fyrsmithlabs/fixd/internal/config"
	"github.com/fyrsmithlabs/fixd/internal/events"
	httpserver "github.com/fyrsmithlabs/fixd/internal/http"
	"github.com/fyrsmithlabs/fixd/internal/logging"
	"github.com/fyrsmithlabs/fixd/internal/orchestrator"
	"github.com/fyrsmithlabs/fixd/internal/provider"
	"github.com/fyrsmithlabs/fixd/internal/remediation"
	"github.com/fyrsmithlabs/fixd/internal/secrets"
	"github.com/fyrsmithlabs/fixd/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.config/fixd/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  fixd [-config path]   Start the fixd daemon\n")
			fmt.Fprintf(os.Stderr, "  fixd version          Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("fixd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts fixd and blocks until ctx is cancelled or the server fails.
//
// Startup order:
//  1. Load and validate configuration
//  2. Initialize telemetry, then the logger (which may bridge to it)
//  3. Build both fix engine clients, scrubbing what goes to the remote one,
//     and the orchestrator
//  4. Connect the event publisher when events are enabled
//  5. Serve HTTP until shutdown
func run(ctx context.Context, configPath string) error {
	if configPath == "" {
		// the default location must exist for a later config.yaml to be found
		if err := config.EnsureConfigDir(); err != nil {
			return err
		}
	}
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	telCfg := telemetry.NewDefaultConfig()
	telCfg.ServiceVersion = version
	if err := cfg.Unmarshal("telemetry", telCfg); err != nil {
		return err
	}
	tel, err := telemetry.New(ctx, telCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logCfg := logging.NewDefaultConfig()
	if err := cfg.Unmarshal("logging", logCfg); err != nil {
		return err
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info(ctx, "starting fixd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("default_strategy", cfg.Orchestrator.DefaultStrategy),
		zap.Bool("telemetry_enabled", tel.IsEnabled()),
		zap.Bool("events_enabled", cfg.Events.Enabled),
		zap.Bool("scrubbing_enabled", cfg.Scrubbing.Enabled))

	local, err := newProvider("local", cfg.Providers.Local, logger)
	if err != nil {
		return err
	}
	remoteHTTP, err := newProvider("remote", cfg.Providers.Remote, logger)
	if err != nil {
		return err
	}
	var remote remediation.FixProvider = remoteHTTP
	if cfg.Scrubbing.Enabled {
		scrubber, err := secrets.New(secrets.Config{
			Redaction: cfg.Scrubbing.Redaction,
			AllowList: cfg.Scrubbing.AllowList,
			Gitleaks:  cfg.Scrubbing.Gitleaks,
		})
		if err != nil {
			return fmt.Errorf("failed to create secret scrubber: %w", err)
		}
		remote = provider.WithScrubber(remoteHTTP, scrubber, logger)
	}

	strategy, err := remediation.ParseStrategy(cfg.Orchestrator.DefaultStrategy)
	if err != nil {
		return err
	}
	orch, err := orchestrator.New(local, remote, classifier.New(), &orchestrator.Config{
		DefaultStrategy: strategy,
		ParallelTimeout: cfg.Orchestrator.ParallelTimeout.Duration(),
		HistorySize:     cfg.Orchestrator.HistorySize,
	}, logger, orchestrator.WithTracer(tel.Tracer("github.com/fyrsmithlabs/fixd/orchestrator")))
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	// A nil *Publisher must not reach the server as a non-nil interface.
	var publisher httpserver.EventPublisher
	if cfg.Events.Enabled {
		nc, err := events.Connect(cfg.Events.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		pub, err := events.NewPublisher(nc, cfg.Events.SubjectPrefix, logger)
		if err != nil {
			nc.Close()
			return err
		}
		defer func() {
			if err := pub.Close(); err != nil {
				logger.Warn(context.Background(), "event publisher close failed", zap.Error(err))
			}
		}()
		publisher = pub
		logger.Info(ctx, "event publisher connected",
			zap.String("url", cfg.Events.URL),
			zap.String("prefix", cfg.Events.SubjectPrefix))
	}

	srv, err := httpserver.NewServer(orch, publisher, logger, &httpserver.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		Version:   version,
		Telemetry: tel,
		Meter:     tel.Meter("github.com/fyrsmithlabs/fixd/internal/http"),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	var runErr error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "server shutdown error", zap.Error(err))
	}
	logger.Info(shutdownCtx, "fixd stopped",
		zap.Any("local_provider", local.Stats()),
		zap.Any("remote_provider", remote.Stats()))
	if err := tel.Shutdown(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, "telemetry shutdown error", zap.Error(err))
	}
	return runErr
}

func newProvider(name string, pc config.ProviderConfig, logger *logging.Logger) (*provider.HTTPProvider, error) {
	p, err := provider.New(provider.Config{
		Name:        name,
		Endpoint:    pc.Endpoint,
		APIKey:      pc.APIKey.Value(),
		Timeout:     pc.Timeout.Duration(),
		RateLimit:   pc.RateLimit,
		Burst:       pc.Burst,
		MaxRetries:  pc.MaxRetries,
		BaseBackoff: pc.BaseBackoff.Duration(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", name, err)
	}
	return p, nil
}
