package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pano_backend/core"
	"pano_backend/core/validation"
	"pano_backend/enrich"
	"pano_backend/handlers"
	"pano_backend/logging"
	"pano_backend/metrics"
	"pano_backend/synth"
	"pano_backend/webui"
	"pano_backend/webui/auth"
)

// Version is the application version, set via -ldflags at build time.
var Version = "1.0.0"

func main() {
	// Service management commands (install/uninstall/start/stop) exit here.
	if HandleServiceCommand(os.Args) {
		return
	}

	// Under a service manager the lifecycle runs inside RunAsService.
	if handled, err := RunAsService(); handled {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(core.ExitCodeError)
		}
		return
	}

	if err := godotenv.Load(); err != nil {
		// Logger is not up yet.
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	isDevelopment := os.Getenv("DEV_MODE") == "true"

	logger, err := logging.NewLogger(isDevelopment, "app.log")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(core.ExitCodeError)
	}
	defer logger.Sync()

	os.Exit(run(context.Background(), logger, isDevelopment))
}

// run carries the full application lifecycle and returns the process exit
// code, so deferred cleanup still executes before os.Exit. Cancelling the
// parent context stops the server the same way SIGTERM does; the service
// wrapper uses this.
func run(parent context.Context, logger *logging.Logger, isDevelopment bool) int {
	config, err := core.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration", zap.Error(err))
		printConfigError(err)
		return core.ExitCodeError
	}

	if code := runStartupValidation(config, logger); code != core.ExitCodeSuccess {
		return code
	}

	logger.Info("Configuration loaded",
		zap.String("sd_server", config.SDServerURL),
		zap.String("sd_model", config.SDModelID),
		zap.Bool("use_lora", config.SDUseLora),
		zap.String("enrich_model", config.EnrichModelID),
		zap.Bool("openai_enrichment", config.UseOpenAIEnrichment()),
		zap.String("outputs_dir", config.OutputsDir),
		zap.Int("port", config.Port),
		zap.Bool("dev_mode", isDevelopment),
	)

	enricher, err := enrich.NewEnricher(config, logger)
	if err != nil {
		logger.Error("Failed to initialize prompt enricher", zap.Error(err))
		printConfigError(err)
		return core.ExitCodeError
	}

	engine := synth.NewEngine(config, logger)
	defer engine.Close()

	collector := metrics.NewCollector()
	broadcaster := webui.NewBroadcaster(logger)

	orchestrator := handlers.NewOrchestrator(enricher, engine, collector, logger).
		WithNotifier(broadcaster)

	api := webui.NewAPI(orchestrator, collector, engine, enricher.Modes(), Version, logger)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var authProvider webui.AuthProvider
	if config.WebUIPassword != "" {
		authMw, err := auth.NewAuthMiddleware(config.WebUIPassword, logger)
		if err != nil {
			logger.Error("Failed to initialize authentication", zap.Error(err))
			return core.ExitCodeError
		}
		authMw.SessionStore().StartCleanupTicker(ctx, auth.DefaultSessionTTL/24)
		authMw.RateLimiter().StartCleanupTicker(ctx, auth.DefaultRateLimitBlock)
		authProvider = authMw
	} else {
		logger.Warn("WEBUI_PWD not set; the web UI is unauthenticated")
	}

	serverConfig := webui.DefaultServerConfig()
	serverConfig.Host = config.Host
	serverConfig.Port = config.Port
	serverConfig.OutputsDir = config.OutputsDir

	server := webui.NewServer(serverConfig, api, broadcaster, authProvider, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	exitCode := core.ExitCodeSuccess
	select {
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		switch sig {
		case syscall.SIGTERM:
			exitCode = core.ExitCodeSIGTERM
		default:
			exitCode = core.ExitCodeSIGINT
		}
	case <-parent.Done():
		logger.Info("Stop requested, shutting down")
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
			return core.ExitCodeError
		}
		return core.ExitCodeSuccess
	}

	// Fresh context: ctx may already be cancelled, which would cut the
	// drain short.
	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}

	logger.Info("Goodbye",
		zap.String("exit", core.ExitCodeName(exitCode)),
		zap.Bool("signal", core.IsSignalExit(exitCode)))
	return exitCode
}

// runStartupValidation checks configuration and backend reachability before
// anything heavy starts. Configuration problems are fatal; unreachable
// backends only warn, since they may come up later.
func runStartupValidation(config *core.Config, logger *logging.Logger) int {
	suite := validation.NewValidationSuite(config).WithShowProgress(true)
	result := suite.Validate()

	if !result.Success {
		logger.Error("Startup validation failed",
			zap.Int("passed", result.PassedSteps),
			zap.Int("failed", result.FailedSteps),
			zap.Duration("duration", result.Duration),
		)
		for _, step := range result.Steps {
			if step.Status == validation.StepFailed {
				logger.Error("Validation step failed",
					zap.String("step", step.Name),
					zap.String("message", step.Message),
					zap.Error(step.Error),
				)
				printConfigError(step.Error)
			}
		}
		return core.ExitCodeError
	}

	logger.Info("Startup validation passed",
		zap.Int("passed", result.PassedSteps),
		zap.Int("warnings", result.Warnings),
		zap.Duration("duration", result.Duration),
	)
	return core.ExitCodeSuccess
}

// printConfigError prints the remediation hint a ConfigError carries, so
// an operator staring at a dead process knows what to fix.
func printConfigError(err error) {
	if cfgErr, ok := core.IsConfigError(err); ok && cfgErr.Action != "" {
		fmt.Fprintf(os.Stderr, "\n%s\n  %s\n", cfgErr.Message, cfgErr.Action)
	}
}
