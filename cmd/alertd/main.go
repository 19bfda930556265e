package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/clusterdash/alertd/internal/alerter"
	"github.com/clusterdash/alertd/internal/api"
	"github.com/clusterdash/alertd/internal/bus"
	"github.com/clusterdash/alertd/internal/config"
	"github.com/clusterdash/alertd/internal/heartbeat"
	"github.com/clusterdash/alertd/internal/l10n"
	"github.com/clusterdash/alertd/internal/notifier"
	"github.com/clusterdash/alertd/internal/types"
	"github.com/clusterdash/alertd/internal/version"
	"github.com/clusterdash/alertd/internal/webui"
)

func main() {
	configPath := flag.String("config", "", "Path to alertd configuration (defaults apply when empty)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// Last 1000 log lines are shown in the web UI
	logBuffer := webui.NewLogBuffer(1000)

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(io.MultiWriter(os.Stdout, logBuffer)).With().
		Timestamp().
		Str("version", version.Version).
		Str("commit", version.Commit).
		Logger()

	logger.Info().Msg("Starting alertd")

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			logger.Fatal().
				Err(err).
				Str("config_path", *configPath).
				Msg("Failed to load configuration")
		}
	}
	if addr := os.Getenv("API_ADDR"); addr != "" {
		cfg.Server.Listen = addr
	}

	text, err := l10n.Load(cfg.Locale, cfg.Presentation.CatalogDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load message catalog")
	}

	logger.Info().
		Str("locale", text.Tag().String()).
		Dur("throttle_window", cfg.Policy.ThrottleWindow).
		Int("timeout_threshold", cfg.Policy.TimeoutThreshold).
		Bool("heartbeat", cfg.Heartbeat.Enabled()).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := notifier.NewFeed(cfg.Server.FeedSize)
	sinks := []notifier.Notifier{feed}
	if cfg.Notifiers.Console.Enabled {
		sinks = append(sinks, notifier.NewConsole(os.Stderr, cfg.Notifiers.Console.Width))
	}
	var channels []*notifier.Apprise
	for _, ch := range cfg.Notifiers.Apprise {
		a := notifier.NewApprise(logger, resolveApprise(ch))
		a.Start(ctx)
		channels = append(channels, a)
		sinks = append(sinks, a)
	}

	eventBus := bus.New(logger)
	dispatcher := alerter.NewDispatcher(cfg.Policy,
		alerter.NewPresenter(text, cfg.Presentation, cfg.Policy.ClusterAPIThreshold),
		notifier.NewMulti(logger, sinks...),
		logger)
	dispatcher.Attach(eventBus)
	defer dispatcher.Close()

	var health *api.HealthServer
	if cfg.Server.GRPCListen != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCListen)
		if err != nil {
			logger.Fatal().Err(err).Str("address", cfg.Server.GRPCListen).Msg("Failed to listen for gRPC")
		}
		health = api.NewHealthServer(logger)
		dispatcher.OnHalt(health.MarkHalted)
		go func() {
			if err := health.Serve(lis); err != nil {
				logger.Error().Err(err).Msg("gRPC health server error")
			}
		}()
	}

	if cfg.Heartbeat.Enabled() {
		poller := heartbeat.NewPoller(cfg.Heartbeat.URL, cfg.Heartbeat.Interval, cfg.Heartbeat.Timeout, eventBus, logger)
		go poller.Run(ctx)
	}

	apiServer := api.NewServer(dispatcher, feed, eventBus, logger, cfg.Server.Listen, cfg.Server.EventsPerMinute)
	apiServer.SetLogBuffer(logBuffer)
	apiServer.SetVersion(version.Version, version.Commit, version.BuildDate)

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	logger.Info().
		Str("address", cfg.Server.Listen).
		Msg("Web UI available")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info().Msg("Shutting down...")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("API server error")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("Error stopping API server")
	}
	if health != nil {
		health.Stop()
	}

	cancel()
	for _, a := range channels {
		a.Wait()
	}
	logger.Info().Msg("alertd stopped")
}

// resolveApprise reads channel secrets from the environment
func resolveApprise(ch config.AppriseConfig) notifier.AppriseConfig {
	out := notifier.AppriseConfig{
		Name:       ch.Name,
		ServiceURL: os.Getenv(ch.URLEnv),
	}
	if ch.APIURLEnv != "" {
		out.APIURL = os.Getenv(ch.APIURLEnv)
	}
	for _, s := range ch.SeverityFilter {
		out.Severity = append(out.Severity, types.Severity(s))
	}
	return out
}
