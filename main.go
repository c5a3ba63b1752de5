// Command charbot is the main entrypoint for the chat automation agent.
// It:
//   - Loads configuration and initializes structured logging.
//   - Connects to Slack over Socket Mode and dispatches commands/events to the
//     listening-summary and attachment-relay pipelines.
//   - Schedules the nightly listening summary.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/onnwee/charbot/access"
	"github.com/onnwee/charbot/bot"
	"github.com/onnwee/charbot/config"
	"github.com/onnwee/charbot/lastfm"
	"github.com/onnwee/charbot/notify"
	"github.com/onnwee/charbot/relay"
	"github.com/onnwee/charbot/sched"
	"github.com/onnwee/charbot/server"
	"github.com/onnwee/charbot/slackapi"
	"github.com/onnwee/charbot/summary"
	"github.com/onnwee/charbot/telemetry"
	"github.com/onnwee/charbot/zipline"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	switch strings.ToLower(os.Getenv("LOG_FORMAT")) { // text | json
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateSlackReady(); err != nil {
		slog.Error("slack config invalid", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()
	shutdown, err := telemetry.InitTracing("charbot", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Clients and pipelines. Feature sets degrade independently: missing Last.fm
	// creds disable summaries, missing upload creds disable the relay.
	slack := &slackapi.Client{BotToken: cfg.SlackBotToken, AppToken: cfg.SlackAppToken}
	notifier := &notify.Notifier{Slack: slack}
	guard := access.NewGuard(cfg.BotOwnerID)

	var summarySvc *summary.Service
	if err := cfg.ValidateSummaryReady(); err != nil {
		slog.Warn("listening summaries disabled", slog.Any("err", err))
	} else {
		summarySvc = &summary.Service{
			Scrobbles: &lastfm.Client{APIKey: cfg.LastFMAPIKey, User: cfg.LastFMUser, BaseURL: cfg.LastFMBaseURL},
			Poster:    notifier,
			User:      cfg.LastFMUser,
		}
		if err := sched.StartDaily(ctx, cfg.DailySpec, cfg.Timezone, cfg.ChannelID, summarySvc); err != nil {
			slog.Error("failed to schedule daily summary", slog.Any("err", err))
			os.Exit(1)
		}
	}

	var relayPipe *relay.Pipeline
	if err := cfg.ValidateRelayReady(); err != nil {
		slog.Warn("attachment relay disabled", slog.Any("err", err))
	} else {
		relayPipe = &relay.Pipeline{
			Guard:  guard,
			Source: slack,
			Dest:   zipline.New(cfg.UploadBaseURL, cfg.UploadToken),
			Reply:  notifier,
		}
	}

	// HTTP server (health/readiness/status/metrics)
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	go func() {
		if err := server.Start(ctx, cfg, addr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Socket Mode dispatcher; blocks until shutdown.
	dispatcher := &bot.Dispatcher{
		Slack:    slack,
		Notifier: notifier,
		Guard:    guard,
		Summary:  summarySvc,
		Relay:    relayPipe,
	}
	slog.Info("charbot is running")
	if err := dispatcher.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("dispatcher exited with error", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("shutting down")
}
