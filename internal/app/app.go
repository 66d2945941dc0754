package app

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/five82/codecks-bot/internal/bot"
	"github.com/five82/codecks-bot/internal/codecks"
	"github.com/five82/codecks-bot/internal/config"
	"github.com/five82/codecks-bot/internal/logging"
	"github.com/five82/codecks-bot/internal/metrics"
	"github.com/five82/codecks-bot/internal/state"
	"github.com/five82/codecks-bot/internal/ui"
)

const consoleLogName = "codecks-bot.log"

// Options configure the bot process.
type Options struct {
	ConfigPath string
	EnvFile    string // empty uses ./.env
	PollEvery  int    // seconds; zero uses default
	Console    bool   // run the terminal console instead of Telegram
	LogLevel   string // overrides the configured level when set
	PrefsPath  string // console preferences; empty uses the default
}

// Run boots the cache, the refresher, and the chosen front end, and blocks
// until the context is cancelled or /stop is received.
func Run(ctx context.Context, opts Options) error {
	if err := config.LoadDotenv(opts.EnvFile); err != nil {
		return err
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(!opts.Console); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cmp.Or(opts.LogLevel, cfg.LogLevel))
	if err != nil {
		return err
	}
	logOut, logPath, closeLog, err := logDestination(cfg, opts.Console)
	if err != nil {
		return err
	}
	defer closeLog()
	logger := logging.New(logOut, level)
	slog.SetDefault(logger)
	logger.Info("starting codecks-bot", "account", cfg.Account, "console", opts.Console)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	client, err := codecks.NewClient(codecks.Options{
		BaseURL:  cfg.APIURL,
		Account:  cfg.Account,
		Token:    cfg.APIToken,
		Logger:   logger,
		Recorder: m,
	})
	if err != nil {
		return fmt.Errorf("init codecks client: %w", err)
	}

	mirror, closeMirror, err := openMirror(cfg, logger)
	if err != nil {
		return err
	}
	defer closeMirror()

	store := state.NewStore(state.Options{
		Fetcher:  client,
		Mirror:   mirror,
		Logger:   logger,
		Observer: m,
	})
	if err := store.Bootstrap(ctx); err != nil {
		logger.Warn("bootstrap failed; the refresher will retry", "error", err)
	}

	interval := defaultRefreshInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}
	refresher := NewRefresher(store, interval, logger)
	refresher.Start(ctx)
	defer func() {
		refresher.Stop()
		<-refresher.Done()
	}()

	shutdown := func() {
		refresher.Stop()
		cancel()
	}
	router := bot.NewRouter(bot.RouterOptions{
		Reader:       store,
		AllowedUsers: cfg.AllowedUsers,
		Shutdown:     shutdown,
		Logger:       logger,
	})

	if opts.Console {
		return ui.Run(ui.Options{
			Context:   ctx,
			Router:    router,
			Status:    store,
			Refresh:   store.Refresh,
			Account:   cfg.Account,
			PrefsPath: opts.PrefsPath,
			LogPath:   logPath,
		})
	}

	tg, err := bot.NewTelegram(bot.TelegramOptions{
		Token:  cfg.TelegramToken,
		Router: router,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("init telegram: %w", err)
	}
	return tg.Run(ctx)
}

// openMirror picks Redis when a URL is configured and the data directory
// otherwise.
func openMirror(cfg config.Config, logger *slog.Logger) (state.Mirror, func(), error) {
	if cfg.RedisURL != "" {
		mirror, err := state.NewRedisMirror(cfg.RedisURL, cfg.Account)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis mirror: %w", err)
		}
		logger.Info("using redis mirror")
		return mirror, func() { _ = mirror.Close() }, nil
	}
	mirror, err := state.NewFileMirror(cfg.DataDir, cfg.Account)
	if err != nil {
		return nil, nil, fmt.Errorf("open file mirror: %w", err)
	}
	logger.Info("using file mirror", "path", mirror.Path())
	return mirror, func() {}, nil
}

// logDestination keeps the console's alternate screen clean by sending logs
// to a file under the data directory.
func logDestination(cfg config.Config, console bool) (io.Writer, string, func(), error) {
	if !console {
		return os.Stderr, "", func() {}, nil
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, "", nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(cfg.DataDir, consoleLogName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open log file: %w", err)
	}
	return f, path, func() { _ = f.Close() }, nil
}
