package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/five82/codecks-bot/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := pflag.NewFlagSet("codecks-bot", pflag.ContinueOnError)
	configPath := flags.String("config", "", "config file (default ~/.config/codecks-bot/config.toml)")
	envFile := flags.String("env-file", ".env", "dotenv file loaded before the environment is read")
	pollSeconds := flags.Int("poll", 0, "refresh interval in seconds (default 60)")
	console := flags.Bool("console", false, "run the terminal console instead of the Telegram bot")
	logLevel := flags.String("log-level", "", "debug, info, warn, or error (overrides LOG_LEVEL)")
	prefsPath := flags.String("prefs", "", "console preferences file (default ~/.config/codecks-bot/prefs.toml)")
	showHelp := flags.BoolP("help", "h", false, "show help")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "codecks-bot: %v\n", err)
		return 2
	}
	if *showHelp {
		fmt.Fprintf(os.Stderr, "Usage: codecks-bot [flags]\n\n")
		flags.PrintDefaults()
		return 0
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		EnvFile:    *envFile,
		PollEvery:  *pollSeconds,
		Console:    *console,
		LogLevel:   *logLevel,
		PrefsPath:  *prefsPath,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "codecks-bot: %v\n", err)
		return 1
	}
	return 0
}
