// Package config loads the bot's settings from an optional TOML file, a .env
// file, and the process environment.
//
// # Overview
//
// The bot needs Codecks credentials, a chat token, an allow-list of chat
// users, and a handful of optional infrastructure addresses. Every setting
// can come from the environment so the bot runs in a container with nothing
// but env vars; the TOML file exists for local installs where a long-lived
// config is more convenient.
//
// # Resolution Order
//
// Load builds a Config in three layers, later layers winning:
//
//  1. Hardcoded defaults
//  2. The TOML file (explicit path, or ~/.config/codecks-bot/config.toml)
//  3. Non-empty environment variables
//
// LoadDotenv runs before Load in cmd/codecks-bot and copies KEY=VALUE pairs
// from .env into the environment without overriding anything already set.
//
// # Settings
//
//	TOML key             Environment          Default
//	codecks_subdomain    CODECKS_SUBDOMAIN    (required)
//	codecks_api_token    CODECKS_API_TOKEN    (required)
//	codecks_api_url      CODECKS_API_URL      https://api.codecks.io/
//	telegram_bot_token   TELEGRAM_BOT_TOKEN   (required unless --console)
//	allowed_users        ALLOWED_USERS        empty: nobody is authorised
//	data_dir             CODECKS_DATA_DIR     data
//	redis_url            REDIS_URL            empty: file mirror
//	metrics_addr         METRICS_ADDR         empty: no metrics listener
//	log_level            LOG_LEVEL            info
//
// ALLOWED_USERS is a comma-separated list of numeric user ids; the TOML form
// is an integer array.
//
// # TOML Format
//
//	codecks_subdomain = "acme"
//	codecks_api_token = "..."
//	telegram_bot_token = "..."
//	allowed_users = [123456789]
//	data_dir = "~/.local/share/codecks-bot"
//
// # Path Expansion
//
// The config path and data_dir accept "~" and relative paths; both are
// expanded to absolute paths.
//
// # Error Handling
//
// Load returns errors for unreadable or malformed TOML and for unparseable
// ALLOWED_USERS entries. A missing file is not an error. Validate reports
// every missing required setting in one error so operators fix them in one
// pass.
package config
