// Package app is the composition root of codecks-bot.
//
// # Overview
//
// Run wires configuration, logging, metrics, the Codecks client, the
// snapshot mirror, the project cache, the background refresher, and one front
// end (the Telegram transport or the terminal console), then blocks until the
// context is cancelled or a user sends /stop.
//
// # Startup
//
//  1. Load .env, then the TOML config with environment overrides
//  2. Validate required settings; the chat token only without --console
//  3. Build the slog logger (stderr, or <data_dir>/codecks-bot.log for the console)
//  4. Start the metrics listener when METRICS_ADDR is set
//  5. Open the mirror: Redis when REDIS_URL is set, the data directory otherwise
//  6. Bootstrap the cache from the mirror, or a full fetch when none exists
//  7. Start the Refresher
//  8. Run the front end
//
// A failed bootstrap is logged and does not stop startup. The cache stays
// empty, and the Refresher's next Refresh retries the bootstrap.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> codecks.NewClient()   HTTP client with metrics recorder
//	       ├─────> state.NewStore()      cache over client + mirror
//	       ├─────> store.Bootstrap()     mirror load or full fetch
//	       ├─────> Refresher.Start()     background incremental refresh
//	       └─────> Telegram.Run() | ui.Run()   (blocks)
//
//	Refresher loop:
//	┌─────────────────────────────────────────┐
//	│ stopped? ──yes──> exit                  │
//	│ store.Refresh(detached ctx)             │
//	│ wait interval | Stop | ctx.Done         │
//	└─────────────────────────────────────────┘
//
// # Refresh Behavior
//
// The Refresher checks its stop flag at the top of every iteration, runs one
// Refresh on a context that ignores cancellation (so a started refresh
// always finishes and persists), and then waits for the interval (60 seconds
// by default). Stop and context cancellation interrupt only the wait. There
// is no backoff: a failed refresh is logged and retried on the next tick.
//
// # Shutdown
//
// The /stop command calls the shutdown function, which stops the Refresher
// and cancels the process context. The front end returns, and Run waits for
// any in-flight refresh before closing the mirror.
//
// # Error Handling
//
// Fatal (returned from Run): unreadable config, missing required settings,
// an invalid log level, an unreachable Redis, a failed Telegram login.
//
// Recoverable (logged): bootstrap and refresh failures, mirror save
// failures, metrics listener errors, message send failures.
package app
