// Package state owns the cached Codecks project snapshot.
//
// # Overview
//
// The Store holds decks, cards, and the time of the last successful refresh.
// It is the coordination point where the background refresher meets the chat
// command handlers and the operator console.
//
//	Refresher (single writer):        Readers (many):
//	┌──────────────────────────┐      ┌──────────────────────┐
//	│ FetchHistory(lastUpdate) │      │ Decks()              │
//	│ FetchCards(ids)          │      │ Cards(filter)        │
//	│ merge (outside locks)    │      │ Card(id)             │
//	│ install (data lock)      │─────→│ DueCards(days)       │
//	│ advance (ts lock)        │      │                      │
//	│ persist (mirror)         │      │                      │
//	└──────────────────────────┘      └──────────────────────┘
//
// # Concurrency Model
//
// Two sync.RWMutex values guard the snapshot:
//
//   - dataMu guards the deck and card map references
//   - tsMu guards lastUpdate
//
// Neither is held across a network call or mirror I/O. A merge clones the
// card map, applies the remote fields, and swaps the new map in under dataMu.
// Installed maps are never written again, so a reader only needs the lock long
// enough to copy a map reference; filtering, regex scanning, and sorting run
// after the lock is released.
//
// Bootstrap, Refresh, and RefreshIncremental share one singleflight key: at
// most one cycle runs at a time and concurrent callers wait for its result.
//
// # Freshness
//
// lastUpdate advances only when a cycle completes without error, and only
// ever forwards. The value it advances to is captured before the remote call
// (truncated to whole seconds), so activity that lands while the call is in
// flight is picked up by the next window. A failed history or card fetch
// leaves both the snapshot and lastUpdate alone; the next cycle asks for the
// same window again, and because the merge is idempotent, replaying it is
// harmless.
//
// # Mirror
//
// After every successful mutation the snapshot is written to a Mirror:
//
//	{"decks": {...}, "cards": {...}, "last_update": "2024-02-01T10:00:00Z"}
//
// FileMirror writes <data_dir>/<account>/codecks.json with an atomic rename;
// RedisMirror stores the same document under codecks:<account>:snapshot.
// Save failures are logged and the in-memory snapshot stays authoritative.
//
// On Bootstrap a missing mirror triggers a full fetch. A mirror that cannot be
// decoded is logged and also triggers a full fetch rather than leaving the
// cache empty. If that fetch fails the Store stays unbootstrapped and Refresh
// retries the bootstrap on the next cycle.
//
// # Due Dates
//
// A card is due when its content holds a token like [05/01/25]
// (day/month/two-digit year). Tokens that are not real dates are ignored. The
// earliest valid token is the card's sort key.
package state
