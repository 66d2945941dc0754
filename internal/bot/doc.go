// Package bot implements the chat command layer over the project cache.
//
// # Overview
//
// Router is transport-neutral: it takes a Request (user id plus command
// text), checks the allow-list, reads from the cache, and returns Replies.
// A Reply carries its text, whether it is HTML, and rows of inline buttons
// whose Data is itself command text. Pressing a button therefore replays a
// command through the same Router, which is how deck and card navigation
// works without any per-chat state.
//
// Telegram adapts Router to the Bot API: typed commands produce new
// messages; button presses are answered and edit the message they came from,
// with any further replies sent as new messages. The console in package ui
// drives the same Router locally.
//
// # Commands
//
//	/start, /decks          deck list with one button per deck
//	/cards [deck]           cards whose deck title contains [deck]
//	/cardinfo <id> [deck]   card title and content; back button to [deck]
//	/upcoming [days]        one message per card due within [days] (30)
//	/help, /mew             canned replies
//	/stop                   replies, then invokes the shutdown callback
//
// Unknown commands and plain text produce no reply. Users outside the
// allow-list get a refusal for every command, and the attempt is logged at
// error level.
//
// # Limits
//
// Telegram caps callback data at 64 bytes. Long deck titles are cut on a
// rune boundary; since deck filters match substrings the cut title still
// selects the deck.
package bot
