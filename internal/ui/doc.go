// Package ui provides a terminal console for browsing the cached Codecks
// project without a chat account.
//
// # Overview
//
// The console is a Bubble Tea program that drives the same bot.Router the
// Telegram transport uses. Every screen is the reply to a command: the deck
// list is "/decks", a deck is "/cards <title>", a card is "/cardinfo <id>".
// Reply buttons become a selectable list on the left; reply text, with its
// <b> and <pre> spans styled, fills a scrollable viewport on the right.
// Console requests are marked local and bypass the chat allow-list.
//
// # Layout
//
//	┌ header: account · refresh notice · cache age ┐
//	│ buttons          │ reply text (viewport)     │
//	└ footer: short help, or the command prompt    ┘
//
// # Keys
//
//   - j/k, g/G: move through buttons; enter opens, esc goes back
//   - d, u: jump to decks or upcoming due dates
//   - : or /: type any command, e.g. "/upcoming 7"
//   - r: refresh the cache now; ctrl+d/ctrl+u scroll the text
//   - T cycles the theme; h/? toggles help; q quits
//
// # Updates
//
// A tick (one second by default) reads the cache's last-update time. When it
// moves, the current command is re-run so the screen follows background
// refreshes without losing the cursor.
package ui
