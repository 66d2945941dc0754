package bot

import (
	"cmp"
	"fmt"
	"html"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/five82/codecks-bot/internal/state"
)

// Reader is the read side of the project cache.
type Reader interface {
	Decks() map[string]state.Deck
	Cards(deckFilter string) []state.Card
	Card(id string) (state.Card, bool)
	DueCards(horizonDays int) []state.DueCard
}

// Request is one command from a chat user, either typed or carried by a
// button press.
type Request struct {
	UserID int64
	Text   string
	Local  bool // console requests skip the allow-list
}

// Button is an inline button whose Data is replayed as a command when pressed.
type Button struct {
	Text string
	Data string
}

// Reply is one outgoing message.
type Reply struct {
	Text    string
	HTML    bool
	Buttons [][]Button
}

const (
	defaultUpcomingDays = 30
	maxCallbackBytes    = 64
	dueLayout           = "[02/01/06]"
)

// Canned replies.
const (
	ReplyUnauthorised = "You are not authorised to use this bot."
	ReplyHelp         = "I'm not very helpful yet, sorry :c"
	ReplyMew          = "mememewwwww, love you so much liomns 💟💜🟪"
	ReplyShutdown     = "Shutting down..."
	ReplyNoCardID     = "No card ID provided"
	ReplyCardNotFound = "Card not found"
	ReplyInvalidArg   = "Invalid argument"
	ReplyNoUpcoming   = "No upcoming due dates."
)

// Command describes one supported command for menus and help listings.
type Command struct {
	Name        string
	Description string
}

// Commands lists the commands the router understands, in menu order.
var Commands = []Command{
	{"decks", "List decks"},
	{"cards", "List cards in a deck"},
	{"cardinfo", "Show a card"},
	{"upcoming", "Cards due soon (days, default 30)"},
	{"help", "Help"},
	{"mew", "Mew"},
	{"stop", "Stop the bot"},
}

// RouterOptions configure a Router.
type RouterOptions struct {
	Reader       Reader
	AllowedUsers []int64
	Shutdown     func()
	Logger       *slog.Logger
}

// Router turns command text into replies. It holds no transport state, so the
// Telegram loop and the console share one instance.
type Router struct {
	reader   Reader
	allowed  map[int64]struct{}
	shutdown func()
	logger   *slog.Logger
}

// NewRouter builds a Router. A nil Shutdown makes /stop reply without
// stopping anything.
func NewRouter(opts RouterOptions) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[int64]struct{}, len(opts.AllowedUsers))
	for _, id := range opts.AllowedUsers {
		allowed[id] = struct{}{}
	}
	return &Router{
		reader:   opts.Reader,
		allowed:  allowed,
		shutdown: opts.Shutdown,
		logger:   logger.With("component", "bot"),
	}
}

// Authorised reports whether userID is on the allow-list.
func (r *Router) Authorised(userID int64) bool {
	_, ok := r.allowed[userID]
	return ok
}

// Handle runs one command and returns the replies to send, in order. Text
// that is not a known command yields no replies.
func (r *Router) Handle(req Request) []Reply {
	name, args, ok := ParseCommand(req.Text)
	if !ok {
		r.logger.Debug("ignoring non-command message", "user", req.UserID)
		return nil
	}
	r.logger.Info("command received", "user", req.UserID, "command", name, "args", len(args))

	if !req.Local && !r.Authorised(req.UserID) {
		r.logger.Error("unauthorised user", "user", req.UserID, "command", name)
		return []Reply{{Text: ReplyUnauthorised}}
	}

	switch name {
	case "help":
		return []Reply{{Text: ReplyHelp}}
	case "mew":
		return []Reply{{Text: ReplyMew}}
	case "start", "decks":
		return []Reply{r.decks()}
	case "stop":
		if r.shutdown != nil {
			r.logger.Warn("shutdown requested", "user", req.UserID)
			r.shutdown()
		}
		return []Reply{{Text: ReplyShutdown}}
	case "cards":
		return []Reply{r.cards(strings.Join(args, " "))}
	case "cardinfo":
		return []Reply{r.cardInfo(args)}
	case "upcoming":
		return r.upcoming(args)
	default:
		r.logger.Debug("unknown command", "command", name)
		return nil
	}
}

// ParseCommand splits "/name@bot arg1 arg2" into its lower-cased name and
// arguments.
func ParseCommand(text string) (name string, args []string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}
	name = strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return "", nil, false
	}
	return strings.ToLower(name), fields[1:], true
}

func (r *Router) decks() Reply {
	decks := slices.Collect(maps.Values(r.reader.Decks()))
	slices.SortFunc(decks, func(a, b state.Deck) int {
		return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.ID, b.ID))
	})

	buttons := make([][]Button, 0, len(decks))
	for _, deck := range decks {
		buttons = append(buttons, []Button{{
			Text: orDefault(deck.Title, "No Title"),
			Data: callbackData("/cards " + deck.Title),
		}})
	}
	return Reply{Text: "Decks:", Buttons: buttons}
}

func (r *Router) cards(deck string) Reply {
	cards := r.reader.Cards(deck)

	buttons := make([][]Button, 0, len(cards)+1)
	for _, card := range cards {
		buttons = append(buttons, []Button{{
			Text: orDefault(card.Title, "Err: No Title"),
			Data: callbackData(strings.TrimSpace("/cardinfo " + card.ID + " " + deck)),
		}})
	}
	buttons = append(buttons, []Button{{Text: "[Return to decks]", Data: "/decks"}})
	return Reply{Text: "Cards for: " + deck, Buttons: buttons}
}

func (r *Router) cardInfo(args []string) Reply {
	if len(args) == 0 {
		r.logger.Warn("cardinfo without card id")
		return Reply{Text: ReplyNoCardID}
	}
	id := args[0]
	deck := strings.Join(args[1:], " ")

	back := []Button{{Text: "[Return to decks]", Data: "/decks"}}
	if deck != "" {
		back = []Button{{Text: fmt.Sprintf("[Return to %s]", deck), Data: callbackData("/cards " + deck)}}
	}

	card, ok := r.reader.Card(id)
	if !ok {
		return Reply{Text: ReplyCardNotFound, Buttons: [][]Button{back}}
	}
	text := fmt.Sprintf("<b>%s</b>\n\n<pre>%s</pre>",
		html.EscapeString(orDefault(card.Title, "No Title")),
		html.EscapeString(orDefault(card.Content, "No Content")))
	return Reply{Text: text, HTML: true, Buttons: [][]Button{back}}
}

func (r *Router) upcoming(args []string) []Reply {
	days := defaultUpcomingDays
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			r.logger.Error("invalid upcoming argument", "arg", args[0], "error", err)
			return []Reply{{Text: ReplyInvalidArg}}
		}
		days = n
	}

	due := r.reader.DueCards(days)
	if len(due) == 0 {
		return []Reply{{Text: ReplyNoUpcoming}}
	}
	decks := r.reader.Decks()

	replies := make([]Reply, 0, len(due))
	for _, item := range due {
		deckTitle := "Unknown Deck"
		if deck, ok := decks[item.Card.DeckID]; ok && deck.Title != "" {
			deckTitle = deck.Title
		}
		text := fmt.Sprintf("<b>%s: %s</b>\n<pre>%s</pre>\nDue: %s",
			html.EscapeString(deckTitle),
			html.EscapeString(orDefault(item.Card.Title, "No Title")),
			html.EscapeString(orDefault(item.Card.Content, "No Content")),
			item.Due.Format(dueLayout))
		replies = append(replies, Reply{Text: text, HTML: true})
	}
	return replies
}

// callbackData trims s to the 64-byte callback limit without splitting a
// rune. Deck filters match substrings, so a trimmed title still selects its
// deck.
func callbackData(s string) string {
	if len(s) <= maxCallbackBytes {
		return s
	}
	cut := maxCallbackBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut])
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
