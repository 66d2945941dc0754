package bot

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/five82/codecks-bot/internal/state"
)

type fakeReader struct {
	decks       map[string]state.Deck
	cards       []state.Card
	due         []state.DueCard
	lastFilter  string
	lastHorizon int
}

func (f *fakeReader) Decks() map[string]state.Deck { return f.decks }

func (f *fakeReader) Cards(deckFilter string) []state.Card {
	f.lastFilter = deckFilter
	return f.cards
}

func (f *fakeReader) Card(id string) (state.Card, bool) {
	for _, c := range f.cards {
		if c.ID == id {
			return c, true
		}
	}
	return state.Card{}, false
}

func (f *fakeReader) DueCards(horizonDays int) []state.DueCard {
	f.lastHorizon = horizonDays
	return f.due
}

func newTestRouter(reader *fakeReader, shutdown func()) *Router {
	return NewRouter(RouterOptions{
		Reader:       reader,
		AllowedUsers: []int64{42},
		Shutdown:     shutdown,
	})
}

func sampleReader() *fakeReader {
	return &fakeReader{
		decks: map[string]state.Deck{
			"d2": {ID: "d2", Title: "Sprint"},
			"d1": {ID: "d1", Title: "Backlog"},
		},
		cards: []state.Card{
			{ID: "c1", Title: "Fix <login>", Content: "a & b", DeckID: "d1"},
			{ID: "c2", Title: "", Content: "", DeckID: "d1"},
		},
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in       string
		wantName string
		wantArgs []string
		wantOK   bool
	}{
		{"/cards Backlog", "cards", []string{"Backlog"}, true},
		{"  /CardInfo@codecks_bot c1 Sprint Two ", "cardinfo", []string{"c1", "Sprint", "Two"}, true},
		{"/decks", "decks", []string{}, true},
		{"hello", "", nil, false},
		{"/", "", nil, false},
		{"", "", nil, false},
	}
	for _, tt := range tests {
		name, args, ok := ParseCommand(tt.in)
		if ok != tt.wantOK || name != tt.wantName {
			t.Fatalf("ParseCommand(%q) = %q, %v, want %q, %v", tt.in, name, ok, tt.wantName, tt.wantOK)
		}
		if ok && !reflect.DeepEqual(args, tt.wantArgs) {
			t.Fatalf("ParseCommand(%q) args = %#v, want %#v", tt.in, args, tt.wantArgs)
		}
	}
}

func TestHandle_UnauthorisedUser(t *testing.T) {
	stopped := false
	r := newTestRouter(sampleReader(), func() { stopped = true })

	for _, text := range []string{"/decks", "/stop", "/start"} {
		replies := r.Handle(Request{UserID: 7, Text: text})
		if len(replies) != 1 || replies[0].Text != ReplyUnauthorised {
			t.Fatalf("Handle(%q) = %+v, want unauthorised reply", text, replies)
		}
	}
	if stopped {
		t.Fatalf("unauthorised /stop triggered shutdown")
	}
}

func TestHandle_LocalRequestsSkipAllowList(t *testing.T) {
	r := newTestRouter(sampleReader(), nil)
	replies := r.Handle(Request{Text: "/help", Local: true})
	if len(replies) != 1 || replies[0].Text != ReplyHelp {
		t.Fatalf("Handle = %+v, want help reply", replies)
	}
}

func TestHandle_NonCommandAndUnknownCommand(t *testing.T) {
	r := newTestRouter(sampleReader(), nil)
	if got := r.Handle(Request{UserID: 42, Text: "just chatting"}); got != nil {
		t.Fatalf("Handle(plain text) = %+v, want nil", got)
	}
	if got := r.Handle(Request{UserID: 42, Text: "/reload"}); got != nil {
		t.Fatalf("Handle(/reload) = %+v, want nil", got)
	}
}

func TestHandle_DecksSortedWithButtons(t *testing.T) {
	r := newTestRouter(sampleReader(), nil)

	for _, text := range []string{"/decks", "/start"} {
		replies := r.Handle(Request{UserID: 42, Text: text})
		if len(replies) != 1 {
			t.Fatalf("Handle(%q) returned %d replies, want 1", text, len(replies))
		}
		want := [][]Button{
			{{Text: "Backlog", Data: "/cards Backlog"}},
			{{Text: "Sprint", Data: "/cards Sprint"}},
		}
		if replies[0].Text != "Decks:" || !reflect.DeepEqual(replies[0].Buttons, want) {
			t.Fatalf("Handle(%q) = %+v, want Decks: with %v", text, replies[0], want)
		}
	}
}

func TestHandle_CardsJoinsDeckTitle(t *testing.T) {
	reader := sampleReader()
	r := newTestRouter(reader, nil)

	replies := r.Handle(Request{UserID: 42, Text: "/cards Backlog Two"})
	if reader.lastFilter != "Backlog Two" {
		t.Fatalf("filter = %q, want %q", reader.lastFilter, "Backlog Two")
	}
	got := replies[0]
	if got.Text != "Cards for: Backlog Two" {
		t.Fatalf("Text = %q", got.Text)
	}
	want := [][]Button{
		{{Text: "Fix <login>", Data: "/cardinfo c1 Backlog Two"}},
		{{Text: "Err: No Title", Data: "/cardinfo c2 Backlog Two"}},
		{{Text: "[Return to decks]", Data: "/decks"}},
	}
	if !reflect.DeepEqual(got.Buttons, want) {
		t.Fatalf("Buttons = %v, want %v", got.Buttons, want)
	}
}

func TestHandle_CardInfo(t *testing.T) {
	r := newTestRouter(sampleReader(), nil)

	replies := r.Handle(Request{UserID: 42, Text: "/cardinfo c1 Backlog"})
	got := replies[0]
	if !got.HTML {
		t.Fatalf("HTML = false, want true")
	}
	wantText := "<b>Fix &lt;login&gt;</b>\n\n<pre>a &amp; b</pre>"
	if got.Text != wantText {
		t.Fatalf("Text = %q, want %q", got.Text, wantText)
	}
	wantButtons := [][]Button{{{Text: "[Return to Backlog]", Data: "/cards Backlog"}}}
	if !reflect.DeepEqual(got.Buttons, wantButtons) {
		t.Fatalf("Buttons = %v, want %v", got.Buttons, wantButtons)
	}

	replies = r.Handle(Request{UserID: 42, Text: "/cardinfo c2"})
	if replies[0].Text != "<b>No Title</b>\n\n<pre>No Content</pre>" {
		t.Fatalf("Text = %q, want defaults", replies[0].Text)
	}
	if replies[0].Buttons[0][0].Data != "/decks" {
		t.Fatalf("back button = %+v, want /decks", replies[0].Buttons[0][0])
	}
}

func TestHandle_CardInfoErrors(t *testing.T) {
	r := newTestRouter(sampleReader(), nil)

	if got := r.Handle(Request{UserID: 42, Text: "/cardinfo"}); got[0].Text != ReplyNoCardID {
		t.Fatalf("Handle(/cardinfo) = %q, want %q", got[0].Text, ReplyNoCardID)
	}
	if got := r.Handle(Request{UserID: 42, Text: "/cardinfo nope"}); got[0].Text != ReplyCardNotFound {
		t.Fatalf("Handle(/cardinfo nope) = %q, want %q", got[0].Text, ReplyCardNotFound)
	}
}

func TestHandle_Upcoming(t *testing.T) {
	reader := sampleReader()
	reader.due = []state.DueCard{
		{
			Card:    state.Card{ID: "c1", Title: "Ship", Content: "by [05/01/25]", DeckID: "d1"},
			Due:     time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
			Matches: []string{"[05/01/25]"},
		},
		{
			Card:    state.Card{ID: "c9", Title: "Orphan", Content: "[07/01/25]", DeckID: "gone"},
			Due:     time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC),
			Matches: []string{"[07/01/25]"},
		},
	}
	r := newTestRouter(reader, nil)

	replies := r.Handle(Request{UserID: 42, Text: "/upcoming"})
	if reader.lastHorizon != defaultUpcomingDays {
		t.Fatalf("horizon = %d, want %d", reader.lastHorizon, defaultUpcomingDays)
	}
	if len(replies) != 2 {
		t.Fatalf("replies = %d, want 2", len(replies))
	}
	want := "<b>Backlog: Ship</b>\n<pre>by [05/01/25]</pre>\nDue: [05/01/25]"
	if replies[0].Text != want || !replies[0].HTML {
		t.Fatalf("reply[0] = %+v, want %q", replies[0], want)
	}
	if !strings.HasPrefix(replies[1].Text, "<b>Unknown Deck: Orphan</b>") {
		t.Fatalf("reply[1] = %q, want Unknown Deck prefix", replies[1].Text)
	}

	r.Handle(Request{UserID: 42, Text: "/upcoming 7"})
	if reader.lastHorizon != 7 {
		t.Fatalf("horizon = %d, want 7", reader.lastHorizon)
	}
}

func TestHandle_UpcomingInvalidAndEmpty(t *testing.T) {
	reader := sampleReader()
	r := newTestRouter(reader, nil)

	if got := r.Handle(Request{UserID: 42, Text: "/upcoming soon"}); got[0].Text != ReplyInvalidArg {
		t.Fatalf("Handle(/upcoming soon) = %q, want %q", got[0].Text, ReplyInvalidArg)
	}
	if got := r.Handle(Request{UserID: 42, Text: "/upcoming"}); got[0].Text != ReplyNoUpcoming {
		t.Fatalf("Handle(/upcoming) = %q, want %q", got[0].Text, ReplyNoUpcoming)
	}
}

func TestHandle_StopCallsShutdown(t *testing.T) {
	calls := 0
	r := newTestRouter(sampleReader(), func() { calls++ })

	replies := r.Handle(Request{UserID: 42, Text: "/stop"})
	if len(replies) != 1 || replies[0].Text != ReplyShutdown {
		t.Fatalf("Handle(/stop) = %+v", replies)
	}
	if calls != 1 {
		t.Fatalf("shutdown calls = %d, want 1", calls)
	}
}

func TestHandle_CannedReplies(t *testing.T) {
	r := newTestRouter(sampleReader(), nil)
	tests := map[string]string{
		"/help": ReplyHelp,
		"/mew":  ReplyMew,
	}
	for text, want := range tests {
		if got := r.Handle(Request{UserID: 42, Text: text}); got[0].Text != want {
			t.Fatalf("Handle(%q) = %q, want %q", text, got[0].Text, want)
		}
	}
}

func TestCallbackData_TrimsOnRuneBoundary(t *testing.T) {
	long := "/cards " + strings.Repeat("é", 40)
	got := callbackData(long)
	if len(got) > maxCallbackBytes {
		t.Fatalf("len = %d, want <= %d", len(got), maxCallbackBytes)
	}
	if !strings.HasPrefix(long, got) {
		t.Fatalf("callbackData = %q, want a prefix of the input", got)
	}
	if short := "/decks"; callbackData(short) != short {
		t.Fatalf("callbackData(%q) changed a short value", short)
	}
}
