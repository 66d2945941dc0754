package state

import (
	"cmp"
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/five82/codecks-bot/internal/codecks"
)

// Observer receives refresh outcomes and snapshot sizes. Implemented by the
// metrics package; nil disables reporting.
type Observer interface {
	ObserveRefresh(outcome string)
	ObserveSnapshot(decks, cards int, lastUpdate time.Time)
}

// Options configure a Store.
type Options struct {
	Fetcher  codecks.Fetcher
	Mirror   Mirror
	Logger   *slog.Logger
	Observer Observer
	Now      func() time.Time // nil uses time.Now
}

// Store owns the cached project snapshot. Reads may run concurrently with a
// refresh; installed maps are never mutated, so a reader that grabbed a map
// under the lock keeps a point-in-time view after releasing it.
type Store struct {
	fetcher  codecks.Fetcher
	mirror   Mirror
	logger   *slog.Logger
	observer Observer
	now      func() time.Time

	dataMu sync.RWMutex
	decks  map[string]Deck
	cards  map[string]Card
	loaded bool

	tsMu       sync.RWMutex
	lastUpdate time.Time

	flight    singleflight.Group
	persistMu sync.Mutex
}

// NewStore returns an empty Store. Call Bootstrap before serving reads.
func NewStore(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		fetcher:  opts.Fetcher,
		mirror:   opts.Mirror,
		logger:   logger.With("component", "state"),
		observer: opts.Observer,
		now:      now,
		decks:    map[string]Deck{},
		cards:    map[string]Card{},
	}
}

// Bootstrapped reports whether a snapshot has been installed from the mirror
// or a full fetch.
func (s *Store) Bootstrapped() bool {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return s.loaded
}

// LastUpdate returns the time of the last successful refresh.
func (s *Store) LastUpdate() time.Time {
	s.tsMu.RLock()
	defer s.tsMu.RUnlock()
	return s.lastUpdate
}

// Decks returns a copy of the cached decks keyed by id.
func (s *Store) Decks() map[string]Deck {
	s.dataMu.RLock()
	decks := s.decks
	s.dataMu.RUnlock()
	return maps.Clone(decks)
}

// Cards returns the cards of every deck whose title contains deckFilter,
// case-insensitively. An empty filter matches all decks.
func (s *Store) Cards(deckFilter string) []Card {
	s.dataMu.RLock()
	decks, cards := s.decks, s.cards
	s.dataMu.RUnlock()

	needle := strings.ToLower(deckFilter)
	matched := make(map[string]struct{})
	for id, deck := range decks {
		if strings.Contains(strings.ToLower(deck.Title), needle) {
			matched[id] = struct{}{}
		}
	}

	out := make([]Card, 0)
	for _, card := range cards {
		if _, ok := matched[card.DeckID]; ok {
			out = append(out, card)
		}
	}
	slices.SortFunc(out, func(a, b Card) int {
		return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Card returns the cached card with the given id.
func (s *Store) Card(id string) (Card, bool) {
	s.dataMu.RLock()
	cards := s.cards
	s.dataMu.RUnlock()

	card, ok := cards[id]
	return card, ok
}

// DueCards returns cards with a due date, earliest first. When horizonDays is
// positive only cards due on or before now+horizonDays are returned.
func (s *Store) DueCards(horizonDays int) []DueCard {
	s.dataMu.RLock()
	cards := s.cards
	s.dataMu.RUnlock()

	return dueCards(cards, s.now(), horizonDays)
}

// install replaces the snapshot wholesale.
func (s *Store) install(decks map[string]Deck, cards map[string]Card, lastUpdate time.Time) {
	s.dataMu.Lock()
	s.decks = decks
	s.cards = cards
	s.loaded = true
	s.dataMu.Unlock()

	s.advance(lastUpdate)
}

// installCards swaps in an already merged card map.
func (s *Store) installCards(cards map[string]Card, lastUpdate time.Time) {
	s.dataMu.Lock()
	s.cards = cards
	s.dataMu.Unlock()

	s.advance(lastUpdate)
}

// advance moves lastUpdate forward; it never moves backwards.
func (s *Store) advance(t time.Time) {
	s.tsMu.Lock()
	defer s.tsMu.Unlock()
	if t.After(s.lastUpdate) {
		s.lastUpdate = t
	}
}

func (s *Store) document() Document {
	s.dataMu.RLock()
	decks, cards := s.decks, s.cards
	s.dataMu.RUnlock()
	return newDocument(decks, cards, s.LastUpdate())
}

// persist writes the current snapshot to the mirror. Failures are logged and
// leave the in-memory snapshot authoritative.
func (s *Store) persist(ctx context.Context) {
	doc := s.document()
	s.report(doc)
	if s.mirror == nil {
		return
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.mirror.Save(ctx, doc); err != nil {
		s.logger.Error("failed to save project data to mirror", "error", err)
		return
	}
	s.logger.Debug("project data saved", "last_update", doc.LastUpdate, "cards", len(doc.Cards))
}

func (s *Store) report(doc Document) {
	if s.observer == nil {
		return
	}
	t, _ := doc.ParsedLastUpdate()
	s.observer.ObserveSnapshot(len(doc.Decks), len(doc.Cards), t)
}

func (s *Store) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveRefresh(outcome)
	}
}

// cycleStart is the timestamp a cycle advances to. It is taken before the
// remote call and truncated to the mirror's second precision, so activity
// landing during the call falls into the next window.
func (s *Store) cycleStart() time.Time {
	return s.now().UTC().Truncate(time.Second)
}
