package codecks

import (
	"slices"
	"time"
)

// TimestampLayout is the second-precision UTC layout used in history filters
// and in the on-disk snapshot.
const TimestampLayout = "2006-01-02T15:04:05Z"

// ProjectPayload mirrors the normalized response of a full account query.
// Codecks returns entities keyed by id rather than nested under their parent.
type ProjectPayload struct {
	Decks map[string]Deck `json:"deck"`
	Cards map[string]Card `json:"card"`
}

// ActivityPayload mirrors the response of a history query.
type ActivityPayload struct {
	Activities map[string]Activity `json:"activity"`
}

// CardPayload mirrors the response of a point fetch for cards.
type CardPayload struct {
	Cards map[string]Card `json:"card"`
}

// Deck describes a Codecks deck.
type Deck struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Project string `json:"project"`
}

// Card holds the card fields returned by the API. Fields are pointers so a
// merge can tell an omitted field from an empty one.
type Card struct {
	CardID  string  `json:"cardId"`
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	DeckID  *string `json:"deckId,omitempty"`
}

// Activity is a single change record from the account history.
type Activity struct {
	ID        string `json:"id"`
	Card      string `json:"card"`
	CreatedAt string `json:"createdAt"`
	Changer   string `json:"changer"`
}

// ParsedCreatedAt returns the activity timestamp, or the zero time when it
// cannot be parsed.
func (a Activity) ParsedCreatedAt() time.Time {
	if a.CreatedAt == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, a.CreatedAt); err == nil {
			return t
		}
	}
	return time.Time{}
}

// CardIDs returns the distinct card ids referenced by the activities, in the
// order they are first seen when iterating activity ids in sorted order.
func (p *ActivityPayload) CardIDs() []string {
	if p == nil || len(p.Activities) == 0 {
		return nil
	}
	keys := make([]string, 0, len(p.Activities))
	for id := range p.Activities {
		keys = append(keys, id)
	}
	slices.Sort(keys)

	seen := make(map[string]struct{}, len(keys))
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		card := p.Activities[key].Card
		if card == "" {
			continue
		}
		if _, ok := seen[card]; ok {
			continue
		}
		seen[card] = struct{}{}
		ids = append(ids, card)
	}
	return ids
}
