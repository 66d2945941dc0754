package state

import (
	"time"

	"github.com/five82/codecks-bot/internal/codecks"
)

// Deck is a cached Codecks deck. Decks only change on a full refresh.
type Deck struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	ProjectID string `json:"project"`
}

// Card is a cached Codecks card.
type Card struct {
	ID      string `json:"cardId"`
	Title   string `json:"title"`
	Content string `json:"content"`
	DeckID  string `json:"deckId"`
}

// DueCard pairs a card with the due dates found in its content.
type DueCard struct {
	Card    Card
	Due     time.Time // earliest valid due date
	Matches []string  // raw tokens in content order, e.g. "[05/01/25]"
}

// applyRemote overwrites the fields the remote returned and leaves the rest.
func (c Card) applyRemote(id string, remote codecks.Card) Card {
	c.ID = id
	if remote.Title != nil {
		c.Title = *remote.Title
	}
	if remote.Content != nil {
		c.Content = *remote.Content
	}
	if remote.DeckID != nil {
		c.DeckID = *remote.DeckID
	}
	return c
}

func decksFromPayload(payload *codecks.ProjectPayload) map[string]Deck {
	decks := make(map[string]Deck, len(payload.Decks))
	for key, d := range payload.Decks {
		id := d.ID
		if id == "" {
			id = key
		}
		decks[id] = Deck{ID: id, Title: d.Title, ProjectID: d.Project}
	}
	return decks
}

func cardsFromPayload(payload map[string]codecks.Card) map[string]Card {
	cards := make(map[string]Card, len(payload))
	for key, remote := range payload {
		id := cardKey(key, remote)
		cards[id] = Card{}.applyRemote(id, remote)
	}
	return cards
}

func cardKey(key string, remote codecks.Card) string {
	if remote.CardID != "" {
		return remote.CardID
	}
	return key
}
