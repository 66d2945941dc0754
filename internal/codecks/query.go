package codecks

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Query is the request body understood by the Codecks API.
type Query struct {
	Query map[string]any `json:"query"`
}

var cardFields = []any{"title", "content", "deckId"}

func rootQuery(account []any) Query {
	return Query{Query: map[string]any{
		"_root": []any{
			map[string]any{"account": account},
		},
	}}
}

func projectQuery() Query {
	return rootQuery([]any{
		"name",
		map[string]any{
			"decks": []any{
				"id",
				"title",
				"project",
				map[string]any{"cards": cardFields},
			},
		},
	})
}

// historyQuery asks the server for activities created strictly after since.
func historyQuery(since time.Time) (Query, error) {
	filter := map[string]any{
		"createdAt": map[string]any{
			"op":    "gt",
			"value": since.UTC().Format(TimestampLayout),
		},
	}
	relation, err := filteredRelation("activities", filter)
	if err != nil {
		return Query{}, err
	}
	return rootQuery([]any{
		map[string]any{relation: []any{"card", "createdAt", "changer"}},
	}), nil
}

func cardsQuery(ids []string) (Query, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	relation, err := filteredRelation("cards", map[string]any{"cardId": sorted})
	if err != nil {
		return Query{}, err
	}
	return rootQuery([]any{
		map[string]any{relation: cardFields},
	}), nil
}

// filteredRelation renders a relation name with an inline JSON filter, e.g.
// cards({"cardId":["a","b"]}).
func filteredRelation(name string, filter map[string]any) (string, error) {
	encoded, err := json.Marshal(filter)
	if err != nil {
		return "", fmt.Errorf("encode %s filter: %w", name, err)
	}
	return fmt.Sprintf("%s(%s)", name, encoded), nil
}
