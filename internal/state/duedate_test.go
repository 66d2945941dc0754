package state

import (
	"context"
	"testing"
	"time"

	"github.com/five82/codecks-bot/internal/codecks"
)

func TestParseDueDates(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    time.Time
		ok      bool
		matches int
	}{
		{"none", "no dates here", time.Time{}, false, 0},
		{"single", "due [01/02/24]", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), true, 1},
		{"earliest wins", "[10/03/24] then [05/03/24]", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true, 2},
		{"invalid skipped", "[31/02/24] [15/04/24]", time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), true, 2},
		{"only invalid", "[99/99/99]", time.Time{}, false, 1},
		{"unbracketed ignored", "05/01/25", time.Time{}, false, 0},
		{"four digit year ignored", "[05/01/2025]", time.Time{}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, got, ok := ParseDueDates(tt.content)
			if ok != tt.ok || !got.Equal(tt.want) || len(matches) != tt.matches {
				t.Fatalf("ParseDueDates(%q) = (%v, %v, %v), want (%d matches, %v, %v)",
					tt.content, matches, got, ok, tt.matches, tt.want, tt.ok)
			}
		})
	}
}

func dueStore(t *testing.T, now time.Time, contents map[string]string) *Store {
	t.Helper()
	cards := make(map[string]codecks.Card, len(contents))
	for id, content := range contents {
		cards[id] = codecks.Card{CardID: id, Title: ptr(id), Content: ptr(content), DeckID: ptr("D1")}
	}
	f := &fakeFetcher{project: &codecks.ProjectPayload{
		Decks: map[string]codecks.Deck{"D1": {ID: "D1", Title: "Ops"}},
		Cards: cards,
	}}
	s := newTestStore(t, f, &memMirror{}, &fakeClock{now: now})
	if err := s.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap returned error: %v", err)
	}
	return s
}

func TestDueCards_HorizonFilter(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := dueStore(t, now, map[string]string{"C1": "[05/01/25] renew"})

	if got := s.DueCards(10); len(got) != 1 || got[0].Card.ID != "C1" {
		t.Fatalf("DueCards(10) = %#v, want C1", got)
	}
	if got := s.DueCards(2); len(got) != 0 {
		t.Fatalf("DueCards(2) = %#v, want none", got)
	}
	if got := s.DueCards(0); len(got) != 1 {
		t.Fatalf("DueCards(0) = %#v, want unfiltered C1", got)
	}
}

func TestDueCards_SortedAndExcludesUndated(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := dueStore(t, now, map[string]string{
		"late":    "ship [20/06/25]",
		"early":   "[02/01/25] and [30/12/25]",
		"past":    "overdue [15/12/24]",
		"undated": "nothing to see",
		"bogus":   "[45/13/25]",
		"tie":     "[02/01/25]",
	})

	tests := []struct {
		days int
		want []string
	}{
		{0, []string{"past", "early", "tie", "late"}},
		{-3, []string{"past", "early", "tie", "late"}},
		{30, []string{"past", "early", "tie"}},
		{1, []string{"past", "early", "tie"}},
	}
	for _, tt := range tests {
		got := s.DueCards(tt.days)
		ids := make([]string, 0, len(got))
		for i, due := range got {
			ids = append(ids, due.Card.ID)
			if i > 0 && due.Due.Before(got[i-1].Due) {
				t.Fatalf("DueCards(%d) not sorted: %v before %v", tt.days, got[i-1].Due, due.Due)
			}
		}
		if len(ids) != len(tt.want) {
			t.Fatalf("DueCards(%d) = %v, want %v", tt.days, ids, tt.want)
		}
		for i := range ids {
			if ids[i] != tt.want[i] {
				t.Fatalf("DueCards(%d) = %v, want %v", tt.days, ids, tt.want)
			}
		}
	}

	early := s.DueCards(0)[1]
	if len(early.Matches) != 2 || early.Matches[0] != "[02/01/25]" {
		t.Fatalf("matches = %v, want both tokens in content order", early.Matches)
	}
}
