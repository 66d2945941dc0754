package state

import (
	"regexp"
	"sort"
	"time"
)

// dueTokenPattern matches a bracketed day/month/two-digit-year token.
var dueTokenPattern = regexp.MustCompile(`\[\d{2}/\d{2}/\d{2}\]`)

const dueTokenLayout = "[02/01/06]"

// ParseDueDates returns every due token in content and the earliest one that
// is a real calendar date. ok is false when no token parses.
func ParseDueDates(content string) (matches []string, earliest time.Time, ok bool) {
	matches = dueTokenPattern.FindAllString(content, -1)
	for _, token := range matches {
		due, err := time.ParseInLocation(dueTokenLayout, token, time.UTC)
		if err != nil {
			continue
		}
		if !ok || due.Before(earliest) {
			earliest = due
			ok = true
		}
	}
	return matches, earliest, ok
}

// dueCards selects cards carrying a due date, optionally limited to those due
// on or before now+horizonDays, sorted by due date.
func dueCards(cards map[string]Card, now time.Time, horizonDays int) []DueCard {
	var deadline time.Time
	if horizonDays > 0 {
		deadline = now.UTC().AddDate(0, 0, horizonDays)
	}

	due := make([]DueCard, 0)
	for _, card := range cards {
		matches, earliest, ok := ParseDueDates(card.Content)
		if !ok {
			continue
		}
		if horizonDays > 0 && earliest.After(deadline) {
			continue
		}
		due = append(due, DueCard{Card: card, Due: earliest, Matches: matches})
	}

	sort.Slice(due, func(i, j int) bool {
		if !due[i].Due.Equal(due[j].Due) {
			return due[i].Due.Before(due[j].Due)
		}
		return due[i].Card.ID < due[j].Card.ID
	})
	return due
}
